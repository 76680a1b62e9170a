package media

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// fingerprintChunkSize is how much of a file is read per hash update.
const fingerprintChunkSize = 4096

// Fingerprint returns the lowercase hex MD5 of the file's bytes. It identifies
// content for deduplication only; name, path and timestamps play no part.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for fingerprinting: %w", path, err)
	}
	defer f.Close()

	sum, err := FingerprintReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}
	return sum, nil
}

// FingerprintReader hashes r until EOF in fixed-size chunks.
func FingerprintReader(r io.Reader) (string, error) {
	h := md5.New()
	buf := make([]byte, fingerprintChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
