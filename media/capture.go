package media

import (
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

const (
	exifDateTimeLayout = "2006:01:02 15:04:05"
	// CaptureTimeLayout is the normalised form returned by CaptureTime.
	CaptureTimeLayout = "2006-01-02T15:04:05"
)

// CaptureTime reads the EXIF DateTimeOriginal tag of the file and returns it
// as YYYY-MM-DDTHH:MM:SS. It returns "" when the time cannot be recovered for
// any reason: a missing tag, an unreadable file or a malformed value.
func CaptureTime(path string) (taken string) {
	// goexif panics on some truncated maker notes
	defer func() {
		if recover() != nil {
			taken = ""
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return ""
	}
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil || tag == nil {
		return ""
	}
	raw, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return normalizeExifDateTime(raw)
}

// normalizeExifDateTime converts "2006:01:02 15:04:05" to "2006-01-02T15:04:05".
func normalizeExifDateTime(raw string) string {
	raw = strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	t, err := time.Parse(exifDateTimeLayout, raw)
	if err != nil {
		return ""
	}
	return t.Format(CaptureTimeLayout)
}
