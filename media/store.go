package media

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/M-casado/watercolour-processing/logging"
)

// Store saves and locates derived assets such as thumbnails.
type Store interface {
	// Save writes data to filename inside the asset type's directory and
	// returns the path relative to the store root.
	Save(assetType AssetType, filename string, data io.Reader) (string, error)
	// Get opens an asset by its relative path.
	Get(relativePath string) (*os.File, os.FileInfo, error)
	// GetFullPath returns the absolute filesystem path for a relative asset path.
	GetFullPath(relativePath string) (string, error)
	// RelativePath returns the relative path an asset of the given type and name would have.
	RelativePath(assetType AssetType, filename string) (string, error)
	// EnsureDir makes sure the asset type's directory exists.
	EnsureDir(assetType AssetType) (string, error)
}

// LocalStorage implements Store on the local filesystem.
type LocalStorage struct {
	basePath        string
	resolvedPathMap map[AssetType]string
	log             *slog.Logger
}

// NewLocalStorage roots a store at basePath. subDirs names the directory of
// each asset type under it.
func NewLocalStorage(basePath string, subDirs map[AssetType]string, logger *slog.Logger) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}
	if err := os.MkdirAll(absBasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	resolved := make(map[AssetType]string, len(subDirs))
	for assetType, subDir := range subDirs {
		fullPath := filepath.Join(absBasePath, subDir)
		if !within(absBasePath, fullPath) {
			return nil, fmt.Errorf("invalid subdirectory configuration: '%s' resolves outside base path '%s'", subDir, absBasePath)
		}
		resolved[assetType] = fullPath
	}

	return &LocalStorage{
		basePath:        absBasePath,
		resolvedPathMap: resolved,
		log:             logging.OrDiscard(logger).With("component", "media.store"),
	}, nil
}

// NewThumbnailStorage is a LocalStorage whose thumbnail directory is dir itself.
func NewThumbnailStorage(dir string, logger *slog.Logger) (*LocalStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid thumbnail path '%s': %w", dir, err)
	}
	return NewLocalStorage(filepath.Dir(abs), map[AssetType]string{AssetTypeThumbnail: filepath.Base(abs)}, logger)
}

// within reports whether p is base or lies beneath it.
func within(base, p string) bool {
	base, p = filepath.Clean(base), filepath.Clean(p)
	if p == base {
		return true
	}
	if !strings.HasSuffix(base, string(filepath.Separator)) {
		base += string(filepath.Separator)
	}
	return strings.HasPrefix(p, base)
}

func (ls *LocalStorage) getAssetTypeDir(assetType AssetType) (string, error) {
	dirPath, ok := ls.resolvedPathMap[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' is not configured", assetType)
	}
	return dirPath, nil
}

// EnsureDir creates the directory for the asset type if it doesn't exist.
func (ls *LocalStorage) EnsureDir(assetType AssetType) (string, error) {
	dirPath, err := ls.getAssetTypeDir(assetType)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure directory '%s': %w", dirPath, err)
	}
	return dirPath, nil
}

// Save writes data under a temporary name and renames it into place, so readers
// never observe a partially written asset. An existing asset is replaced.
func (ls *LocalStorage) Save(assetType AssetType, filename string, data io.Reader) (string, error) {
	targetDir, err := ls.EnsureDir(assetType)
	if err != nil {
		return "", err
	}

	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid asset filename '%s'", filename)
	}
	fullSavePath := filepath.Join(targetDir, filename)

	tmpPath := filepath.Join(targetDir, "."+uuid.NewString()+".tmp")
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file in '%s': %w", targetDir, err)
	}
	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close '%s': %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, fullSavePath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move asset into place at '%s': %w", fullSavePath, err)
	}

	relativePath, err := filepath.Rel(ls.basePath, fullSavePath)
	if err != nil {
		return "", fmt.Errorf("internal error calculating relative path: %w", err)
	}

	ls.log.Debug("saved asset", "path", fullSavePath)
	return filepath.ToSlash(relativePath), nil
}

// Get opens an asset for reading. A missing asset yields an error matching
// fs.ErrNotExist.
func (ls *LocalStorage) Get(relativePath string) (*os.File, os.FileInfo, error) {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open asset '%s': %w", relativePath, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat asset '%s': %w", relativePath, err)
	}
	return file, info, nil
}

// GetFullPath calculates the absolute path and refuses anything outside the store.
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	fullPath := filepath.Join(ls.basePath, filepath.Clean(filepath.FromSlash(relativePath)))
	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", relativePath, err)
	}
	if !within(ls.basePath, absFullPath) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", relativePath)
	}
	return absFullPath, nil
}

// RelativePath is where Save would put filename for the asset type.
func (ls *LocalStorage) RelativePath(assetType AssetType, filename string) (string, error) {
	dir, err := ls.getAssetTypeDir(assetType)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(ls.basePath, filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
