package media

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Crop keeps only rect of the image at path, rewriting the file in place.
func Crop(path string, rect image.Rectangle) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for cropping: %w", path, err)
	}
	rect = rect.Canon()
	if rect.Empty() || !rect.In(img.Bounds()) {
		return fmt.Errorf("crop rectangle %v is outside image bounds %v", rect, img.Bounds())
	}
	return saveInPlace(path, imaging.Crop(img, rect))
}

// Rotate turns the image counter-clockwise by degrees. The canvas grows to fit
// and uncovered corners are transparent.
func Rotate(path string, degrees float64) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for rotation: %w", path, err)
	}
	return saveInPlace(path, imaging.Rotate(img, degrees, color.Transparent))
}

// Adjust scales brightness and contrast by the given factors; 1.0 leaves a
// property unchanged, 1.2 raises it by 20%.
func Adjust(path string, brightness, contrast float64) error {
	if brightness < 0 || contrast < 0 {
		return fmt.Errorf("adjustment factors must not be negative (brightness %.2f, contrast %.2f)", brightness, contrast)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for adjustment: %w", path, err)
	}
	out := imaging.AdjustBrightness(img, factorToPercent(brightness))
	out = imaging.AdjustContrast(out, factorToPercent(contrast))
	return saveInPlace(path, out)
}

func factorToPercent(f float64) float64 {
	p := (f - 1) * 100
	if p > 100 {
		return 100
	}
	return p
}

// saveInPlace encodes img in the format given by path's extension next to
// path and renames it over the original.
func saveInPlace(path string, img image.Image) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	tmp := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	if err := imaging.Encode(f, img, format); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
