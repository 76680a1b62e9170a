package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/M-casado/watercolour-processing/logging"
)

// Processor turns catalogue images into derived assets. It relies on a Store
// for saving the results.
type Processor struct {
	store   Store
	maxSize int
	log     *slog.Logger
}

// NewProcessor returns a Processor writing thumbnails no larger than maxSize
// on either side. A non-positive maxSize uses DefaultThumbnailMaxSize.
func NewProcessor(store Store, maxSize int, logger *slog.Logger) *Processor {
	if maxSize <= 0 {
		maxSize = DefaultThumbnailMaxSize
	}
	return &Processor{store: store, maxSize: maxSize, log: logging.OrDiscard(logger).With("component", "media.processor")}
}

// ThumbnailName is the conventional file name of an image's thumbnail.
func ThumbnailName(imageID int64) string {
	return strconv.FormatInt(imageID, 10) + ThumbnailFileExtension
}

// OpenThumbnail opens an image's thumbnail for reading. The caller closes the
// file. An image without a thumbnail yields an error matching fs.ErrNotExist.
func (p *Processor) OpenThumbnail(imageID int64) (*os.File, os.FileInfo, error) {
	rel, err := p.store.RelativePath(AssetTypeThumbnail, ThumbnailName(imageID))
	if err != nil {
		return nil, nil, err
	}
	return p.store.Get(rel)
}

// GenerateThumbnail fits the image at srcPath into maxSize x maxSize keeping its
// aspect ratio and saves it as <imageID>.png, replacing any earlier thumbnail.
// It returns the thumbnail's path relative to the store.
func (p *Processor) GenerateThumbnail(srcPath string, imageID int64) (string, error) {
	src, err := decodeSource(srcPath)
	if err != nil {
		return "", err
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", fmt.Errorf("invalid original image dimensions: %dx%d", b.Dx(), b.Dy())
	}

	// Fit never upscales
	thumb := imaging.Fit(src, p.maxSize, p.maxSize, imaging.Lanczos)

	reader, writer := io.Pipe()
	go func() {
		err := imaging.Encode(writer, thumb, imaging.PNG)
		if err != nil {
			writer.CloseWithError(fmt.Errorf("thumbnail encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	savedRelPath, err := p.store.Save(AssetTypeThumbnail, ThumbnailName(imageID), reader)
	reader.Close()
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail for image %d: %w", imageID, err)
	}

	p.log.Debug("generated thumbnail", "image_id", imageID, "source", srcPath, "path", savedRelPath,
		"width", thumb.Bounds().Dx(), "height", thumb.Bounds().Dy())
	return savedRelPath, nil
}

// decodeSource opens a raster image, falling back to the JPEG preview embedded
// in the EXIF block for raw formats the decoders don't understand.
func decodeSource(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	preview, perr := embeddedPreview(path)
	if perr != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	img, perr = imaging.Decode(bytes.NewReader(preview), imaging.AutoOrientation(true))
	if perr != nil {
		return nil, fmt.Errorf("failed to decode embedded preview of %s: %w", path, perr)
	}
	return img, nil
}

func embeddedPreview(path string) (preview []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exif decoder panicked: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, err
	}
	return x.JpegThumbnail()
}
