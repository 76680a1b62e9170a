package catalog

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/media"
	"github.com/M-casado/watercolour-processing/models"
)

// editable returns the image if it exists, is derived and has a file on disk.
func (s *Service) editable(imageID int64) (*models.Image, error) {
	img, err := s.store.GetImageByID(imageID)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, fmt.Errorf("image %d: %w", imageID, ErrImageNotFound)
	}
	if img.IsRaw {
		return nil, fmt.Errorf("image %d: %w", imageID, ErrRawImage)
	}
	if img.FilePath == nil || *img.FilePath == "" {
		return nil, fmt.Errorf("image %d has no file path: %w", imageID, ErrInvalidEdit)
	}
	return img, nil
}

// Crop keeps rect of a derived image and marks it cropped.
func (s *Service) Crop(imageID int64, rect image.Rectangle) error {
	img, err := s.editable(imageID)
	if err != nil {
		return err
	}
	if err := media.Crop(*img.FilePath, rect); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}

	yes := true
	if err := s.store.UpdateImage(imageID, database.ImageUpdate{
		Cropped:     &yes,
		CroppedDate: database.Set(s.timestamp()),
	}); err != nil {
		return err
	}
	s.log.Info("cropped image", "image_id", imageID, "rect", rect.String())
	s.refreshThumbnail(img)
	return nil
}

// Rotate turns a derived image counter-clockwise by degrees. The stored
// rotation accumulates and is kept in [0, 360).
func (s *Service) Rotate(imageID int64, degrees int) error {
	img, err := s.editable(imageID)
	if err != nil {
		return err
	}
	if err := media.Rotate(*img.FilePath, float64(degrees)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}

	total := ((img.RotationDegrees+degrees)%360 + 360) % 360
	yes := true
	if err := s.store.UpdateImage(imageID, database.ImageUpdate{
		Rotated:         &yes,
		RotatedDate:     database.Set(s.timestamp()),
		RotationDegrees: &total,
	}); err != nil {
		return err
	}
	s.log.Info("rotated image", "image_id", imageID, "degrees", degrees, "total", total)
	s.refreshThumbnail(img)
	return nil
}

// Adjust scales brightness and contrast of a derived image; 1.0 is unchanged.
func (s *Service) Adjust(imageID int64, brightness, contrast float64) error {
	img, err := s.editable(imageID)
	if err != nil {
		return err
	}
	if err := media.Adjust(*img.FilePath, brightness, contrast); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}

	yes := true
	if err := s.store.UpdateImage(imageID, database.ImageUpdate{
		Adjusted:     &yes,
		AdjustedDate: database.Set(s.timestamp()),
	}); err != nil {
		return err
	}
	s.log.Info("adjusted image", "image_id", imageID, "brightness", brightness, "contrast", contrast)
	s.refreshThumbnail(img)
	return nil
}

// RegisterDerived records a file converted from parentID outside the catalogue,
// such as a developed TIFF of a raw capture. It is deduplicated by fingerprint
// like ingested files.
func (s *Service) RegisterDerived(parentID int64, path, pipelineVersion string) (int64, error) {
	parent, err := s.store.GetImageByID(parentID)
	if err != nil {
		return 0, err
	}
	if parent == nil {
		return 0, fmt.Errorf("parent image %d: %w", parentID, ErrImageNotFound)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	checksum, err := media.Fingerprint(abs)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
	}

	img := database.NewImage{
		Filename:      filepath.Base(abs),
		FilePath:      abs,
		MD5Checksum:   checksum,
		IsRaw:         false,
		ParentImageID: &parentID,
		DateTaken:     parent.DateTaken,
	}
	if taken := media.CaptureTime(abs); taken != "" {
		img.DateTaken = &taken
	}
	if pipelineVersion != "" {
		img.PipelineVersion = &pipelineVersion
	}

	id, err := s.store.InsertImage(img)
	if err != nil {
		return 0, err
	}
	s.log.Info("registered derived image", "image_id", id, "parent_id", parentID, "path", abs)

	if s.thumbs != nil {
		if _, err := s.thumbs.GenerateThumbnail(abs, id); err != nil {
			s.log.Warn("thumbnail generation failed", "image_id", id, "error", err)
		}
	}
	return id, nil
}

func (s *Service) refreshThumbnail(img *models.Image) {
	if s.thumbs == nil {
		return
	}
	if _, err := s.thumbs.GenerateThumbnail(*img.FilePath, img.ID); err != nil {
		s.log.Warn("thumbnail regeneration failed", "image_id", img.ID, "error", err)
	}
}
