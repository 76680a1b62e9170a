// Package catalog layers painting and image-edit operations over the store.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/logging"
	"github.com/M-casado/watercolour-processing/models"
)

var (
	ErrImageNotFound    = errors.New("image not found")
	ErrPaintingNotFound = errors.New("painting not found")
	// ErrRawImage is returned when an edit targets a raw capture; only derived
	// artifacts are modified on disk.
	ErrRawImage = errors.New("raw captures cannot be edited")
	// ErrInvalidEdit covers malformed edit parameters.
	ErrInvalidEdit = errors.New("invalid edit")
)

// Store is the subset of database.Store the service needs.
type Store interface {
	InsertImage(img database.NewImage) (int64, error)
	GetImageByID(id int64) (*models.Image, error)
	UpdateImage(id int64, u database.ImageUpdate) error
	InsertPainting(p database.NewPainting) (int64, error)
	GetPaintingByID(id int64) (*models.Painting, error)
	UpdatePainting(id int64, u database.PaintingUpdate) error
	LinkPaintingToImage(paintingID, imageID int64) error
	InsertRating(paintingID, imageID int64, score int, user *string) (int64, error)
	ImagesForPainting(paintingID int64) ([]models.Image, error)
}

// Thumbnailer regenerates an image's thumbnail after its file changes.
type Thumbnailer interface {
	GenerateThumbnail(srcPath string, imageID int64) (string, error)
}

type Service struct {
	store  Store
	thumbs Thumbnailer
	log    *slog.Logger
	now    func() time.Time
}

// NewService returns a Service. thumbs may be nil.
func NewService(store Store, thumbs Thumbnailer, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		thumbs: thumbs,
		log:    logging.OrDiscard(logger).With("component", "catalog"),
		now:    time.Now,
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(database.TimestampLayout)
}

// CreatePainting records a painting.
func (s *Service) CreatePainting(p database.NewPainting) (int64, error) {
	id, err := s.store.InsertPainting(p)
	if err != nil {
		return 0, err
	}
	s.log.Info("created painting", "painting_id", id)
	return id, nil
}

// UpdatePainting applies a partial update to a painting.
func (s *Service) UpdatePainting(id int64, u database.PaintingUpdate) error {
	return s.store.UpdatePainting(id, u)
}

// Painting returns a painting or ErrPaintingNotFound.
func (s *Service) Painting(id int64) (*models.Painting, error) {
	p, err := s.store.GetPaintingByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("painting %d: %w", id, ErrPaintingNotFound)
	}
	return p, nil
}

// AttachImage links an image to a painting.
func (s *Service) AttachImage(paintingID, imageID int64) error {
	if err := s.store.LinkPaintingToImage(paintingID, imageID); err != nil {
		return err
	}
	s.log.Info("attached image to painting", "painting_id", paintingID, "image_id", imageID)
	return nil
}

// Rate records a 1-5 score. The range is enforced by the store.
func (s *Service) Rate(paintingID, imageID int64, score int, user *string) (int64, error) {
	return s.store.InsertRating(paintingID, imageID, score, user)
}

// Images lists the images linked to a painting.
func (s *Service) Images(paintingID int64) ([]models.Image, error) {
	if _, err := s.Painting(paintingID); err != nil {
		return nil, err
	}
	return s.store.ImagesForPainting(paintingID)
}

// InferYear sets the painting's inferred year to the earliest capture year of
// its linked images and returns it. When no linked image has a capture time the
// painting is left unchanged and nil is returned.
func (s *Service) InferYear(paintingID int64) (*int, error) {
	images, err := s.Images(paintingID)
	if err != nil {
		return nil, err
	}

	var earliest *int
	for _, img := range images {
		if img.DateTaken == nil {
			continue
		}
		t, err := time.Parse(database.TimestampLayout, *img.DateTaken)
		if err != nil {
			s.log.Debug("ignoring unparsable capture time", "image_id", img.ID, "date_taken", *img.DateTaken)
			continue
		}
		if y := t.Year(); earliest == nil || y < *earliest {
			earliest = &y
		}
	}
	if earliest == nil {
		return nil, nil
	}

	if err := s.store.UpdatePainting(paintingID, database.PaintingUpdate{InferredYear: database.Set(*earliest)}); err != nil {
		return nil, err
	}
	s.log.Info("inferred painting year", "painting_id", paintingID, "year", *earliest)
	return earliest, nil
}
