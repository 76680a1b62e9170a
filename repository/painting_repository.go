package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/M-casado/watercolour-processing/models"
)

// PaintingRepository serves read queries on paintings, their images and ratings
type PaintingRepository struct {
	DB *gorm.DB
}

// NewPaintingRepository creates a new instance of PaintingRepository
func NewPaintingRepository(db *gorm.DB) *PaintingRepository {
	return &PaintingRepository{DB: db}
}

// List retrieves every painting ordered by id
func (r *PaintingRepository) List() ([]models.Painting, error) {
	paintings := []models.Painting{}
	if err := r.DB.Order("painting_id ASC").Find(&paintings).Error; err != nil {
		return nil, fmt.Errorf("failed to list paintings: %w", err)
	}
	return paintings, nil
}

// GetByID retrieves a painting, returning gorm.ErrRecordNotFound when absent
func (r *PaintingRepository) GetByID(id int64) (*models.Painting, error) {
	var painting models.Painting
	err := r.DB.Where("painting_id = ?", id).First(&painting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get painting %d: %w", id, err)
	}
	return &painting, nil
}

// Images retrieves the images linked to a painting in link order. A repeated
// link yields the image twice.
func (r *PaintingRepository) Images(paintingID int64) ([]models.Image, error) {
	images := []models.Image{}
	err := r.DB.Model(&models.Image{}).
		Select("images.*").
		Joins("JOIN painting_images ON painting_images.image_id = images.image_id").
		Where("painting_images.painting_id = ?", paintingID).
		Order("painting_images.rowid ASC").
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images of painting %d: %w", paintingID, err)
	}
	return images, nil
}

// Ratings retrieves a painting's ratings, oldest first
func (r *PaintingRepository) Ratings(paintingID int64) ([]models.Rating, error) {
	ratings := []models.Rating{}
	err := r.DB.Where("painting_id = ?", paintingID).Order("rating_id ASC").Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings of painting %d: %w", paintingID, err)
	}
	return ratings, nil
}
