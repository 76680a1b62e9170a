package repository

import (
	"github.com/M-casado/watercolour-processing/models"
)

// ImageRepositoryInterface defines the read operations on images
type ImageRepositoryInterface interface {
	List(filter ImageFilter) (*ImagePage, error)
	GetByID(id int64) (*models.Image, error)
	Columns() ([]ColumnInfo, error)
}

// PaintingRepositoryInterface defines the read operations on paintings
type PaintingRepositoryInterface interface {
	List() ([]models.Painting, error)
	GetByID(id int64) (*models.Painting, error)
	Images(paintingID int64) ([]models.Image, error)
	Ratings(paintingID int64) ([]models.Rating, error)
}

var (
	_ ImageRepositoryInterface    = (*ImageRepository)(nil)
	_ PaintingRepositoryInterface = (*PaintingRepository)(nil)
)
