package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/M-casado/watercolour-processing/models"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 200
)

// ImageFilter selects a page of images. Zero values mean "no constraint".
type ImageFilter struct {
	Page     int
	PerPage  int
	Filename string // case-insensitive substring
	DateFrom string // inclusive, compared against date_taken
	DateTo   string // inclusive; a bare date covers the whole day
	IsRaw    *bool
	Cropped  *bool
	Rotated  *bool
	Sort     string
}

// ImagePage is one page of a filtered listing.
type ImagePage struct {
	Images     []models.Image `json:"images"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
}

// ColumnInfo describes one column of the images table.
type ColumnInfo struct {
	Name       string  `gorm:"column:name" json:"name"`
	Type       string  `gorm:"column:type" json:"type"`
	NotNull    bool    `gorm:"column:notnull" json:"not_null"`
	Default    *string `gorm:"column:dflt_value" json:"default,omitempty"`
	PrimaryKey bool    `gorm:"column:pk" json:"primary_key"`
}

// ImageRepository serves read queries on images for the admin API
type ImageRepository struct {
	DB *gorm.DB
}

// NewImageRepository creates a new instance of ImageRepository
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{DB: db}
}

func (f ImageFilter) normalized() ImageFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	if !IsValidSortOrder(f.Sort) {
		f.Sort = DefaultSortOrder
	}
	return f
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f ImageFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Filename != "" {
		q = q.Where(`filename LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(f.Filename)+"%")
	}
	if f.DateFrom != "" {
		q = q.Where("date_taken >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		to := f.DateTo
		if len(to) == len("2006-01-02") {
			to += "T23:59:59"
		}
		q = q.Where("date_taken <= ?", to)
	}
	if f.IsRaw != nil {
		q = q.Where("is_raw = ?", *f.IsRaw)
	}
	if f.Cropped != nil {
		q = q.Where("cropped = ?", *f.Cropped)
	}
	if f.Rotated != nil {
		q = q.Where("rotated = ?", *f.Rotated)
	}
	return q
}

// List returns one page of images matching the filter
func (r *ImageRepository) List(filter ImageFilter) (*ImagePage, error) {
	f := filter.normalized()

	var total int64
	if err := f.apply(r.DB.Model(&models.Image{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	images := make([]models.Image, 0, f.PerPage)
	err := f.apply(r.DB.Model(&models.Image{})).
		Order(orderClause(f.Sort)).
		Limit(f.PerPage).
		Offset((f.Page - 1) * f.PerPage).
		Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return &ImagePage{
		Images:     images,
		Page:       f.Page,
		PerPage:    f.PerPage,
		Total:      total,
		TotalPages: int((total + int64(f.PerPage) - 1) / int64(f.PerPage)),
	}, nil
}

// GetByID retrieves an image, returning gorm.ErrRecordNotFound when absent
func (r *ImageRepository) GetByID(id int64) (*models.Image, error) {
	var image models.Image
	err := r.DB.Where("image_id = ?", id).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get image %d: %w", id, err)
	}
	return &image, nil
}

// Columns introspects the images table
func (r *ImageRepository) Columns() ([]ColumnInfo, error) {
	var cols []ColumnInfo
	if err := r.DB.Raw("PRAGMA table_info(images)").Scan(&cols).Error; err != nil {
		return nil, fmt.Errorf("failed to read images columns: %w", err)
	}
	return cols, nil
}
