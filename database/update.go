package database

import (
	"fmt"
)

// Nullable is an update value for a column that accepts NULL. A nil
// *Nullable leaves the column untouched; Clear sets it to NULL.
type Nullable[T any] struct {
	Value T
	Valid bool
}

// Set returns an update value that writes v.
func Set[T any](v T) *Nullable[T] {
	return &Nullable[T]{Value: v, Valid: true}
}

// Clear returns an update value that writes NULL.
func Clear[T any]() *Nullable[T] {
	return &Nullable[T]{}
}

func (n *Nullable[T]) sqlValue() any {
	if !n.Valid {
		return nil
	}
	return n.Value
}

// ImageUpdate is the set of updatable image columns. Only non-nil fields are
// written. The flag/date pairs (cropped, rotated, adjusted) must be supplied
// together.
type ImageUpdate struct {
	Filename        *string
	FilePath        *Nullable[string]
	IsRaw           *bool
	ParentImageID   *Nullable[int64]
	DateTaken       *Nullable[string]
	OrderInBatch    *Nullable[int]
	PipelineVersion *Nullable[string]
	FlashMissing    *bool
	Cropped         *bool
	CroppedDate     *Nullable[string]
	Rotated         *bool
	RotationDegrees *int
	RotatedDate     *Nullable[string]
	Adjusted        *bool
	AdjustedDate    *Nullable[string]
}

// IsEmpty reports whether the update supplies no fields.
func (u ImageUpdate) IsEmpty() bool {
	return len(u.columns()) == 0
}

func (u ImageUpdate) validate() error {
	if (u.Cropped == nil) != (u.CroppedDate == nil) {
		return fmt.Errorf("cropped and cropped_date must be updated together")
	}
	if (u.Rotated == nil) != (u.RotatedDate == nil) {
		return fmt.Errorf("rotated and rotated_date must be updated together")
	}
	if (u.Adjusted == nil) != (u.AdjustedDate == nil) {
		return fmt.Errorf("adjusted and adjusted_date must be updated together")
	}
	if u.Filename != nil && *u.Filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	return nil
}

// columns maps the supplied fields onto their fixed column names.
func (u ImageUpdate) columns() map[string]any {
	m := make(map[string]any)
	if u.Filename != nil {
		m["filename"] = *u.Filename
	}
	if u.FilePath != nil {
		m["file_path"] = u.FilePath.sqlValue()
	}
	if u.IsRaw != nil {
		m["is_raw"] = *u.IsRaw
	}
	if u.ParentImageID != nil {
		m["parent_image_id"] = u.ParentImageID.sqlValue()
	}
	if u.DateTaken != nil {
		m["date_taken"] = u.DateTaken.sqlValue()
	}
	if u.OrderInBatch != nil {
		m["order_in_batch"] = u.OrderInBatch.sqlValue()
	}
	if u.PipelineVersion != nil {
		m["pipeline_version"] = u.PipelineVersion.sqlValue()
	}
	if u.FlashMissing != nil {
		m["flash_missing"] = *u.FlashMissing
	}
	if u.Cropped != nil {
		m["cropped"] = *u.Cropped
	}
	if u.CroppedDate != nil {
		m["cropped_date"] = u.CroppedDate.sqlValue()
	}
	if u.Rotated != nil {
		m["rotated"] = *u.Rotated
	}
	if u.RotationDegrees != nil {
		m["rotation_degrees"] = *u.RotationDegrees
	}
	if u.RotatedDate != nil {
		m["rotated_date"] = u.RotatedDate.sqlValue()
	}
	if u.Adjusted != nil {
		m["adjusted"] = *u.Adjusted
	}
	if u.AdjustedDate != nil {
		m["adjusted_date"] = u.AdjustedDate.sqlValue()
	}
	return m
}

// PaintingUpdate is the set of updatable painting columns.
type PaintingUpdate struct {
	Name              *Nullable[string]
	Description       *Nullable[string]
	ExplicitYear      *Nullable[int]
	InferredYear      *Nullable[int]
	PersonalFavourite *bool
}

// IsEmpty reports whether the update supplies no fields.
func (u PaintingUpdate) IsEmpty() bool {
	return len(u.columns()) == 0
}

func (u PaintingUpdate) columns() map[string]any {
	m := make(map[string]any)
	if u.Name != nil {
		m["name"] = u.Name.sqlValue()
	}
	if u.Description != nil {
		m["description"] = u.Description.sqlValue()
	}
	if u.ExplicitYear != nil {
		m["explicit_year"] = u.ExplicitYear.sqlValue()
	}
	if u.InferredYear != nil {
		m["inferred_year"] = u.InferredYear.sqlValue()
	}
	if u.PersonalFavourite != nil {
		m["personal_favourite"] = *u.PersonalFavourite
	}
	return m
}
