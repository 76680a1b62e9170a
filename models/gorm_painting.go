package models

// Painting is a logical artwork, optionally backed by one or more images.
// It corresponds to the 'paintings' table.
type Painting struct {
	ID                int64   `gorm:"column:painting_id;primaryKey;autoIncrement" json:"painting_id"`
	Name              *string `gorm:"column:name" json:"name,omitempty"`
	Description       *string `gorm:"column:description" json:"description,omitempty"`
	ExplicitYear      *int    `gorm:"column:explicit_year" json:"explicit_year,omitempty"`  // asserted by the operator
	InferredYear      *int    `gorm:"column:inferred_year" json:"inferred_year,omitempty"`  // derived from linked images
	PersonalFavourite bool    `gorm:"column:personal_favourite;not null;default:false" json:"personal_favourite"`
}

// TableName explicitly sets the table name for GORM.
func (Painting) TableName() string {
	return "paintings"
}

// PaintingImage links a painting to one of its images. Duplicate links are
// possible; the table has no primary key.
type PaintingImage struct {
	PaintingID int64 `gorm:"column:painting_id;not null" json:"painting_id"`
	ImageID    int64 `gorm:"column:image_id;not null" json:"image_id"`
}

func (PaintingImage) TableName() string {
	return "painting_images"
}
