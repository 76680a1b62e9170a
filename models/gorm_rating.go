package models

// Rating is a 1-5 opinion of a painting as seen through one of its images.
type Rating struct {
	ID         int64   `gorm:"column:rating_id;primaryKey;autoIncrement" json:"rating_id"`
	PaintingID int64   `gorm:"column:painting_id;not null;index" json:"painting_id"`
	ImageID    int64   `gorm:"column:image_id;not null" json:"image_id"`
	Score      int     `gorm:"column:score;not null" json:"score"`
	User       *string `gorm:"column:user" json:"user,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Rating) TableName() string {
	return "ratings"
}
