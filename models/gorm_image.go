package models

// Image represents a raw capture or a derived artifact on disk.
// It corresponds to the 'images' table.
type Image struct {
	ID              int64   `gorm:"column:image_id;primaryKey;autoIncrement" json:"image_id"`
	Filename        string  `gorm:"column:filename;not null" json:"filename"`
	FilePath        *string `gorm:"column:file_path" json:"file_path,omitempty"`
	MD5Checksum     string  `gorm:"column:md5_checksum;not null;unique" json:"md5_checksum"`
	IsRaw           bool    `gorm:"column:is_raw;not null;default:true" json:"is_raw"`
	ParentImageID   *int64  `gorm:"column:parent_image_id" json:"parent_image_id,omitempty"`
	DateTaken       *string `gorm:"column:date_taken;index" json:"date_taken,omitempty"` // Nullable, YYYY-MM-DDTHH:MM:SS
	OrderInBatch    *int    `gorm:"column:order_in_batch" json:"order_in_batch,omitempty"`
	PipelineVersion *string `gorm:"column:pipeline_version" json:"pipeline_version,omitempty"`
	FlashMissing    bool    `gorm:"column:flash_missing;not null;default:false" json:"flash_missing"`

	Cropped         bool    `gorm:"column:cropped;not null;default:false" json:"cropped"`
	CroppedDate     *string `gorm:"column:cropped_date" json:"cropped_date,omitempty"`
	Rotated         bool    `gorm:"column:rotated;not null;default:false" json:"rotated"`
	RotationDegrees int     `gorm:"column:rotation_degrees;not null;default:0" json:"rotation_degrees"`
	RotatedDate     *string `gorm:"column:rotated_date" json:"rotated_date,omitempty"`
	Adjusted        bool    `gorm:"column:adjusted;not null;default:false" json:"adjusted"`
	AdjustedDate    *string `gorm:"column:adjusted_date" json:"adjusted_date,omitempty"`

	LastChanged string `gorm:"column:last_changed" json:"last_changed"`
}

// TableName explicitly sets the table name for GORM.
func (Image) TableName() string {
	return "images"
}
