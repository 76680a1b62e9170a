package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/M-casado/watercolour-processing/models"
)

// TimestampLayout is the ISO-8601 form used for every stored timestamp.
const TimestampLayout = "2006-01-02T15:04:05"

// NewImage carries the fields of an image row at insert time.
type NewImage struct {
	Filename        string
	FilePath        string
	MD5Checksum     string
	IsRaw           bool
	ParentImageID   *int64
	DateTaken       *string
	OrderInBatch    *int
	PipelineVersion *string
	FlashMissing    bool
	Cropped         bool
	CroppedDate     *string
	Rotated         bool
	RotationDegrees int
	RotatedDate     *string
}

var imageColumns = []string{
	"image_id", "filename", "file_path", "md5_checksum", "is_raw", "parent_image_id",
	"date_taken", "order_in_batch", "pipeline_version", "flash_missing",
	"cropped", "cropped_date", "rotated", "rotation_degrees", "rotated_date",
	"adjusted", "adjusted_date", "last_changed",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*models.Image, error) {
	var img models.Image
	err := row.Scan(
		&img.ID, &img.Filename, &img.FilePath, &img.MD5Checksum, &img.IsRaw, &img.ParentImageID,
		&img.DateTaken, &img.OrderInBatch, &img.PipelineVersion, &img.FlashMissing,
		&img.Cropped, &img.CroppedDate, &img.Rotated, &img.RotationDegrees, &img.RotatedDate,
		&img.Adjusted, &img.AdjustedDate, &img.LastChanged,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// InsertImage records a new image and returns its id. A fingerprint that is
// already recorded yields an ErrDuplicate error; anything else that goes wrong
// is an ErrStorage error.
func (s *Store) InsertImage(img NewImage) (int64, error) {
	const op = "insert image"

	if img.Cropped != (img.CroppedDate != nil) {
		return 0, rejectedError(op, fmt.Errorf("cropped and cropped_date must be set together for %s", img.Filename))
	}
	if img.Rotated != (img.RotatedDate != nil) {
		return 0, rejectedError(op, fmt.Errorf("rotated and rotated_date must be set together for %s", img.Filename))
	}

	existing, err := s.GetImageByChecksum(img.MD5Checksum)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		s.log.Debug("duplicate checksum", "checksum", img.MD5Checksum, "existing_id", existing.ID, "filename", img.Filename)
		return 0, duplicateError(op, fmt.Errorf("checksum %s already recorded as image %d", img.MD5Checksum, existing.ID))
	}

	sqlStr, args, err := psql.Insert("images").
		Columns(
			"filename", "file_path", "md5_checksum", "is_raw", "parent_image_id",
			"date_taken", "order_in_batch", "pipeline_version", "flash_missing",
			"cropped", "cropped_date", "rotated", "rotation_degrees", "rotated_date",
		).
		Values(
			img.Filename, img.FilePath, img.MD5Checksum, img.IsRaw, img.ParentImageID,
			img.DateTaken, img.OrderInBatch, img.PipelineVersion, img.FlashMissing,
			img.Cropped, img.CroppedDate, img.Rotated, img.RotationDegrees, img.RotatedDate,
		).
		ToSql()
	if err != nil {
		return 0, storageError(op, fmt.Errorf("failed to build SQL query for InsertImage: %w", err))
	}

	result, err := s.db.Exec(sqlStr, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, duplicateError(op, err)
		}
		return 0, storageError(op, fmt.Errorf("failed to insert image %s: %w", img.Filename, err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageError(op, fmt.Errorf("failed to read id of inserted image %s: %w", img.Filename, err))
	}
	s.log.Debug("inserted image", "image_id", id, "filename", img.Filename)
	return id, nil
}

// GetImageByChecksum returns the image with the given fingerprint, or nil when
// none is recorded.
func (s *Store) GetImageByChecksum(checksum string) (*models.Image, error) {
	return s.getImage("get image by checksum", sq.Eq{"md5_checksum": checksum})
}

// GetImageByID returns the image with the given id, or nil when it does not exist.
func (s *Store) GetImageByID(id int64) (*models.Image, error) {
	return s.getImage("get image", sq.Eq{"image_id": id})
}

func (s *Store) getImage(op string, where sq.Eq) (*models.Image, error) {
	sqlStr, args, err := psql.Select(imageColumns...).
		From("images").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, storageError(op, fmt.Errorf("failed to build SQL query: %w", err))
	}

	img, err := scanImage(s.db.QueryRow(sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError(op, fmt.Errorf("failed to query or scan image: %w", err))
	}
	return img, nil
}

// UpdateImage writes the supplied fields of an image. An empty update does
// nothing. Any non-empty update also stamps last_changed with the current UTC
// time; that column is not part of ImageUpdate. Unknown ids and constraint
// violations are ErrStorage errors.
func (s *Store) UpdateImage(id int64, u ImageUpdate) error {
	const op = "update image"

	if err := u.validate(); err != nil {
		return rejectedError(op, fmt.Errorf("image %d: %w", id, err))
	}
	set := u.columns()
	if len(set) == 0 {
		return nil
	}
	set["last_changed"] = time.Now().UTC().Format(TimestampLayout)

	sqlStr, args, err := psql.Update("images").
		SetMap(set).
		Where(sq.Eq{"image_id": id}).
		ToSql()
	if err != nil {
		return storageError(op, fmt.Errorf("failed to build SQL query for UpdateImage: %w", err))
	}

	result, err := s.db.Exec(sqlStr, args...)
	if err != nil {
		return storageError(op, fmt.Errorf("failed to update image %d: %w", id, err))
	}
	if n, err := result.RowsAffected(); err != nil {
		return storageError(op, err)
	} else if n == 0 {
		return rejectedError(op, fmt.Errorf("image %d not found", id))
	}
	s.log.Debug("updated image", "image_id", id, "fields", len(set)-1)
	return nil
}

// ImagesForPainting returns the images linked to a painting in link order.
func (s *Store) ImagesForPainting(paintingID int64) ([]models.Image, error) {
	const op = "images for painting"

	cols := make([]string, len(imageColumns))
	for i, c := range imageColumns {
		cols[i] = "i." + c
	}
	sqlStr, args, err := psql.Select(cols...).
		From("painting_images pi").
		Join("images i ON i.image_id = pi.image_id").
		Where(sq.Eq{"pi.painting_id": paintingID}).
		OrderBy("pi.rowid").
		ToSql()
	if err != nil {
		return nil, storageError(op, fmt.Errorf("failed to build SQL query: %w", err))
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, storageError(op, fmt.Errorf("failed to query images for painting %d: %w", paintingID, err))
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, storageError(op, err)
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return images, nil
}
