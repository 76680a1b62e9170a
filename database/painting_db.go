package database

import (
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/M-casado/watercolour-processing/models"
)

// NewPainting carries the fields of a painting at creation time.
type NewPainting struct {
	Name              *string
	Description       *string
	ExplicitYear      *int
	InferredYear      *int
	PersonalFavourite bool
}

// InsertPainting records a painting and returns its id.
func (s *Store) InsertPainting(p NewPainting) (int64, error) {
	const op = "insert painting"

	sqlStr, args, err := psql.Insert("paintings").
		Columns("name", "description", "explicit_year", "inferred_year", "personal_favourite").
		Values(p.Name, p.Description, p.ExplicitYear, p.InferredYear, p.PersonalFavourite).
		ToSql()
	if err != nil {
		return 0, storageError(op, fmt.Errorf("failed to build SQL query for InsertPainting: %w", err))
	}

	result, err := s.db.Exec(sqlStr, args...)
	if err != nil {
		return 0, storageError(op, fmt.Errorf("failed to insert painting: %w", err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageError(op, err)
	}
	s.log.Debug("inserted painting", "painting_id", id)
	return id, nil
}

// GetPaintingByID returns the painting, or nil when it does not exist.
func (s *Store) GetPaintingByID(id int64) (*models.Painting, error) {
	const op = "get painting"

	sqlStr, args, err := psql.Select("painting_id", "name", "description", "explicit_year", "inferred_year", "personal_favourite").
		From("paintings").
		Where(sq.Eq{"painting_id": id}).
		ToSql()
	if err != nil {
		return nil, storageError(op, fmt.Errorf("failed to build SQL query: %w", err))
	}

	var p models.Painting
	err = s.db.QueryRow(sqlStr, args...).Scan(&p.ID, &p.Name, &p.Description, &p.ExplicitYear, &p.InferredYear, &p.PersonalFavourite)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError(op, fmt.Errorf("failed to query painting %d: %w", id, err))
	}
	return &p, nil
}

// UpdatePainting writes the supplied fields of a painting. An empty update does
// nothing; an unknown id is an ErrStorage error.
func (s *Store) UpdatePainting(id int64, u PaintingUpdate) error {
	const op = "update painting"

	set := u.columns()
	if len(set) == 0 {
		return nil
	}

	sqlStr, args, err := psql.Update("paintings").
		SetMap(set).
		Where(sq.Eq{"painting_id": id}).
		ToSql()
	if err != nil {
		return storageError(op, fmt.Errorf("failed to build SQL query for UpdatePainting: %w", err))
	}

	result, err := s.db.Exec(sqlStr, args...)
	if err != nil {
		return storageError(op, fmt.Errorf("failed to update painting %d: %w", id, err))
	}
	if n, err := result.RowsAffected(); err != nil {
		return storageError(op, err)
	} else if n == 0 {
		return rejectedError(op, fmt.Errorf("painting %d not found", id))
	}
	return nil
}

// LinkPaintingToImage associates an image with a painting. Both ids must exist.
// Linking the same pair twice stores two rows.
func (s *Store) LinkPaintingToImage(paintingID, imageID int64) error {
	const op = "link painting to image"

	sqlStr, args, err := psql.Insert("painting_images").
		Columns("painting_id", "image_id").
		Values(paintingID, imageID).
		ToSql()
	if err != nil {
		return storageError(op, fmt.Errorf("failed to build SQL query for LinkPaintingToImage: %w", err))
	}

	if _, err := s.db.Exec(sqlStr, args...); err != nil {
		return storageError(op, fmt.Errorf("failed to link painting %d to image %d: %w", paintingID, imageID, err))
	}
	s.log.Debug("linked painting to image", "painting_id", paintingID, "image_id", imageID)
	return nil
}
