package database

import (
	"fmt"
)

// InsertRating records a score for an image of a painting. The schema limits
// score to 1..5 and requires both ids to exist; violations are ErrStorage errors.
func (s *Store) InsertRating(paintingID, imageID int64, score int, user *string) (int64, error) {
	const op = "insert rating"

	sqlStr, args, err := psql.Insert("ratings").
		Columns("painting_id", "image_id", "score", `"user"`).
		Values(paintingID, imageID, score, user).
		ToSql()
	if err != nil {
		return 0, storageError(op, fmt.Errorf("failed to build SQL query for InsertRating: %w", err))
	}

	result, err := s.db.Exec(sqlStr, args...)
	if err != nil {
		return 0, storageError(op, fmt.Errorf("failed to insert rating %d for painting %d image %d: %w", score, paintingID, imageID, err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageError(op, err)
	}
	s.log.Debug("inserted rating", "rating_id", id, "painting_id", paintingID, "score", score)
	return id, nil
}
