package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/M-casado/watercolour-processing/database"
)

// fields is a PATCH body keyed by column name. Decoding it field by field keeps
// absent keys apart from explicit nulls.
type fields map[string]json.RawMessage

func readFields(r io.Reader) (fields, error) {
	var f fields
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	return f, nil
}

func (f fields) unknown(known map[string]bool) error {
	var extra []string
	for k := range f {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	sort.Strings(extra)
	return fmt.Errorf("unknown or read-only fields: %v", extra)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// value decodes a non-nullable field; null is rejected.
func value[T any](f fields, key string, dst **T) error {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	if isNull(raw) {
		return fmt.Errorf("field %s cannot be null", key)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	*dst = &v
	return nil
}

// nullable decodes a nullable field; null clears the column.
func nullable[T any](f fields, key string, dst **database.Nullable[T]) error {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	if isNull(raw) {
		*dst = database.Clear[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	*dst = database.Set(v)
	return nil
}

// flag decodes a boolean column, accepting JSON booleans as well as 0 and 1.
func flag(f fields, key string, dst **bool) error {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var b bool
	switch string(bytes.TrimSpace(raw)) {
	case "true", "1":
		b = true
	case "false", "0":
		b = false
	default:
		return fmt.Errorf("field %s must be a boolean", key)
	}
	*dst = &b
	return nil
}

var imageUpdateFields = map[string]bool{
	"filename": true, "file_path": true, "is_raw": true, "parent_image_id": true,
	"date_taken": true, "order_in_batch": true, "pipeline_version": true, "flash_missing": true,
	"cropped": true, "cropped_date": true, "rotated": true, "rotation_degrees": true,
	"rotated_date": true, "adjusted": true, "adjusted_date": true,
}

func decodeImageUpdate(f fields) (database.ImageUpdate, error) {
	var u database.ImageUpdate
	if err := f.unknown(imageUpdateFields); err != nil {
		return u, err
	}
	for _, err := range []error{
		value(f, "filename", &u.Filename),
		nullable(f, "file_path", &u.FilePath),
		flag(f, "is_raw", &u.IsRaw),
		nullable(f, "parent_image_id", &u.ParentImageID),
		nullable(f, "date_taken", &u.DateTaken),
		nullable(f, "order_in_batch", &u.OrderInBatch),
		nullable(f, "pipeline_version", &u.PipelineVersion),
		flag(f, "flash_missing", &u.FlashMissing),
		flag(f, "cropped", &u.Cropped),
		nullable(f, "cropped_date", &u.CroppedDate),
		flag(f, "rotated", &u.Rotated),
		value(f, "rotation_degrees", &u.RotationDegrees),
		nullable(f, "rotated_date", &u.RotatedDate),
		flag(f, "adjusted", &u.Adjusted),
		nullable(f, "adjusted_date", &u.AdjustedDate),
	} {
		if err != nil {
			return u, err
		}
	}
	return u, nil
}

var paintingUpdateFields = map[string]bool{
	"name": true, "description": true, "explicit_year": true, "inferred_year": true, "personal_favourite": true,
}

func decodePaintingUpdate(f fields) (database.PaintingUpdate, error) {
	var u database.PaintingUpdate
	if err := f.unknown(paintingUpdateFields); err != nil {
		return u, err
	}
	for _, err := range []error{
		nullable(f, "name", &u.Name),
		nullable(f, "description", &u.Description),
		nullable(f, "explicit_year", &u.ExplicitYear),
		nullable(f, "inferred_year", &u.InferredYear),
		flag(f, "personal_favourite", &u.PersonalFavourite),
	} {
		if err != nil {
			return u, err
		}
	}
	return u, nil
}
