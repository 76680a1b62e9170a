package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalogue.db"), DefaultSchema, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func checksum(n int) string {
	return fmt.Sprintf("%032x", n)
}

func insertTestImage(t *testing.T, s *Store, n int) int64 {
	t.Helper()
	id, err := s.InsertImage(NewImage{
		Filename:    fmt.Sprintf("_DSC%04d.NEF", n),
		FilePath:    fmt.Sprintf("/raw/_DSC%04d.NEF", n),
		MD5Checksum: checksum(n),
		IsRaw:       true,
	})
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, s *Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow(query, args...).Scan(&n))
	return n
}

func TestOpenAppliesSchema(t *testing.T) {
	s := openTestStore(t)

	missing, err := s.missingTables()
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestOpenWithoutSchemaIsConfigurationError(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "empty.db"), "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrStorage))
}

func TestOpenPartialSchemaIsConfigurationError(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "partial.db"), "CREATE TABLE images (image_id INTEGER);", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestOpenExistingDatabaseNeedsNoSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalogue.db")
	s, err := Open(path, DefaultSchema, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestReadSchemaMissingFile(t *testing.T) {
	_, err := ReadSchema(filepath.Join(t.TempDir(), "nope.sql"))
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "catalogue.db"), DefaultSchema, nil)
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestForeignKeysEnabled(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, 1, countRows(t, s, "PRAGMA foreign_keys"))
}

func TestInsertImageDuplicate(t *testing.T) {
	s := openTestStore(t)
	insertTestImage(t, s, 1)

	_, err := s.InsertImage(NewImage{Filename: "copy.NEF", FilePath: "/elsewhere/copy.NEF", MD5Checksum: checksum(1), IsRaw: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.False(t, errors.Is(err, ErrStorage))

	assert.Equal(t, 1, countRows(t, s, "SELECT COUNT(*) FROM images WHERE md5_checksum = ?", checksum(1)))
}

func TestUniqueViolationIsRecognised(t *testing.T) {
	s := openTestStore(t)
	insertTestImage(t, s, 1)

	_, err := s.DB().Exec("INSERT INTO images (filename, md5_checksum) VALUES (?, ?)", "raw.NEF", checksum(1))
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestInsertImageRejectsMalformedChecksum(t *testing.T) {
	s := openTestStore(t)

	for _, bad := range []string{
		"",
		"abc",
		"0123456789abcdef0123456789abcde",   // 31 chars
		"0123456789abcdef0123456789abcdef0", // 33 chars
		"0123456789ABCDEF0123456789ABCDEF",
		"0123456789abcdef0123456789abcdeg",
	} {
		_, err := s.InsertImage(NewImage{Filename: "x.NEF", MD5Checksum: bad, IsRaw: true})
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrStorage), bad)
	}
	assert.Equal(t, 0, countRows(t, s, "SELECT COUNT(*) FROM images"))
}

func TestInsertImageParentMustExist(t *testing.T) {
	s := openTestStore(t)
	missing := int64(42)

	_, err := s.InsertImage(NewImage{Filename: "derived.png", MD5Checksum: checksum(2), ParentImageID: &missing})
	assert.True(t, errors.Is(err, ErrStorage))

	parent := insertTestImage(t, s, 1)
	id, err := s.InsertImage(NewImage{Filename: "derived.png", MD5Checksum: checksum(2), ParentImageID: &parent})
	require.NoError(t, err)

	img, err := s.GetImageByID(id)
	require.NoError(t, err)
	require.NotNil(t, img.ParentImageID)
	assert.Equal(t, parent, *img.ParentImageID)
	assert.False(t, img.IsRaw)
}

func TestInsertImageUnpairedCropFlag(t *testing.T) {
	s := openTestStore(t)
	_, err := s.InsertImage(NewImage{Filename: "x.png", MD5Checksum: checksum(1), Cropped: true})
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, IsRejected(err))
}

func TestGetImageByChecksumNotFound(t *testing.T) {
	s := openTestStore(t)
	img, err := s.GetImageByChecksum(checksum(9))
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestGetImageByChecksumRoundTrip(t *testing.T) {
	s := openTestStore(t)
	taken := "2023-06-01T10:11:12"
	version := "v0.1.0"
	order := 3

	id, err := s.InsertImage(NewImage{
		Filename:        "_DSC0003.NEF",
		FilePath:        "/raw/_DSC0003.NEF",
		MD5Checksum:     checksum(3),
		IsRaw:           true,
		DateTaken:       &taken,
		OrderInBatch:    &order,
		PipelineVersion: &version,
	})
	require.NoError(t, err)

	img, err := s.GetImageByChecksum(checksum(3))
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, id, img.ID)
	assert.Equal(t, "_DSC0003.NEF", img.Filename)
	assert.Equal(t, &taken, img.DateTaken)
	assert.Equal(t, &order, img.OrderInBatch)
	assert.Equal(t, &version, img.PipelineVersion)
	assert.True(t, img.IsRaw)
	assert.NotEmpty(t, img.LastChanged)
}

func TestUpdateImageEmptyIsNoop(t *testing.T) {
	s := openTestStore(t)
	id := insertTestImage(t, s, 1)

	before, err := s.GetImageByID(id)
	require.NoError(t, err)

	require.NoError(t, s.UpdateImage(id, ImageUpdate{}))

	after, err := s.GetImageByID(id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateImageChangesOnlySuppliedFields(t *testing.T) {
	s := openTestStore(t)
	id := insertTestImage(t, s, 1)
	insertTestImage(t, s, 2)

	before, err := s.GetImageByID(id)
	require.NoError(t, err)

	when := "2024-01-02T03:04:05"
	cropped := true
	require.NoError(t, s.UpdateImage(id, ImageUpdate{Cropped: &cropped, CroppedDate: Set(when)}))

	after, err := s.GetImageByID(id)
	require.NoError(t, err)
	assert.True(t, after.Cropped)
	require.NotNil(t, after.CroppedDate)
	assert.Equal(t, when, *after.CroppedDate)

	// everything but the two fields and the bookkeeping timestamp is untouched
	expected := *before
	expected.Cropped = true
	expected.CroppedDate = &when
	expected.LastChanged = after.LastChanged
	assert.Equal(t, expected, *after)

	// last_changed is stamped by the store on every non-empty update
	_, err = time.Parse(TimestampLayout, after.LastChanged)
	assert.NoError(t, err)

	other, err := s.GetImageByChecksum(checksum(2))
	require.NoError(t, err)
	assert.False(t, other.Cropped)
}

func TestUpdateImageClearsNullable(t *testing.T) {
	s := openTestStore(t)
	taken := "2023-06-01T10:11:12"
	id, err := s.InsertImage(NewImage{Filename: "a.NEF", MD5Checksum: checksum(1), IsRaw: true, DateTaken: &taken})
	require.NoError(t, err)

	require.NoError(t, s.UpdateImage(id, ImageUpdate{DateTaken: Clear[string]()}))

	img, err := s.GetImageByID(id)
	require.NoError(t, err)
	assert.Nil(t, img.DateTaken)
}

func TestUpdateImageUnknownID(t *testing.T) {
	s := openTestStore(t)
	name := "renamed.NEF"
	err := s.UpdateImage(999, ImageUpdate{Filename: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, IsRejected(err))
}

func TestUpdateImageRejectsUnpairedFlags(t *testing.T) {
	s := openTestStore(t)
	id := insertTestImage(t, s, 1)
	yes := true

	for name, u := range map[string]ImageUpdate{
		"cropped without date": {Cropped: &yes},
		"cropped date alone":   {CroppedDate: Set("2024-01-01T00:00:00")},
		"rotated without date": {Rotated: &yes},
		"adjusted date alone":  {AdjustedDate: Set("2024-01-01T00:00:00")},
	} {
		err := s.UpdateImage(id, u)
		assert.True(t, errors.Is(err, ErrStorage), name)
		assert.True(t, IsRejected(err), name)
	}

	img, err := s.GetImageByID(id)
	require.NoError(t, err)
	assert.False(t, img.Cropped)
	assert.False(t, img.Rotated)
	assert.False(t, img.Adjusted)
}

func TestUpdateImageParentMustExist(t *testing.T) {
	s := openTestStore(t)
	id := insertTestImage(t, s, 1)

	err := s.UpdateImage(id, ImageUpdate{ParentImageID: Set[int64](500)})
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, IsRejected(err))
}

func TestInsertAndUpdatePainting(t *testing.T) {
	s := openTestStore(t)
	name := "Harbour at dusk"
	year := 2019

	id, err := s.InsertPainting(NewPainting{Name: &name, ExplicitYear: &year})
	require.NoError(t, err)

	p, err := s.GetPaintingByID(id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, name, *p.Name)
	assert.False(t, p.PersonalFavourite)
	assert.Nil(t, p.Description)

	fav := true
	require.NoError(t, s.UpdatePainting(id, PaintingUpdate{PersonalFavourite: &fav, ExplicitYear: Clear[int]()}))
	require.NoError(t, s.UpdatePainting(id, PaintingUpdate{}))

	p, err = s.GetPaintingByID(id)
	require.NoError(t, err)
	assert.True(t, p.PersonalFavourite)
	assert.Nil(t, p.ExplicitYear)
	assert.Equal(t, name, *p.Name)

	err = s.UpdatePainting(id+100, PaintingUpdate{PersonalFavourite: &fav})
	assert.True(t, errors.Is(err, ErrStorage))

	missing, err := s.GetPaintingByID(id + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLinkPaintingToImage(t *testing.T) {
	s := openTestStore(t)
	paintingID, err := s.InsertPainting(NewPainting{})
	require.NoError(t, err)
	imageID := insertTestImage(t, s, 1)

	err = s.LinkPaintingToImage(paintingID, imageID+10)
	assert.True(t, errors.Is(err, ErrStorage))
	err = s.LinkPaintingToImage(paintingID+10, imageID)
	assert.True(t, errors.Is(err, ErrStorage))

	require.NoError(t, s.LinkPaintingToImage(paintingID, imageID))
	assert.Equal(t, 1, countRows(t, s,
		"SELECT COUNT(*) FROM painting_images WHERE painting_id = ? AND image_id = ?", paintingID, imageID))

	// a repeated link is stored, not rejected
	require.NoError(t, s.LinkPaintingToImage(paintingID, imageID))
	assert.Equal(t, 2, countRows(t, s, "SELECT COUNT(*) FROM painting_images"))

	images, err := s.ImagesForPainting(paintingID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, imageID, images[0].ID)
}

func TestInsertRatingBounds(t *testing.T) {
	s := openTestStore(t)
	paintingID, err := s.InsertPainting(NewPainting{})
	require.NoError(t, err)
	imageID := insertTestImage(t, s, 1)
	user := "mc"

	for _, score := range []int{0, 6, -1} {
		_, err := s.InsertRating(paintingID, imageID, score, &user)
		require.Error(t, err, score)
		assert.True(t, errors.Is(err, ErrStorage), score)
		assert.True(t, IsRejected(err), score)
	}
	for _, score := range []int{1, 5} {
		_, err := s.InsertRating(paintingID, imageID, score, nil)
		assert.NoError(t, err, score)
	}
	assert.Equal(t, 2, countRows(t, s, "SELECT COUNT(*) FROM ratings"))
}

func TestInsertRatingUnknownIDs(t *testing.T) {
	s := openTestStore(t)
	paintingID, err := s.InsertPainting(NewPainting{})
	require.NoError(t, err)

	_, err = s.InsertRating(paintingID, 77, 3, nil)
	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, IsRejected(err))
}

func TestOperationsAfterCloseFail(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "catalogue.db"), DefaultSchema, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.InsertPainting(NewPainting{})
	assert.True(t, errors.Is(err, ErrStorage))
	assert.False(t, IsRejected(err), "a closed database is not a data problem")
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on", withForeignKeys("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&_foreign_keys=on", withForeignKeys("file:a.db?cache=shared"))
	assert.Equal(t, "a.db?_fk=1", withForeignKeys("a.db?_fk=1"))
}

func TestIsRejected(t *testing.T) {
	assert.False(t, IsRejected(nil))
	assert.False(t, IsRejected(errors.New("plain")))
	assert.False(t, IsRejected(duplicateError("insert image", errors.New("taken"))))
	assert.False(t, IsRejected(storageError("insert image", errors.New("disk I/O error"))))
	assert.True(t, IsRejected(rejectedError("update image", errors.New("image 1 not found"))))
	assert.True(t, IsRejected(storageError("insert rating", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck})))
}
