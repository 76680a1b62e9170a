package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/media"
)

type fixture struct {
	store    *database.Store
	svc      *Service
	dir      string
	thumbDir string
	seq      int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := database.Open(filepath.Join(dir, "catalogue.db"), database.DefaultSchema, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	thumbDir := filepath.Join(dir, "thumbnails")
	thumbStore, err := media.NewThumbnailStorage(thumbDir, nil)
	require.NoError(t, err)

	svc := NewService(store, media.NewProcessor(thumbStore, 32, nil), nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }
	return &fixture{store: store, svc: svc, dir: dir, thumbDir: thumbDir}
}

func (f *fixture) writePNG(t *testing.T, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	f.seq++
	c := color.NRGBA{R: uint8(f.seq * 40), G: 90, B: 90, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func (f *fixture) insertImage(t *testing.T, path string, raw bool, taken *string) int64 {
	t.Helper()
	sum, err := media.Fingerprint(path)
	require.NoError(t, err)
	id, err := f.store.InsertImage(database.NewImage{
		Filename:    filepath.Base(path),
		FilePath:    path,
		MD5Checksum: sum,
		IsRaw:       raw,
		DateTaken:   taken,
	})
	require.NoError(t, err)
	return id
}

func strPtr(s string) *string { return &s }

func TestPaintingLifecycle(t *testing.T) {
	f := newFixture(t)
	id, err := f.svc.CreatePainting(database.NewPainting{Name: strPtr("Lake Bled")})
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdatePainting(id, database.PaintingUpdate{Description: database.Set("morning mist")}))

	p, err := f.svc.Painting(id)
	require.NoError(t, err)
	assert.Equal(t, "Lake Bled", *p.Name)
	assert.Equal(t, "morning mist", *p.Description)

	_, err = f.svc.Painting(id + 1)
	assert.True(t, errors.Is(err, ErrPaintingNotFound))
}

func TestAttachRateAndList(t *testing.T) {
	f := newFixture(t)
	paintingID, err := f.svc.CreatePainting(database.NewPainting{})
	require.NoError(t, err)
	imageID := f.insertImage(t, f.writePNG(t, "a.png", 8, 8), true, nil)

	require.NoError(t, f.svc.AttachImage(paintingID, imageID))
	assert.True(t, errors.Is(f.svc.AttachImage(paintingID, imageID+50), database.ErrStorage))

	images, err := f.svc.Images(paintingID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, imageID, images[0].ID)

	_, err = f.svc.Rate(paintingID, imageID, 4, strPtr("mc"))
	require.NoError(t, err)
	_, err = f.svc.Rate(paintingID, imageID, 9, nil)
	assert.True(t, errors.Is(err, database.ErrStorage))
}

func TestInferYear(t *testing.T) {
	f := newFixture(t)
	paintingID, err := f.svc.CreatePainting(database.NewPainting{})
	require.NoError(t, err)

	year, err := f.svc.InferYear(paintingID)
	require.NoError(t, err)
	assert.Nil(t, year)

	a := f.insertImage(t, f.writePNG(t, "a.png", 4, 4), true, strPtr("2021-03-04T05:06:07"))
	b := f.insertImage(t, f.writePNG(t, "b.png", 4, 4), true, strPtr("2019-11-30T23:59:59"))
	c := f.insertImage(t, f.writePNG(t, "c.png", 4, 4), true, nil)
	for _, id := range []int64{a, b, c} {
		require.NoError(t, f.svc.AttachImage(paintingID, id))
	}

	year, err = f.svc.InferYear(paintingID)
	require.NoError(t, err)
	require.NotNil(t, year)
	assert.Equal(t, 2019, *year)

	p, err := f.svc.Painting(paintingID)
	require.NoError(t, err)
	require.NotNil(t, p.InferredYear)
	assert.Equal(t, 2019, *p.InferredYear)

	_, err = f.svc.InferYear(paintingID + 10)
	assert.True(t, errors.Is(err, ErrPaintingNotFound))
}

func TestEditsRefuseRawCaptures(t *testing.T) {
	f := newFixture(t)
	id := f.insertImage(t, f.writePNG(t, "raw.png", 10, 10), true, nil)

	assert.True(t, errors.Is(f.svc.Crop(id, image.Rect(0, 0, 5, 5)), ErrRawImage))
	assert.True(t, errors.Is(f.svc.Rotate(id, 90), ErrRawImage))
	assert.True(t, errors.Is(f.svc.Adjust(id, 1.1, 1.1), ErrRawImage))
	assert.True(t, errors.Is(f.svc.Crop(id+99, image.Rect(0, 0, 5, 5)), ErrImageNotFound))
}

func TestCropMarksImageAndRefreshesThumbnail(t *testing.T) {
	f := newFixture(t)
	path := f.writePNG(t, "derived.png", 40, 20)
	id := f.insertImage(t, path, false, nil)

	require.NoError(t, f.svc.Crop(id, image.Rect(0, 0, 10, 20)))

	img, err := f.store.GetImageByID(id)
	require.NoError(t, err)
	assert.True(t, img.Cropped)
	require.NotNil(t, img.CroppedDate)
	assert.Equal(t, "2024-05-06T07:08:09", *img.CroppedDate)
	assert.False(t, img.Rotated)

	thumb, err := imaging.Open(filepath.Join(f.thumbDir, fmt.Sprintf("%d.png", id)))
	require.NoError(t, err)
	assert.Equal(t, 10, thumb.Bounds().Dx())
	assert.Equal(t, 20, thumb.Bounds().Dy())

	assert.True(t, errors.Is(f.svc.Crop(id, image.Rect(0, 0, 100, 100)), ErrInvalidEdit))
}

func TestRotateAccumulates(t *testing.T) {
	f := newFixture(t)
	id := f.insertImage(t, f.writePNG(t, "derived.png", 12, 6), false, nil)

	require.NoError(t, f.svc.Rotate(id, 270))
	require.NoError(t, f.svc.Rotate(id, 180))

	img, err := f.store.GetImageByID(id)
	require.NoError(t, err)
	assert.True(t, img.Rotated)
	require.NotNil(t, img.RotatedDate)
	assert.Equal(t, 90, img.RotationDegrees)

	require.NoError(t, f.svc.Rotate(id, -180))
	img, err = f.store.GetImageByID(id)
	require.NoError(t, err)
	assert.Equal(t, 270, img.RotationDegrees)
}

func TestAdjustMarksImage(t *testing.T) {
	f := newFixture(t)
	id := f.insertImage(t, f.writePNG(t, "derived.png", 6, 6), false, nil)

	require.NoError(t, f.svc.Adjust(id, 1.2, 0.9))
	img, err := f.store.GetImageByID(id)
	require.NoError(t, err)
	assert.True(t, img.Adjusted)
	require.NotNil(t, img.AdjustedDate)

	assert.True(t, errors.Is(f.svc.Adjust(id, -2, 1), ErrInvalidEdit))
}

func TestRegisterDerived(t *testing.T) {
	f := newFixture(t)
	taken := "2022-08-09T10:11:12"
	parentID := f.insertImage(t, f.writePNG(t, "_DSC0001.png", 8, 8), true, &taken)
	derived := f.writePNG(t, "_DSC0001_developed.png", 16, 8)

	id, err := f.svc.RegisterDerived(parentID, derived, "v0.2.0")
	require.NoError(t, err)

	img, err := f.store.GetImageByID(id)
	require.NoError(t, err)
	assert.False(t, img.IsRaw)
	require.NotNil(t, img.ParentImageID)
	assert.Equal(t, parentID, *img.ParentImageID)
	assert.Equal(t, &taken, img.DateTaken)
	assert.Equal(t, "v0.2.0", *img.PipelineVersion)
	assert.FileExists(t, filepath.Join(f.thumbDir, fmt.Sprintf("%d.png", id)))

	_, err = f.svc.RegisterDerived(parentID, derived, "v0.2.0")
	assert.True(t, errors.Is(err, database.ErrDuplicate))

	_, err = f.svc.RegisterDerived(parentID+100, derived, "")
	assert.True(t, errors.Is(err, ErrImageNotFound))
}
