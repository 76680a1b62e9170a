package handlers

import (
	"fmt"
	"image"
	"log/slog"
	"net/http"

	"github.com/M-casado/watercolour-processing/catalog"
	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/repository"
)

// ImageUpdater writes partial image updates.
type ImageUpdater interface {
	UpdateImage(id int64, u database.ImageUpdate) error
}

// ImageHandler serves the image listing, inspection and edit endpoints.
type ImageHandler struct {
	Images  repository.ImageRepositoryInterface
	Store   ImageUpdater
	Catalog *catalog.Service
	Log     *slog.Logger
}

// ListImages handles GET /api/images
func (h *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	filter, err := parseImageFilter(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	page, err := h.Images.List(filter)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func parseImageFilter(r *http.Request) (repository.ImageFilter, error) {
	q := r.URL.Query()
	f := repository.ImageFilter{
		Filename: q.Get("filename"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
		Sort:     q.Get("sort"),
	}
	if f.Sort != "" && !repository.IsValidSortOrder(f.Sort) {
		return f, fmt.Errorf("invalid sort %q", f.Sort)
	}

	var err error
	if f.Page, err = queryInt(r, "page"); err != nil {
		return f, err
	}
	if f.PerPage, err = queryInt(r, "per_page"); err != nil {
		return f, err
	}
	if f.IsRaw, err = queryBool(r, "is_raw"); err != nil {
		return f, err
	}
	if f.Cropped, err = queryBool(r, "cropped"); err != nil {
		return f, err
	}
	if f.Rotated, err = queryBool(r, "rotated"); err != nil {
		return f, err
	}
	return f, nil
}

// ListColumns handles GET /api/images/columns
func (h *ImageHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Images.Columns()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// GetImage handles GET /api/images/{image_id}
func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "image_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	h.respondImage(w, id, http.StatusOK)
}

// UpdateImage handles PATCH /api/images/{image_id}. Only the updatable columns
// are accepted; null clears a nullable column.
func (h *ImageHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "image_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if _, err := h.Images.GetByID(id); err != nil {
		writeError(w, h.Log, err)
		return
	}

	f, err := readFields(r.Body)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	update, err := decodeImageUpdate(f)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	if err := h.Store.UpdateImage(id, update); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.Log.Info("updated image", "image_id", id, "fields", len(f))
	h.respondImage(w, id, http.StatusOK)
}

type cropRequest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CropImage handles POST /api/images/{image_id}/crop
func (h *ImageHandler) CropImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "image_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req cropRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.X < 0 || req.Y < 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "crop needs a non-negative origin and a positive width and height")
		return
	}

	rect := image.Rect(req.X, req.Y, req.X+req.Width, req.Y+req.Height)
	if err := h.Catalog.Crop(id, rect); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.respondImage(w, id, http.StatusOK)
}

type rotateRequest struct {
	Degrees *int `json:"degrees"`
}

// RotateImage handles POST /api/images/{image_id}/rotate
func (h *ImageHandler) RotateImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "image_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req rotateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Degrees == nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "degrees is required")
		return
	}

	if err := h.Catalog.Rotate(id, *req.Degrees); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.respondImage(w, id, http.StatusOK)
}

type adjustRequest struct {
	Brightness *float64 `json:"brightness"`
	Contrast   *float64 `json:"contrast"`
}

// AdjustImage handles POST /api/images/{image_id}/adjust. Factors default to 1.
func (h *ImageHandler) AdjustImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "image_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	brightness, contrast := 1.0, 1.0
	if req.Brightness != nil {
		brightness = *req.Brightness
	}
	if req.Contrast != nil {
		contrast = *req.Contrast
	}

	if err := h.Catalog.Adjust(id, brightness, contrast); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.respondImage(w, id, http.StatusOK)
}

func (h *ImageHandler) respondImage(w http.ResponseWriter, id int64, status int) {
	img, err := h.Images.GetByID(id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, status, img)
}
