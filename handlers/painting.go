package handlers

import (
	"log/slog"
	"net/http"

	"github.com/M-casado/watercolour-processing/catalog"
	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/models"
	"github.com/M-casado/watercolour-processing/repository"
)

// PaintingHandler serves paintings, their linked images and their ratings.
type PaintingHandler struct {
	Paintings repository.PaintingRepositoryInterface
	Catalog   *catalog.Service
	Log       *slog.Logger
}

type createPaintingRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	ExplicitYear      *int    `json:"explicit_year"`
	PersonalFavourite bool    `json:"personal_favourite"`
}

// ListPaintings handles GET /api/paintings
func (h *PaintingHandler) ListPaintings(w http.ResponseWriter, r *http.Request) {
	paintings, err := h.Paintings.List()
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if paintings == nil {
		paintings = []models.Painting{}
	}
	writeJSON(w, http.StatusOK, paintings)
}

// CreatePainting handles POST /api/paintings
func (h *PaintingHandler) CreatePainting(w http.ResponseWriter, r *http.Request) {
	var req createPaintingRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	id, err := h.Catalog.CreatePainting(database.NewPainting{
		Name:              req.Name,
		Description:       req.Description,
		ExplicitYear:      req.ExplicitYear,
		PersonalFavourite: req.PersonalFavourite,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.respondPainting(w, id, http.StatusCreated)
}

// GetPainting handles GET /api/paintings/{painting_id}
func (h *PaintingHandler) GetPainting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "painting_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	h.respondPainting(w, id, http.StatusOK)
}

// UpdatePainting handles PATCH /api/paintings/{painting_id}
func (h *PaintingHandler) UpdatePainting(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "painting_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if _, err := h.Catalog.Painting(id); err != nil {
		writeError(w, h.Log, err)
		return
	}

	f, err := readFields(r.Body)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	update, err := decodePaintingUpdate(f)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if err := h.Catalog.UpdatePainting(id, update); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.respondPainting(w, id, http.StatusOK)
}

// ListPaintingImages handles GET /api/paintings/{painting_id}/images
func (h *PaintingHandler) ListPaintingImages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "painting_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	images, err := h.Catalog.Images(id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if images == nil {
		images = []models.Image{}
	}
	writeJSON(w, http.StatusOK, images)
}

type attachImageRequest struct {
	ImageID int64 `json:"image_id"`
}

// AttachImage handles POST /api/paintings/{painting_id}/images
func (h *PaintingHandler) AttachImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "painting_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req attachImageRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.ImageID <= 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "image_id is required")
		return
	}

	if err := h.Catalog.AttachImage(id, req.ImageID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.PaintingImage{PaintingID: id, ImageID: req.ImageID})
}

// ListRatings handles GET /api/paintings/{painting_id}/ratings
func (h *PaintingHandler) ListRatings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "painting_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if _, err := h.Catalog.Painting(id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ratings, err := h.Paintings.Ratings(id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if ratings == nil {
		ratings = []models.Rating{}
	}
	writeJSON(w, http.StatusOK, ratings)
}

type rateRequest struct {
	ImageID int64   `json:"image_id"`
	Score   int     `json:"score"`
	User    *string `json:"user"`
}

// AddRating handles POST /api/paintings/{painting_id}/ratings. Scores outside
// 1..5 are rejected by the store.
func (h *PaintingHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "painting_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ratingID, err := h.Catalog.Rate(id, req.ImageID, req.Score, req.User)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.Rating{
		ID:         ratingID,
		PaintingID: id,
		ImageID:    req.ImageID,
		Score:      req.Score,
		User:       req.User,
	})
}

// InferYear handles POST /api/paintings/{painting_id}/infer_year
func (h *PaintingHandler) InferYear(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "painting_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if _, err := h.Catalog.InferYear(id); err != nil {
		writeError(w, h.Log, err)
		return
	}
	h.respondPainting(w, id, http.StatusOK)
}

func (h *PaintingHandler) respondPainting(w http.ResponseWriter, id int64, status int) {
	p, err := h.Catalog.Painting(id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, status, p)
}
