package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/M-casado/watercolour-processing/catalog"
	"github.com/M-casado/watercolour-processing/database"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

const (
	CodeBadRequest    = "bad_request"
	CodeNotFound      = "not_found"
	CodeDuplicate     = "duplicate"
	CodeStorage       = "storage_error"
	CodeUnauthorized  = "unauthorized"
	CodeInternalError = "internal_error"
)

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// writeError maps catalogue errors onto HTTP statuses. Duplicates are 409 and
// storage errors the store rejected because of their data are 422. Missing
// records are 404 and rejected edits 400. Anything else, including database
// failures, is a logged 500.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, database.ErrDuplicate):
		WriteAPIError(w, http.StatusConflict, CodeDuplicate, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, catalog.ErrImageNotFound),
		errors.Is(err, catalog.ErrPaintingNotFound):
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, catalog.ErrRawImage), errors.Is(err, catalog.ErrInvalidEdit):
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	case database.IsRejected(err):
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeStorage, err.Error())
	default:
		log.Error("request failed", "error", err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
