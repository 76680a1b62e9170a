package handlers

import (
	"log/slog"
	"net/http"

	"github.com/M-casado/watercolour-processing/ingest"
)

// IngestHandler runs ingestion against the server's open store.
type IngestHandler struct {
	Store           ingest.ImageStore
	Thumbnailer     ingest.Thumbnailer
	DefaultPaths    []string
	Extensions      []string
	PipelineVersion string
	Log             *slog.Logger
}

type ingestRequest struct {
	Paths      []string `json:"paths"`
	Extensions []string `json:"extensions"`
}

// Ingest handles POST /api/ingest. The run is synchronous and the response
// is its summary. An empty body ingests the configured raw data path.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
	}
	paths := req.Paths
	if len(paths) == 0 {
		paths = h.DefaultPaths
	}
	if len(paths) == 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "no paths to ingest")
		return
	}
	extensions := h.Extensions
	if req.Extensions != nil {
		extensions = req.Extensions
	}

	summary, err := ingest.New(h.Store, ingest.Options{
		Extensions:      extensions,
		PipelineVersion: h.PipelineVersion,
		Thumbnailer:     h.Thumbnailer,
		Logger:          h.Log,
	}).Ingest(paths)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
