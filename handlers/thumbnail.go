package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/M-casado/watercolour-processing/media"
)

// ThumbnailOpener opens the conventional thumbnail file of an image.
type ThumbnailOpener interface {
	OpenThumbnail(imageID int64) (*os.File, os.FileInfo, error)
}

// ThumbnailServer serves /thumbnails/{file} where file is <image_id>.png.
func ThumbnailServer(thumbs ThumbnailOpener, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		idStr, ok := strings.CutSuffix(file, media.ThumbnailFileExtension)
		imageID, err := strconv.ParseInt(idStr, 10, 64)
		if !ok || err != nil || imageID <= 0 {
			WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid thumbnail path")
			return
		}

		f, info, err := thumbs.OpenThumbnail(imageID)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				WriteAPIError(w, http.StatusNotFound, CodeNotFound, "No thumbnail")
				return
			}
			log.Error("error opening thumbnail", "image_id", imageID, "error", err)
			WriteAPIError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
			return
		}
		defer f.Close()

		if info.IsDir() {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "No thumbnail")
			return
		}

		// thumbnails are rewritten in place after edits
		cacheDuration := 5 * time.Minute
		w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(cacheDuration.Seconds())))
		w.Header().Set("Content-Type", "image/png")

		http.ServeContent(w, r, media.ThumbnailName(imageID), info.ModTime(), f)
	}
}
