package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/M-casado/watercolour-processing/catalog"
	"github.com/M-casado/watercolour-processing/config"
	"github.com/M-casado/watercolour-processing/database"
	"github.com/M-casado/watercolour-processing/logging"
	"github.com/M-casado/watercolour-processing/media"
	"github.com/M-casado/watercolour-processing/repository"
)

// Deps are the long-lived components the admin API is served from.
type Deps struct {
	Store      *database.Store
	DB         *gorm.DB
	Catalog    *catalog.Service
	Thumbnails *media.Processor
	Config     *config.Config
	Logger     *slog.Logger
}

// NewRouter builds the admin API.
func NewRouter(d Deps) http.Handler {
	log := logging.OrDiscard(d.Logger).With("component", "http")
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	imageHandler := &ImageHandler{
		Images:  repository.NewImageRepository(d.DB),
		Store:   d.Store,
		Catalog: d.Catalog,
		Log:     log,
	}
	paintingHandler := &PaintingHandler{
		Paintings: repository.NewPaintingRepository(d.DB),
		Catalog:   d.Catalog,
		Log:       log,
	}
	ingestHandler := &IngestHandler{
		Store:           d.Store,
		DefaultPaths:    nonEmpty(cfg.RawDataPath),
		Extensions:      cfg.Extensions,
		PipelineVersion: cfg.PipelineVersion,
		Log:             log,
	}
	if d.Thumbnails != nil {
		ingestHandler.Thumbnailer = d.Thumbnails
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(corsHandler.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Use(BasicAuth(cfg.AdminPasswordHash, log))

		r.Route("/images", func(r chi.Router) {
			r.Get("/", imageHandler.ListImages)
			r.Get("/columns", imageHandler.ListColumns)
			r.Route("/{image_id}", func(r chi.Router) {
				r.Get("/", imageHandler.GetImage)
				r.Patch("/", imageHandler.UpdateImage)
				r.Post("/crop", imageHandler.CropImage)
				r.Post("/rotate", imageHandler.RotateImage)
				r.Post("/adjust", imageHandler.AdjustImage)
			})
		})

		r.Route("/paintings", func(r chi.Router) {
			r.Get("/", paintingHandler.ListPaintings)
			r.Post("/", paintingHandler.CreatePainting)
			r.Route("/{painting_id}", func(r chi.Router) {
				r.Get("/", paintingHandler.GetPainting)
				r.Patch("/", paintingHandler.UpdatePainting)
				r.Get("/images", paintingHandler.ListPaintingImages)
				r.Post("/images", paintingHandler.AttachImage)
				r.Get("/ratings", paintingHandler.ListRatings)
				r.Post("/ratings", paintingHandler.AddRating)
				r.Post("/infer_year", paintingHandler.InferYear)
			})
		})

		r.Post("/ingest", ingestHandler.Ingest)

		if d.Thumbnails != nil {
			r.Get("/thumbnails/{file}", ThumbnailServer(d.Thumbnails, log))
		}
	})

	return r
}

func nonEmpty(p string) []string {
	if p == "" {
		return nil
	}
	return []string{p}
}
