package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"reel/internal/httpapi/handlers"
	"reel/internal/httpkit"
	"reel/internal/pkg/logger"
	"reel/internal/pkg/middleware"
)

func NewRouter(d handlers.Deps) http.Handler {
	r := chi.NewRouter()

	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))

	allowedOrigins := envCSV("CORS_ALLOWED_ORIGINS", []string{
		"http://localhost:3000",
		"http://localhost:5173",
	})
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(d)

	// ---- HEALTH ----
	r.Get("/health", h.Health)

	// ---- UPLOADS ----
	r.Post("/api/uploads/presign", h.PresignUpload)
	r.Post("/api/uploads/delete", h.DeleteUpload)

	// ---- RENDERS ----
	r.Post("/api/renders", h.PostRender)
	r.Get("/api/renders/{renderId}/progress", h.GetRenderProgress)

	// Local object endpoints exist only when the localfs provider is active;
	// with S3 the presigned URL points straight at the bucket.
	if d.Local != nil {
		r.Put("/uploads/*", h.PutLocalObject)
		r.Get("/uploads/*", h.GetLocalObject)
	}

	return r
}

func envCSV(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
