package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"transcript-tool/internal/http/handlers"
	"transcript-tool/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger, rateLimitPerMin int) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	r.Get("/", app.Index)
	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimit(rateLimitPerMin, time.Minute)).
			Post("/transcribe", app.Transcribe)
		r.Get("/status/{id}", app.Status)
		r.Post("/pause/{id}", app.Pause)
		r.Post("/resume/{id}", app.Resume)
		r.Get("/download/{id}", app.Download)
		r.Get("/artifacts/{id}", app.Artifacts)
		r.Get("/progress/{id}", app.Progress)
	})

	return r
}
