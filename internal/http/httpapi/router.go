package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"adstudio/internal/http/handlers"
	"adstudio/internal/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
	)
	if app.Config != nil && app.Config.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(app.Config.JWTSecret))

		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/analyze", app.ProductsAnalyze)
			r.Post("/concepts", app.ProductsConcepts)
		})
		r.Route("/v1/generations", func(r chi.Router) {
			r.Post("/", app.Generations)
			r.Get("/{id}/progress", app.GenerationProgress)
		})
		r.Route("/v1/style", func(r chi.Router) {
			r.Post("/analyze", app.StyleAnalyze)
			r.Post("/generations", app.StyleGenerations)
		})
		r.Get("/v1/credits", app.Credits)
		r.Route("/v1/assets", func(r chi.Router) {
			r.Get("/", app.ListAssets)
			r.Get("/{id}", app.DownloadAsset)
		})
	})

	return r
}
