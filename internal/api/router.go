package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires every route of the service
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", h.GetHealth)

	r.Route("/api/voies-lyonnaises", func(r chi.Router) {
		r.Get("/", h.GetAllLines)
		r.Get("/features", h.GetFeatures)
		r.Get("/summary", h.GetSummary)
		r.Get("/{line}", h.GetLine)
	})

	r.Get("/api/shields", h.GetShields)
	r.Get("/api/shields/{id}.png", h.GetShieldPNG)

	r.Get("/api/runs", h.GetRuns)

	return r
}

// Routes lists the served endpoints, for startup logging
func Routes() []string {
	return []string{
		"GET /health",
		"GET /api/voies-lyonnaises",
		"GET /api/voies-lyonnaises/{line}",
		"GET /api/voies-lyonnaises/features?bbox=minLon,minLat,maxLon,maxLat",
		"GET /api/voies-lyonnaises/summary",
		"GET /api/shields",
		"GET /api/shields/{id}.png",
		"GET /api/runs",
	}
}
