package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/liquidaciones/internal/http/export"
	"github.com/MrJamesThe3rd/liquidaciones/internal/http/settlement"
)

func New(
	settlementsV1 *settlement.Handler,
	exportV1 *export.Handler,
	metrics http.Handler,
	allowedOrigins []string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	if metrics != nil {
		router.Handle("/metrics", metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/settlements", settlementsV1.Routes)
		r.Route("/export", exportV1.Routes)
	})

	return router
}
