package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/sessions", apiHandler.CreateSessionHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Session-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.SessionAuthMiddleware)

			r.Get("/session", apiHandler.SessionStateHandler)
			r.Post("/session/messages", apiHandler.PostMessageHandler)
			r.Post("/session/report", apiHandler.GenerateReportHandler)
			r.Get("/session/report/download", apiHandler.DownloadReportHandler)
			r.Get("/session/reports", apiHandler.ListReportsHandler)
			r.Delete("/session/error", apiHandler.ClearErrorHandler)
		})
	})

	return r
}
