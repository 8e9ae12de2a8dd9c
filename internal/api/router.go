package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/hlog"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(app.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/hello", HelloHandler)
		r.Get("/test", StatusHandler)

		r.Get("/videos", app.ListVideosHandler)
		r.Get("/video/{filename}", app.StreamVideoHandler)
		r.Get("/frames/{filename}", app.FrameHandler)

		r.Post("/analyze", app.AnalyzeHandler)
		r.Post("/analyze-stream", app.AnalyzeStreamHandler)
		r.Get("/history", app.HistoryHandler)

		r.Get("/prompt", app.GetPromptHandler)
		r.Post("/prompt", app.SetPromptHandler)
	})

	return r
}
