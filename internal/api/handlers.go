package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/kdimtricp/camlens/internal/analysis"
	"github.com/kdimtricp/camlens/internal/storage"
	"github.com/kdimtricp/camlens/internal/video"
	"github.com/rs/zerolog"
)

var errBadRequest = errors.New("bad request")

type App struct {
	Analysis      *analysis.Service
	Catalog       *video.Catalog
	Locator       *video.Locator
	Storage       storage.Storage
	MaxUploadSize int64
	Logger        zerolog.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func HelloHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from the camera analysis API"})
}

func StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "API is working"})
}

func (app *App) ListVideosHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.Catalog.List())
}

func (app *App) StreamVideoHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if _, ok := app.Catalog.Lookup(filename); !ok {
		writeError(w, r, fmt.Errorf("catalog: %w: %s", video.ErrNotFound, filename))
		return
	}

	path, err := app.Locator.Locate(filename)
	if err != nil {
		writeError(w, r, fmt.Errorf("locate: %w", err))
		return
	}

	file, err := os.Open(path)
	if err != nil {
		writeError(w, r, fmt.Errorf("locate: %w", err))
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		writeError(w, r, fmt.Errorf("locate: %w", err))
		return
	}

	w.Header().Set("Content-Type", "video/mp4")

	// ServeContent handles Range requests and 206 Partial Content
	http.ServeContent(w, r, filename, stat.ModTime(), file)
}

func (app *App) FrameHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	file, info, err := app.Storage.OpenFrame(filename)
	if err != nil {
		writeError(w, r, fmt.Errorf("frame: %w", err))
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
