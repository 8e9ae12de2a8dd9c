package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/kdimtricp/camlens/internal/analysis"
	"github.com/kdimtricp/camlens/internal/models"
	"github.com/rs/zerolog/hlog"
)

type analyzeRequest struct {
	TimeSeconds   *float64 `json:"timeSeconds"`
	DeviceID      string   `json:"deviceId"`
	VideoFilename string   `json:"videoFilename"`
	Prompt        string   `json:"prompt"`
}

type analyzeResponse struct {
	Timestamp string `json:"timestamp"`
	Frame     string `json:"frame"`
	Analysis  string `json:"analysis"`
	Success   bool   `json:"success"`
}

type promptPayload struct {
	Prompt string `json:"prompt"`
}

func (app *App) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, r, fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err))
			return
		}
	}

	offset := analysis.DefaultTimeOffset
	if req.TimeSeconds != nil {
		offset = *req.TimeSeconds
	}

	out, err := app.Analysis.AnalyzeStoredVideo(r.Context(), analysis.VideoRequest{
		VideoFilename: req.VideoFilename,
		TimeOffset:    offset,
		Prompt:        req.Prompt,
		DeviceID:      req.DeviceID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	app.writeOutcome(w, r, out)
}

func (app *App) AnalyzeStreamHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		writeError(w, r, fmt.Errorf("snapshot: %w: %v", errBadRequest, err))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, fmt.Errorf("snapshot: %w: no image file provided", errBadRequest))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, fmt.Errorf("snapshot: %w: %v", errBadRequest, err))
		return
	}

	out, err := app.Analysis.AnalyzeLiveSnapshot(r.Context(), analysis.SnapshotRequest{
		Image:      data,
		Prompt:     r.FormValue("prompt"),
		DeviceID:   r.FormValue("deviceId"),
		StreamName: r.FormValue("streamName"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	app.writeOutcome(w, r, out)
}

func (app *App) writeOutcome(w http.ResponseWriter, r *http.Request, out *analysis.Outcome) {
	if !out.Persisted {
		hlog.FromRequest(r).Warn().Err(out.PersistErr).Msg("analysis returned without being stored")
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Timestamp: out.Stamp,
		Frame:     out.Record.FramePath,
		Analysis:  out.Record.Result,
		Success:   true,
	})
}

func (app *App) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	q := models.HistoryQuery{DeviceID: r.URL.Query().Get("deviceId")}

	if v := r.URL.Query().Get("isStream"); v != "" {
		streams, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("history: %w: isStream must be a boolean", errBadRequest))
			return
		}
		q.StreamsOnly = streams
	}

	records, err := app.Analysis.History(r.Context(), q)
	if err != nil {
		writeError(w, r, fmt.Errorf("history: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (app *App) GetPromptHandler(w http.ResponseWriter, r *http.Request) {
	prompt, err := app.Analysis.Prompt(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("prompt: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, promptPayload{Prompt: prompt})
}

func (app *App) SetPromptHandler(w http.ResponseWriter, r *http.Request) {
	var req promptPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, fmt.Errorf("prompt: %w: invalid JSON body", errBadRequest))
		return
	}

	if err := app.Analysis.SetPrompt(r.Context(), req.Prompt); err != nil {
		writeError(w, r, fmt.Errorf("prompt: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "prompt": req.Prompt})
}
