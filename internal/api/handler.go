package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tubemerge/internal/model"
)

const (
	// DefaultResolution is used when a download request names none.
	DefaultResolution = "1080p"

	// maxBodyBytes bounds the request JSON.
	maxBodyBytes = 64 << 10
)

// Client-facing messages. Typed errors are logged, never returned.
const (
	msgURLRequired    = "URL is required"
	msgInvalidRequest = "Invalid request"
	msgNoInfo         = "Could not get video information. Check that the link is correct and the video is public."
	msgDownloadFailed = "Download failed. Check your connection and try again."
	msgRateLimited    = "Too many downloads, try again shortly."
)

// Service is the orchestration surface the handler needs.
type Service interface {
	Info(ctx context.Context, rawURL string) (model.VideoInfo, error)
	DownloadAndMerge(ctx context.Context, rawURL, resolution string) (model.MergeArtifact, error)
}

// DownloadRequest is the JSON body of POST /download/.
type DownloadRequest struct {
	URL        string `json:"url"`
	Action     string `json:"action"`
	Resolution string `json:"resolution,omitempty"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Handler serves the info and download actions.
type Handler struct {
	svc     Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHandler creates a handler. A nil limiter disables download limiting.
func NewHandler(svc Service, limiter *rate.Limiter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{svc: svc, limiter: limiter, logger: logger}
}

// Download handles POST /download/ for both actions.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	var req DownloadRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		h.writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	}

	switch req.Action {
	case "info":
		info, err := h.svc.Info(r.Context(), req.URL)
		if err != nil {
			h.logger.Warn("info failed", "url", req.URL, "error", err)
			h.writeError(w, http.StatusBadRequest, msgNoInfo)
			return
		}
		h.writeJSON(w, http.StatusOK, info)

	case "download":
		if h.limiter != nil && !h.limiter.Allow() {
			h.writeError(w, http.StatusTooManyRequests, msgRateLimited)
			return
		}
		res := strings.TrimSpace(req.Resolution)
		if res == "" {
			res = DefaultResolution
		}
		art, err := h.svc.DownloadAndMerge(r.Context(), req.URL, res)
		if err != nil {
			h.logger.Error("download failed", "url", req.URL, "resolution", res, "error", err)
			h.writeError(w, http.StatusInternalServerError, msgDownloadFailed)
			return
		}
		h.writeJSON(w, http.StatusOK, art)

	default:
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
	}
}

// MethodNotAllowed answers the download endpoint like any other malformed
// request; other routes get a JSON 405.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSuffix(r.URL.Path, "/") == "/download" {
		h.writeError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	h.writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug("write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
