package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugtool"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/eventloop"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/hub"
)

const heartbeatInterval = 15 * time.Second

// SessionHandler exposes debug-tool sessions over HTTP.
type SessionHandler struct {
	manager *hub.Manager
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(manager *hub.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{manager: manager, logger: logger}
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	snap, err := h.manager.Create(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// Get handles GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Command handles POST /api/sessions/{id}/{command}
func (h *SessionHandler) Command(w http.ResponseWriter, r *http.Request) {
	cmd, err := hub.ParseCommand(chi.URLParam(r, "command"))
	if err != nil {
		h.fail(w, err)
		return
	}
	snap, err := h.manager.Exec(r.Context(), chi.URLParam(r, "id"), cmd)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Delete handles DELETE /api/sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Events handles GET /api/sessions/{id}/events as a server-sent event
// stream: one "snapshot" event per change, then "closed" when the session
// is removed.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	updates, cancel, err := h.manager.Subscribe(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case snap, ok := <-updates:
			if !ok {
				sendEvent(w, flusher, "closed", `{"status":"closed"}`)
				return
			}
			sendSnapshot(w, flusher, snap)
		}
	}
}

func sendSnapshot(w http.ResponseWriter, flusher http.Flusher, snap debugtool.Snapshot) {
	data, _ := json.Marshal(snap)
	sendEvent(w, flusher, "snapshot", string(data))
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

// fail maps manager errors onto status codes.
func (h *SessionHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hub.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, hub.ErrUnknownCommand):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, hub.ErrTooManySessions):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, eventloop.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "server shutting down")
	default:
		h.logger.Error("session request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
