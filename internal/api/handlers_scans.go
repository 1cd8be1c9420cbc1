package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/vulnscan"
)

// ScanObserver is told about every finished URL scan.
type ScanObserver interface {
	URLScanFinished(severities []string, err error)
}

type ScanRequest struct {
	URL string `json:"url"`
}

// ScanHandler serves simulated URL scans.
type ScanHandler struct {
	scanner  *vulnscan.Scanner
	observer ScanObserver
	logger   *slog.Logger
}

func NewScanHandler(scanner *vulnscan.Scanner, observer ScanObserver, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{scanner: scanner, observer: observer, logger: logger}
}

// Scan handles POST /api/scans
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	res, err := h.scanner.Scan(r.Context(), req.URL)
	if h.observer != nil {
		h.observer.URLScanFinished(res.Severities(), err)
	}
	if err != nil {
		if errors.Is(err, vulnscan.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Warn("url scan aborted", "url", req.URL, "error", err)
		writeError(w, http.StatusServiceUnavailable, "scan aborted")
		return
	}

	h.logger.Info("url scan finished", "url", req.URL, "findings", len(res.Vulnerabilities))
	writeJSON(w, http.StatusOK, res)
}
