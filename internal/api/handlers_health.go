package api

import (
	"net/http"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/hub"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type CatalogResponse struct {
	Issues []string `json:"issues"`
}

type HealthHandler struct {
	manager *hub.Manager
}

func NewHealthHandler(manager *hub.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.manager.Len(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "stopping"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Sessions: n})
}

// Catalog handles GET /api/catalog
func (h *HealthHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CatalogResponse{Issues: h.manager.Engine().Catalog()})
}
