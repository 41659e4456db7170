package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"subnetd/internal/log"
	"subnetd/internal/provision"
	"subnetd/internal/storage"
	"subnetd/internal/worker"
)

// Handler handles HTTP requests
type Handler struct {
	storage     storage.Storage
	exports     storage.ExportStore
	provisioner provision.Provisioner
	pool        *worker.Pool
}

// NewHandler creates a new API handler
func NewHandler(s storage.Storage, es storage.ExportStore, p provision.Provisioner, pool *worker.Pool) *Handler {
	return &Handler{storage: s, exports: es, provisioner: p, pool: pool}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Zone set CRUD
	mux.HandleFunc("GET /api/zonesets", h.listZoneSets)
	mux.HandleFunc("POST /api/zonesets", h.createZoneSet)
	mux.HandleFunc("GET /api/zonesets/{id}", h.getZoneSet)
	mux.HandleFunc("PUT /api/zonesets/{id}", h.updateZoneSet)
	mux.HandleFunc("DELETE /api/zonesets/{id}", h.deleteZoneSet)

	// Placement CRUD
	mux.HandleFunc("GET /api/placements", h.listPlacements)
	mux.HandleFunc("POST /api/placements", h.createPlacement)
	mux.HandleFunc("GET /api/placements/{id}", h.getPlacement)
	mux.HandleFunc("PUT /api/placements/{id}", h.updatePlacement)
	mux.HandleFunc("DELETE /api/placements/{id}", h.deletePlacement)

	// Export / import
	mux.HandleFunc("POST /api/placements/{id}/export", h.exportPlacement)
	mux.HandleFunc("POST /api/import", h.importSubnets)
	mux.HandleFunc("GET /api/exports", h.listExports)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// internalError writes a 500 response without leaking the error detail
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal server error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal server error")
}

func generateZoneSetID() string {
	return "zs-" + uuid.NewString()
}

func generatePlacementID() string {
	return "pl-" + uuid.NewString()
}
