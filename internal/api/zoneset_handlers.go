package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"subnetd/internal/log"
	"subnetd/internal/model"
	"subnetd/internal/storage"
)

// listZoneSets handles GET /api/zonesets
func (h *Handler) listZoneSets(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	filter := &model.ZoneSetFilter{Name: name}

	log.Debug("Listing zone sets", "name", name)

	sets, err := h.storage.ListZoneSets(filter)
	if err != nil {
		log.Error("Failed to list zone sets", "error", err)
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, sets)
}

// getZoneSet handles GET /api/zonesets/{id}
func (h *Handler) getZoneSet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "zone set ID required")
		return
	}

	zs, err := h.storage.GetZoneSet(id)
	if err != nil {
		if errors.Is(err, storage.ErrZoneSetNotFound) {
			h.writeError(w, http.StatusNotFound, "zone set not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, zs)
}

// createZoneSet handles POST /api/zonesets
func (h *Handler) createZoneSet(w http.ResponseWriter, r *http.Request) {
	var zs model.ZoneSet
	if err := json.NewDecoder(r.Body).Decode(&zs); err != nil {
		log.Warn("Invalid zone set creation request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if zs.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(zs.Zones) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one zone is required")
		return
	}

	if zs.ID == "" {
		zs.ID = generateZoneSetID()
	}

	log.Debug("Creating zone set", "name", zs.Name, "zones", len(zs.Zones))

	if err := h.storage.CreateZoneSet(&zs); err != nil {
		log.Error("Failed to create zone set", "error", err, "name", zs.Name)
		h.internalError(w, err)
		return
	}

	log.Info("Created zone set", "id", zs.ID, "name", zs.Name, "zones", len(zs.Zones))
	h.writeJSON(w, http.StatusCreated, zs)
}

// updateZoneSet handles PUT /api/zonesets/{id}
func (h *Handler) updateZoneSet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "zone set ID required")
		return
	}

	var zs model.ZoneSet
	if err := json.NewDecoder(r.Body).Decode(&zs); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	zs.ID = id

	if zs.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(zs.Zones) == 0 {
		h.writeError(w, http.StatusBadRequest, "at least one zone is required")
		return
	}

	if err := h.storage.UpdateZoneSet(&zs); err != nil {
		if errors.Is(err, storage.ErrZoneSetNotFound) {
			h.writeError(w, http.StatusNotFound, "zone set not found")
			return
		}
		h.internalError(w, err)
		return
	}

	log.Info("Updated zone set", "id", zs.ID, "name", zs.Name)
	h.writeJSON(w, http.StatusOK, zs)
}

// deleteZoneSet handles DELETE /api/zonesets/{id}
func (h *Handler) deleteZoneSet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "zone set ID required")
		return
	}

	// Placements referencing the zone set would be orphaned
	placements, err := h.storage.ListPlacements(&model.PlacementFilter{ZoneSetID: id})
	if err != nil {
		h.internalError(w, err)
		return
	}
	if len(placements) > 0 {
		h.writeError(w, http.StatusConflict, "zone set is in use by placements")
		return
	}

	if err := h.storage.DeleteZoneSet(id); err != nil {
		if errors.Is(err, storage.ErrZoneSetNotFound) {
			h.writeError(w, http.StatusNotFound, "zone set not found")
			return
		}
		h.internalError(w, err)
		return
	}

	log.Info("Deleted zone set", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
