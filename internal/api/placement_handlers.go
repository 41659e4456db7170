package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"subnetd/internal/layout"
	"subnetd/internal/log"
	"subnetd/internal/model"
	"subnetd/internal/provision"
	"subnetd/internal/storage"
)

// placementRequest is the create/update body. Either Subnets carries an
// explicit list, or Groups names the groups to lay out; in the latter
// case the server builds one subnet per (group, zone) pair and runs
// them through the provisioner.
type placementRequest struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Category    model.Category `json:"category"`
	ZoneSetID   string         `json:"zoneset_id"`
	Description string         `json:"description,omitempty"`
	Subnets     []model.Subnet `json:"subnets,omitempty"`
	Groups      []string       `json:"groups,omitempty"`
}

// listPlacements handles GET /api/placements
func (h *Handler) listPlacements(w http.ResponseWriter, r *http.Request) {
	filter := &model.PlacementFilter{
		Name:      r.URL.Query().Get("name"),
		Category:  model.Category(r.URL.Query().Get("category")),
		ZoneSetID: r.URL.Query().Get("zoneset_id"),
	}

	placements, err := h.storage.ListPlacements(filter)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, placements)
}

// getPlacement handles GET /api/placements/{id}
func (h *Handler) getPlacement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "placement ID required")
		return
	}

	p, err := h.storage.GetPlacement(id)
	if err != nil {
		if errors.Is(err, storage.ErrPlacementNotFound) {
			h.writeError(w, http.StatusNotFound, "placement not found")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// createPlacement handles POST /api/placements
func (h *Handler) createPlacement(w http.ResponseWriter, r *http.Request) {
	var req placementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Invalid placement creation request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, status, err := h.buildPlacement(r, &req)
	if err != nil {
		h.writeError(w, status, err.Error())
		return
	}
	if p.ID == "" {
		p.ID = generatePlacementID()
	}

	if err := h.storage.CreatePlacement(p); err != nil {
		log.Error("Failed to create placement", "error", err, "name", p.Name)
		h.internalError(w, err)
		return
	}

	log.Info("Created placement", "id", p.ID, "name", p.Name, "category", p.Category, "subnets", len(p.Subnets))
	h.writeJSON(w, http.StatusCreated, p)
}

// updatePlacement handles PUT /api/placements/{id}
func (h *Handler) updatePlacement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "placement ID required")
		return
	}

	var req placementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, status, err := h.buildPlacement(r, &req)
	if err != nil {
		h.writeError(w, status, err.Error())
		return
	}
	p.ID = id

	if err := h.storage.UpdatePlacement(p); err != nil {
		if errors.Is(err, storage.ErrPlacementNotFound) {
			h.writeError(w, http.StatusNotFound, "placement not found")
			return
		}
		h.internalError(w, err)
		return
	}

	log.Info("Updated placement", "id", p.ID, "name", p.Name, "subnets", len(p.Subnets))
	h.writeJSON(w, http.StatusOK, p)
}

// deletePlacement handles DELETE /api/placements/{id}
func (h *Handler) deletePlacement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "placement ID required")
		return
	}

	if err := h.storage.DeletePlacement(id); err != nil {
		if errors.Is(err, storage.ErrPlacementNotFound) {
			h.writeError(w, http.StatusNotFound, "placement not found")
			return
		}
		h.internalError(w, err)
		return
	}

	log.Info("Deleted placement", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// buildPlacement validates the request and materializes the subnet
// list. The returned status is only meaningful when err is non-nil.
func (h *Handler) buildPlacement(r *http.Request, req *placementRequest) (*model.Placement, int, error) {
	if req.Name == "" {
		return nil, http.StatusBadRequest, errors.New("name is required")
	}
	if !req.Category.Valid() {
		return nil, http.StatusBadRequest, errors.New("category must be public, private or isolated")
	}
	if req.ZoneSetID == "" {
		return nil, http.StatusBadRequest, errors.New("zoneset_id is required")
	}

	zs, err := h.storage.GetZoneSet(req.ZoneSetID)
	if err != nil {
		if errors.Is(err, storage.ErrZoneSetNotFound) {
			return nil, http.StatusBadRequest, errors.New("zone set not found: " + req.ZoneSetID)
		}
		return nil, http.StatusInternalServerError, err
	}

	p := &model.Placement{
		Name:        req.Name,
		Category:    req.Category,
		ZoneSetID:   zs.ID,
		Description: req.Description,
		Subnets:     req.Subnets,
	}

	if len(req.Groups) > 0 {
		if len(req.Subnets) > 0 {
			return nil, http.StatusBadRequest, errors.New("subnets and groups are mutually exclusive")
		}
		subnets, err := h.layoutGroups(r, req.Groups, zs.Zones)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		p.Subnets = subnets
	}

	// The stored list must satisfy the layout contract it will be
	// exported under.
	if _, err := layout.Export(p.Subnets, p.Category, len(zs.Zones)); err != nil {
		return nil, http.StatusBadRequest, err
	}

	return p, 0, nil
}

// layoutGroups builds the subnet list for the named groups, one subnet
// per (group, zone) pair, group-major then zone-minor, and provisions
// each entry.
func (h *Handler) layoutGroups(r *http.Request, groups []string, zones []string) ([]model.Subnet, error) {
	var subnets []model.Subnet
	for g, name := range groups {
		name = layout.Slug(name)
		if name == "" {
			return nil, errors.New("group names must contain at least one alphanumeric character")
		}
		for z := range zones {
			i := g*len(zones) + z
			zone, err := layout.PickZone(zones, i)
			if err != nil {
				return nil, err
			}
			subnets = append(subnets, model.Subnet{
				Path:      layout.SubnetPathID(name, i),
				Zone:      zone,
				GroupName: name,
				Index:     i,
			})
		}
	}

	provisioned, err := provision.All(r.Context(), h.pool, h.provisioner, subnets)
	if err != nil {
		log.Error("Provisioning failed", "error", err)
		return nil, err
	}
	return provisioned, nil
}
