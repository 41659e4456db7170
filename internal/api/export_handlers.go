package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"subnetd/internal/export"
	"subnetd/internal/layout"
	"subnetd/internal/log"
	"subnetd/internal/model"
	"subnetd/internal/provision"
	"subnetd/internal/storage"
)

// importRequest describes one import. The two lists arrive either as
// literals or as export-store keys; literals win when both are set.
// Zones come from a stored zone set or inline.
type importRequest struct {
	SubnetIDs     []string       `json:"subnet_ids,omitempty"`
	GroupNames    []string       `json:"group_names,omitempty"`
	SubnetIDsKey  string         `json:"subnet_ids_key,omitempty"`
	GroupNamesKey string         `json:"group_names_key,omitempty"`
	Category      model.Category `json:"category"`
	ZoneSetID     string         `json:"zoneset_id,omitempty"`
	Zones         []string       `json:"zones,omitempty"`
	Provision     bool           `json:"provision,omitempty"`
}

type importResponse struct {
	Subnets []model.Subnet `json:"subnets"`
}

// exportPlacement handles POST /api/placements/{id}/export
func (h *Handler) exportPlacement(w http.ResponseWriter, r *http.Request) {
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

	zs, err := h.storage.GetZoneSet(p.ZoneSetID)
	if err != nil {
		if errors.Is(err, storage.ErrZoneSetNotFound) {
			h.writeError(w, http.StatusConflict, "placement references a missing zone set")
			return
		}
		h.internalError(w, err)
		return
	}

	res, err := export.Publish(h.exports, p, zs.Zones)
	if err != nil {
		if isLayoutError(err) {
			log.Warn("Placement failed layout validation on export", "placement", p.Name, "error", err)
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

// importSubnets handles POST /api/import
func (h *Handler) importSubnets(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("Invalid import request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.Category.Valid() {
		h.writeError(w, http.StatusBadRequest, "category must be public, private or isolated")
		return
	}

	zones := req.Zones
	if len(zones) == 0 && req.ZoneSetID != "" {
		zs, err := h.storage.GetZoneSet(req.ZoneSetID)
		if err != nil {
			if errors.Is(err, storage.ErrZoneSetNotFound) {
				h.writeError(w, http.StatusBadRequest, "zone set not found: "+req.ZoneSetID)
				return
			}
			h.internalError(w, err)
			return
		}
		zones = zs.Zones
	}

	ids, names := req.SubnetIDs, req.GroupNames
	idField, nameField := "subnet_ids", "group_names"

	if ids == nil && req.SubnetIDsKey != "" {
		resolved, resolvedNames, err := export.Resolve(h.exports, req.SubnetIDsKey, req.GroupNamesKey)
		if err != nil {
			h.internalError(w, err)
			return
		}
		ids = resolved
		idField = req.SubnetIDsKey
		if names == nil {
			names = resolvedNames
			if req.GroupNamesKey != "" {
				nameField = req.GroupNamesKey
			}
		}
	}

	subnets, err := layout.Import(ids, names, req.Category, zones, idField, nameField)
	if err != nil {
		log.Warn("Import failed validation", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Provision {
		subnets, err = provision.All(r.Context(), h.pool, h.provisioner, subnets)
		if err != nil {
			h.internalError(w, err)
			return
		}
	}

	log.Info("Imported subnets", "count", len(subnets), "category", req.Category, "provisioned", req.Provision)
	h.writeJSON(w, http.StatusOK, importResponse{Subnets: subnets})
}

// listExports handles GET /api/exports
func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		prefix = "exports/"
	}

	keys, err := h.exports.ListKeys(prefix)
	if err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

// isLayoutError reports whether err is a validation failure from the
// layout rules rather than a storage fault
func isLayoutError(err error) bool {
	var (
		size   *layout.GroupSizeError
		naming *layout.GroupNamingError
		count  *layout.GroupCountError
	)
	return errors.As(err, &size) || errors.As(err, &naming) || errors.As(err, &count) || errors.Is(err, layout.ErrNoZones)
}
