package model

import "time"

// Category describes the purpose of a subnet placement. Each category
// has exactly one canonical default group name used when an export
// record omits its group-name list.
type Category string

const (
	CategoryPublic   Category = "public"
	CategoryPrivate  Category = "private"
	CategoryIsolated Category = "isolated"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryPublic, CategoryPrivate, CategoryIsolated:
		return true
	}
	return false
}

// DefaultGroupName returns the canonical group name for the category
func (c Category) DefaultGroupName() string {
	switch c {
	case CategoryPublic:
		return "Public"
	case CategoryPrivate:
		return "Private"
	case CategoryIsolated:
		return "Isolated"
	}
	return ""
}

// Subnet is one provisioned subnet occupying exactly one zone.
// Path is the hierarchical identifier whose trailing segment encodes
// "<group>Subnet<ordinal>" (1-based). SubnetID is an opaque resource id
// used purely for export/import and never parsed. GroupName and Index
// are stored explicitly so the layout code does not have to recover
// them from the path.
type Subnet struct {
	SubnetID  string `json:"subnet_id"`
	Path      string `json:"path"`
	Zone      string `json:"zone"`
	GroupName string `json:"group_name,omitempty"`
	Index     int    `json:"index"`
}

// Placement is the full ordered subnet list for one category, laid out
// group-major then zone-minor across the zones of its zone set.
type Placement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	ZoneSetID   string    `json:"zoneset_id"`
	Subnets     []Subnet  `json:"subnets"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlacementFilter holds filter criteria for listing placements
type PlacementFilter struct {
	Name      string   // Filter by name (partial match)
	Category  Category // Filter by category
	ZoneSetID string   // Filter by zone set
}

// ExportRecord is the published structure of a placement: one subnet id
// per subnet in list order, and one group name per group in group
// order. IDs is nil iff the placement is empty; Names is nil iff there
// is exactly one group carrying the category default name.
type ExportRecord struct {
	IDs   []string `json:"subnet_ids,omitempty"`
	Names []string `json:"group_names,omitempty"`
}
