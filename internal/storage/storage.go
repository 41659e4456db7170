package storage

import (
	"errors"

	"subnetd/internal/model"
)

var (
	ErrZoneSetNotFound   = errors.New("zone set not found")
	ErrPlacementNotFound = errors.New("placement not found")
	ErrListNotFound      = errors.New("export list not found")
	ErrInvalidID         = errors.New("invalid ID")
)

// Storage defines the interface for zone set and placement persistence
type Storage interface {
	ListZoneSets(filter *model.ZoneSetFilter) ([]model.ZoneSet, error)
	GetZoneSet(id string) (*model.ZoneSet, error)
	CreateZoneSet(zs *model.ZoneSet) error
	UpdateZoneSet(zs *model.ZoneSet) error
	DeleteZoneSet(id string) error

	ListPlacements(filter *model.PlacementFilter) ([]model.Placement, error)
	GetPlacement(id string) (*model.Placement, error)
	CreatePlacement(p *model.Placement) error
	UpdatePlacement(p *model.Placement) error
	DeletePlacement(id string) error

	Close() error
}

// ExportStore is the string-keyed store of ordered string lists that
// export records are published to. PublishList replaces the list under
// key and returns one opaque reference per element; ResolveList turns
// the key back into the literal values, in order. subnetd treats the
// references as opaque strings and never parses them.
type ExportStore interface {
	PublishList(key string, values []string) ([]string, error)
	ResolveList(key string) ([]string, error)
	DeleteList(key string) error
	ListKeys(prefix string) ([]string, error)
}

// NewStorage creates a storage backend by name. Both backends also
// implement ExportStore.
func NewStorage(backend, dataDir string) (Storage, error) {
	if backend == "file" {
		return NewFileStorage(dataDir)
	}
	return NewSQLiteStorage(dataDir)
}
