// Package export publishes placement structure to the export store and
// resolves it back for import. It owns the key naming convention; the
// layout rules themselves live in internal/layout.
package export

import (
	"errors"
	"fmt"

	"subnetd/internal/layout"
	"subnetd/internal/log"
	"subnetd/internal/model"
	"subnetd/internal/storage"
)

const (
	keyPrefix   = "exports/"
	idsSuffix   = "subnet-ids"
	namesSuffix = "group-names"
)

// Keys returns the export-store keys holding a placement's subnet-id
// and group-name lists
func Keys(placementName string) (idsKey, namesKey string) {
	base := keyPrefix + layout.Slug(placementName)
	return base + "/" + idsSuffix, base + "/" + namesSuffix
}

// Result describes one completed publish: the encoded record, the keys
// written (empty when the corresponding list was omitted), and the
// store references returned for each published element.
type Result struct {
	Record   model.ExportRecord `json:"record"`
	IDsKey   string             `json:"subnet_ids_key,omitempty"`
	NamesKey string             `json:"group_names_key,omitempty"`
	IDRefs   []string           `json:"subnet_id_refs,omitempty"`
	NameRefs []string           `json:"group_name_refs,omitempty"`
}

// Publish encodes the placement against its zone list and writes the
// resulting lists to the store. Omitted lists are retracted so a
// republish after a placement shrank leaves no stale data behind.
func Publish(store storage.ExportStore, p *model.Placement, zones []string) (*Result, error) {
	rec, err := layout.Export(p.Subnets, p.Category, len(zones))
	if err != nil {
		return nil, fmt.Errorf("encoding placement %s: %w", p.Name, err)
	}

	idsKey, namesKey := Keys(p.Name)
	res := &Result{Record: rec}

	if rec.IDs == nil {
		// Nothing to export; retract any previously published lists.
		if err := store.DeleteList(idsKey); err != nil {
			return nil, err
		}
		if err := store.DeleteList(namesKey); err != nil {
			return nil, err
		}
		log.Debug("Retracted empty placement export", "placement", p.Name)
		return res, nil
	}

	res.IDRefs, err = store.PublishList(idsKey, rec.IDs)
	if err != nil {
		return nil, fmt.Errorf("publishing %s: %w", idsKey, err)
	}
	res.IDsKey = idsKey

	if rec.Names == nil {
		if err := store.DeleteList(namesKey); err != nil {
			return nil, err
		}
	} else {
		res.NameRefs, err = store.PublishList(namesKey, rec.Names)
		if err != nil {
			return nil, fmt.Errorf("publishing %s: %w", namesKey, err)
		}
		res.NamesKey = namesKey
	}

	log.Info("Published placement export", "placement", p.Name, "subnets", len(rec.IDs), "groups", len(rec.Names))
	return res, nil
}

// Resolve reads the two exported lists back from the store. A missing
// list resolves to nil, mirroring an omitted field in the record.
func Resolve(store storage.ExportStore, idsKey, namesKey string) (ids, names []string, err error) {
	if idsKey != "" {
		ids, err = store.ResolveList(idsKey)
		if err != nil && !errors.Is(err, storage.ErrListNotFound) {
			return nil, nil, fmt.Errorf("resolving %s: %w", idsKey, err)
		}
	}
	if namesKey != "" {
		names, err = store.ResolveList(namesKey)
		if err != nil && !errors.Is(err, storage.ErrListNotFound) {
			return nil, nil, fmt.Errorf("resolving %s: %w", namesKey, err)
		}
	}
	return ids, names, nil
}
