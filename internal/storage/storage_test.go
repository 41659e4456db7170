package storage

import (
	"errors"
	"testing"

	"subnetd/internal/model"
)

// both backends must satisfy the same contract
func backends(t *testing.T) map[string]interface {
	Storage
	ExportStore
} {
	t.Helper()

	sqlite, err := NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create sqlite storage: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	file, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file storage: %v", err)
	}

	return map[string]interface {
		Storage
		ExportStore
	}{
		"sqlite": sqlite,
		"file":   file,
	}
}

func TestStorage_ZoneSetCRUD(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			zs := &model.ZoneSet{
				ID:    "zs-1",
				Name:  "eu-west",
				Zones: []string{"eu-west-1a", "eu-west-1b", "eu-west-1c"},
			}
			if err := store.CreateZoneSet(zs); err != nil {
				t.Fatalf("CreateZoneSet: %v", err)
			}

			got, err := store.GetZoneSet("zs-1")
			if err != nil {
				t.Fatalf("GetZoneSet: %v", err)
			}
			if len(got.Zones) != 3 || got.Zones[1] != "eu-west-1b" {
				t.Errorf("zones out of order: %v", got.Zones)
			}

			// Lookup by name
			if _, err := store.GetZoneSet("eu-west"); err != nil {
				t.Errorf("GetZoneSet by name: %v", err)
			}

			zs.Zones = []string{"eu-west-1a", "eu-west-1b"}
			if err := store.UpdateZoneSet(zs); err != nil {
				t.Fatalf("UpdateZoneSet: %v", err)
			}
			got, _ = store.GetZoneSet("zs-1")
			if len(got.Zones) != 2 {
				t.Errorf("expected 2 zones after update, got %d", len(got.Zones))
			}

			sets, err := store.ListZoneSets(nil)
			if err != nil {
				t.Fatalf("ListZoneSets: %v", err)
			}
			if len(sets) != 1 {
				t.Errorf("expected 1 zone set, got %d", len(sets))
			}

			if err := store.DeleteZoneSet("zs-1"); err != nil {
				t.Fatalf("DeleteZoneSet: %v", err)
			}
			if _, err := store.GetZoneSet("zs-1"); !errors.Is(err, ErrZoneSetNotFound) {
				t.Errorf("expected ErrZoneSetNotFound, got %v", err)
			}
		})
	}
}

func TestStorage_PlacementCRUD(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			zs := &model.ZoneSet{ID: "zs-1", Name: "zones", Zones: []string{"a", "b"}}
			if err := store.CreateZoneSet(zs); err != nil {
				t.Fatalf("CreateZoneSet: %v", err)
			}

			p := &model.Placement{
				ID:        "pl-1",
				Name:      "app-private",
				Category:  model.CategoryPrivate,
				ZoneSetID: "zs-1",
				Subnets: []model.Subnet{
					{SubnetID: "s-0", Path: "AppSubnet1", Zone: "a", GroupName: "App", Index: 0},
					{SubnetID: "s-1", Path: "AppSubnet2", Zone: "b", GroupName: "App", Index: 1},
				},
			}
			if err := store.CreatePlacement(p); err != nil {
				t.Fatalf("CreatePlacement: %v", err)
			}

			got, err := store.GetPlacement("pl-1")
			if err != nil {
				t.Fatalf("GetPlacement: %v", err)
			}
			if got.Category != model.CategoryPrivate {
				t.Errorf("category = %q", got.Category)
			}
			if len(got.Subnets) != 2 || got.Subnets[1].SubnetID != "s-1" {
				t.Errorf("subnets out of order: %+v", got.Subnets)
			}
			if got.Subnets[0].GroupName != "App" {
				t.Errorf("group name lost: %+v", got.Subnets[0])
			}

			// Lookup by name
			if _, err := store.GetPlacement("app-private"); err != nil {
				t.Errorf("GetPlacement by name: %v", err)
			}

			// Filtered list
			list, err := store.ListPlacements(&model.PlacementFilter{Category: model.CategoryPublic})
			if err != nil {
				t.Fatalf("ListPlacements: %v", err)
			}
			if len(list) != 0 {
				t.Errorf("expected no public placements, got %d", len(list))
			}

			p.Subnets = p.Subnets[:1]
			if err := store.UpdatePlacement(p); err != nil {
				t.Fatalf("UpdatePlacement: %v", err)
			}
			got, _ = store.GetPlacement("pl-1")
			if len(got.Subnets) != 1 {
				t.Errorf("expected 1 subnet after update, got %d", len(got.Subnets))
			}

			if err := store.DeletePlacement("pl-1"); err != nil {
				t.Fatalf("DeletePlacement: %v", err)
			}
			if _, err := store.GetPlacement("pl-1"); !errors.Is(err, ErrPlacementNotFound) {
				t.Errorf("expected ErrPlacementNotFound, got %v", err)
			}
		})
	}
}

func TestStorage_ExportLists(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			values := []string{"subnet-1", "subnet-2", "subnet-3"}
			refs, err := store.PublishList("exports/app/subnet-ids", values)
			if err != nil {
				t.Fatalf("PublishList: %v", err)
			}
			if len(refs) != 3 {
				t.Fatalf("expected 3 refs, got %d", len(refs))
			}
			if refs[0] != "exports/app/subnet-ids#0" {
				t.Errorf("unexpected ref format: %q", refs[0])
			}

			got, err := store.ResolveList("exports/app/subnet-ids")
			if err != nil {
				t.Fatalf("ResolveList: %v", err)
			}
			for i, v := range values {
				if got[i] != v {
					t.Errorf("value %d = %q, want %q", i, got[i], v)
				}
			}

			// Publishing again replaces the whole list
			if _, err := store.PublishList("exports/app/subnet-ids", []string{"only"}); err != nil {
				t.Fatalf("republish: %v", err)
			}
			got, _ = store.ResolveList("exports/app/subnet-ids")
			if len(got) != 1 || got[0] != "only" {
				t.Errorf("expected replaced list, got %v", got)
			}

			if _, err := store.PublishList("exports/app/group-names", []string{"App"}); err != nil {
				t.Fatalf("PublishList names: %v", err)
			}
			keys, err := store.ListKeys("exports/app/")
			if err != nil {
				t.Fatalf("ListKeys: %v", err)
			}
			if len(keys) != 2 {
				t.Errorf("expected 2 keys, got %v", keys)
			}

			if err := store.DeleteList("exports/app/group-names"); err != nil {
				t.Fatalf("DeleteList: %v", err)
			}
			if _, err := store.ResolveList("exports/app/group-names"); !errors.Is(err, ErrListNotFound) {
				t.Errorf("expected ErrListNotFound, got %v", err)
			}

			// Deleting an absent key is not an error
			if err := store.DeleteList("exports/app/group-names"); err != nil {
				t.Errorf("delete absent key: %v", err)
			}
		})
	}
}

func TestFileStorage_Reload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	zs := &model.ZoneSet{ID: "zs-1", Name: "zones", Zones: []string{"a"}}
	if err := store.CreateZoneSet(zs); err != nil {
		t.Fatalf("CreateZoneSet: %v", err)
	}
	if _, err := store.PublishList("exports/x/subnet-ids", []string{"s-1"}); err != nil {
		t.Fatalf("PublishList: %v", err)
	}

	// A fresh instance over the same directory sees the data
	reloaded, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, err := reloaded.GetZoneSet("zs-1"); err != nil {
		t.Errorf("zone set lost on reload: %v", err)
	}
	values, err := reloaded.ResolveList("exports/x/subnet-ids")
	if err != nil || len(values) != 1 {
		t.Errorf("export list lost on reload: %v %v", values, err)
	}
}
