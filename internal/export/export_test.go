package export

import (
	"testing"

	"subnetd/internal/layout"
	"subnetd/internal/model"
	"subnetd/internal/storage"
)

func testStore(t *testing.T) *storage.FileStorage {
	t.Helper()
	store, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return store
}

func testPlacement(names []string, zones []string) *model.Placement {
	var subnets []model.Subnet
	for g, name := range names {
		for z := range zones {
			i := g*len(zones) + z
			subnets = append(subnets, model.Subnet{
				SubnetID:  "subnet-" + layout.SubnetPathID(name, i),
				Path:      layout.SubnetPathID(name, i),
				Zone:      zones[z],
				GroupName: name,
				Index:     i,
			})
		}
	}
	return &model.Placement{
		ID:       "pl-1",
		Name:     "app placement",
		Category: model.CategoryPrivate,
		Subnets:  subnets,
	}
}

func TestKeys(t *testing.T) {
	idsKey, namesKey := Keys("app placement")
	if idsKey != "exports/appplacement/subnet-ids" {
		t.Errorf("ids key = %q", idsKey)
	}
	if namesKey != "exports/appplacement/group-names" {
		t.Errorf("names key = %q", namesKey)
	}
}

func TestPublishResolve(t *testing.T) {
	store := testStore(t)
	zones := []string{"a", "b"}
	p := testPlacement([]string{"App", "Db"}, zones)

	res, err := Publish(store, p, zones)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(res.Record.IDs) != 4 || len(res.Record.Names) != 2 {
		t.Fatalf("unexpected record: %+v", res.Record)
	}
	if len(res.IDRefs) != 4 {
		t.Errorf("expected 4 id refs, got %d", len(res.IDRefs))
	}

	ids, names, err := Resolve(store, res.IDsKey, res.NamesKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	back, err := layout.Import(ids, names, p.Category, zones, res.IDsKey, res.NamesKey)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	for i := range back {
		if back[i].SubnetID != p.Subnets[i].SubnetID {
			t.Errorf("subnet %d id = %q, want %q", i, back[i].SubnetID, p.Subnets[i].SubnetID)
		}
		if back[i].GroupName != p.Subnets[i].GroupName {
			t.Errorf("subnet %d group = %q, want %q", i, back[i].GroupName, p.Subnets[i].GroupName)
		}
	}
}

func TestPublish_DefaultGroupOmitsNamesKey(t *testing.T) {
	store := testStore(t)
	zones := []string{"a", "b"}
	p := testPlacement([]string{"Private"}, zones)

	res, err := Publish(store, p, zones)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.NamesKey != "" || res.NameRefs != nil {
		t.Errorf("expected no names key for default group, got %+v", res)
	}

	ids, names, err := Resolve(store, res.IDsKey, "exports/appplacement/group-names")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if names != nil {
		t.Errorf("expected absent names list, got %v", names)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 ids, got %v", ids)
	}
}

func TestPublish_RetractsStaleLists(t *testing.T) {
	store := testStore(t)
	zones := []string{"a"}
	p := testPlacement([]string{"App", "Db"}, zones)

	res, err := Publish(store, p, zones)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Shrink to a single default-named group and republish: the
	// group-names list must disappear from the store.
	p = testPlacement([]string{"Private"}, zones)
	p.Name = "app placement"
	if _, err := Publish(store, p, zones); err != nil {
		t.Fatalf("republish: %v", err)
	}
	_, names, err := Resolve(store, res.IDsKey, "exports/appplacement/group-names")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if names != nil {
		t.Errorf("stale group-names list survived republish: %v", names)
	}

	// Empty the placement entirely: both lists retract.
	p.Subnets = nil
	if _, err := Publish(store, p, zones); err != nil {
		t.Fatalf("republish empty: %v", err)
	}
	ids, _, err := Resolve(store, res.IDsKey, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ids != nil {
		t.Errorf("stale subnet-ids list survived empty republish: %v", ids)
	}
}
