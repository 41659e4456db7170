package api

import (
	"testing"

	"subnetd/internal/model"
	"subnetd/internal/provision"
	"subnetd/internal/worker"
)

// setupTestHandler builds a handler over mock storage with a running
// worker pool
func setupTestHandler(t *testing.T) (*Handler, *mockStorage) {
	t.Helper()

	store := newMockStorage()
	pool := worker.NewPool(2)
	pool.Start()
	t.Cleanup(pool.Stop)

	handler := NewHandler(store, store, provision.Local{}, pool)
	return handler, store
}

// seedZoneSet stores a zone set directly in the mock
func seedZoneSet(t *testing.T, store *mockStorage, id string, zones ...string) {
	t.Helper()
	err := store.CreateZoneSet(&model.ZoneSet{ID: id, Name: id, Zones: zones})
	if err != nil {
		t.Fatalf("seeding zone set: %v", err)
	}
}
