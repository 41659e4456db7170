package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subnetd/internal/model"
)

func TestCreateZoneSet(t *testing.T) {
	handler, _ := setupTestHandler(t)

	body, _ := json.Marshal(model.ZoneSet{
		Name:  "eu-west",
		Zones: []string{"eu-west-1a", "eu-west-1b", "eu-west-1c"},
	})
	req := httptest.NewRequest("POST", "/api/zonesets", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.createZoneSet(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created model.ZoneSet
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a generated ID")
	}
	if len(created.Zones) != 3 {
		t.Errorf("expected 3 zones, got %d", len(created.Zones))
	}
}

func TestCreateZoneSetValidation(t *testing.T) {
	handler, _ := setupTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"zones":["a"]}`},
		{"no zones", `{"name":"empty"}`},
		{"bad json", `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/zonesets", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()

			handler.createZoneSet(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestGetZoneSet(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedZoneSet(t, store, "zs-1", "us-east-1a", "us-east-1b")

	req := httptest.NewRequest("GET", "/api/zonesets/zs-1", nil)
	req.SetPathValue("id", "zs-1")
	w := httptest.NewRecorder()

	handler.getZoneSet(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var zs model.ZoneSet
	if err := json.NewDecoder(w.Body).Decode(&zs); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if zs.ID != "zs-1" || len(zs.Zones) != 2 {
		t.Errorf("unexpected zone set: %+v", zs)
	}
}

func TestGetZoneSetNotFound(t *testing.T) {
	handler, _ := setupTestHandler(t)

	req := httptest.NewRequest("GET", "/api/zonesets/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.getZoneSet(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestListZoneSetsFilter(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedZoneSet(t, store, "prod-east", "a", "b")
	seedZoneSet(t, store, "prod-west", "c", "d")
	seedZoneSet(t, store, "staging", "e")

	req := httptest.NewRequest("GET", "/api/zonesets?name=prod", nil)
	w := httptest.NewRecorder()

	handler.listZoneSets(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var sets []model.ZoneSet
	if err := json.NewDecoder(w.Body).Decode(&sets); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(sets) != 2 {
		t.Errorf("expected 2 zone sets, got %d", len(sets))
	}
}

func TestUpdateZoneSet(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedZoneSet(t, store, "zs-1", "a")

	body := `{"name":"renamed","zones":["a","b"]}`
	req := httptest.NewRequest("PUT", "/api/zonesets/zs-1", bytes.NewReader([]byte(body)))
	req.SetPathValue("id", "zs-1")
	w := httptest.NewRecorder()

	handler.updateZoneSet(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	zs, err := store.GetZoneSet("zs-1")
	if err != nil {
		t.Fatalf("fetching updated zone set: %v", err)
	}
	if zs.Name != "renamed" || len(zs.Zones) != 2 {
		t.Errorf("update not persisted: %+v", zs)
	}
}

func TestDeleteZoneSet(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedZoneSet(t, store, "zs-1", "a")

	req := httptest.NewRequest("DELETE", "/api/zonesets/zs-1", nil)
	req.SetPathValue("id", "zs-1")
	w := httptest.NewRecorder()

	handler.deleteZoneSet(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if _, err := store.GetZoneSet("zs-1"); err == nil {
		t.Error("zone set still present after delete")
	}
}

func TestDeleteZoneSetInUse(t *testing.T) {
	handler, store := setupTestHandler(t)
	seedZoneSet(t, store, "zs-1", "a")

	err := store.CreatePlacement(&model.Placement{
		ID:        "pl-1",
		Name:      "web",
		Category:  model.CategoryPublic,
		ZoneSetID: "zs-1",
	})
	if err != nil {
		t.Fatalf("seeding placement: %v", err)
	}

	req := httptest.NewRequest("DELETE", "/api/zonesets/zs-1", nil)
	req.SetPathValue("id", "zs-1")
	w := httptest.NewRecorder()

	handler.deleteZoneSet(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}
