package api

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"subnetd/internal/model"
	"subnetd/internal/storage"
)

// mockStorage is an in-memory Storage + ExportStore for handler tests
type mockStorage struct {
	mu         sync.RWMutex
	zonesets   map[string]*model.ZoneSet
	placements map[string]*model.Placement
	exports    map[string][]string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		zonesets:   make(map[string]*model.ZoneSet),
		placements: make(map[string]*model.Placement),
		exports:    make(map[string][]string),
	}
}

func (m *mockStorage) Close() error { return nil }

func (m *mockStorage) ListZoneSets(filter *model.ZoneSetFilter) ([]model.ZoneSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ZoneSet
	for _, zs := range m.zonesets {
		if filter != nil && filter.Name != "" && !strings.Contains(zs.Name, filter.Name) {
			continue
		}
		out = append(out, *zs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStorage) GetZoneSet(id string) (*model.ZoneSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if zs, ok := m.zonesets[id]; ok {
		copied := *zs
		return &copied, nil
	}
	for _, zs := range m.zonesets {
		if zs.Name == id {
			copied := *zs
			return &copied, nil
		}
	}
	return nil, storage.ErrZoneSetNotFound
}

func (m *mockStorage) CreateZoneSet(zs *model.ZoneSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	zs.CreatedAt = time.Now()
	zs.UpdatedAt = zs.CreatedAt
	copied := *zs
	m.zonesets[zs.ID] = &copied
	return nil
}

func (m *mockStorage) UpdateZoneSet(zs *model.ZoneSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zonesets[zs.ID]; !ok {
		return storage.ErrZoneSetNotFound
	}
	copied := *zs
	m.zonesets[zs.ID] = &copied
	return nil
}

func (m *mockStorage) DeleteZoneSet(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zonesets[id]; !ok {
		return storage.ErrZoneSetNotFound
	}
	delete(m.zonesets, id)
	return nil
}

func (m *mockStorage) ListPlacements(filter *model.PlacementFilter) ([]model.Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Placement
	for _, p := range m.placements {
		if filter != nil {
			if filter.Name != "" && !strings.Contains(p.Name, filter.Name) {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.ZoneSetID != "" && p.ZoneSetID != filter.ZoneSetID {
				continue
			}
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStorage) GetPlacement(id string) (*model.Placement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.placements[id]; ok {
		copied := *p
		return &copied, nil
	}
	for _, p := range m.placements {
		if p.Name == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, storage.ErrPlacementNotFound
}

func (m *mockStorage) CreatePlacement(p *model.Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	m.placements[p.ID] = &copied
	return nil
}

func (m *mockStorage) UpdatePlacement(p *model.Placement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.placements[p.ID]; !ok {
		return storage.ErrPlacementNotFound
	}
	copied := *p
	m.placements[p.ID] = &copied
	return nil
}

func (m *mockStorage) DeletePlacement(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.placements[id]; !ok {
		return storage.ErrPlacementNotFound
	}
	delete(m.placements, id)
	return nil
}

func (m *mockStorage) PublishList(key string, values []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]string, len(values))
	copy(stored, values)
	m.exports[key] = stored
	refs := make([]string, len(values))
	for i := range refs {
		refs[i] = key + "#" + strconv.Itoa(i)
	}
	return refs, nil
}

func (m *mockStorage) ResolveList(key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	values, ok := m.exports[key]
	if !ok {
		return nil, storage.ErrListNotFound
	}
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

func (m *mockStorage) DeleteList(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exports, key)
	return nil
}

func (m *mockStorage) ListKeys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.exports {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
