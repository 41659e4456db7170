package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"subnetd/internal/model"
)

// FileStorage implements Storage and ExportStore with JSON files on
// disk. Everything is held in memory and flushed on every write, which
// is plenty for the small data sets subnetd manages.
type FileStorage struct {
	mu         sync.RWMutex
	dataDir    string
	zonesets   map[string]*model.ZoneSet
	placements map[string]*model.Placement
	exports    map[string][]string
}

// NewFileStorage creates a new file-based storage
func NewFileStorage(dataDir string) (*FileStorage, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	fs := &FileStorage{
		dataDir:    dataDir,
		zonesets:   make(map[string]*model.ZoneSet),
		placements: make(map[string]*model.Placement),
		exports:    make(map[string][]string),
	}

	if err := fs.loadAll(); err != nil {
		return nil, err
	}

	return fs, nil
}

// Close is a no-op for the file backend
func (fs *FileStorage) Close() error {
	return nil
}

func (fs *FileStorage) loadAll() error {
	if err := fs.loadFile("zonesets.json", &fs.zonesets); err != nil {
		return err
	}
	if err := fs.loadFile("placements.json", &fs.placements); err != nil {
		return err
	}
	return fs.loadFile("exports.json", &fs.exports)
}

func (fs *FileStorage) loadFile(name string, data interface{}) error {
	path := filepath.Join(fs.dataDir, name)
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	return loadJSON(file, data)
}

func (fs *FileStorage) saveFile(name string, data interface{}) error {
	path := filepath.Join(fs.dataDir, name)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return saveJSON(file, data)
}

// ListZoneSets returns all zone sets, optionally filtered
func (fs *FileStorage) ListZoneSets(filter *model.ZoneSetFilter) ([]model.ZoneSet, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	sets := make([]model.ZoneSet, 0, len(fs.zonesets))
	for _, zs := range fs.zonesets {
		if filter != nil && filter.Name != "" &&
			!strings.Contains(strings.ToLower(zs.Name), strings.ToLower(filter.Name)) {
			continue
		}
		sets = append(sets, *zs)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Name < sets[j].Name })
	return sets, nil
}

// GetZoneSet retrieves a zone set by ID or name
func (fs *FileStorage) GetZoneSet(id string) (*model.ZoneSet, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if id == "" {
		return nil, ErrInvalidID
	}
	if zs, ok := fs.zonesets[id]; ok {
		copied := *zs
		return &copied, nil
	}
	for _, zs := range fs.zonesets {
		if zs.Name == id {
			copied := *zs
			return &copied, nil
		}
	}
	return nil, ErrZoneSetNotFound
}

// CreateZoneSet stores a new zone set
func (fs *FileStorage) CreateZoneSet(zs *model.ZoneSet) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now().UTC()
	zs.CreatedAt = now
	zs.UpdatedAt = now

	copied := *zs
	fs.zonesets[zs.ID] = &copied
	return fs.saveFile("zonesets.json", fs.zonesets)
}

// UpdateZoneSet replaces an existing zone set
func (fs *FileStorage) UpdateZoneSet(zs *model.ZoneSet) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.zonesets[zs.ID]; !ok {
		return ErrZoneSetNotFound
	}
	zs.UpdatedAt = time.Now().UTC()

	copied := *zs
	fs.zonesets[zs.ID] = &copied
	return fs.saveFile("zonesets.json", fs.zonesets)
}

// DeleteZoneSet removes a zone set
func (fs *FileStorage) DeleteZoneSet(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.zonesets[id]; !ok {
		return ErrZoneSetNotFound
	}
	delete(fs.zonesets, id)
	return fs.saveFile("zonesets.json", fs.zonesets)
}

// ListPlacements returns all placements, optionally filtered
func (fs *FileStorage) ListPlacements(filter *model.PlacementFilter) ([]model.Placement, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	placements := make([]model.Placement, 0, len(fs.placements))
	for _, p := range fs.placements {
		if filter != nil {
			if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.ZoneSetID != "" && p.ZoneSetID != filter.ZoneSetID {
				continue
			}
		}
		placements = append(placements, *p)
	}
	sort.Slice(placements, func(i, j int) bool { return placements[i].Name < placements[j].Name })
	return placements, nil
}

// GetPlacement retrieves a placement by ID or name
func (fs *FileStorage) GetPlacement(id string) (*model.Placement, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if id == "" {
		return nil, ErrInvalidID
	}
	if p, ok := fs.placements[id]; ok {
		copied := *p
		return &copied, nil
	}
	for _, p := range fs.placements {
		if p.Name == id {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrPlacementNotFound
}

// CreatePlacement stores a new placement
func (fs *FileStorage) CreatePlacement(p *model.Placement) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	copied := *p
	fs.placements[p.ID] = &copied
	return fs.saveFile("placements.json", fs.placements)
}

// UpdatePlacement replaces an existing placement
func (fs *FileStorage) UpdatePlacement(p *model.Placement) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.placements[p.ID]; !ok {
		return ErrPlacementNotFound
	}
	p.UpdatedAt = time.Now().UTC()

	copied := *p
	fs.placements[p.ID] = &copied
	return fs.saveFile("placements.json", fs.placements)
}

// DeletePlacement removes a placement
func (fs *FileStorage) DeletePlacement(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.placements[id]; !ok {
		return ErrPlacementNotFound
	}
	delete(fs.placements, id)
	return fs.saveFile("placements.json", fs.placements)
}

// PublishList replaces the ordered list stored under key and returns
// one reference per element
func (fs *FileStorage) PublishList(key string, values []string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stored := make([]string, len(values))
	copy(stored, values)
	fs.exports[key] = stored

	if err := fs.saveFile("exports.json", fs.exports); err != nil {
		return nil, err
	}

	refs := make([]string, len(values))
	for pos := range values {
		refs[pos] = listRef(key, pos)
	}
	return refs, nil
}

// ResolveList returns the ordered list stored under key
func (fs *FileStorage) ResolveList(key string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	values, ok := fs.exports[key]
	if !ok {
		return nil, ErrListNotFound
	}
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

// DeleteList removes the list stored under key
func (fs *FileStorage) DeleteList(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	delete(fs.exports, key)
	return fs.saveFile("exports.json", fs.exports)
}

// ListKeys returns the stored list keys matching the prefix
func (fs *FileStorage) ListKeys(prefix string) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var keys []string
	for k := range fs.exports {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
