package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"subnetd/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteStorage implements Storage and ExportStore with a SQLite backend
type SQLiteStorage struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite-based storage
func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "subnetd.db")

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ss := &SQLiteStorage{
		db:   db,
		path: dbPath,
	}

	if err := ss.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := ss.MigrateToV2(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return ss, nil
}

// initSchema creates the database schema
func (ss *SQLiteStorage) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	_, err = ss.db.Exec(string(schema))
	return err
}

// Close closes the database connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

// ListZoneSets returns all zone sets, optionally filtered
func (ss *SQLiteStorage) ListZoneSets(filter *model.ZoneSetFilter) ([]model.ZoneSet, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT id, name, description, created_at, updated_at
		FROM zonesets
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying zone sets: %w", err)
	}
	defer rows.Close()

	var sets []model.ZoneSet
	for rows.Next() {
		var zs model.ZoneSet
		var desc sql.NullString
		if err := rows.Scan(&zs.ID, &zs.Name, &desc, &zs.CreatedAt, &zs.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning zone set: %w", err)
		}
		zs.Description = desc.String
		sets = append(sets, zs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sets {
		if err := ss.loadZones(&sets[i]); err != nil {
			return nil, err
		}
	}

	if filter != nil && filter.Name != "" {
		filtered := sets[:0]
		for _, zs := range sets {
			if strings.Contains(strings.ToLower(zs.Name), strings.ToLower(filter.Name)) {
				filtered = append(filtered, zs)
			}
		}
		sets = filtered
	}

	return sets, nil
}

// GetZoneSet retrieves a zone set by ID or name
func (ss *SQLiteStorage) GetZoneSet(id string) (*model.ZoneSet, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	return ss.getZoneSet(id)
}

func (ss *SQLiteStorage) getZoneSet(id string) (*model.ZoneSet, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	var zs model.ZoneSet
	var desc sql.NullString
	err := ss.db.QueryRow(`
		SELECT id, name, description, created_at, updated_at
		FROM zonesets
		WHERE id = ? OR name = ?
		LIMIT 1
	`, id, id).Scan(&zs.ID, &zs.Name, &desc, &zs.CreatedAt, &zs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrZoneSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying zone set: %w", err)
	}
	zs.Description = desc.String

	if err := ss.loadZones(&zs); err != nil {
		return nil, err
	}
	return &zs, nil
}

func (ss *SQLiteStorage) loadZones(zs *model.ZoneSet) error {
	rows, err := ss.db.Query(`
		SELECT zone FROM zoneset_zones
		WHERE zoneset_id = ?
		ORDER BY pos
	`, zs.ID)
	if err != nil {
		return fmt.Errorf("querying zones: %w", err)
	}
	defer rows.Close()

	zs.Zones = nil
	for rows.Next() {
		var zone string
		if err := rows.Scan(&zone); err != nil {
			return err
		}
		zs.Zones = append(zs.Zones, zone)
	}
	return rows.Err()
}

// CreateZoneSet stores a new zone set
func (ss *SQLiteStorage) CreateZoneSet(zs *model.ZoneSet) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now().UTC()
	zs.CreatedAt = now
	zs.UpdatedAt = now

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO zonesets (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, zs.ID, zs.Name, zs.Description, zs.CreatedAt, zs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting zone set: %w", err)
	}

	if err := insertZones(tx, zs); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateZoneSet replaces an existing zone set
func (ss *SQLiteStorage) UpdateZoneSet(zs *model.ZoneSet) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	zs.UpdatedAt = time.Now().UTC()

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE zonesets SET name = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, zs.Name, zs.Description, zs.UpdatedAt, zs.ID)
	if err != nil {
		return fmt.Errorf("updating zone set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrZoneSetNotFound
	}

	if _, err := tx.Exec(`DELETE FROM zoneset_zones WHERE zoneset_id = ?`, zs.ID); err != nil {
		return err
	}
	if err := insertZones(tx, zs); err != nil {
		return err
	}

	return tx.Commit()
}

func insertZones(tx *sql.Tx, zs *model.ZoneSet) error {
	for pos, zone := range zs.Zones {
		if _, err := tx.Exec(`
			INSERT INTO zoneset_zones (zoneset_id, pos, zone) VALUES (?, ?, ?)
		`, zs.ID, pos, zone); err != nil {
			return fmt.Errorf("inserting zone %d: %w", pos, err)
		}
	}
	return nil
}

// DeleteZoneSet removes a zone set and its zones
func (ss *SQLiteStorage) DeleteZoneSet(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	res, err := ss.db.Exec(`DELETE FROM zonesets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting zone set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrZoneSetNotFound
	}
	return nil
}

// ListPlacements returns all placements, optionally filtered
func (ss *SQLiteStorage) ListPlacements(filter *model.PlacementFilter) ([]model.Placement, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT id, name, category, zoneset_id, description, created_at, updated_at
		FROM placements
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying placements: %w", err)
	}
	defer rows.Close()

	placements, err := scanPlacements(rows)
	if err != nil {
		return nil, err
	}

	for i := range placements {
		if err := ss.loadSubnets(&placements[i]); err != nil {
			return nil, err
		}
	}

	if filter != nil {
		filtered := placements[:0]
		for _, p := range placements {
			if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
				continue
			}
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if filter.ZoneSetID != "" && p.ZoneSetID != filter.ZoneSetID {
				continue
			}
			filtered = append(filtered, p)
		}
		placements = filtered
	}

	return placements, nil
}

func scanPlacements(rows *sql.Rows) ([]model.Placement, error) {
	var placements []model.Placement
	for rows.Next() {
		var p model.Placement
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.ZoneSetID, &desc, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning placement: %w", err)
		}
		p.Description = desc.String
		placements = append(placements, p)
	}
	return placements, rows.Err()
}

// GetPlacement retrieves a placement by ID or name
func (ss *SQLiteStorage) GetPlacement(id string) (*model.Placement, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if id == "" {
		return nil, ErrInvalidID
	}

	var p model.Placement
	var desc sql.NullString
	err := ss.db.QueryRow(`
		SELECT id, name, category, zoneset_id, description, created_at, updated_at
		FROM placements
		WHERE id = ? OR name = ?
		LIMIT 1
	`, id, id).Scan(&p.ID, &p.Name, &p.Category, &p.ZoneSetID, &desc, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPlacementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying placement: %w", err)
	}
	p.Description = desc.String

	if err := ss.loadSubnets(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (ss *SQLiteStorage) loadSubnets(p *model.Placement) error {
	rows, err := ss.db.Query(`
		SELECT pos, subnet_id, path, zone, group_name
		FROM placement_subnets
		WHERE placement_id = ?
		ORDER BY pos
	`, p.ID)
	if err != nil {
		return fmt.Errorf("querying subnets: %w", err)
	}
	defer rows.Close()

	p.Subnets = nil
	for rows.Next() {
		var s model.Subnet
		if err := rows.Scan(&s.Index, &s.SubnetID, &s.Path, &s.Zone, &s.GroupName); err != nil {
			return err
		}
		p.Subnets = append(p.Subnets, s)
	}
	return rows.Err()
}

// CreatePlacement stores a new placement and its subnet list
func (ss *SQLiteStorage) CreatePlacement(p *model.Placement) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO placements (id, name, category, zoneset_id, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, string(p.Category), p.ZoneSetID, p.Description, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting placement: %w", err)
	}

	if err := insertSubnets(tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePlacement replaces an existing placement and its subnet list
func (ss *SQLiteStorage) UpdatePlacement(p *model.Placement) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()

	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE placements SET name = ?, category = ?, zoneset_id = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, string(p.Category), p.ZoneSetID, p.Description, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("updating placement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlacementNotFound
	}

	if _, err := tx.Exec(`DELETE FROM placement_subnets WHERE placement_id = ?`, p.ID); err != nil {
		return err
	}
	if err := insertSubnets(tx, p); err != nil {
		return err
	}

	return tx.Commit()
}

func insertSubnets(tx *sql.Tx, p *model.Placement) error {
	for pos, s := range p.Subnets {
		if _, err := tx.Exec(`
			INSERT INTO placement_subnets (placement_id, pos, subnet_id, path, zone, group_name)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, pos, s.SubnetID, s.Path, s.Zone, s.GroupName); err != nil {
			return fmt.Errorf("inserting subnet %d: %w", pos, err)
		}
	}
	return nil
}

// DeletePlacement removes a placement and its subnets
func (ss *SQLiteStorage) DeletePlacement(id string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	res, err := ss.db.Exec(`DELETE FROM placements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting placement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlacementNotFound
	}
	return nil
}

// PublishList replaces the ordered list stored under key and returns
// one reference per element
func (ss *SQLiteStorage) PublishList(key string, values []string) ([]string, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	tx, err := ss.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM export_lists WHERE key = ?`, key); err != nil {
		return nil, fmt.Errorf("clearing export list: %w", err)
	}

	refs := make([]string, len(values))
	now := time.Now().UTC()
	for pos, v := range values {
		if _, err := tx.Exec(`
			INSERT INTO export_lists (key, pos, value, published_at) VALUES (?, ?, ?, ?)
		`, key, pos, v, now); err != nil {
			return nil, fmt.Errorf("publishing element %d: %w", pos, err)
		}
		refs[pos] = listRef(key, pos)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return refs, nil
}

// ResolveList returns the ordered list stored under key
func (ss *SQLiteStorage) ResolveList(key string) ([]string, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT value FROM export_lists WHERE key = ? ORDER BY pos
	`, key)
	if err != nil {
		return nil, fmt.Errorf("resolving export list: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if values == nil {
		return nil, ErrListNotFound
	}
	return values, nil
}

// DeleteList removes the list stored under key. Deleting an absent key
// is not an error; the republish path uses it to retract stale lists.
func (ss *SQLiteStorage) DeleteList(key string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	_, err := ss.db.Exec(`DELETE FROM export_lists WHERE key = ?`, key)
	return err
}

// ListKeys returns the distinct list keys matching the prefix
func (ss *SQLiteStorage) ListKeys(prefix string) ([]string, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.Query(`
		SELECT DISTINCT key FROM export_lists WHERE key LIKE ? ORDER BY key
	`, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("listing export keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// listRef builds the opaque reference for one published element
func listRef(key string, pos int) string {
	return key + "#" + strconv.Itoa(pos)
}
