// Package catalog persists capability module records in SQLite so the
// registry can be re-seeded across restarts. The engine itself never
// reads the catalog mid-pipeline: the composition root loads records at
// startup and writes mutations through after the registry accepts them.
package catalog

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dshills/capmatch-mcp/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS modules (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    version TEXT,
    specialization TEXT,
    proficiency REAL NOT NULL DEFAULT 0,
    community_rating REAL NOT NULL DEFAULT 0,
    usage_count INTEGER NOT NULL DEFAULT 0,
    last_updated TIMESTAMP,
    host_location TEXT,
    embedding BLOB NOT NULL,
    compatibility_tags TEXT NOT NULL DEFAULT '[]',
    provenance TEXT NOT NULL DEFAULT '{}',
    performance TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_modules_specialization ON modules(specialization);
`

const schemaVersion = "1.0.0"

// Catalog is a SQLite-backed module store.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	// SQLite benefits from a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Upsert writes a module record, replacing any prior row for the id.
func (c *Catalog) Upsert(ctx context.Context, mod *types.CapabilityModule) error {
	tags, err := json.Marshal(mod.CompatibilityTags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	provenance, err := json.Marshal(mod.Provenance)
	if err != nil {
		return fmt.Errorf("marshal provenance: %w", err)
	}
	performance, err := json.Marshal(mod.Performance)
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO modules
			(id, name, version, specialization, proficiency, community_rating,
			 usage_count, last_updated, host_location, embedding,
			 compatibility_tags, provenance, performance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			specialization = excluded.specialization,
			proficiency = excluded.proficiency,
			community_rating = excluded.community_rating,
			usage_count = excluded.usage_count,
			last_updated = excluded.last_updated,
			host_location = excluded.host_location,
			embedding = excluded.embedding,
			compatibility_tags = excluded.compatibility_tags,
			provenance = excluded.provenance,
			performance = excluded.performance
	`,
		mod.ID, mod.Name, mod.Version, mod.Specialization, mod.Proficiency,
		mod.CommunityRating, mod.UsageCount, mod.LastUpdated.UTC().Format(time.RFC3339Nano),
		mod.HostLocation, serializeVector(mod.Embedding),
		string(tags), string(provenance), string(performance),
	)
	if err != nil {
		return fmt.Errorf("upsert module %s: %w", mod.ID, err)
	}
	return nil
}

// Delete removes a module row. Deleting an unknown id is a no-op.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM modules WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete module %s: %w", id, err)
	}
	return nil
}

// LoadAll returns every stored module record.
func (c *Catalog) LoadAll(ctx context.Context) ([]*types.CapabilityModule, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, version, specialization, proficiency, community_rating,
		       usage_count, last_updated, host_location, embedding,
		       compatibility_tags, provenance, performance
		FROM modules
	`)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var mods []*types.CapabilityModule
	for rows.Next() {
		mod, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, rows.Err()
}

// Count returns the stored module count.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM modules").Scan(&n); err != nil {
		return 0, fmt.Errorf("count modules: %w", err)
	}
	return n, nil
}

func scanModule(rows *sql.Rows) (*types.CapabilityModule, error) {
	var (
		mod         types.CapabilityModule
		lastUpdated string
		blob        []byte
		tags        string
		provenance  string
		performance string
	)
	if err := rows.Scan(
		&mod.ID, &mod.Name, &mod.Version, &mod.Specialization, &mod.Proficiency,
		&mod.CommunityRating, &mod.UsageCount, &lastUpdated, &mod.HostLocation,
		&blob, &tags, &provenance, &performance,
	); err != nil {
		return nil, fmt.Errorf("scan module: %w", err)
	}

	if lastUpdated != "" {
		t, err := time.Parse(time.RFC3339Nano, lastUpdated)
		if err != nil {
			return nil, fmt.Errorf("parse last_updated for %s: %w", mod.ID, err)
		}
		mod.LastUpdated = t
	}
	mod.Embedding = deserializeVector(blob)
	if err := json.Unmarshal([]byte(tags), &mod.CompatibilityTags); err != nil {
		return nil, fmt.Errorf("unmarshal tags for %s: %w", mod.ID, err)
	}
	if err := json.Unmarshal([]byte(provenance), &mod.Provenance); err != nil {
		return nil, fmt.Errorf("unmarshal provenance for %s: %w", mod.ID, err)
	}
	if err := json.Unmarshal([]byte(performance), &mod.Performance); err != nil {
		return nil, fmt.Errorf("unmarshal performance for %s: %w", mod.ID, err)
	}
	return &mod, nil
}

// serializeVector converts a float32 slice to a little-endian blob.
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a blob back to a float32 slice.
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}
