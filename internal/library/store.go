// Package library persists the local record collection and its grouping
// properties in SQLite.
package library

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"proptag/internal/platform"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when schema.sql changes shape.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// version of this tool.
var ErrSchemaMismatch = errors.New("library schema version mismatch")

const dateLayout = "2006-01-02"

// Store manages library persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the library database at path, creating it and its schema
// when absent.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure library directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open library db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

const recordColumns = `id, name, sorting_name, release_date, platforms, links,
    tag_ids, genre_ids, category_ids, feature_ids, series_ids`

// Records loads a snapshot of every library record.
func (s *Store) Records(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		rec         Record
		releaseDate sql.NullString
		platformsJS string
		linksJS     string
		assocJS     [5]string
	)
	err := rows.Scan(
		&rec.ID, &rec.Name, &rec.SortingName, &releaseDate, &platformsJS, &linksJS,
		&assocJS[0], &assocJS[1], &assocJS[2], &assocJS[3], &assocJS[4],
	)
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if releaseDate.Valid && releaseDate.String != "" {
		t, err := time.Parse(dateLayout, releaseDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse release date for record %s: %w", rec.ID, err)
		}
		rec.ReleaseDate = &t
	}

	var names []string
	if err := json.Unmarshal([]byte(platformsJS), &names); err != nil {
		return nil, fmt.Errorf("decode platforms for record %s: %w", rec.ID, err)
	}
	rec.Platforms = platform.NormalizeAll(names)

	if err := json.Unmarshal([]byte(linksJS), &rec.Links); err != nil {
		return nil, fmt.Errorf("decode links for record %s: %w", rec.ID, err)
	}

	lists := []*[]string{&rec.TagIDs, &rec.GenreIDs, &rec.CategoryIDs, &rec.FeatureIDs, &rec.SeriesIDs}
	for i, target := range lists {
		if err := json.Unmarshal([]byte(assocJS[i]), target); err != nil {
			return nil, fmt.Errorf("decode association list for record %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func encodeRecord(rec *Record) (releaseDate any, platformsJS, linksJS string, assocJS [5]string, err error) {
	if rec.ReleaseDate != nil {
		releaseDate = rec.ReleaseDate.Format(dateLayout)
	}

	names := make([]string, 0, len(rec.Platforms))
	for _, p := range rec.Platforms {
		names = append(names, string(p))
	}
	encoded, err := json.Marshal(names)
	if err != nil {
		return nil, "", "", assocJS, fmt.Errorf("encode platforms: %w", err)
	}
	platformsJS = string(encoded)

	links := rec.Links
	if links == nil {
		links = []Link{}
	}
	encoded, err = json.Marshal(links)
	if err != nil {
		return nil, "", "", assocJS, fmt.Errorf("encode links: %w", err)
	}
	linksJS = string(encoded)

	for i, list := range [][]string{rec.TagIDs, rec.GenreIDs, rec.CategoryIDs, rec.FeatureIDs, rec.SeriesIDs} {
		if list == nil {
			list = []string{}
		}
		encoded, err = json.Marshal(list)
		if err != nil {
			return nil, "", "", assocJS, fmt.Errorf("encode association list: %w", err)
		}
		assocJS[i] = string(encoded)
	}
	return releaseDate, platformsJS, linksJS, assocJS, nil
}

// InsertRecords adds new records in one transaction, assigning ids to records
// that have none. Used by library seeding.
func (s *Store) InsertRecords(ctx context.Context, records []*Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		releaseDate, platformsJS, linksJS, assocJS, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (`+recordColumns+`, modified_at)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Name, rec.SortingName, releaseDate, platformsJS, linksJS,
			assocJS[0], assocJS[1], assocJS[2], assocJS[3], assocJS[4], now,
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Name, err)
		}
	}
	return tx.Commit()
}

// FindProperty looks up a grouping property by case-insensitive name within
// its kind. Returns nil when absent.
func (s *Store) FindProperty(ctx context.Context, kind PropertyKind, name string) (*Property, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, kind, name FROM properties WHERE kind = ? AND name = ? COLLATE NOCASE",
		string(kind), name,
	)
	var p Property
	err := row.Scan(&p.ID, &p.Kind, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", kind, name, err)
	}
	return &p, nil
}

// AddProperty creates and persists a new grouping property.
func (s *Store) AddProperty(ctx context.Context, kind PropertyKind, name string) (*Property, error) {
	p := &Property{ID: uuid.NewString(), Kind: kind, Name: name}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO properties (id, kind, name) VALUES (?, ?, ?)",
		p.ID, string(p.Kind), p.Name,
	)
	if err != nil {
		return nil, fmt.Errorf("add %s %q: %w", kind, name, err)
	}
	return p, nil
}

// Properties lists all grouping properties of one kind.
func (s *Store) Properties(ctx context.Context, kind PropertyKind) ([]Property, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, name FROM properties WHERE kind = ? ORDER BY name COLLATE NOCASE",
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("query %s properties: %w", kind, err)
	}
	defer rows.Close()

	var props []Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// Stats summarizes store contents for the library subcommands.
type Stats struct {
	Records    int
	Properties map[PropertyKind]int
}

// CollectStats counts records and properties per kind.
func (s *Store) CollectStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Properties: make(map[PropertyKind]int, len(Kinds()))}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM records").Scan(&stats.Records); err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	for _, kind := range Kinds() {
		var n int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM properties WHERE kind = ?", string(kind),
		).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("count %s properties: %w", kind, err)
		}
		stats.Properties[kind] = n
	}
	return stats, nil
}
