// Package snapshot persists serialized project models keyed by content
// hash, so re-analyzing an unchanged tree is a cache hit instead of a full
// rebuild. A small LRU sits in front of the SQLite table for repeat hits
// within one process.
package snapshot

import (
	"database/sql"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/atlas/internal/model"
)

// memEntries bounds the in-process decoded-document cache.
const memEntries = 16

// Store is the snapshot persistence layer.
type Store struct {
	db  *sql.DB
	mem *lru.Cache[string, *model.Document]
}

// Open creates or opens a snapshot database at dbPath with WAL mode.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping snapshot db: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate snapshot db: %w", err)
	}
	mem, err := lru.New[string, *model.Document](memEntries)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}
	return &Store{db: db, mem: mem}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

const schemaDDL = `
CREATE TABLE IF NOT EXISTS snapshots (
  content_hash  TEXT PRIMARY KEY,
  project_root  TEXT NOT NULL,
  generated_at  TIMESTAMP NOT NULL,
  payload       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_root ON snapshots(project_root);
`

// Get returns the snapshot with the given content hash, or (nil, false).
func (s *Store) Get(contentHash string) (*model.Document, bool, error) {
	if doc, ok := s.mem.Get(contentHash); ok {
		return doc, true, nil
	}
	var payload []byte
	err := s.db.QueryRow(
		"SELECT payload FROM snapshots WHERE content_hash = ?", contentHash,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	doc, err := model.DecodeDocument(payload)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	s.mem.Add(contentHash, doc)
	return doc, true, nil
}

// Put stores a serialized document under its content hash. Re-putting the
// same hash overwrites, which is harmless: the payload is derived from the
// hashed inputs.
func (s *Store) Put(doc *model.Document) error {
	payload, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (content_hash, project_root, generated_at, payload)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(content_hash) DO UPDATE SET
		   project_root = excluded.project_root,
		   generated_at = excluded.generated_at,
		   payload      = excluded.payload`,
		doc.ContentHash, doc.ProjectRoot, doc.GeneratedAt.UTC().Format(time.RFC3339Nano), payload,
	)
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	s.mem.Add(doc.ContentHash, doc)
	return nil
}

// Prune removes all snapshots for a project root except the given hash,
// keeping the database from accumulating stale runs.
func (s *Store) Prune(projectRoot, keepHash string) error {
	_, err := s.db.Exec(
		"DELETE FROM snapshots WHERE project_root = ? AND content_hash != ?",
		projectRoot, keepHash,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
