// Package runstore provides an optional idempotency cache for pipeline
// runs: a sqlite-backed store keyed by a content hash of (query, responses,
// config), letting a caller skip re-running the pipeline on identical
// inputs (spec.md §3's byte-equivalence guarantee; SPEC_FULL.md's domain
// stack). Grounded on internal/storage/sqlite.go and
// internal/storage/sqlite_schema.go: the same Open/pragma/schema sequence,
// generalized from the teacher's thought/branch tables to a single
// key-value run cache.
package runstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	key TEXT PRIMARY KEY,
	artifact TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

// Store is a sqlite-backed cache of CognitiveArtifact results, keyed by
// RunKey.
type Store struct {
	db *sql.DB

	stmtGet    *sql.Stmt
	stmtPut    *sql.Stmt
	stmtPrune  *sql.Stmt
}

// Open creates or opens the sqlite database at dsn and prepares the
// run-cache schema.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("run store dsn must not be empty")
	}

	db, err := sql.Open("sqlite", dsn+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping run store: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run store schema: %w", err)
	}

	s := &Store{db: db}
	var err2 error
	if s.stmtGet, err2 = db.Prepare(`SELECT artifact FROM runs WHERE key = ?`); err2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare get statement: %w", err2)
	}
	if s.stmtPut, err2 = db.Prepare(`
		INSERT INTO runs (key, artifact, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET artifact=excluded.artifact, created_at=excluded.created_at
	`); err2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare put statement: %w", err2)
	}
	if s.stmtPrune, err2 = db.Prepare(`DELETE FROM runs WHERE created_at < ?`); err2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare prune statement: %w", err2)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunKey returns the content hash identifying a (query, responses, config)
// triple. Responses are hashed in the order given, since the artifact's
// statement/paragraph lists already follow that order (shadow.Extract) —
// reordering responses is a different run by this pipeline's own
// determinism contract, not an equivalent one.
func RunKey(query string, responses []pipeline.ModelResponse, cfg any) (string, error) {
	h := sha256.New()
	if _, err := h.Write([]byte(query)); err != nil {
		return "", err
	}
	for _, r := range responses {
		if _, err := fmt.Fprintf(h, "\x00%d\x00%s", r.ModelIndex, r.Text); err != nil {
			return "", err
		}
	}
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config for run key: %w", err)
	}
	if _, err := h.Write(cfgBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached artifact for key, or ok=false if absent.
func (s *Store) Get(ctx context.Context, key string) (*pipeline.CognitiveArtifact, bool, error) {
	var raw string
	err := s.stmtGet.QueryRowContext(ctx, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read run cache entry: %w", err)
	}
	var artifact pipeline.CognitiveArtifact
	if err := json.Unmarshal([]byte(raw), &artifact); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached artifact: %w", err)
	}
	return &artifact, true, nil
}

// Put stores artifact under key, overwriting any prior entry.
func (s *Store) Put(ctx context.Context, key string, artifact *pipeline.CognitiveArtifact) error {
	raw, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to encode artifact for run cache: %w", err)
	}
	_, err = s.stmtPut.ExecContext(ctx, key, string(raw), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write run cache entry: %w", err)
	}
	return nil
}

// Prune deletes cache entries older than olderThan.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) error {
	_, err := s.stmtPrune.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to prune run cache: %w", err)
	}
	return nil
}
