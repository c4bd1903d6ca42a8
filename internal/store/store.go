// Package store owns the canonical application state: the single active test
// and the append-only results collection. Both live under fixed keys as whole
// JSON values; every writer writes the entire value it intends to be
// authoritative. Other handles on the same database learn about writes through
// change notifications (see watch.go).
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nhattran/eduai/internal/model"

	_ "modernc.org/sqlite"
)

// Fixed state keys. They match the storage keys the original web client used.
const (
	KeyActiveTest = "activeTest"
	KeyResults    = "results"
)

// Store is the persistent state contract. The SQLite implementation is the
// durable backend; Memory satisfies the same contract for tests and as a
// degraded fallback when the database cannot be opened.
type Store interface {
	// GetActiveTest returns the active test, or (nil, nil) when absent.
	GetActiveTest() (*model.TestData, error)
	// SetActiveTest replaces the active test; nil deletes it.
	SetActiveTest(t *model.TestData) error
	GetResults() ([]model.StudentResult, error)
	// AppendResult appends to the results collection by rewriting the whole
	// serialized collection. Concurrent appenders from separate handles can
	// race; the last write wins.
	AppendResult(r model.StudentResult) error
	// Subscribe registers a callback fired with the changed key whenever
	// another handle writes it. The returned func cancels the subscription.
	Subscribe(fn func(key string)) (cancel func())

	CreateTeacherSession() (string, error)
	ValidTeacherSession(token string) (bool, error)
	DeleteTeacherSession(token string) error

	Close() error
}

// SQLite is the durable Store backed by a single SQLite database.
type SQLite struct {
	db *sql.DB

	mu       sync.Mutex // serializes whole-value read-modify-write and lastSeen
	lastSeen map[string]int64

	subMu   sync.Mutex
	subs    map[int]func(string)
	nextSub int

	done chan struct{}
}

// NewSQLite opens (creating if needed) the database at dbPath and starts the
// change watcher polling at pollInterval.
func NewSQLite(dbPath string, pollInterval time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &SQLite{
		db:       db,
		lastSeen: make(map[string]int64),
		subs:     make(map[int]func(string)),
		done:     make(chan struct{}),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.snapshotRevisions(); err != nil {
		return nil, fmt.Errorf("snapshot revisions: %w", err)
	}
	go s.watch(pollInterval)
	return s, nil
}

// Close stops the watcher and closes the database.
func (s *SQLite) Close() error {
	close(s.done)
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		revision INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS teacher_sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetActiveTest returns the active test, or (nil, nil) when absent.
func (s *SQLite) GetActiveTest() (*model.TestData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok, err := s.getValue(KeyActiveTest)
	if err != nil || !ok {
		return nil, err
	}
	return decodeTest(value)
}

// SetActiveTest replaces the active test; nil deletes it.
func (s *SQLite) SetActiveTest(t *model.TestData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == nil {
		return s.deleteValue(KeyActiveTest)
	}
	value, err := encodeTest(t)
	if err != nil {
		return err
	}
	return s.setValue(KeyActiveTest, value)
}

// GetResults returns the results collection, oldest first. An absent key is an
// empty collection.
func (s *SQLite) GetResults() ([]model.StudentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getResultsLocked()
}

func (s *SQLite) getResultsLocked() ([]model.StudentResult, error) {
	value, ok, err := s.getValue(KeyResults)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.StudentResult{}, nil
	}
	return decodeResults(value)
}

// AppendResult appends one result by rewriting the whole collection.
func (s *SQLite) AppendResult(r model.StudentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	results, err := s.getResultsLocked()
	if err != nil {
		return err
	}
	results = append(results, r)
	value, err := encodeResults(results)
	if err != nil {
		return err
	}
	return s.setValue(KeyResults, value)
}

func (s *SQLite) getValue(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// setValue upserts a key, bumping its revision so other handles notice the
// change. The caller holds s.mu.
func (s *SQLite) setValue(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, revision) VALUES (?, ?, 1)
		 ON CONFLICT(key) DO UPDATE SET value = ?, revision = revision + 1`,
		key, value, value,
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	// Record our own revision so the watcher does not echo this write back.
	var rev int64
	if err := s.db.QueryRow(`SELECT revision FROM kv WHERE key = ?`, key).Scan(&rev); err != nil {
		return fmt.Errorf("read revision of %s: %w", key, err)
	}
	s.lastSeen[key] = rev
	return nil
}

func (s *SQLite) deleteValue(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	delete(s.lastSeen, key)
	return nil
}

func encodeTest(t *model.TestData) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal test: %w", err)
	}
	return string(data), nil
}

func decodeTest(value string) (*model.TestData, error) {
	var t model.TestData
	if err := json.Unmarshal([]byte(value), &t); err != nil {
		return nil, fmt.Errorf("unmarshal test: %w", err)
	}
	return &t, nil
}

func encodeResults(results []model.StudentResult) (string, error) {
	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}

func decodeResults(value string) ([]model.StudentResult, error) {
	var results []model.StudentResult
	if err := json.Unmarshal([]byte(value), &results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return results, nil
}
