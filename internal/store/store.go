// Package store handles SQLite persistence of the study document.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/verte-zerg/studo/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DocumentKey is the key the document blob is stored under.
const DocumentKey = "studo_app_data"

// Listener receives the document value after every successful save.
type Listener = func(doc model.Document)

// Store wraps SQLite access for the study document.
type Store struct {
	db *sql.DB

	// writeMu serializes read-modify-write cycles within the process.
	writeMu sync.Mutex

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps writes ordered and avoids SQLITE_BUSY between pool members.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, listeners: map[int]Listener{}}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the raw value stored under key. The boolean is false when the
// key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Load returns the stored document. A missing blob yields the default
// document. A blob that cannot be read or parsed also yields the default
// document, together with the error so the caller can log it.
func (s *Store) Load(ctx context.Context) (model.Document, error) {
	raw, ok, err := s.Get(ctx, DocumentKey)
	if err != nil {
		return model.DefaultDocument(), fmt.Errorf("failed to read document: %w", err)
	}
	if !ok {
		return model.DefaultDocument(), nil
	}
	doc, err := model.DecodeDocument([]byte(raw))
	if err != nil {
		return model.DefaultDocument(), err
	}
	return doc, nil
}

// Save writes the whole document and notifies every listener.
func (s *Store) Save(ctx context.Context, doc model.Document) error {
	s.writeMu.Lock()
	err := s.saveLocked(ctx, doc)
	s.writeMu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast(doc)
	return nil
}

// Update loads the document, applies fn and saves the result. If fn returns
// an error nothing is written.
func (s *Store) Update(ctx context.Context, fn func(doc *model.Document) error) error {
	s.writeMu.Lock()
	doc, err := s.Load(ctx)
	if err != nil {
		// A corrupt blob is replaced by the default document, matching Load.
		logErrf("studo: %v; starting from defaults\n", err)
	}
	if err := fn(&doc); err != nil {
		s.writeMu.Unlock()
		return err
	}
	if err := s.saveLocked(ctx, doc); err != nil {
		s.writeMu.Unlock()
		return err
	}
	s.writeMu.Unlock()
	s.broadcast(doc)
	return nil
}

// Clear removes the stored document and notifies listeners with the default.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	err := s.Delete(ctx, DocumentKey)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to clear document: %w", err)
	}
	s.broadcast(model.DefaultDocument())
	return nil
}

// Subscribe registers fn to receive the document after every save. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) saveLocked(ctx context.Context, doc model.Document) error {
	data, err := model.EncodeDocument(doc)
	if err != nil {
		return err
	}
	if err := s.Set(ctx, DocumentKey, string(data)); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func (s *Store) broadcast(doc model.Document) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	listeners := make([]Listener, 0, len(ids))
	sort.Ints(ids)
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(doc.Clone())
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
