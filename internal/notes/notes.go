// Package notes keeps an append-only log of clinician free-text notes
// per patient, persisted best-effort in a local SQLite key-value store.
package notes

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// notesKey is the single namespaced key under which the serialized
// patient -> notes mapping lives.
const notesKey = "pressure-monitor/notes/v1"

const (
	upsertSQL = `
INSERT INTO kv_store (key, value, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value      = excluded.value,
                               updated_at = CURRENT_TIMESTAMP`

	selectSQL = `
SELECT value
FROM kv_store
WHERE key = ?`
)

// Note is one clinician note. Notes are never edited or deleted.
type Note struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ValidationError reports a rejected note.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid note: %s", e.Reason)
}

// Store is the process-scoped notes log. Writes persist best-effort: a
// failed write is logged and the note still served from memory, since
// notes are a non-critical feature. A failed read yields an empty log.
type Store struct {
	dbPath string
	logger *slog.Logger

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error

	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	loaded bool
	byID   map[string][]Note
}

// WithNotesLogger sets the logger for a Store.
func WithNotesLogger(logger *slog.Logger) func(*Store) {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a notes store backed by the SQLite database at
// dbPath. The database is opened lazily on first use.
func NewStore(dbPath string, options ...func(*Store)) *Store {
	s := &Store{
		dbPath: dbPath,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		byID:   make(map[string][]Note),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Store) getDB() (*sql.DB, error) {
	s.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.dbErr = fmt.Errorf("opening notes database: %w", err)
			return
		}
		if _, err = db.Exec(schemaSQL); err != nil {
			_ = db.Close()
			s.dbErr = fmt.Errorf("initializing notes schema: %w", err)
			return
		}
		s.db = db
	})
	return s.db, s.dbErr
}

// Append validates and records a note for a patient. Empty or
// whitespace-only text is rejected with a ValidationError.
func (s *Store) Append(patientID, text string) (Note, error) {
	if strings.TrimSpace(text) == "" {
		return Note{}, &ValidationError{Reason: "text is empty"}
	}
	if patientID == "" {
		return Note{}, &ValidationError{Reason: "patient id is empty"}
	}

	note := Note{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoadedLocked()
	s.byID[patientID] = append(s.byID[patientID], note)
	s.persistLocked()

	return note, nil
}

// ListForPatient returns a snapshot of a patient's notes in insertion
// order. A patient without notes, or a failed read, yields nil.
func (s *Store) ListForPatient(patientID string) []Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureLoadedLocked()
	stored := s.byID[patientID]
	if len(stored) == 0 {
		return nil
	}

	out := make([]Note, len(stored))
	copy(out, stored)
	return out
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.db != nil {
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

// ensureLoadedLocked populates the in-memory log from the key-value
// store on first access. Read failures degrade to an empty log.
func (s *Store) ensureLoadedLocked() {
	if s.loaded {
		return
	}
	s.loaded = true

	db, err := s.getDB()
	if err != nil {
		s.logger.Warn("notes unavailable", slog.Any("error", err))
		return
	}

	var value string
	err = db.QueryRow(selectSQL, notesKey).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return
	case err != nil:
		s.logger.Warn("reading notes", slog.Any("error", err))
		return
	}

	var byID map[string][]Note
	if err = json.Unmarshal([]byte(value), &byID); err != nil {
		s.logger.Warn("decoding notes", slog.Any("error", err))
		return
	}
	if byID != nil {
		s.byID = byID
	}
}

// persistLocked writes the whole log back under the namespaced key.
// Failures are logged, never surfaced.
func (s *Store) persistLocked() {
	db, err := s.getDB()
	if err != nil {
		s.logger.Warn("notes not persisted", slog.Any("error", err))
		return
	}

	value, err := json.Marshal(s.byID)
	if err != nil {
		s.logger.Warn("encoding notes", slog.Any("error", err))
		return
	}

	if _, err = db.Exec(upsertSQL, notesKey, string(value)); err != nil {
		s.logger.Warn("writing notes", slog.Any("error", err))
	}
}
