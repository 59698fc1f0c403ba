// Package session loads, memoizes and aggregates per-patient,
// per-date pressure recording sessions.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/careband/pressure-monitor/internal/metrics"
	"github.com/careband/pressure-monitor/internal/sensor"
)

// Session is one patient's recorded data for one calendar date: the
// ordered frame sequence plus derived metrics. Sessions are immutable
// after creation; a re-fetch replaces the session wholesale.
type Session struct {
	PatientID   string
	PatientName string
	DateKey     string
	Filename    string

	Frames    []sensor.Frame
	LastFrame sensor.Frame

	PPI         float64
	ContactArea float64
	Status      metrics.Status
	Alert       bool
}

// Store loads sessions from a sensor data source and memoizes them per
// patient for the lifetime of the process. The Store owns its cached
// sessions; callers must not mutate what it returns.
type Store struct {
	index  *Index
	source sensor.Source
	engine *metrics.Engine
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string][]*Session

	group singleflight.Group
}

// WithStoreLogger sets the logger for a Store.
func WithStoreLogger(logger *slog.Logger) func(*Store) {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a session store over the given patient index, data
// source and metrics engine.
func NewStore(index *Index, source sensor.Source, engine *metrics.Engine, options ...func(*Store)) *Store {
	s := &Store{
		index:  index,
		source: source,
		engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cache:  make(map[string][]*Session),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Index returns the patient index the store was built over.
func (s *Store) Index() *Index { return s.index }

// LoadSession loads a single session for a patient and date. A session
// already present in the patient cache is served from there; otherwise
// it is fetched and built without populating the bulk cache.
func (s *Store) LoadSession(ctx context.Context, patientID, dateKey string) (*Session, error) {
	meta, err := s.index.Patient(patientID)
	if err != nil {
		return nil, err
	}

	filename, ok := meta.Files[dateKey]
	if !ok {
		return nil, fmt.Errorf("%s on %s: %w", patientID, dateKey, ErrUnknownDate)
	}

	s.mu.RLock()
	cached := s.cache[patientID]
	s.mu.RUnlock()
	for _, sess := range cached {
		if sess.DateKey == dateKey {
			return sess, nil
		}
	}

	return s.buildSession(ctx, meta, patientID, dateKey, filename)
}

// LoadPatientSessions loads all of a patient's sessions ordered by date.
// The first call fetches and caches; subsequent calls return the cached
// slice. Concurrent first calls for the same patient share one fetch.
// Individual dates that fail to fetch are logged and skipped; an empty
// result is not an error.
func (s *Store) LoadPatientSessions(ctx context.Context, patientID string) ([]*Session, error) {
	meta, err := s.index.Patient(patientID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	sessions, ok := s.cache[patientID]
	s.mu.RUnlock()
	if ok {
		return sessions, nil
	}

	v, err, _ := s.group.Do(patientID, func() (any, error) {
		// Recheck under the flight: a previous flight may have filled
		// the cache between the read above and this call.
		s.mu.RLock()
		cached, ok := s.cache[patientID]
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded := s.fetchAll(ctx, meta, patientID)

		s.mu.Lock()
		s.cache[patientID] = loaded
		s.mu.Unlock()

		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*Session), nil
}

// Invalidate drops a patient's cached sessions so the next load fetches
// fresh data.
func (s *Store) Invalidate(patientID string) {
	s.mu.Lock()
	delete(s.cache, patientID)
	s.mu.Unlock()
	s.group.Forget(patientID)
}

// fetchAll loads every dated recording of a patient in date order,
// skipping dates whose fetch fails.
func (s *Store) fetchAll(ctx context.Context, meta PatientMeta, patientID string) []*Session {
	sessions := make([]*Session, 0, len(meta.Files))
	for _, dateKey := range meta.DateKeys() {
		sess, err := s.buildSession(ctx, meta, patientID, dateKey, meta.Files[dateKey])
		if err != nil {
			s.logger.Warn("skipping session",
				slog.String("patient", patientID),
				slog.String("date", dateKey),
				slog.Any("error", err))
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions
}

func (s *Store) buildSession(ctx context.Context, meta PatientMeta, patientID, dateKey, filename string) (*Session, error) {
	raw, err := s.source.Fetch(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("loading session %s/%s: %w", patientID, dateKey, err)
	}

	parsed := sensor.Parse(raw)
	if parsed.Degraded > 0 {
		s.logger.Debug("parser degraded samples",
			slog.String("file", filename),
			slog.Int("samples", parsed.Degraded))
	}

	ppi, contact := s.engine.SessionMetrics(parsed.Frames)

	var alert bool
	for _, f := range parsed.Frames {
		if s.engine.Alert(f) {
			alert = true
			break
		}
	}

	return &Session{
		PatientID:   patientID,
		PatientName: meta.Name,
		DateKey:     dateKey,
		Filename:    filename,
		Frames:      parsed.Frames,
		LastFrame:   parsed.Last,
		PPI:         ppi,
		ContactArea: contact,
		Status:      s.engine.Classify(ppi, contact),
		Alert:       alert,
	}, nil
}
