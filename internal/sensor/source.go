package sensor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// ErrNotFound is returned when a requested sensor data file does not exist.
var ErrNotFound = errors.New("sensor data not found")

// TransportError reports a failed fetch that is not a plain not-found:
// a network failure or an unexpected HTTP status.
type TransportError struct {
	URL    string
	Status int // HTTP status code, 0 for network-level failures
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Source retrieves raw delimited sensor readings keyed by filename.
// Implementations must distinguish a missing file (ErrNotFound) from a
// transport failure (TransportError); successful empty content is valid.
type Source interface {
	Fetch(ctx context.Context, filename string) (string, error)
}

// DirSource reads sensor data files from a local directory.
type DirSource struct {
	dir    string
	logger *slog.Logger
}

// WithDirLogger sets the logger for a DirSource.
func WithDirLogger(logger *slog.Logger) func(*DirSource) {
	return func(s *DirSource) {
		s.logger = logger
	}
}

// NewDirSource creates a Source backed by the given directory.
func NewDirSource(dir string, options ...func(*DirSource)) *DirSource {
	s := &DirSource{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *DirSource) Fetch(_ context.Context, filename string) (string, error) {
	// Base strips any path components so callers cannot escape the data dir.
	path := filepath.Join(s.dir, filepath.Base(filename))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", filename, ErrNotFound)
		}
		return "", &TransportError{URL: path, Err: err}
	}

	s.logger.Debug("read sensor data",
		slog.String("file", filename),
		slog.String("size", humanize.Bytes(uint64(len(data)))))
	return string(data), nil
}

// HTTPSource fetches sensor data files from a remote endpoint.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) func(*HTTPSource) {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// WithHTTPLogger sets the logger for an HTTPSource.
func WithHTTPLogger(logger *slog.Logger) func(*HTTPSource) {
	return func(s *HTTPSource) {
		s.logger = logger
	}
}

// NewHTTPSource creates a Source that fetches files relative to baseURL.
func NewHTTPSource(baseURL string, options ...func(*HTTPSource)) *HTTPSource {
	s := &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *HTTPSource) Fetch(ctx context.Context, filename string) (string, error) {
	u, err := url.JoinPath(s.baseURL, filename)
	if err != nil {
		return "", fmt.Errorf("building URL for %s: %w", filename, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating request for %s: %w", filename, err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return "", &TransportError{URL: u, Err: err}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%s: %w", filename, ErrNotFound)

	case res.StatusCode < 200 || res.StatusCode > 299:
		return "", &TransportError{URL: u, Status: res.StatusCode}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &TransportError{URL: u, Err: err}
	}

	s.logger.Debug("fetched sensor data",
		slog.String("file", filename),
		slog.String("size", humanize.Bytes(uint64(len(data)))))
	return string(data), nil
}
