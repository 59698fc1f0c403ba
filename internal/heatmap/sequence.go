package heatmap

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/careband/pressure-monitor/internal/sensor"
)

// PNGSequence writes rendered frames as a numbered sequence of PNG files
// in a directory. It satisfies the player's rendering capability.
type PNGSequence struct {
	dir      string
	prefix   string
	renderer *Renderer
	ann      *Annotator

	mu sync.Mutex
	n  int
}

// WithAnnotator attaches an info bar to every written frame.
func WithAnnotator(ann *Annotator) func(*PNGSequence) {
	return func(s *PNGSequence) {
		s.ann = ann
	}
}

// WithPrefix overrides the default "frame" filename prefix.
func WithPrefix(prefix string) func(*PNGSequence) {
	return func(s *PNGSequence) {
		s.prefix = prefix
	}
}

// NewPNGSequence creates a sequence writer. The directory is created if
// it does not exist.
func NewPNGSequence(dir string, options ...func(*PNGSequence)) (*PNGSequence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	s := &PNGSequence{
		dir:      dir,
		prefix:   "frame",
		renderer: NewRenderer(),
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Count returns the number of frames written so far.
func (s *PNGSequence) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// RenderFrame renders one frame with the given palette and writes it as
// the next file in the sequence.
func (s *PNGSequence) RenderFrame(f sensor.Frame, theme Theme) error {
	s.mu.Lock()
	seq := s.n
	s.n++
	s.mu.Unlock()

	img := s.renderer.Image(f, theme)
	if s.ann != nil {
		min, max := f.Bounds()
		annotated, err := s.ann.Annotate(img, FrameLabel(seq, min, max, theme))
		if err != nil {
			return fmt.Errorf("annotating frame %d: %w", seq, err)
		}
		img = annotated
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%04d.png", s.prefix, seq))
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}
