// Package metrics computes clinical KPIs from pressure-sensor frames:
// the peak pressure index (PPI), the contact-area percentage and an
// ordinal risk classification. All computations are pure functions of
// their inputs.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/careband/pressure-monitor/internal/sensor"
)

// Status is the ordinal risk tier derived from PPI and contact area.
type Status string

const (
	StatusOK     Status = "OK"
	StatusMedium Status = "Medium"
	StatusHigh   Status = "High"
)

// Thresholds collects the fixed numeric constants driving metric
// computation and classification. Zero values fall back to the defaults.
type Thresholds struct {
	// ContactLower is the inclusive lower bound above which a sample
	// counts as load-bearing contact.
	ContactLower float64 `yaml:"contactLower"`

	// TopN is the number of highest samples whose median forms the PPI.
	TopN int `yaml:"topN"`

	// MediumPPI and HighPPI are the inclusive PPI bounds of the Medium
	// and High tiers.
	MediumPPI float64 `yaml:"mediumPPI"`
	HighPPI   float64 `yaml:"highPPI"`

	// HighContactArea is the inclusive contact-area percentage that on
	// its own places a frame in the High tier.
	HighContactArea float64 `yaml:"highContactArea"`

	// AlertValue and AlertMinRegion drive the spatial-density alert:
	// at least AlertMinRegion samples strictly above AlertValue.
	AlertValue     float64 `yaml:"alertValue"`
	AlertMinRegion int     `yaml:"alertMinRegion"`
}

// DefaultThresholds returns the canonical demo configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ContactLower:    25,
		TopN:            10,
		MediumPPI:       150,
		HighPPI:         220,
		HighContactArea: 30,
		AlertValue:      230,
		AlertMinRegion:  10,
	}
}

// withDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.ContactLower == 0 {
		t.ContactLower = d.ContactLower
	}
	if t.TopN == 0 {
		t.TopN = d.TopN
	}
	if t.MediumPPI == 0 {
		t.MediumPPI = d.MediumPPI
	}
	if t.HighPPI == 0 {
		t.HighPPI = d.HighPPI
	}
	if t.HighContactArea == 0 {
		t.HighContactArea = d.HighContactArea
	}
	if t.AlertValue == 0 {
		t.AlertValue = d.AlertValue
	}
	if t.AlertMinRegion == 0 {
		t.AlertMinRegion = d.AlertMinRegion
	}
	return t
}

// Engine computes frame and session metrics against a fixed set of
// thresholds.
type Engine struct {
	t Thresholds
}

// New creates an Engine. Zero threshold fields take their defaults.
func New(t Thresholds) *Engine {
	return &Engine{t: t.withDefaults()}
}

// Thresholds returns the effective threshold configuration.
func (e *Engine) Thresholds() Thresholds { return e.t }

// FrameMetrics returns the peak pressure index and contact-area
// percentage for a single frame.
//
// The PPI is the median of the TopN highest samples, a smoothing proxy
// for the worst pressure region that resists single-cell noise. Contact
// area is the percentage of samples at or above the lower threshold.
func (e *Engine) FrameMetrics(f sensor.Frame) (ppi, contactPct float64) {
	if len(f) == 0 {
		return 0, 0
	}

	var above int
	for _, v := range f {
		if v >= e.t.ContactLower {
			above++
		}
	}
	contactPct = float64(above) / float64(len(f)) * 100

	sorted := make([]float64, len(f))
	copy(sorted, f)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	n := e.t.TopN
	if n > len(sorted) {
		n = len(sorted)
	}
	top := sorted[:n]
	ppi = top[len(top)/2]

	return ppi, contactPct
}

// Classify maps a (ppi, contactPct) pair onto a risk tier. Values exactly
// at a threshold resolve to the higher tier.
func (e *Engine) Classify(ppi, contactPct float64) Status {
	switch {
	case ppi >= e.t.HighPPI || contactPct >= e.t.HighContactArea:
		return StatusHigh
	case ppi >= e.t.MediumPPI:
		return StatusMedium
	default:
		return StatusOK
	}
}

// SessionMetrics aggregates per-frame metrics across a session: the PPI
// is the worst observed instant (maximum of per-frame PPI), the contact
// area is the representative average load (mean of per-frame contact).
func (e *Engine) SessionMetrics(frames []sensor.Frame) (ppi, contactPct float64) {
	if len(frames) == 0 {
		return 0, 0
	}

	ppis := make([]float64, len(frames))
	contacts := make([]float64, len(frames))
	for i, f := range frames {
		ppis[i], contacts[i] = e.FrameMetrics(f)
	}

	return floats.Max(ppis), stat.Mean(contacts, nil)
}

// Alert reports whether a frame contains a sufficiently large cluster of
// samples above the alert threshold. It is a crude spatial-density
// heuristic used for flagging, deliberately distinct from the
// median-based PPI.
func (e *Engine) Alert(f sensor.Frame) bool {
	var count int
	for _, v := range f {
		if v > e.t.AlertValue {
			count++
			if count >= e.t.AlertMinRegion {
				return true
			}
		}
	}
	return false
}
