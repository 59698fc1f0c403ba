package session

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/careband/pressure-monitor/internal/metrics"
)

// Summary aggregates a patient's sessions into a handful of headline
// numbers. It is recomputed on demand and never persisted.
type Summary struct {
	PeakPPI       float64
	MeanPPI       float64
	MeanContact   float64
	HighRiskCount int
}

// PatientMetrics is the chart-ready view of a patient's session history:
// date labels with aligned PPI and contact-area series, the underlying
// sessions and the aggregate summary.
type PatientMetrics struct {
	PatientID   string
	PatientName string

	Labels        []string
	PPISeries     []float64
	ContactSeries []float64

	Sessions []*Session
	Summary  Summary
}

// PatientMetrics loads a patient's sessions and derives the per-patient
// time series and summary. PPI values are rounded to integers and
// contact percentages to one decimal, matching the dashboard display.
func (s *Store) PatientMetrics(ctx context.Context, patientID string) (*PatientMetrics, error) {
	meta, err := s.index.Patient(patientID)
	if err != nil {
		return nil, err
	}

	sessions, err := s.LoadPatientSessions(ctx, patientID)
	if err != nil {
		return nil, err
	}

	pm := &PatientMetrics{
		PatientID:   patientID,
		PatientName: meta.Name,
		Sessions:    sessions,
	}
	if len(sessions) == 0 {
		return pm, nil
	}

	pm.Labels = make([]string, len(sessions))
	pm.PPISeries = make([]float64, len(sessions))
	pm.ContactSeries = make([]float64, len(sessions))
	for i, sess := range sessions {
		pm.Labels[i] = sess.DateKey
		pm.PPISeries[i] = math.Round(sess.PPI)
		pm.ContactSeries[i] = math.Round(sess.ContactArea*10) / 10
		if sess.Status == metrics.StatusHigh {
			pm.Summary.HighRiskCount++
		}
	}

	pm.Summary.PeakPPI = floats.Max(pm.PPISeries)
	pm.Summary.MeanPPI = stat.Mean(pm.PPISeries, nil)
	pm.Summary.MeanContact = stat.Mean(pm.ContactSeries, nil)

	return pm, nil
}

// Range keys map the dashboard's symbolic time-range buttons onto how
// many trailing sessions to keep. The mapping is a fixed lookup, not a
// real time computation.
const (
	RangeLastHour = "1h"
	RangeSixHours = "6h"
	RangeDay      = "24h"
)

// RangeSlice is a suffix view over a patient's aligned series.
type RangeSlice struct {
	Labels  []string
	PPI     []float64
	Contact []float64
}

// SliceByRange returns the trailing sessions selected by a symbolic
// range key: "1h" keeps one, "6h" up to two, "24h" (and anything else)
// keeps all. When fewer sessions exist than requested, all are kept.
func SliceByRange(pm *PatientMetrics, rangeKey string) RangeSlice {
	n := len(pm.Labels)
	if n == 0 {
		return RangeSlice{}
	}

	var keep int
	switch rangeKey {
	case RangeLastHour:
		keep = 1
	case RangeSixHours:
		keep = 2
	default:
		keep = n
	}
	if keep > n {
		keep = n
	}

	start := n - keep
	return RangeSlice{
		Labels:  pm.Labels[start:],
		PPI:     pm.PPISeries[start:],
		Contact: pm.ContactSeries[start:],
	}
}
