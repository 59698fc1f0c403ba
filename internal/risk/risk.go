// Package risk derives filtered, sorted views of high-risk sessions.
package risk

import (
	"sort"

	"github.com/careband/pressure-monitor/internal/metrics"
	"github.com/careband/pressure-monitor/internal/session"
)

// Flag is one flagged session row for tabular display.
type Flag struct {
	PatientID   string
	PatientName string
	DateKey     string
	PPI         float64
	ContactArea float64
	Status      metrics.Status
	Alert       bool
}

// HighRisk returns the sessions classified High, or carrying a spatial
// alert, sorted by PPI descending and then by date. An empty input
// yields an empty result; callers are expected to display an explicit
// "no sessions found" status rather than a blank view.
func HighRisk(sessions []*session.Session) []Flag {
	var flags []Flag
	for _, sess := range sessions {
		if sess.Status != metrics.StatusHigh && !sess.Alert {
			continue
		}
		flags = append(flags, Flag{
			PatientID:   sess.PatientID,
			PatientName: sess.PatientName,
			DateKey:     sess.DateKey,
			PPI:         sess.PPI,
			ContactArea: sess.ContactArea,
			Status:      sess.Status,
			Alert:       sess.Alert,
		})
	}

	sort.Slice(flags, func(i, j int) bool {
		if flags[i].PPI != flags[j].PPI {
			return flags[i].PPI > flags[j].PPI
		}
		return flags[i].DateKey < flags[j].DateKey
	})
	return flags
}
