package session

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func loadedMetrics(t *testing.T) *PatientMetrics {
	t.Helper()

	src := &fakeSource{files: map[string]string{
		"p1_a.csv": uniformCSV(32, 10),  // below contact threshold: OK
		"p1_b.csv": uniformCSV(32, 160), // full contact area: High
		"p1_c.csv": uniformCSV(32, 255), // saturated: High
	}}
	store := newTestStore(src)

	pm, err := store.PatientMetrics(context.Background(), "p1")
	if err != nil {
		t.Fatalf("PatientMetrics: %v", err)
	}
	return pm
}

func TestPatientMetrics(t *testing.T) {
	pm := loadedMetrics(t)

	if pm.PatientName != "First Patient" {
		t.Errorf("PatientName = %q", pm.PatientName)
	}

	wantLabels := []string{"2025-10-11", "2025-10-12", "2025-10-13"}
	if diff := cmp.Diff(wantLabels, pm.Labels); diff != "" {
		t.Errorf("Labels mismatch (-want +got):\n%s", diff)
	}

	wantPPI := []float64{10, 160, 255}
	if diff := cmp.Diff(wantPPI, pm.PPISeries); diff != "" {
		t.Errorf("PPISeries mismatch (-want +got):\n%s", diff)
	}

	if pm.Summary.PeakPPI != 255 {
		t.Errorf("PeakPPI = %v, want 255", pm.Summary.PeakPPI)
	}
	if want := (10.0 + 160 + 255) / 3; pm.Summary.MeanPPI != want {
		t.Errorf("MeanPPI = %v, want %v", pm.Summary.MeanPPI, want)
	}

	// Uniform value 160 and 255 frames both have full contact, which
	// forces the High tier on contact area alone.
	if pm.Summary.HighRiskCount != 2 {
		t.Errorf("HighRiskCount = %d, want 2", pm.Summary.HighRiskCount)
	}
}

func TestPatientMetrics_Unknown(t *testing.T) {
	store := newTestStore(&fakeSource{})
	if _, err := store.PatientMetrics(context.Background(), "nobody"); err == nil {
		t.Error("PatientMetrics for an unknown patient succeeded")
	}
}

func TestSliceByRange(t *testing.T) {
	pm := loadedMetrics(t)

	tests := []struct {
		rangeKey   string
		wantLabels []string
	}{
		{RangeLastHour, []string{"2025-10-13"}},
		{RangeSixHours, []string{"2025-10-12", "2025-10-13"}},
		{RangeDay, []string{"2025-10-11", "2025-10-12", "2025-10-13"}},
		{"bogus", []string{"2025-10-11", "2025-10-12", "2025-10-13"}},
	}

	for _, tt := range tests {
		got := SliceByRange(pm, tt.rangeKey)
		if diff := cmp.Diff(tt.wantLabels, got.Labels); diff != "" {
			t.Errorf("SliceByRange(%q) labels mismatch (-want +got):\n%s", tt.rangeKey, diff)
		}
		if len(got.PPI) != len(got.Labels) || len(got.Contact) != len(got.Labels) {
			t.Errorf("SliceByRange(%q): series lengths diverge from labels", tt.rangeKey)
		}
	}
}

func TestSliceByRange_FewerSessionsThanRequested(t *testing.T) {
	src := &fakeSource{files: map[string]string{
		"p2_a.csv": uniformCSV(32, 10),
	}}
	store := newTestStore(src)

	pm, err := store.PatientMetrics(context.Background(), "p2")
	if err != nil {
		t.Fatalf("PatientMetrics: %v", err)
	}

	got := SliceByRange(pm, RangeSixHours)
	if len(got.Labels) != 1 {
		t.Errorf("got %d labels, want all available (1)", len(got.Labels))
	}
}

func TestSliceByRange_Empty(t *testing.T) {
	got := SliceByRange(&PatientMetrics{}, RangeDay)
	if len(got.Labels) != 0 || len(got.PPI) != 0 || len(got.Contact) != 0 {
		t.Error("SliceByRange over empty metrics returned data")
	}
}
