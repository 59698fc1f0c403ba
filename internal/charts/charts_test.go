package charts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/careband/pressure-monitor/internal/session"
)

func TestComparisonRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.html")

	c := NewComparison(path, "Pressure trends: Amy Aardvark", "Peak Pressure Index", "Contact Area %")
	c.SetData(
		[]string{"2025-06-10", "2025-06-11", "2025-06-12"},
		[]float64{180, 210, 195},
		[]float64{22.5, 31.0, 28.4},
	)

	if err := c.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading rendered chart: %v", err)
	}
	html := string(raw)

	for _, want := range []string{
		"Pressure trends: Amy Aardvark",
		"Peak Pressure Index",
		"Contact Area %",
		"2025-06-11",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered chart missing %q", want)
		}
	}
}

func TestComparisonRender_InPlaceUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.html")

	c := NewComparison(path, "trend", "a", "b")
	c.SetData([]string{"d1"}, []float64{1}, []float64{2})
	if err := c.Render(); err != nil {
		t.Fatalf("first Render: %v", err)
	}

	c.SetData([]string{"d1", "d2"}, []float64{1, 9}, []float64{2, 8})
	if err := c.Render(); err != nil {
		t.Fatalf("second Render: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading rendered chart: %v", err)
	}
	if !strings.Contains(string(raw), "d2") {
		t.Error("re-render did not pick up replaced data")
	}
}

func TestWriteTrend_RangeRestriction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.html")

	pm := &session.PatientMetrics{
		PatientName:   "Billy Bonobo",
		Labels:        []string{"2025-06-10", "2025-06-11", "2025-06-12"},
		PPISeries:     []float64{180, 210, 195},
		ContactSeries: []float64{22.5, 31.0, 28.4},
	}

	if err := WriteTrend(path, pm, session.RangeLastHour); err != nil {
		t.Fatalf("WriteTrend: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading rendered chart: %v", err)
	}
	html := string(raw)

	if !strings.Contains(html, "2025-06-12") {
		t.Error("latest session missing from restricted chart")
	}
	if strings.Contains(html, "2025-06-10") {
		t.Error("range restriction kept an excluded session")
	}
}
