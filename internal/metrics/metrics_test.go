package metrics

import (
	"testing"

	"github.com/careband/pressure-monitor/internal/sensor"
)

func uniformFrame(value float64) sensor.Frame {
	f := make(sensor.Frame, sensor.FrameSize)
	for i := range f {
		f[i] = value
	}
	return f
}

func TestFrameMetrics_AllBaseline(t *testing.T) {
	e := New(Thresholds{})

	ppi, contact := e.FrameMetrics(uniformFrame(sensor.BaselineValue))
	if contact != 0 {
		t.Errorf("contact = %v, want 0 for all-baseline frame", contact)
	}
	if ppi != sensor.BaselineValue {
		t.Errorf("ppi = %v, want %v", ppi, sensor.BaselineValue)
	}
	if got := e.Classify(ppi, contact); got != StatusOK {
		t.Errorf("Classify = %v, want OK", got)
	}
}

func TestFrameMetrics_ContactCountsInclusive(t *testing.T) {
	e := New(Thresholds{})

	// Exactly at the lower threshold counts as contact.
	f := uniformFrame(1)
	f[0] = e.Thresholds().ContactLower

	_, contact := e.FrameMetrics(f)
	want := 1.0 / sensor.FrameSize * 100
	if contact != want {
		t.Errorf("contact = %v, want %v", contact, want)
	}
}

func TestFrameMetrics_ContactMonotonic(t *testing.T) {
	e := New(Thresholds{})

	f := uniformFrame(1)
	prev := 0.0
	for i := 0; i < 100; i++ {
		f[i] = 200
		_, contact := e.FrameMetrics(f)
		if contact < prev {
			t.Fatalf("contact decreased from %v to %v after adding a sample above threshold", prev, contact)
		}
		prev = contact
	}
}

func TestFrameMetrics_PPIMedianOfTopN(t *testing.T) {
	e := New(Thresholds{})

	// Nine cells at 250 with one outlier at 255: the median of the top
	// ten smooths the outlier away.
	f := uniformFrame(1)
	for i := 0; i < 9; i++ {
		f[i] = 250
	}
	f[9] = 255

	ppi, _ := e.FrameMetrics(f)
	if ppi != 250 {
		t.Errorf("ppi = %v, want 250 (median of top 10)", ppi)
	}
}

func TestClassify(t *testing.T) {
	e := New(Thresholds{})

	tests := []struct {
		ppi     float64
		contact float64
		want    Status
	}{
		{0, 0, StatusOK},
		{149.9, 29.9, StatusOK},
		{150, 0, StatusMedium}, // boundary resolves to the higher tier
		{219.9, 0, StatusMedium},
		{220, 0, StatusHigh},
		{300, 0, StatusHigh},
		{0, 30, StatusHigh}, // contact alone can force High
		{160, 35, StatusHigh},
	}

	for _, tt := range tests {
		if got := e.Classify(tt.ppi, tt.contact); got != tt.want {
			t.Errorf("Classify(%v, %v) = %v, want %v", tt.ppi, tt.contact, got, tt.want)
		}
	}
}

func TestSessionMetrics(t *testing.T) {
	e := New(Thresholds{})

	// First frame all-baseline, second frame saturated: session PPI is
	// the worst instant, contact the mean of per-frame contact.
	frames := []sensor.Frame{uniformFrame(sensor.BaselineValue), uniformFrame(255)}

	ppi, contact := e.SessionMetrics(frames)
	if ppi != 255 {
		t.Errorf("session ppi = %v, want 255", ppi)
	}
	if contact != 50 {
		t.Errorf("session contact = %v, want 50 (mean of 0 and 100)", contact)
	}
}

func TestSessionMetrics_Empty(t *testing.T) {
	e := New(Thresholds{})
	ppi, contact := e.SessionMetrics(nil)
	if ppi != 0 || contact != 0 {
		t.Errorf("SessionMetrics(nil) = (%v, %v), want (0, 0)", ppi, contact)
	}
}

func TestAlert(t *testing.T) {
	e := New(Thresholds{})
	th := e.Thresholds()

	f := uniformFrame(1)
	for i := 0; i < th.AlertMinRegion-1; i++ {
		f[i] = th.AlertValue + 1
	}
	if e.Alert(f) {
		t.Errorf("Alert = true with %d hot samples, want false below region minimum", th.AlertMinRegion-1)
	}

	f[th.AlertMinRegion-1] = th.AlertValue + 1
	if !e.Alert(f) {
		t.Errorf("Alert = false with %d hot samples, want true", th.AlertMinRegion)
	}

	// Samples exactly at the alert value do not count: strictly above.
	g := uniformFrame(th.AlertValue)
	if e.Alert(g) {
		t.Error("Alert = true for samples at the threshold, want strictly-above semantics")
	}
}

func TestThresholdOverrides(t *testing.T) {
	e := New(Thresholds{HighPPI: 100})

	if got := e.Classify(110, 0); got != StatusHigh {
		t.Errorf("Classify(110, 0) = %v, want High with lowered threshold", got)
	}
	// Unset fields keep their defaults.
	if e.Thresholds().ContactLower != 25 {
		t.Errorf("ContactLower = %v, want default 25", e.Thresholds().ContactLower)
	}
}
