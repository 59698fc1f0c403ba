// Package charts produces trend and comparison visualizations of
// patient metrics as self-contained HTML pages.
package charts

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/careband/pressure-monitor/internal/session"
)

// Comparison is a two-series line chart over shared labels. Series data
// can be replaced in place and the chart re-rendered to the same file.
type Comparison struct {
	path   string
	title  string
	labelA string
	labelB string

	mu      sync.Mutex
	labels  []string
	seriesA []float64
	seriesB []float64
}

// NewComparison creates a comparison chart that renders to path.
func NewComparison(path, title, labelA, labelB string) *Comparison {
	return &Comparison{
		path:   path,
		title:  title,
		labelA: labelA,
		labelB: labelB,
	}
}

// SetData replaces the chart's labels and both series.
func (c *Comparison) SetData(labels []string, a, b []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = labels
	c.seriesA = a
	c.seriesB = b
}

// Render writes the chart as a standalone HTML page.
func (c *Comparison) Render() error {
	c.mu.Lock()
	labels, a, b := c.labels, c.seriesA, c.seriesB
	c.mu.Unlock()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: c.title,
			Theme:     "dark",
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{Title: c.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(labels).
		AddSeries(c.labelA, lineData(a)).
		AddSeries(c.labelB, lineData(b)).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	out, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer out.Close()

	if err := line.Render(out); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// WriteTrend renders a patient's PPI and contact-area series, optionally
// restricted by a symbolic range key, as a comparison chart.
func WriteTrend(path string, pm *session.PatientMetrics, rangeKey string) error {
	sliced := session.SliceByRange(pm, rangeKey)

	c := NewComparison(path,
		fmt.Sprintf("Pressure trends: %s", pm.PatientName),
		"Peak Pressure Index",
		"Contact Area %")
	c.SetData(sliced.Labels, sliced.PPI, sliced.Contact)
	return c.Render()
}

func lineData(series []float64) []opts.LineData {
	data := make([]opts.LineData, len(series))
	for i, v := range series {
		data[i] = opts.LineData{Value: v}
	}
	return data
}
