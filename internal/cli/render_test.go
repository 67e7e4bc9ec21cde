package cli

import (
	"strings"
	"testing"

	"github.com/theirongolddev/tutstat/internal/model"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Daily",
		Headers: []string{"Date", "Sessions"},
		Rows: [][]string{
			{"2019-01-01", "2"},
			{"---"},
			{"Total", "12"},
		},
	})

	for _, want := range []string{"Daily", "Date", "Sessions", "2019-01-01", "Total"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if got := strings.Count(out, "\n"); got != 8 {
		t.Errorf("table has %d lines, want 8:\n%s", got, out)
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if out := RenderTable(Table{}); out != "" {
		t.Errorf("empty table rendered %q", out)
	}
}

func TestRenderHistogram(t *testing.T) {
	h := model.Histogram{
		Spec: model.HistogramSpec{Start: 0, End: 3, Size: 1},
		Buckets: []model.HistogramBucket{
			{Lower: 0, Count: 1, Percent: 25},
			{Lower: 1, Count: 2, Percent: 50},
			{Lower: 2, Count: 0, Percent: 0},
		},
		Total: 4,
		Over:  1,
	}
	out := RenderHistogram(h, "min", 20)

	if !strings.Contains(out, "50.0% (2)") {
		t.Errorf("missing largest bucket annotation:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("█", 20)) {
		t.Errorf("largest bucket should fill the width:\n%s", out)
	}
	if !strings.Contains(out, "1 at or above 3") {
		t.Errorf("missing out-of-domain note:\n%s", out)
	}

	if out := RenderHistogram(model.Histogram{}, "min", 20); !strings.Contains(out, "no buckets") {
		t.Errorf("empty histogram rendered %q", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1, 2}); got != "▁▄█" {
		t.Errorf("RenderSparkline = %q, want %q", got, "▁▄█")
	}
	if RenderSparkline(nil) != "" {
		t.Error("empty sparkline should be empty")
	}
}
