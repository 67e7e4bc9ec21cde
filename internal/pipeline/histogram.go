package pipeline

import (
	"math"

	"github.com/samber/lo"

	"github.com/theirongolddev/tutstat/internal/model"
)

// DefaultDurationSpec buckets average session minutes over [0, 60).
var DefaultDurationSpec = model.HistogramSpec{Start: 0, End: 60, Size: 1}

// DefaultViewSpec buckets per-user view counts over [0, 50).
var DefaultViewSpec = model.HistogramSpec{Start: 0, End: 50, Size: 1}

// Histogram counts values into fixed-width buckets over [Start, End).
// Percentages are relative to all values, including those that fall
// outside the domain and are tallied in Under and Over. An invalid spec
// yields a histogram with no buckets.
func Histogram(values []float64, spec model.HistogramSpec) model.Histogram {
	h := model.Histogram{Spec: spec, Buckets: []model.HistogramBucket{}}
	if !spec.Valid() {
		return h
	}

	n := int(math.Ceil((spec.End - spec.Start) / spec.Size))
	h.Buckets = make([]model.HistogramBucket, n)
	for i := range h.Buckets {
		h.Buckets[i].Lower = spec.Start + float64(i)*spec.Size
	}

	for _, v := range values {
		h.Total++
		switch {
		case math.IsNaN(v) || v < spec.Start:
			h.Under++
		case v >= spec.End:
			h.Over++
		default:
			i := int((v - spec.Start) / spec.Size)
			if i >= n {
				i = n - 1
			}
			h.Buckets[i].Count++
		}
	}

	if h.Total > 0 {
		for i := range h.Buckets {
			h.Buckets[i].Percent = float64(h.Buckets[i].Count) / float64(h.Total) * 100
		}
	}
	return h
}

// DurationHistogram buckets a per-user average duration map.
func DurationHistogram(avg map[string]float64, spec model.HistogramSpec) model.Histogram {
	return Histogram(lo.Values(avg), spec)
}

// ViewCountHistogram buckets a per-user view count map.
func ViewCountHistogram(views map[string]int, spec model.HistogramSpec) model.Histogram {
	return Histogram(lo.MapToSlice(views, func(_ string, n int) float64 { return float64(n) }), spec)
}
