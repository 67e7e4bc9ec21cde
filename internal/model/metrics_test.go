package model

import (
	"math"
	"testing"
)

func TestHistogramSpec_Valid(t *testing.T) {
	tests := []struct {
		name string
		spec HistogramSpec
		want bool
	}{
		{"unit buckets", HistogramSpec{Start: 0, End: 60, Size: 1}, true},
		{"uneven last bucket", HistogramSpec{Start: 0, End: 10, Size: 3}, true},
		{"at bucket cap", HistogramSpec{Start: 0, End: MaxHistogramBuckets, Size: 1}, true},
		{"over bucket cap", HistogramSpec{Start: 0, End: 60, Size: 1e-9}, false},
		{"zero size", HistogramSpec{Start: 0, End: 60, Size: 0}, false},
		{"negative size", HistogramSpec{Start: 0, End: 60, Size: -1}, false},
		{"nan size", HistogramSpec{Start: 0, End: 60, Size: math.NaN()}, false},
		{"nan end", HistogramSpec{Start: 0, End: math.NaN(), Size: 1}, false},
		{"inverted", HistogramSpec{Start: 10, End: 0, Size: 1}, false},
		{"empty domain", HistogramSpec{Start: 5, End: 5, Size: 1}, false},
		{"infinite end", HistogramSpec{Start: 0, End: math.Inf(1), Size: 1}, false},
		{"infinite start", HistogramSpec{Start: math.Inf(-1), End: 0, Size: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.Valid(); got != tt.want {
				t.Errorf("%+v.Valid() = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}
