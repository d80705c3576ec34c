package stats

import (
	"math"
	"sort"

	"github.com/qdblens/qdblens/internal/model"
)

// Percentile returns the nearest-rank percentile of an ascending-sorted
// sample: the value at index ceil(p/100*n)-1, clamped to [0, n-1].
// An empty sample yields 0; a singleton yields its only value; p=100
// yields the maximum.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// DescriptiveStats computes summary statistics over an unsorted sample.
// The standard deviation is the population form (divide by n). All
// fields are zero for empty input.
func DescriptiveStats(values []float64) model.Stats {
	n := len(values)
	if n == 0 {
		return model.Stats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, v := range sorted {
		d := v - mean
		sqDiff += d * d
	}

	return model.Stats{
		Count:  n,
		Mean:   mean,
		Median: Percentile(sorted, 50),
		Min:    sorted[0],
		Max:    sorted[n-1],
		StdDev: math.Sqrt(sqDiff / float64(n)),
		P25:    Percentile(sorted, 25),
		P75:    Percentile(sorted, 75),
		P95:    Percentile(sorted, 95),
		P99:    Percentile(sorted, 99),
	}
}

// HistogramBins distributes values into binCount equal-width bins
// spanning [min, max]. Values equal to the maximum land in the final
// bin rather than overflowing past it. Empty input yields no bins; a
// non-positive binCount is treated as 1.
func HistogramBins(values []float64, binCount int) []model.HistogramBin {
	if len(values) == 0 {
		return nil
	}
	if binCount <= 0 {
		binCount = 1
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	width := (max - min) / float64(binCount)
	bins := make([]model.HistogramBin, binCount)
	for i := range bins {
		bins[i].Start = min + float64(i)*width
		bins[i].End = min + float64(i+1)*width
	}
	bins[binCount-1].End = max

	for _, v := range values {
		idx := binCount - 1
		if width > 0 && v < max {
			idx = int((v - min) / width)
			if idx > binCount-1 {
				idx = binCount - 1
			}
		}
		bins[idx].Count++
	}
	return bins
}
