/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package aggregate implements the delay-based outlier filter and the
// trimmed-median robust aggregate used by the round scheduler, plus the EMA
// update. These are pure functions over plain float64 slices so they can be
// tested directly against the worked examples in spec.md §8 without
// standing up any network state.
package aggregate

import "sort"

// Sample is one (theta, delta) pair returned by a prober for a peer.
type Sample struct {
	Theta float64
	Delta float64
}

// DelayCutoff returns the delay value at or below which a sample is kept.
// For 10 or more delays it uses the 70th-percentile boundary (the split
// between the 7th and 8th decile); for fewer, the value at index
// min(floor(0.7*n), n-1) of the sorted delays. An empty input returns 0 and
// should never be passed to the filter (callers check len first).
func DelayCutoff(delays []float64) float64 {
	if len(delays) == 0 {
		return 0
	}
	sorted := append([]float64(nil), delays...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n >= 10 {
		return percentile70(sorted)
	}
	idx := int(0.7 * float64(n))
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// percentile70 mirrors statistics.quantiles(data, n=10)[6] (Python's
// "exclusive" method): take position 7(n+1)/10 in the 1-indexed sorted data
// and interpolate between its neighbours.
func percentile70(sorted []float64) float64 {
	n := len(sorted)
	// position in a 1-indexed scheme, decile boundary 7 of 10.
	pos := 7.0 * float64(n+1) / 10.0
	if pos < 1 {
		pos = 1
	}
	if pos > float64(n) {
		pos = float64(n)
	}
	lo := int(pos)
	frac := pos - float64(lo)
	if lo >= n {
		return sorted[n-1]
	}
	if lo < 1 {
		return sorted[0]
	}
	if frac == 0 {
		return sorted[lo-1]
	}
	return sorted[lo-1] + frac*(sorted[lo]-sorted[lo-1])
}

// FilterByDelay keeps only the samples whose delay is <= cutoff. Callers
// apply the "don't over-prune" rule themselves: only adopt the filtered set
// if it still has enough samples, else keep the unfiltered input.
func FilterByDelay(samples []Sample, cutoff float64) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Delta <= cutoff {
			out = append(out, s)
		}
	}
	return out
}

// TrimmedMedian sorts offsets, trims k = floor(n*trimRatio) elements from
// each end (or takes the full sequence if that would leave fewer than one
// element), and returns the median of what remains. Returns 0, false for an
// empty input.
func TrimmedMedian(offsets []float64, trimRatio float64) (float64, bool) {
	n := len(offsets)
	if n == 0 {
		return 0, false
	}
	sorted := append([]float64(nil), offsets...)
	sort.Float64s(sorted)

	k := int(float64(n) * trimRatio)
	var slice []float64
	if n-2*k >= 1 {
		slice = sorted[k : n-k]
	} else {
		slice = sorted
	}
	return median(slice), true
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// EMA applies one exponentially weighted update: (1-alpha)*old + alpha*value.
func EMA(old, value, alpha float64) float64 {
	return (1-alpha)*old + alpha*value
}
