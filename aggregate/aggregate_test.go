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

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrimmedMedianLaw(t *testing.T) {
	offsets := []float64{5, 1, 9, 2, 8, 3, 7, 4, 6, 0}
	got, ok := TrimmedMedian(offsets, 0.15)
	require.True(t, ok)
	// n=10, k=floor(1.5)=1, central slice is [1,9) sorted -> 1..8
	require.InDelta(t, 4.5, got, 1e-9)
}

func TestTrimmedMedianFallsBackToFullSequenceWhenTrimWouldEmptyIt(t *testing.T) {
	offsets := []float64{1, 3}
	got, ok := TrimmedMedian(offsets, 0.5)
	require.True(t, ok)
	// n=2, k=floor(1.0)=1, n-2k=0 < 1, so the full sorted sequence is used.
	require.InDelta(t, 2.0, got, 1e-9)
}

func TestTrimmedMedianEmpty(t *testing.T) {
	_, ok := TrimmedMedian(nil, 0.15)
	require.False(t, ok)
}

func TestTrimmedMedianEvenLengthIsMeanOfTwoCenters(t *testing.T) {
	got, ok := TrimmedMedian([]float64{1, 2, 3, 4}, 0)
	require.True(t, ok)
	require.InDelta(t, 2.5, got, 1e-9)
}

func TestEMAOneRound(t *testing.T) {
	got := EMA(0, 10.0, 0.3)
	require.InDelta(t, 3.0, got, 1e-9)
}

func TestEMAConvergesToConstantStream(t *testing.T) {
	offset := 0.0
	const target = 7.5
	for i := 0; i < 500; i++ {
		offset = EMA(offset, target, 0.3)
	}
	require.InDelta(t, target, offset, 1e-6)
}

func TestDelayCutoffSmallSampleUsesSortedIndex(t *testing.T) {
	delays := []float64{1, 2, 3, 4, 5}
	// idx = min(floor(0.7*5), 4) = min(3, 4) = 3 -> sorted[3] = 4
	require.InDelta(t, 4, DelayCutoff(delays), 1e-9)
}

func TestFilterByDelayKeepsOnlyBelowCutoff(t *testing.T) {
	samples := []Sample{{Theta: 1, Delta: 0.1}, {Theta: 2, Delta: 0.5}, {Theta: 3, Delta: 0.9}}
	got := FilterByDelay(samples, 0.5)
	require.Len(t, got, 2)
}

func TestOutlierRejectionScenario(t *testing.T) {
	// S4: nine peers near 0, one outlier at 10.0 with a high delay.
	samples := make([]Sample, 0, 10)
	for i := 0; i < 9; i++ {
		samples = append(samples, Sample{Theta: 0.01 * float64(i%3), Delta: 0.05 + 0.01*float64(i)})
	}
	samples = append(samples, Sample{Theta: 10.0, Delta: 5.0})

	delays := make([]float64, len(samples))
	for i, s := range samples {
		delays[i] = s.Delta
	}
	cutoff := DelayCutoff(delays)
	filtered := FilterByDelay(samples, cutoff)

	const minSamples = 5
	var offsets []float64
	if len(filtered) >= minSamples {
		for _, s := range filtered {
			offsets = append(offsets, s.Theta)
		}
	} else {
		for _, s := range samples {
			offsets = append(offsets, s.Theta)
		}
	}

	thetaStar, ok := TrimmedMedian(offsets, 0.15)
	require.True(t, ok)
	require.InDelta(t, 0.0, thetaStar, 0.05)
}
