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

// Package timesource provides the two time readings the core relies on: a
// wall-clock source that can jump (NTP step, manual adjustment) and a
// monotonic source that cannot go backward, used to detect such jumps
// mid-probe.
package timesource

import "time"

// Source is the pair of clocks the prober samples around every probe.
type Source interface {
	// WallNow returns seconds since epoch, as a local wall-clock reading.
	WallNow() float64
	// MonoNow returns a monotonic seconds counter with an arbitrary epoch;
	// only differences between two calls are meaningful.
	MonoNow() float64
}

// System is the real Source backed by the Go runtime's clock, which already
// gives monotonic readings piggy-backed on time.Now() (see the time package
// docs on monotonic clock readings). We still expose WallNow/MonoNow
// separately because the sanity check in §4.5 wants two independently
// sourced readings, not one time.Time compared to itself.
type System struct{}

// WallNow returns the current wall-clock time in fractional seconds since epoch.
func (System) WallNow() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// MonoNow returns a monotonic clock reading in fractional seconds.
func (System) MonoNow() float64 {
	// time.Now() carries a monotonic reading internally; Sub between two
	// such values is computed using it rather than the wall component, as
	// long as neither value has been stripped of its monotonic reading
	// (e.g. via serialization). monotonicEpoch is arbitrary and stable for
	// the process lifetime.
	return time.Since(monotonicEpoch).Seconds()
}

var monotonicEpoch = time.Now()
