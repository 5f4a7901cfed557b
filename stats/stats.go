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

// Package stats implements the observability surface for a node: plain
// counters, running mean/variance of accepted samples, a JSON+Prometheus
// HTTP exporter, and a snapshot of process resource usage. None of this
// feeds back into the protocol; it exists purely so an operator (or the
// "status" CLI subcommand) can see what a running node is doing.
package stats

import (
	"sync"
	"sync/atomic"

	"github.com/eclesh/welford"
)

// Counters holds monotonically-adjusted round/sample counters, reported via
// the JSON endpoint. All but DecodeErrors and UnknownNonceResp are also
// exported by the Prometheus exporter.
type Counters struct {
	RoundsTotal      int64
	RoundsUpdated    int64
	RoundsSkipped    int64
	SamplesAccepted  int64
	SamplesRejected  int64
	AuthFailures     int64
	DecodeErrors     int64
	UnknownNonceResp int64
}

// IncRoundsTotal atomically increments the round counter.
func (c *Counters) IncRoundsTotal() { atomic.AddInt64(&c.RoundsTotal, 1) }

// IncRoundsUpdated atomically increments the "offset actually changed" counter.
func (c *Counters) IncRoundsUpdated() { atomic.AddInt64(&c.RoundsUpdated, 1) }

// IncRoundsSkipped atomically increments the "not enough samples" counter.
func (c *Counters) IncRoundsSkipped() { atomic.AddInt64(&c.RoundsSkipped, 1) }

// AddSamplesAccepted atomically adds n to the accepted-sample counter.
func (c *Counters) AddSamplesAccepted(n int64) { atomic.AddInt64(&c.SamplesAccepted, n) }

// IncSamplesRejected atomically increments the rejected-sample counter.
func (c *Counters) IncSamplesRejected() { atomic.AddInt64(&c.SamplesRejected, 1) }

// IncAuthFailures atomically increments the signature-failure counter.
func (c *Counters) IncAuthFailures() { atomic.AddInt64(&c.AuthFailures, 1) }

// IncDecodeErrors atomically increments the malformed-datagram counter.
func (c *Counters) IncDecodeErrors() { atomic.AddInt64(&c.DecodeErrors, 1) }

// IncUnknownNonceResp atomically increments the late/unsolicited RESP counter.
func (c *Counters) IncUnknownNonceResp() { atomic.AddInt64(&c.UnknownNonceResp, 1) }

// Snapshot is an immutable copy of Counters for safe export.
type Snapshot struct {
	RoundsTotal      int64
	RoundsUpdated    int64
	RoundsSkipped    int64
	SamplesAccepted  int64
	SamplesRejected  int64
	AuthFailures     int64
	DecodeErrors     int64
	UnknownNonceResp int64
}

// Snapshot reads all counters atomically (per-field, not as one transaction;
// counters only ever move forward so this is good enough for monitoring).
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		RoundsTotal:      atomic.LoadInt64(&c.RoundsTotal),
		RoundsUpdated:    atomic.LoadInt64(&c.RoundsUpdated),
		RoundsSkipped:    atomic.LoadInt64(&c.RoundsSkipped),
		SamplesAccepted:  atomic.LoadInt64(&c.SamplesAccepted),
		SamplesRejected:  atomic.LoadInt64(&c.SamplesRejected),
		AuthFailures:     atomic.LoadInt64(&c.AuthFailures),
		DecodeErrors:     atomic.LoadInt64(&c.DecodeErrors),
		UnknownNonceResp: atomic.LoadInt64(&c.UnknownNonceResp),
	}
}

// RunningStats tracks the running mean/variance of accepted offset and delay
// samples via Welford's online algorithm, so a long-lived node can report
// "what offsets have I been seeing" without keeping every sample around.
type RunningStats struct {
	mu     sync.Mutex
	offset *welford.Stats
	delay  *welford.Stats
}

// NewRunningStats returns a fresh, empty RunningStats.
func NewRunningStats() *RunningStats {
	return &RunningStats{
		offset: welford.New(),
		delay:  welford.New(),
	}
}

// Observe records one accepted (theta, delta) sample.
func (r *RunningStats) Observe(theta, delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offset.Add(theta)
	r.delay.Add(delta)
}

// OffsetMeanVariance returns the running mean and variance of accepted offsets.
func (r *RunningStats) OffsetMeanVariance() (mean, variance float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offset.Mean(), r.offset.Variance()
}

// DelayMeanVariance returns the running mean and variance of accepted delays.
func (r *RunningStats) DelayMeanVariance() (mean, variance float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delay.Mean(), r.delay.Variance()
}
