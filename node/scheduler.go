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

package node

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TYEclipse/p2p-time-sync/aggregate"
)

// roundLoop runs one round immediately, then waits cfg.RoundInterval
// between rounds until ctx is cancelled. Mirrors the teacher's
// timer-driven "tick" loop.
func (n *Node) roundLoop(ctx context.Context) error {
	interval := secondsToDuration(n.cfg.RoundInterval)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			n.runRound(ctx)
			timer.Reset(interval)
		}
	}
}

// runRound implements the round scheduler and aggregator of spec.md §4.6.
// Errors from individual probers never abort the round.
func (n *Node) runRound(ctx context.Context) {
	n.counters.IncRoundsTotal()
	defer n.syncExporter()

	selected := n.selectPeers()
	samples := n.probeAll(ctx, selected)

	n.recordCounts(len(selected), len(samples))

	if len(samples) < n.cfg.MinSamplesForUpdate {
		n.counters.IncRoundsSkipped()
		log.Infof(color.YellowString("round skipped, only %d of %d minimum samples", len(samples), n.cfg.MinSamplesForUpdate))
		return
	}

	filtered := n.filterByDelay(samples)
	thetaStar, ok := aggregate.TrimmedMedian(thetasOf(filtered), n.cfg.TrimRatio)
	if !ok {
		return
	}

	n.mu.Lock()
	n.offset = aggregate.EMA(n.offset, thetaStar, n.cfg.EMAAlpha)
	offset := n.offset
	n.mu.Unlock()

	n.counters.IncRoundsUpdated()
	log.Infof(color.GreenString("round complete, %d samples, offset now %.6fs", len(filtered), offset))
}

// syncExporter pushes the delta between the last and current counter
// snapshot into the Prometheus exporter. Counters only move forward, so the
// exporter needs the delta, not the running total, on every call.
func (n *Node) syncExporter() {
	cur := n.counters.Snapshot()
	n.exporter.Update(n.prevSnapshot, cur, n.Offset())
	n.prevSnapshot = cur
}

// selectPeers draws the per-round peer subset (spec.md §4.6 step 1): all
// peers if the list fits, otherwise a uniform sample without replacement
// using the node's crypto-seeded RNG.
func (n *Node) selectPeers() []*net.UDPAddr {
	if len(n.peers) <= n.cfg.PerRoundPeerCount {
		return n.peers
	}
	perm := n.rng.Perm(len(n.peers))[:n.cfg.PerRoundPeerCount]
	out := make([]*net.UDPAddr, len(perm))
	for i, idx := range perm {
		out[i] = n.peers[idx]
	}
	return out
}

// probeAll runs one prober per selected peer concurrently and collects
// whatever samples come back; a failing or empty-handed prober simply
// contributes nothing (spec.md §4.6 step 2).
func (n *Node) probeAll(ctx context.Context, peers []*net.UDPAddr) []aggregate.Sample {
	var (
		mu      sync.Mutex
		samples []aggregate.Sample
	)
	eg, ictx := errgroup.WithContext(ctx)
	for _, addr := range peers {
		addr := addr
		eg.Go(func() error {
			pr := newProber(n.conn, n.pending, n.clock, n.peerID, n.cfg.SamplesPerPeer, n.cfg.RequestTimeout)
			sample, ok := pr.probe(ictx, addr)
			if !ok {
				n.counters.IncSamplesRejected()
				n.recordPeerMiss(addr)
				return nil
			}
			n.counters.AddSamplesAccepted(1)
			n.running.Observe(sample.Theta, sample.Delta)
			n.recordPeerSample(addr, sample)
			mu.Lock()
			samples = append(samples, sample)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // probers never return a non-nil error; this can't fail
	return samples
}

// filterByDelay applies the delay-based outlier cutoff (spec.md §4.6 step
// 5), falling back to the unfiltered set if filtering would leave too few
// samples.
func (n *Node) filterByDelay(samples []aggregate.Sample) []aggregate.Sample {
	cutoff := aggregate.DelayCutoff(deltasOf(samples))
	filtered := aggregate.FilterByDelay(samples, cutoff)
	if len(filtered) >= n.cfg.MinSamplesForUpdate {
		return filtered
	}
	return samples
}

func (n *Node) recordCounts(peersSelected, samplesCollected int) {
	log.Debugf("node: probed %d peers, collected %d samples", peersSelected, samplesCollected)
}

func thetasOf(samples []aggregate.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Theta
	}
	return out
}

func deltasOf(samples []aggregate.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Delta
	}
	return out
}
