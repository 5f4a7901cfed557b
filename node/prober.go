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
	"encoding/hex"
	"net"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/TYEclipse/p2p-time-sync/aggregate"
	"github.com/TYEclipse/p2p-time-sync/pending"
	"github.com/TYEclipse/p2p-time-sync/timesource"
	"github.com/TYEclipse/p2p-time-sync/wire"
)

// clockJumpTolerance is the maximum disagreement between wall-clock and
// monotonic RTT before a sample is treated as corrupted by a clock step.
const clockJumpTolerance = 0.5 // seconds

// prober runs up to attempts probes against one peer and keeps the
// minimum-delay sample, per spec.md §4.5.
type prober struct {
	conn     Conn
	table    *pending.Table
	clock    timesource.Source
	peerID   string
	attempts int
	timeout  time.Duration
}

func newProber(conn Conn, table *pending.Table, clock timesource.Source, peerID string, attempts int, timeoutSeconds float64) *prober {
	return &prober{
		conn:     conn,
		table:    table,
		clock:    clock,
		peerID:   peerID,
		attempts: attempts,
		timeout:  secondsToDuration(timeoutSeconds),
	}
}

// probe runs the best-of-m loop against addr. Returns the retained sample,
// or false if every attempt failed.
func (p *prober) probe(ctx context.Context, addr *net.UDPAddr) (aggregate.Sample, bool) {
	var best aggregate.Sample
	haveBest := false

	for i := 0; i < p.attempts; i++ {
		sample, ok := p.attemptOnce(ctx, addr)
		if !ok {
			continue
		}
		if !haveBest || sample.Delta < best.Delta {
			best, haveBest = sample, true
		}
	}
	return best, haveBest
}

func (p *prober) attemptOnce(ctx context.Context, addr *net.UDPAddr) (aggregate.Sample, bool) {
	nonce := newNonce()
	t0Wall := p.clock.WallNow()
	t0Mono := p.clock.MonoNow()

	entry, err := p.table.Insert(nonce, t0Wall, t0Mono)
	if err != nil {
		log.Debugf("node: probe to %v: %v", addr, err)
		return aggregate.Sample{}, false
	}

	req := &wire.Message{Type: wire.REQ, Nonce: nonce, From: p.peerID, Ts: t0Wall}
	if _, err := p.conn.WriteTo(wire.Pack(req), addr); err != nil {
		p.table.Remove(nonce)
		log.Warnf("node: failed to send REQ to %v: %v", addr, err)
		return aggregate.Sample{}, false
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case res := <-entry.Done():
		if res.Err != nil {
			return aggregate.Sample{}, false
		}
		return p.finish(res.Msg, t0Wall, t0Mono)
	case <-timer.C:
		p.table.Remove(nonce)
		return aggregate.Sample{}, false
	case <-ctx.Done():
		p.table.Remove(nonce)
		return aggregate.Sample{}, false
	}
}

// finish computes theta/delta from a resolved RESP and applies the
// clock-jump and negative-delay rejections.
func (p *prober) finish(msg *wire.Message, t0Wall, t0Mono float64) (aggregate.Sample, bool) {
	t3Wall := p.clock.WallNow()
	t3Mono := p.clock.MonoNow()

	rttWall := t3Wall - t0Wall
	rttMono := t3Mono - t0Mono
	if diff := rttWall - rttMono; diff > clockJumpTolerance || diff < -clockJumpTolerance {
		return aggregate.Sample{}, false
	}

	theta := ((msg.T1 - t0Wall) + (msg.T2 - t3Wall)) / 2
	delta := (t3Wall - t0Wall) - (msg.T2 - msg.T1)
	if delta < 0 {
		return aggregate.Sample{}, false
	}
	return aggregate.Sample{Theta: theta, Delta: delta}, true
}

// newNonce renders a fresh random (version 4) UUID as a 32-character hex
// string. Of its 128 bits, 122 are random; the 6 version/variant bits are
// fixed.
func newNonce() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
