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
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	mrand "math/rand"
	"net"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TYEclipse/p2p-time-sync/auth"
	"github.com/TYEclipse/p2p-time-sync/pending"
	"github.com/TYEclipse/p2p-time-sync/stats"
	"github.com/TYEclipse/p2p-time-sync/timesource"
	"github.com/TYEclipse/p2p-time-sync/wire"
)

// Node is one peer: it answers probes from others, probes others itself on
// a round cadence, and maintains a single logical offset.
type Node struct {
	cfg    Config
	peerID string
	peers  []*net.UDPAddr

	conn  Conn
	clock timesource.Source

	pending *pending.Table
	keys    *auth.KeyStore
	signer  *auth.Signer // nil when crypto is disabled

	counters     stats.Counters
	prevSnapshot stats.Snapshot
	running      *stats.RunningStats
	exporter     *stats.PrometheusExporter

	rng *mrand.Rand

	mu         sync.Mutex
	offset     float64
	peerStatus map[string]stats.PeerStatus
}

// New resolves peers, binds the datagram endpoint, and prepares (but does
// not start) a Node.
func New(cfg Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := bind(cfg.Host, cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("node: binding %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return newWithConn(cfg, conn)
}

// newWithConn is the New() body minus the socket bind, letting tests supply
// a fake Conn directly.
func newWithConn(cfg Config, conn Conn) (*Node, error) {
	return newWithConnAndClock(cfg, conn, timesource.System{})
}

// newWithConnAndClock additionally lets tests substitute the time source,
// for fully deterministic round-level scenarios.
func newWithConnAndClock(cfg Config, conn Conn, clock timesource.Source) (*Node, error) {
	peers := make([]*net.UDPAddr, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		addr, err := net.ResolveUDPAddr("udp", p)
		if err != nil {
			return nil, fmt.Errorf("node: resolving peer %q: %w", p, err)
		}
		peers = append(peers, addr)
	}

	var signer *auth.Signer
	if cfg.CryptoEnabled {
		s, err := auth.NewSigner()
		if err != nil {
			return nil, fmt.Errorf("node: generating signing key: %w", err)
		}
		signer = s
	}

	n := &Node{
		cfg:        cfg,
		peerID:     newPeerID(),
		peers:      peers,
		conn:       conn,
		clock:      clock,
		pending:    pending.New(),
		keys:       auth.NewKeyStore(),
		signer:     signer,
		running:    stats.NewRunningStats(),
		exporter:   stats.NewPrometheusExporter(),
		rng:        mrand.New(mrand.NewSource(cryptoSeed())),
		peerStatus: make(map[string]stats.PeerStatus, len(peers)),
	}
	for _, addr := range peers {
		n.peerStatus[addr.String()] = stats.PeerStatus{Peer: addr.String()}
	}
	return n, nil
}

// PeerID returns this node's stable 32-character identifier.
func (n *Node) PeerID() string { return n.peerID }

// Offset returns the current logical offset, in seconds.
func (n *Node) Offset() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.offset
}

// Run binds the receive loop and the round scheduler together and blocks
// until ctx is cancelled. The receive loop and the round loop each run in
// their own errgroup goroutine; the calling goroutine waits on both.
func (n *Node) Run(ctx context.Context) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return n.receiveLoop(gctx)
	})
	eg.Go(func() error {
		return n.roundLoop(gctx)
	})
	err := eg.Wait()
	if ctx.Err() != nil {
		// a clean cancellation, not a failure
		return nil
	}
	return err
}

// Close releases the datagram endpoint.
func (n *Node) Close() error {
	return n.conn.Close()
}

// StatusServer builds the HTTP status/metrics server for this node. The
// caller starts it (stats.Server.Start blocks) in its own goroutine.
func (n *Node) StatusServer() *stats.Server {
	return stats.NewServer(n.View, n.exporter)
}

// receiveLoop is the node's single reader: every inbound datagram is
// decoded and routed to either the responder or the pending-table
// demultiplexer. No suspension happens on this path (spec.md §5).
func (n *Node) receiveLoop(ctx context.Context) error {
	doneChan := make(chan error, 1)
	go func() {
		buf := make([]byte, 2048)
		for {
			nRead, src, err := n.conn.ReadFromUDP(buf)
			if err != nil {
				doneChan <- err
				return
			}
			n.handleDatagram(buf[:nRead], src)
		}
	}()
	select {
	case <-ctx.Done():
		_ = n.conn.Close()
		return ctx.Err()
	case err := <-doneChan:
		return err
	}
}

func (n *Node) handleDatagram(data []byte, src *net.UDPAddr) {
	msg, err := wire.Unpack(data)
	if err != nil {
		n.counters.IncDecodeErrors()
		log.Debugf("node: dropping malformed datagram from %v: %v", src, err)
		return
	}
	switch msg.Type {
	case wire.REQ:
		respond(n.conn, src, msg, n.peerID, n.clock, n.signer)
	case wire.RESP:
		n.handleResp(msg)
	}
}

// handleResp implements the demultiplexer of spec.md §4.4, including the
// TOFU key resolution of §4.2.
func (n *Node) handleResp(msg *wire.Message) {
	if n.cfg.CryptoEnabled {
		vk, cached := n.keys.Lookup(msg.From)
		if !cached {
			vk = msg.VK
		}
		if vk == "" {
			n.failResp(msg, fmt.Errorf("auth: no verify key available for %s", msg.From))
			return
		}
		if err := auth.Verify(vk, msg.Sig, msg.Nonce, msg.From, msg.T1, msg.T2); err != nil {
			n.failResp(msg, err)
			return
		}
		if !cached {
			n.keys.Bind(msg.From, vk)
		}
	}
	if !n.pending.Resolve(msg.Nonce, msg) {
		n.counters.IncUnknownNonceResp()
		log.Debugf("node: unsolicited or late RESP nonce=%s from=%s", msg.Nonce, msg.From)
	}
}

func (n *Node) failResp(msg *wire.Message, err error) {
	n.counters.IncAuthFailures()
	log.Warnf("node: rejecting RESP from %s: %v", msg.From, err)
	n.pending.Fail(msg.Nonce, err)
}

// newPeerID renders a fresh random (version 4) UUID as a 32-character hex
// string, stable for the process lifetime. Of its 128 bits, 122 are random;
// the 6 version/variant bits are fixed.
func newPeerID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// cryptoSeed draws a 62-bit seed from a CSPRNG for the round scheduler's
// peer-sampling RNG (spec.md §4.6 calls for a "cryptographically seeded"
// source, not a cryptographically secure sampler).
func cryptoSeed() int64 {
	max := big.NewInt(1 << 62)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand failure is effectively unrecoverable system state;
		// fall back to 8 raw crypto/rand bytes masked to a non-negative
		// int64 rather than panic.
		var b [8]byte
		_, _ = rand.Read(b[:])
		return int64(binary.BigEndian.Uint64(b[:]) &^ (1 << 63))
	}
	return n.Int64()
}
