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
	"net"
	"time"

	"github.com/TYEclipse/p2p-time-sync/aggregate"
	"github.com/TYEclipse/p2p-time-sync/stats"
)

// NetworkNow is the logical clock view: wall time plus the current offset.
// No monotonicity is enforced across offset updates (spec.md §4.7) — a
// caller needing monotonic progression layers that on top.
func (n *Node) NetworkNow() float64 {
	return n.clock.WallNow() + n.Offset()
}

func (n *Node) recordPeerSample(addr *net.UDPAddr, sample aggregate.Sample) {
	key := addr.String()
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peerStatus[key] = stats.PeerStatus{
		Peer:       key,
		LastTheta:  sample.Theta,
		LastDelta:  sample.Delta,
		LastOK:     time.Now(),
		EverProbed: true,
	}
}

func (n *Node) recordPeerMiss(addr *net.UDPAddr) {
	key := addr.String()
	n.mu.Lock()
	defer n.mu.Unlock()
	if existing, ok := n.peerStatus[key]; ok {
		n.peerStatus[key] = existing
		return
	}
	n.peerStatus[key] = stats.PeerStatus{Peer: key}
}

// View builds the current status snapshot served over HTTP/JSON.
func (n *Node) View() stats.View {
	n.mu.Lock()
	peers := make([]stats.PeerStatus, 0, len(n.peerStatus))
	for _, ps := range n.peerStatus {
		peers = append(peers, ps)
	}
	offset := n.offset
	n.mu.Unlock()

	process, _ := stats.CollectProcessStats()
	return stats.View{
		PeerID:  n.peerID,
		Offset:  offset,
		Counts:  n.counters.Snapshot(),
		Process: process,
		Peers:   peers,
	}
}
