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

	log "github.com/sirupsen/logrus"

	"github.com/TYEclipse/p2p-time-sync/auth"
	"github.com/TYEclipse/p2p-time-sync/timesource"
	"github.com/TYEclipse/p2p-time-sync/wire"
)

// respond answers a decoded REQ: capture t1 on entry, build t2 just before
// transmit, sign if a Signer is configured, and send back to the REQ's
// source address. It never consults node offset or touches pending/peer_keys
// state; the only side effect is one outbound datagram.
func respond(conn Conn, src *net.UDPAddr, req *wire.Message, peerID string, clock timesource.Source, signer *auth.Signer) {
	t1 := clock.WallNow()
	resp := &wire.Message{
		Type:  wire.RESP,
		Nonce: req.Nonce,
		From:  peerID,
	}
	resp.T1 = t1
	resp.T2 = clock.WallNow()
	if signer != nil {
		sig, vk := signer.Sign(resp.Nonce, resp.From, resp.T1, resp.T2)
		resp.Sig = sig
		resp.VK = vk
	}
	if _, err := conn.WriteTo(wire.Pack(resp), src); err != nil {
		log.Warnf("node: failed to send RESP to %v: %v", src, err)
	}
}
