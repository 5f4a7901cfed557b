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
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/TYEclipse/p2p-time-sync/auth"
	"github.com/TYEclipse/p2p-time-sync/wire"
)

var errSendFailed = errors.New("write failed")

func TestRespondUnsigned(t *testing.T) {
	fc := newFakeConn()
	req := &wire.Message{Type: wire.REQ, Nonce: "n1", From: "peerA"}
	src := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}

	respond(fc, src, req, "me", fakeClock{wall: 100.0}, nil)

	require.Len(t, fc.sent, 1)
	msg, err := wire.Unpack(fc.sent[0].b)
	require.NoError(t, err)
	require.Equal(t, wire.RESP, msg.Type)
	require.Equal(t, "n1", msg.Nonce)
	require.Equal(t, "me", msg.From)
	require.Empty(t, msg.Sig)
	require.Empty(t, msg.VK)
	require.Equal(t, src, fc.sent[0].addr)
}

func TestRespondSigned(t *testing.T) {
	fc := newFakeConn()
	signer, err := auth.NewSigner()
	require.NoError(t, err)
	req := &wire.Message{Type: wire.REQ, Nonce: "n2", From: "peerA"}
	src := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9001}

	respond(fc, src, req, "me", fakeClock{wall: 42.0}, signer)

	require.Len(t, fc.sent, 1)
	msg, err := wire.Unpack(fc.sent[0].b)
	require.NoError(t, err)
	require.NotEmpty(t, msg.Sig)
	require.NotEmpty(t, msg.VK)
	require.NoError(t, auth.Verify(msg.VK, msg.Sig, msg.Nonce, msg.From, msg.T1, msg.T2))
}

// TestRespondSendFailureIsNonFatal exercises the Conn boundary through a
// generated mock, mirroring the teacher's gomock usage for transport
// interfaces (e.g. simpleclient's MockUDPConn).
func TestRespondSendFailureIsNonFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	src := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9002}
	req := &wire.Message{Type: wire.REQ, Nonce: "n3", From: "peerA"}

	mc := NewMockConn(ctrl)
	mc.EXPECT().WriteTo(gomock.Any(), src).DoAndReturn(func(b []byte, _ net.Addr) (int, error) {
		msg, err := wire.Unpack(b)
		require.NoError(t, err)
		require.Equal(t, "n3", msg.Nonce)
		return 0, errSendFailed
	})

	require.NotPanics(t, func() {
		respond(mc, src, req, "me", fakeClock{wall: 7.0}, nil)
	})
}
