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

package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	s, err := NewSigner()
	require.NoError(t, err)

	sig, vk := s.Sign("nonce1", "peerA", 10.0, 10.5)
	require.NoError(t, Verify(vk, sig, "nonce1", "peerA", 10.0, 10.5))
}

func TestVerifyFailsOnTamperedField(t *testing.T) {
	s, err := NewSigner()
	require.NoError(t, err)

	sig, vk := s.Sign("nonce1", "peerA", 10.0, 10.5)
	err = Verify(vk, sig, "nonce1", "peerA", 10.0, 99.9)
	require.Error(t, err)
}

func TestVerifyFailsOnBadVerifyKey(t *testing.T) {
	s, err := NewSigner()
	require.NoError(t, err)
	sig, _ := s.Sign("nonce1", "peerA", 10.0, 10.5)

	err = Verify("not-hex", sig, "nonce1", "peerA", 10.0, 10.5)
	require.Error(t, err)
}

func TestVerifyFailsOnWrongSizeKey(t *testing.T) {
	err := Verify("deadbeef", "00", "n", "f", 1, 2)
	require.Error(t, err)
}

func TestVerifyFailsOnBadSignatureHex(t *testing.T) {
	s, err := NewSigner()
	require.NoError(t, err)
	_, vk := s.Sign("nonce1", "peerA", 10.0, 10.5)

	err = Verify(vk, "not-hex", "nonce1", "peerA", 10.0, 10.5)
	require.Error(t, err)
}
