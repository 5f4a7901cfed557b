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

// Package auth implements the detached-signature scheme over the canonical
// signed payload (wire.SignedPayload) and the trust-on-first-use verify-key
// cache.
//
// Signing uses Ed25519 (crypto/ed25519, stdlib). No mainstream third-party
// Go package replaces crypto/ed25519 for plain detached signatures — the
// ecosystem (including the teacher's own dependency tree) treats it as the
// canonical implementation, so this component is built directly on the
// standard library rather than a pack dependency.
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/TYEclipse/p2p-time-sync/wire"
)

// Signer holds a node's own Ed25519 keypair. A nil *Signer means crypto is
// disabled for this node: Sign is never called, and the node does not call
// Verify either, so responses are accepted unauthenticated.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewSigner generates a fresh Ed25519 keypair.
func NewSigner() (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("auth: generating signing key: %w", err)
	}
	return &Signer{priv: priv, pub: pub}, nil
}

// Sign produces a detached signature over SignedPayload(nonce, from, t1, t2),
// returning the signature and the node's verify key, both hex-encoded.
func (s *Signer) Sign(nonce, from string, t1, t2 float64) (sigHex, vkHex string) {
	payload := wire.SignedPayload(nonce, from, t1, t2)
	sig := ed25519.Sign(s.priv, payload)
	return hex.EncodeToString(sig), hex.EncodeToString(s.pub)
}

// Verify checks that sigHex is a valid Ed25519 signature over
// SignedPayload(nonce, from, t1, t2) under the given hex-encoded verify key.
// It fails if vkHex doesn't parse as a valid Ed25519 public key or the
// signature doesn't verify.
func Verify(vkHex, sigHex, nonce, from string, t1, t2 float64) error {
	vk, err := hex.DecodeString(vkHex)
	if err != nil {
		return fmt.Errorf("auth: decoding verify key: %w", err)
	}
	if len(vk) != ed25519.PublicKeySize {
		return fmt.Errorf("auth: verify key has wrong size %d", len(vk))
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("auth: decoding signature: %w", err)
	}
	payload := wire.SignedPayload(nonce, from, t1, t2)
	if !ed25519.Verify(ed25519.PublicKey(vk), payload, sig) {
		return fmt.Errorf("auth: signature verification failed")
	}
	return nil
}
