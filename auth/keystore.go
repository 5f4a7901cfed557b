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

import "sync"

// KeyStore is a trust-on-first-use cache of PeerId -> hex verify key. The
// first valid signature seen from a peer binds its key; later responses
// from the same peer must verify under that cached key regardless of what
// vk they carry on the wire, so a later attacker can't swap in a new key
// for an already-trusted peer.
type KeyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

// NewKeyStore returns an empty cache.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: map[string]string{}}
}

// Lookup returns the cached verify key for peer, if any.
func (k *KeyStore) Lookup(peer string) (vkHex string, ok bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	vkHex, ok = k.keys[peer]
	return vkHex, ok
}

// Bind records vkHex as the verify key for peer, but only if peer has no
// cached key yet. Returns true if this call performed the binding.
func (k *KeyStore) Bind(peer, vkHex string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.keys[peer]; exists {
		return false
	}
	k.keys[peer] = vkHex
	return true
}
