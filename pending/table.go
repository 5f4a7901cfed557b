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

// Package pending implements the nonce -> in-flight-probe table and its
// one-shot completion handles, demultiplexing incoming RESPs onto the
// prober goroutine that is awaiting them.
package pending

import (
	"fmt"
	"sync"

	"github.com/TYEclipse/p2p-time-sync/wire"
)

// Result is what an Entry resolves to: either a RESP message, or an error
// (signature verification failure).
type Result struct {
	Msg *wire.Message
	Err error
}

// Entry is what the prober records before sending a REQ, and what the
// demultiplexer resolves when the matching RESP arrives (or never does).
type Entry struct {
	T0Wall float64
	T0Mono float64

	done chan Result
}

// Done returns the one-shot channel the prober selects on alongside its
// timeout. It is written to at most once, by Resolve or Fail; an entry
// removed with Remove is never written to.
func (e *Entry) Done() <-chan Result {
	return e.done
}

// Table is the nonce -> Entry map. Safe for concurrent use: the arrival path
// (Resolve/Fail) and the probe path (Insert/Remove) run on different
// goroutines per the concurrency model in spec.md §5.
type Table struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// New returns an empty pending table.
func New() *Table {
	return &Table{entries: map[string]*Entry{}}
}

// Insert records a new in-flight probe for nonce. It returns an error if
// nonce already has a live entry — the chosen nonce-collision policy
// (spec.md §4.4, §9 Open Questions) is to reject the duplicate insert
// rather than silently cancel the older awaiter.
func (t *Table) Insert(nonce string, t0Wall, t0Mono float64) (*Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[nonce]; exists {
		return nil, fmt.Errorf("pending: nonce %q already in flight", nonce)
	}
	e := &Entry{
		T0Wall: t0Wall,
		T0Mono: t0Mono,
		done:   make(chan Result, 1),
	}
	t.entries[nonce] = e
	return e, nil
}

// Resolve completes the pending entry for nonce with msg, if still present.
// Returns false if nonce is unknown or already resolved (late, duplicate, or
// unsolicited RESP — the caller should drop it and log at debug).
func (t *Table) Resolve(nonce string, msg *wire.Message) bool {
	return t.complete(nonce, Result{Msg: msg})
}

// Fail completes the pending entry for nonce with an error (e.g. a signature
// verification failure), if still present.
func (t *Table) Fail(nonce string, err error) bool {
	return t.complete(nonce, Result{Err: err})
}

func (t *Table) complete(nonce string, r Result) bool {
	t.mu.Lock()
	e, ok := t.entries[nonce]
	if ok {
		delete(t.entries, nonce)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	e.done <- r
	return true
}

// Remove removes nonce unconditionally, without resolving it. Used by the
// awaiter on timeout, on cancellation, and when sending the REQ fails: the
// exit paths that don't go through complete().
func (t *Table) Remove(nonce string) {
	t.mu.Lock()
	delete(t.entries, nonce)
	t.mu.Unlock()
}

// Len reports the number of in-flight probes, for tests asserting that
// cleanup happened on every exit path.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
