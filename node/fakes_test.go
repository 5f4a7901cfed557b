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
	"sync"
)

// fakeClock returns a fixed wall/mono reading forever; good enough for
// responder tests that don't care about elapsed time.
type fakeClock struct {
	wall float64
	mono float64
}

func (f fakeClock) WallNow() float64 { return f.wall }
func (f fakeClock) MonoNow() float64 { return f.mono }

// scriptedClock returns successive values from a queue on each call,
// repeating the final value once exhausted, so a test can control exactly
// what t0/t1/t2/t3 a prober observes.
type scriptedClock struct {
	mu   sync.Mutex
	wall []float64
	mono []float64
}

func (s *scriptedClock) WallNow() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pop(&s.wall)
}

func (s *scriptedClock) MonoNow() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pop(&s.mono)
}

func pop(q *[]float64) float64 {
	if len(*q) == 0 {
		return 0
	}
	v := (*q)[0]
	if len(*q) > 1 {
		*q = (*q)[1:]
	}
	return v
}

type sentDatagram struct {
	b    []byte
	addr net.Addr
}

// fakeConn is a Conn double. Writes are recorded; reads are served from an
// inbox fed by the test via deliver(), and ReadFromUDP blocks until a
// datagram is delivered or the conn is closed.
type fakeConn struct {
	mu      sync.Mutex
	sent    []sentDatagram
	sentCh  chan sentDatagram
	inbox   chan sentDatagram
	closed  chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		sentCh: make(chan sentDatagram, 64),
		inbox:  make(chan sentDatagram, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	cp := append([]byte(nil), b...)
	f.mu.Lock()
	f.sent = append(f.sent, sentDatagram{b: cp, addr: addr})
	f.mu.Unlock()
	f.sentCh <- sentDatagram{b: cp, addr: addr}
	return len(b), nil
}

func (f *fakeConn) ReadFromUDP(b []byte) (int, *net.UDPAddr, error) {
	select {
	case d := <-f.inbox:
		n := copy(b, d.b)
		addr, _ := d.addr.(*net.UDPAddr)
		return n, addr, nil
	case <-f.closed:
		return 0, nil, errors.New("fakeConn: closed")
	}
}

func (f *fakeConn) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

// deliver simulates a datagram arriving from addr, as if sent over the wire.
func (f *fakeConn) deliver(b []byte, addr net.Addr) {
	f.inbox <- sentDatagram{b: b, addr: addr}
}
