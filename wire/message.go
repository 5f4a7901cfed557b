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

// Package wire implements the compact textual codec for probe/response
// datagrams exchanged between peers.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the message discriminator.
type Type string

const (
	// REQ is a probe sent by the originator.
	REQ Type = "REQ"
	// RESP is a response sent by the responder.
	RESP Type = "RESP"
)

// Message is the tagged REQ/RESP variant described in the wire schema.
// Fields that don't apply to a given Type are left at their zero value and
// omitted on the wire.
type Message struct {
	Type  Type
	Nonce string
	From  string

	// REQ only. Informational; the originator never reads it back.
	Ts float64

	// RESP only.
	T1 float64
	T2 float64

	// RESP only, present iff the responder signs.
	Sig string
	VK  string
}

const fieldSep = ";"
const kvSep = "="

// formatFloat renders a float deterministically and losslessly.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SignedPayload returns the canonical byte sequence signed by the responder
// and re-derived by the verifier: exactly nonce, from, t1, t2 in that order,
// with no whitespace between separators.
func SignedPayload(nonce, from string, t1, t2 float64) []byte {
	var b strings.Builder
	b.WriteString("nonce" + kvSep + nonce + fieldSep)
	b.WriteString("from" + kvSep + from + fieldSep)
	b.WriteString("t1" + kvSep + formatFloat(t1) + fieldSep)
	b.WriteString("t2" + kvSep + formatFloat(t2))
	return []byte(b.String())
}

// Pack serializes a Message to its datagram payload.
func Pack(m *Message) []byte {
	var b strings.Builder
	write := func(k, v string) {
		if b.Len() > 0 {
			b.WriteString(fieldSep)
		}
		b.WriteString(k + kvSep + v)
	}
	write("type", string(m.Type))
	write("nonce", m.Nonce)
	write("from", m.From)
	switch m.Type {
	case REQ:
		write("ts", formatFloat(m.Ts))
	case RESP:
		write("t1", formatFloat(m.T1))
		write("t2", formatFloat(m.T2))
		if m.Sig != "" {
			write("sig", m.Sig)
		}
		if m.VK != "" {
			write("vk", m.VK)
		}
	}
	return []byte(b.String())
}

// Unpack parses a datagram payload into a Message. Malformed payloads return
// an error; the caller (the demultiplexer) is responsible for dropping them
// silently rather than surfacing the error further.
func Unpack(data []byte) (*Message, error) {
	fields := strings.Split(string(data), fieldSep)
	m := &Message{}
	for _, f := range fields {
		if f == "" {
			continue
		}
		k, v, ok := strings.Cut(f, kvSep)
		if !ok {
			return nil, fmt.Errorf("wire: malformed field %q", f)
		}
		var err error
		switch k {
		case "type":
			m.Type = Type(v)
		case "nonce":
			m.Nonce = v
		case "from":
			m.From = v
		case "ts":
			m.Ts, err = strconv.ParseFloat(v, 64)
		case "t1":
			m.T1, err = strconv.ParseFloat(v, 64)
		case "t2":
			m.T2, err = strconv.ParseFloat(v, 64)
		case "sig":
			m.Sig = v
		case "vk":
			m.VK = v
		default:
			// unknown field: ignore for forward compatibility
		}
		if err != nil {
			return nil, fmt.Errorf("wire: parsing field %q: %w", k, err)
		}
	}
	if m.Type != REQ && m.Type != RESP {
		return nil, fmt.Errorf("wire: unknown or missing type %q", m.Type)
	}
	return m, nil
}
