// Package protocol defines the envelope format exchanged between nodes over
// the message bus, and the link-state packet carried inside it.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/redeslab/lsr/state"
)

// Address is the opaque transport identifier of a node, e.g.
// "sec30.grupo3.nodo3". Format validation belongs to the transport layer.
type Address string

// Kind discriminates envelope payloads.
type Kind string

const (
	Hello   Kind = "hello"
	LSPKind Kind = "lsp"
	Message Kind = "message"
)

// Well-known header keys accumulated while an envelope is relayed.
const (
	HeaderVia  = "via"
	HeaderPath = "path"
	HeaderCost = "cost"
)

// Header is a single-key mapping object. Headers are append-only: a relay
// adds new entries and never rewrites those of previously visited hops.
type Header struct {
	Key   string
	Value json.RawMessage
}

type Headers []Header

// MarshalJSON renders headers as an ordered list of single-key objects,
// matching the wire format: [{"via":"N3"},{"path":["N3"]},{"cost":14}].
func (h Headers) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(h))
	for _, hdr := range h {
		key, err := json.Marshal(hdr.Key)
		if err != nil {
			return nil, err
		}
		obj := append(append(append([]byte{'{'}, key...), ':'), hdr.Value...)
		out = append(out, append(obj, '}'))
	}
	return json.Marshal(out)
}

func (h *Headers) UnmarshalJSON(data []byte) error {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	hs := make(Headers, 0, len(raw))
	for _, obj := range raw {
		for k, v := range obj {
			hs = append(hs, Header{Key: k, Value: v})
		}
	}
	*h = hs
	return nil
}

// With appends a header entry, preserving all earlier entries for the key.
func (h Headers) With(key string, value any) Headers {
	raw, err := json.Marshal(value)
	if err != nil {
		raw = []byte("null")
	}
	return append(h, Header{Key: key, Value: raw})
}

// last returns the most recent value for key.
func (h Headers) last(key string) (json.RawMessage, bool) {
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].Key == key {
			return h[i].Value, true
		}
	}
	return nil, false
}

// Via returns the current forwarding node recorded on the envelope.
func (h Headers) Via() (state.NodeId, bool) {
	raw, ok := h.last(HeaderVia)
	if !ok {
		return "", false
	}
	var id state.NodeId
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", false
	}
	return id, true
}

// Path returns the ordered list of visited nodes.
func (h Headers) Path() []state.NodeId {
	raw, ok := h.last(HeaderPath)
	if !ok {
		return nil
	}
	var path []state.NodeId
	if err := json.Unmarshal(raw, &path); err != nil {
		return nil
	}
	return path
}

// Cost returns the running sum of traversed edge weights.
func (h Headers) Cost() int {
	raw, ok := h.last(HeaderCost)
	if !ok {
		return 0
	}
	var cost int
	if err := json.Unmarshal(raw, &cost); err != nil {
		return 0
	}
	return cost
}

// Envelope is the unit of traffic on the bus. From and To are transport
// addresses, not node ids.
type Envelope struct {
	Type    Kind            `json:"type"`
	From    Address         `json:"from"`
	To      Address         `json:"to"`
	TTL     int             `json:"ttl"`
	Headers Headers         `json:"headers,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return e, nil
}

// LSPNeighbor is one adjacency advertised by an LSP origin.
type LSPNeighbor struct {
	Id     state.NodeId `json:"id"`
	Weight int          `json:"weight"`
}

// LSP is a router's self-description of its neighbours, tagged with a
// per-origin monotonically increasing sequence number. Consumers never accept
// a non-increasing seq for the same origin.
type LSP struct {
	Origin    state.NodeId  `json:"origin"`
	Seq       uint64        `json:"seq"`
	Neighbors []LSPNeighbor `json:"neighbors"`
	TTL       int           `json:"ttl"`
}

// NewLSP builds an LSP describing adj as seen from origin.
func NewLSP(origin state.NodeId, seq uint64, adj []state.Neighbor, ttl int) LSP {
	nbrs := make([]LSPNeighbor, 0, len(adj))
	for _, n := range adj {
		nbrs = append(nbrs, LSPNeighbor{Id: n.Id, Weight: n.Weight})
	}
	return LSP{Origin: origin, Seq: seq, Neighbors: nbrs, TTL: ttl}
}

func (l LSP) Encode() (json.RawMessage, error) {
	return json.Marshal(l)
}

func DecodeLSP(data json.RawMessage) (LSP, error) {
	var l LSP
	if err := json.Unmarshal(data, &l); err != nil {
		return LSP{}, fmt.Errorf("decode lsp: %w", err)
	}
	return l, nil
}
