// Package transport is the message bus boundary. The routing core depends
// only on fire-and-forget sends and a per-address subscription stream; it
// assumes at-least-once, unordered delivery and nothing more.
package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/state"
)

// Bus delivers envelopes between addresses.
type Bus interface {
	// Send publishes an envelope to addr. Sends are fire-and-forget: a nil
	// error does not imply the envelope was received anywhere.
	Send(ctx context.Context, addr protocol.Address, env protocol.Envelope) error
	// Subscribe produces the stream of envelopes published to addr. The
	// channel closes when the bus is closed.
	Subscribe(ctx context.Context, addr protocol.Address) (<-chan protocol.Envelope, error)
	Close() error
}

// AddressResolutionError reports an address or node id outside the known
// bidirectional mapping. It is fatal to the single operation attempting
// resolution, never to the router.
type AddressResolutionError struct {
	Ref string
}

func (e *AddressResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q", e.Ref)
}

// Directory is the bidirectional, injective mapping between routing ids and
// transport addresses. Address format: <namespace>.<group>.nodo<N>, where the
// group is derived per node from the group base ("grupo" + node number).
type Directory struct {
	namespace string
	groupBase string
	known     map[state.NodeId]struct{}
}

func NewDirectory(namespace, groupBase string, nodes []state.NodeId) *Directory {
	known := make(map[state.NodeId]struct{}, len(nodes))
	for _, n := range nodes {
		known[n] = struct{}{}
	}
	return &Directory{namespace: namespace, groupBase: groupBase, known: known}
}

func nodeNumber(n state.NodeId) (int, error) {
	num, err := strconv.Atoi(strings.TrimPrefix(string(n), "N"))
	if err != nil {
		return 0, &AddressResolutionError{Ref: string(n)}
	}
	return num, nil
}

// GroupFor derives the group a node publishes and subscribes under.
func (d *Directory) GroupFor(n state.NodeId) (string, error) {
	num, err := nodeNumber(n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", d.groupBase, num), nil
}

// ToAddress resolves a node id to its transport address.
func (d *Directory) ToAddress(n state.NodeId) (protocol.Address, error) {
	if _, ok := d.known[n]; !ok {
		return "", &AddressResolutionError{Ref: string(n)}
	}
	num, err := nodeNumber(n)
	if err != nil {
		return "", err
	}
	group, err := d.GroupFor(n)
	if err != nil {
		return "", err
	}
	return protocol.Address(fmt.Sprintf("%s.%s.nodo%d", d.namespace, group, num)), nil
}

// ToNode resolves a transport address back to a node id. It is the inverse of
// ToAddress over the known node set.
func (d *Directory) ToNode(addr protocol.Address) (state.NodeId, error) {
	parts := strings.Split(string(addr), ".")
	last := parts[len(parts)-1]
	numStr := strings.TrimPrefix(last, "nodo")
	if len(parts) != 3 || numStr == last {
		return "", &AddressResolutionError{Ref: string(addr)}
	}
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return "", &AddressResolutionError{Ref: string(addr)}
	}
	id := state.NodeId(fmt.Sprintf("N%d", num))
	if _, ok := d.known[id]; !ok {
		return "", &AddressResolutionError{Ref: string(addr)}
	}
	return id, nil
}
