package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redeslab/lsr/protocol"
	"github.com/redeslab/lsr/state"
)

var labNodes = []state.NodeId{"N1", "N2", "N3", "N4", "N6", "N7", "N9", "N11"}

func TestDirectory_ToAddress(t *testing.T) {
	d := NewDirectory("sec30", "grupo", labNodes)

	addr, err := d.ToAddress("N3")
	assert.NoError(t, err)
	assert.Equal(t, protocol.Address("sec30.grupo3.nodo3"), addr)

	addr, err = d.ToAddress("N11")
	assert.NoError(t, err)
	assert.Equal(t, protocol.Address("sec30.grupo11.nodo11"), addr)

	group, err := d.GroupFor("N7")
	assert.NoError(t, err)
	assert.Equal(t, "grupo7", group)
}

func TestDirectory_RoundTrip(t *testing.T) {
	d := NewDirectory("sec30", "grupo", labNodes)
	for _, n := range labNodes {
		addr, err := d.ToAddress(n)
		assert.NoError(t, err)
		back, err := d.ToNode(addr)
		assert.NoError(t, err)
		assert.Equal(t, n, back)
	}
}

func TestDirectory_UnknownNode(t *testing.T) {
	d := NewDirectory("sec30", "grupo", labNodes)

	_, err := d.ToAddress("N42")
	var resErr *AddressResolutionError
	assert.ErrorAs(t, err, &resErr)
	assert.Equal(t, "N42", resErr.Ref)

	_, err = d.ToNode("sec30.grupo42.nodo42")
	assert.True(t, errors.As(err, &resErr))
}

func TestDirectory_MalformedAddress(t *testing.T) {
	d := NewDirectory("sec30", "grupo", labNodes)

	for _, addr := range []protocol.Address{
		"",
		"nodo3",
		"sec30.nodo3",
		"sec30.grupo3.N3",
		"sec30.grupo3.nodoX",
		"sec30.grupo3.nodo3.extra",
	} {
		_, err := d.ToNode(addr)
		assert.Error(t, err, "address %q", addr)
	}
}
