package state

import "slices"

// NodeId is the routing identifier of a node, e.g. "N3". It is distinct from
// the transport address a node listens on.
type NodeId string

// Neighbor is one directed half of an undirected weighted edge.
type Neighbor struct {
	Id     NodeId
	Weight int
}

// Edge is an undirected weighted link between two nodes.
type Edge struct {
	A, B   NodeId
	Weight int
}

// Graph is an immutable undirected weighted graph. Neighbor lists keep
// insertion order so that path computations are deterministic. Link-state
// routing never mutates a Graph, it builds a fresh one per database change.
type Graph struct {
	order []NodeId
	adj   map[NodeId][]Neighbor
}

// BuildGraph constructs a graph from an edge list. Inserting (A,B,w) inserts
// both directions. Self-loops are dropped; a repeated unordered pair keeps
// its position but takes the last weight.
func BuildGraph(edges []Edge) *Graph {
	g := &Graph{adj: make(map[NodeId][]Neighbor)}
	for _, e := range edges {
		if e.A == e.B {
			continue
		}
		g.insert(e.A, e.B, e.Weight)
		g.insert(e.B, e.A, e.Weight)
	}
	return g
}

func (g *Graph) insert(from, to NodeId, weight int) {
	if _, ok := g.adj[from]; !ok {
		g.order = append(g.order, from)
	}
	nbrs := g.adj[from]
	idx := slices.IndexFunc(nbrs, func(n Neighbor) bool {
		return n.Id == to
	})
	if idx != -1 {
		nbrs[idx].Weight = weight
		return
	}
	g.adj[from] = append(nbrs, Neighbor{Id: to, Weight: weight})
}

// Neighbors returns the adjacency of n in insertion order. Unknown nodes
// yield an empty list, they are simply unreachable.
func (g *Graph) Neighbors(n NodeId) []Neighbor {
	return g.adj[n]
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []NodeId {
	return g.order
}

func (g *Graph) Contains(n NodeId) bool {
	_, ok := g.adj[n]
	return ok
}

// Weight reports the weight of the edge between a and b, if present.
func (g *Graph) Weight(a, b NodeId) (int, bool) {
	for _, n := range g.adj[a] {
		if n.Id == b {
			return n.Weight, true
		}
	}
	return 0, false
}
