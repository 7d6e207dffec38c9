// Package spf computes shortest-path-first routes over a graph snapshot.
package spf

import (
	"container/heap"

	"github.com/redeslab/lsr/state"
)

// PathInfo describes the shortest path to one destination: its total cost and
// the node immediately preceding it on the path.
type PathInfo struct {
	Distance    int
	Predecessor state.NodeId
}

// Hop is one next-hop table entry: the neighbour to forward toward and the
// cumulative cost of the full path.
type Hop struct {
	Next state.NodeId
	Cost int
}

// NextHopTable maps each reachable destination to its next hop. Unreachable
// destinations are absent, never present with a sentinel cost.
type NextHopTable map[state.NodeId]Hop

type pqItem struct {
	node state.NodeId
	dist int
	seq  int
}

// pq orders by tentative distance, breaking ties by insertion sequence so
// that the node discovered first is processed first.
type pq []pqItem

func (q pq) Len() int { return len(q) }
func (q pq) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].seq < q[j].seq
}
func (q pq) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pq) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *pq) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// ShortestPaths runs Dijkstra from source. The result maps every reachable
// node (including source, at distance 0) to its distance and predecessor.
// A source absent from the graph yields an empty map: a router may briefly
// have no link-state entry for itself during bootstrap.
func ShortestPaths(g *state.Graph, source state.NodeId) map[state.NodeId]PathInfo {
	result := make(map[state.NodeId]PathInfo)
	if !g.Contains(source) {
		return result
	}

	dist := map[state.NodeId]int{source: 0}
	prev := make(map[state.NodeId]state.NodeId)
	done := make(map[state.NodeId]bool)

	seq := 0
	q := &pq{{node: source, dist: 0, seq: seq}}
	heap.Init(q)

	for q.Len() > 0 {
		cur := heap.Pop(q).(pqItem)
		if done[cur.node] {
			continue
		}
		done[cur.node] = true
		for _, nbr := range g.Neighbors(cur.node) {
			alt := cur.dist + nbr.Weight
			if best, ok := dist[nbr.Id]; !ok || alt < best {
				dist[nbr.Id] = alt
				prev[nbr.Id] = cur.node
				seq++
				heap.Push(q, pqItem{node: nbr.Id, dist: alt, seq: seq})
			}
		}
	}

	for node, d := range dist {
		result[node] = PathInfo{Distance: d, Predecessor: prev[node]}
	}
	return result
}

// BuildNextHop derives the next-hop table from the shortest-path tree rooted
// at source. The next hop for a destination is the second node on the path
// from source, or the destination itself when adjacent.
func BuildNextHop(g *state.Graph, source state.NodeId) NextHopTable {
	paths := ShortestPaths(g, source)
	table := make(NextHopTable)
	for dest, info := range paths {
		if dest == source {
			continue
		}
		hop := dest
		for paths[hop].Predecessor != source {
			hop = paths[hop].Predecessor
		}
		table[dest] = Hop{Next: hop, Cost: info.Distance}
	}
	return table
}
