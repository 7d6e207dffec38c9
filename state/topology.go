package state

import (
	"fmt"
	"regexp"
)

// edgeRe matches one edge of the textual topology description, e.g. "N1-N2:20".
var edgeRe = regexp.MustCompile(`N(\d+)-N(\d+):(\d+)`)

// ParseTopology extracts the edge list from a topology description such as
// "N1-N2:20, N1-N3:14". Text between edges is ignored, so the format is
// whitespace and newline tolerant. Entries that do not match the edge pattern
// are skipped.
func ParseTopology(text string) []Edge {
	edges := make([]Edge, 0)
	for _, m := range edgeRe.FindAllStringSubmatch(text, -1) {
		var a, b, w int
		fmt.Sscanf(m[1], "%d", &a)
		fmt.Sscanf(m[2], "%d", &b)
		fmt.Sscanf(m[3], "%d", &w)
		edges = append(edges, Edge{
			A:      NodeId(fmt.Sprintf("N%d", a)),
			B:      NodeId(fmt.Sprintf("N%d", b)),
			Weight: w,
		})
	}
	return edges
}
