package state

import "time"

var (
	// HelloInterval is the period between hello emissions to each neighbour.
	HelloInterval = time.Second * 3
	// HelloMisses is the number of consecutive missed hellos before a
	// neighbour is reported silent. Liveness reporting only, routing state is
	// never changed by hello traffic.
	HelloMisses = 10
	// FloodInterval is the period between self-originated link-state packets.
	FloodInterval = time.Second * 5

	// DefaultLSPTTL bounds how many hops a link-state packet may be relayed.
	DefaultLSPTTL = 16
	// DefaultMessageTTL bounds how many hops a user message may be forwarded.
	DefaultMessageTTL = 64

	DispatchWarnThreshold = time.Millisecond * 50
)
