package state

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Protocol selects the routing behaviour of a node. The set is closed:
// unimplemented protocols are rejected at startup instead of silently
// behaving like static routing.
type Protocol string

const (
	// ProtocolStatic computes the next-hop table once from the full
	// statically-known topology and never changes it.
	ProtocolStatic Protocol = "static"
	// ProtocolLinkState floods link-state packets and recomputes routes from
	// the link-state database as it converges.
	ProtocolLinkState Protocol = "link-state"
	// ProtocolFlooding and ProtocolDistanceVector are recognized but not
	// implemented.
	ProtocolFlooding       Protocol = "flooding"
	ProtocolDistanceVector Protocol = "distance-vector"
)

var ErrNotImplemented = errors.New("protocol not implemented")

func (p Protocol) Validate() error {
	switch p {
	case ProtocolStatic, ProtocolLinkState, ProtocolFlooding, ProtocolDistanceVector:
		return nil
	}
	return fmt.Errorf("unknown protocol %q", string(p))
}

func (p Protocol) Implemented() bool {
	return p == ProtocolStatic || p == ProtocolLinkState
}

// CentralCfg is the network-global configuration shared by every node.
type CentralCfg struct {
	// Namespace is the first segment of every transport address, e.g. "sec30".
	Namespace string `yaml:"namespace"`
	// GroupBase is the group prefix addresses are derived from; node N5 of
	// group base "grupo" publishes and subscribes under group "grupo5".
	GroupBase string `yaml:"group_base"`
	// Topology is the textual edge list, e.g. "N1-N2:20, N1-N3:14".
	Topology string `yaml:"topology"`
}

// Graph parses the topology description into a graph.
func (c *CentralCfg) Graph() (*Graph, error) {
	edges := ParseTopology(c.Topology)
	if len(edges) == 0 {
		return nil, errors.New("topology contains no edges")
	}
	return BuildGraph(edges), nil
}

// RedisCfg points a node at the pub/sub broker used as its transport.
type RedisCfg struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
}

// LocalCfg is the node-level configuration.
type LocalCfg struct {
	Id       NodeId   `yaml:"id"`
	Protocol Protocol `yaml:"protocol"`
	// LogPath, if set, makes the node also write logs to this file.
	LogPath string    `yaml:"log_path,omitempty"`
	Redis   *RedisCfg `yaml:"redis,omitempty"`
	// HelloInterval and FloodInterval override the protocol defaults when
	// non-zero.
	HelloInterval time.Duration `yaml:"hello_interval,omitempty"`
	FloodInterval time.Duration `yaml:"flood_interval,omitempty"`
}

func CentralConfigValidator(cfg *CentralCfg) error {
	if cfg.Namespace == "" {
		return errors.New("namespace must not be empty")
	}
	if cfg.GroupBase == "" {
		return errors.New("group_base must not be empty")
	}
	_, err := cfg.Graph()
	return err
}

func NodeConfigValidator(ccfg *CentralCfg, ncfg *LocalCfg) error {
	if ncfg.Id == "" {
		return errors.New("node id must not be empty")
	}
	if err := ncfg.Protocol.Validate(); err != nil {
		return err
	}
	g, err := ccfg.Graph()
	if err != nil {
		return err
	}
	if !slices.Contains(g.Nodes(), ncfg.Id) {
		return fmt.Errorf("node %s does not appear in the topology", ncfg.Id)
	}
	return nil
}
