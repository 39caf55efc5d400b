package types

import (
	"encoding/json"
	"fmt"
	"os"
)

// ProtocolVersion identifies the wire dialect a TOKEN/TOKEN_REPLY
// frame was produced with, checked the same way the teacher's
// mcast.RPCHeader.ProtocolVersion gates incoming RPCs.
const ProtocolVersion = 1

// PortConfiguration configures a single port's queue and protocol
// behavior. Loaded the way cppla-moto/config loads setting.json:
// read file, json.Unmarshal, validate -- adapted to be instance-scoped
// rather than a package global, since one process hosts many ports.
type PortConfiguration struct {
	// Capacity is the FifoQueue's bounded size.
	Capacity int `json:"capacity"`

	// Version is the protocol version this port's endpoints speak.
	Version uint `json:"version"`
}

// TunnelConfiguration configures a TunnelIn/TunnelOutEndpoint pair's
// backoff bounds.
type TunnelConfiguration struct {
	// MinBackoffSeconds is the first throttled backoff duration after
	// a NACK (spec.md §4.6: starts at 0.1s).
	MinBackoffSeconds float64 `json:"min_backoff_seconds"`

	// MaxBackoffSeconds caps the doubling backoff (spec.md §4.6: 1.0s).
	MaxBackoffSeconds float64 `json:"max_backoff_seconds"`
}

// DefaultPortConfiguration returns sane defaults for a freshly created
// port when no configuration file is supplied.
func DefaultPortConfiguration() *PortConfiguration {
	return &PortConfiguration{
		Capacity: 64,
		Version:  ProtocolVersion,
	}
}

// DefaultTunnelConfiguration returns the backoff bounds spec.md §8
// scenario S6 expects (0.1s .. 1.0s, doubling).
func DefaultTunnelConfiguration() *TunnelConfiguration {
	return &TunnelConfiguration{
		MinBackoffSeconds: 0.1,
		MaxBackoffSeconds: 1.0,
	}
}

// LoadPortConfiguration reads and validates a PortConfiguration from a
// JSON file at path.
func LoadPortConfiguration(path string) (*PortConfiguration, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading port configuration: %w", err)
	}
	cfg := DefaultPortConfiguration()
	if err := json.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parsing port configuration: %w", err)
	}
	if err := cfg.verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *PortConfiguration) verify() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("invalid capacity %d", c.Capacity)
	}
	if c.Version == 0 {
		c.Version = ProtocolVersion
	}
	return nil
}
