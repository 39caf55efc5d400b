package core

import "github.com/jabolina/go-port/pkg/port/types"

// PortID uniquely identifies a port within its owning process.
type PortID string

// Port is an actor's typed input or output. It owns exactly one
// FifoQueue: as an output port it is the sole writer, as an input port
// it is a registered reader on a peer's queue (spec.md GLOSSARY).
//
// The scheduler owns the Port; endpoints that reference it hold it by
// pointer but never assume ownership, so a paired local endpoint must
// tolerate its peer Port being torn down mid-tick (DESIGN NOTES §9).
type Port struct {
	ID    PortID
	Queue *types.FifoQueue

	// Version is the protocol version this port's tunnel endpoints
	// require on an incoming frame (spec.md §6, SPEC_FULL.md §10.3).
	Version uint
}

// NewPort allocates a port with a freshly created queue of the given
// capacity, speaking the current default protocol version.
func NewPort(id PortID, capacity int) *Port {
	return &Port{
		ID:      id,
		Queue:   types.NewFifoQueue(capacity),
		Version: types.ProtocolVersion,
	}
}

// NewPortWithConfig allocates a port whose queue capacity and required
// protocol version come from a loaded types.PortConfiguration
// (SPEC_FULL.md §10.3) instead of the bare-int constructor's
// unconfigured default. A nil cfg falls back to
// types.DefaultPortConfiguration().
func NewPortWithConfig(id PortID, cfg *types.PortConfiguration) *Port {
	if cfg == nil {
		cfg = types.DefaultPortConfiguration()
	}
	return &Port{
		ID:      id,
		Queue:   types.NewFifoQueue(cfg.Capacity),
		Version: cfg.Version,
	}
}
