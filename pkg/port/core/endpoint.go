package core

import "github.com/jabolina/go-port/pkg/port/types"

// PeerDescriptor names where an endpoint's data comes from or goes to:
// NodeID is "local" for a same-process peer, a remote node identifier
// for a tunnel peer, or "" if the endpoint was never attached (in which
// case PortID falls back to FormerPeerID), mirroring calvin's
// get_peer() -> (node_id_or_"local"_or_None, port_id).
type PeerDescriptor struct {
	NodeID string
	PortID PortID
}

// Endpoint is the capability set every endpoint variant implements
// (DESIGN NOTES §9): lifecycle plus the scheduler-facing
// Communicate() hook. Not every variant exercises every method -- out
// endpoints have no peek*, in endpoints default Communicate to a fatal
// result, exactly like the teacher's base Endpoint.communicate()
// raising unconditionally.
type Endpoint interface {
	IsConnected() bool
	Attached()
	Detached()
	Destroy()
	GetPeer() PeerDescriptor
	Communicate() types.CommResult
}

// InEndpoint is the scheduler/actor-facing read side (spec.md §6).
type InEndpoint interface {
	Endpoint
	TokensAvailable(length int) bool
	PeekToken() (types.Token, bool)
	PeekRewind()
	CommitPeekAsRead()
}

// OutEndpoint is the scheduler/actor-facing write side (spec.md §6).
type OutEndpoint interface {
	Endpoint
	TokensAvailable(length int) bool
	Write(t types.Token) bool
}

// BaseEndpoint implements the Endpoint contract's safe defaults,
// grounded on calvin's abstract Endpoint class: disconnected by
// default, Communicate is fatal, Attached/Detached/Destroy are no-ops
// a concrete variant overrides as needed.
//
// FormerPeerID preserves the migration hook the original's constructor
// takes (SPEC_FULL.md §12): a detached endpoint still remembers who it
// used to talk to, surfaced through GetPeer before Attached is called.
type BaseEndpoint struct {
	Port *Port

	FormerPeerID PortID

	// SingleTokensAvailable mirrors calvin's single_tokens_available
	// flag (SPEC_FULL.md §12): every concrete endpoint sets this true,
	// giving a scheduler integration the same per-token-vs-batch
	// availability knob the original exposed.
	SingleTokensAvailable bool

	Log types.Logger
}

func (b *BaseEndpoint) IsConnected() bool {
	return false
}

func (b *BaseEndpoint) Attached() {}

func (b *BaseEndpoint) Detached() {}

func (b *BaseEndpoint) Destroy() {}

func (b *BaseEndpoint) GetPeer() PeerDescriptor {
	return PeerDescriptor{NodeID: "", PortID: b.FormerPeerID}
}

// Communicate is the unconnected-endpoint default: polling it is a
// scheduler bug (spec.md §7), surfaced as FatalBug rather than a
// panic so the caller can log and escalate through its own Logger.
func (b *BaseEndpoint) Communicate() types.CommResult {
	if b.Log != nil {
		b.Log.Errorf("%v: port %s", types.ErrUnconnectedEndpoint, b.Port.ID)
	}
	return types.FatalBug
}
