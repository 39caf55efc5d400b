package core

import "github.com/jabolina/go-port/pkg/port/types"

// LocalInEndpoint pairs a consumer port directly with its producer's
// port in the same process, bypassing the tunnel entirely. Grounded on
// calvin's LocalInEndpoint (original_source/calvin/runtime/south/endpoint.py).
//
// Reads are drawn from the peer port's queue, with the local port's
// own id used as the reader name on that queue. Two migration hazards
// are handled once, at first use:
//
//   - fifoMismatch: this port may have just become local after being
//     remote; the peer's queue can still hold tokens whose sequence
//     numbers duplicate ones already delivered over the since-replaced
//     tunnel (the ACK for them was lost before migration). These are
//     drained and discarded via DrainOne (SPEC_FULL.md §13.1).
//   - dataInLocalFifo: the local queue may itself still hold residual
//     tokens left over from when this port was the destination of a
//     TunnelInEndpoint. Those are read first; only once they're
//     exhausted does this endpoint fall back to the peer queue.
type LocalInEndpoint struct {
	BaseEndpoint

	peer *Port

	dataInLocalFifo bool
	fifoMismatch    bool
}

// NewLocalInEndpoint constructs a detached LocalInEndpoint. Both
// migration flags start true per spec.md §6 ("Migration state... must
// be preserved across a detach/attach... flags data_in_local_fifo and
// fifo_mismatch both set to true on construction").
func NewLocalInEndpoint(port, peerPort *Port, log types.Logger) *LocalInEndpoint {
	return &LocalInEndpoint{
		BaseEndpoint: BaseEndpoint{
			Port:                  port,
			SingleTokensAvailable: true,
			Log:                   log,
		},
		peer:            peerPort,
		dataInLocalFifo: true,
		fifoMismatch:    true,
	}
}

func (l *LocalInEndpoint) IsConnected() bool { return true }

func (l *LocalInEndpoint) Attached() {
	l.Port.Queue.AddReader(types.ReaderID(l.Port.ID))
}

func (l *LocalInEndpoint) GetPeer() PeerDescriptor {
	return PeerDescriptor{NodeID: "local", PortID: l.peer.ID}
}

// Communicate is not meaningful for an in-endpoint; the scheduler
// should never poll it on the read side.
func (l *LocalInEndpoint) Communicate() types.CommResult {
	return l.BaseEndpoint.Communicate()
}

func (l *LocalInEndpoint) reader() types.ReaderID {
	return types.ReaderID(l.Port.ID)
}

// fixMismatch discards, from the peer queue, every token whose
// sequence number is already covered by this (now-local) port's own
// write position -- duplicates delivered once over the tunnel whose
// ACK never made it back before migration.
func (l *LocalInEndpoint) fixMismatch() {
	r := l.reader()
	for l.peer.Queue.CanRead(r) && l.Port.Queue.WritePos() > l.peer.Queue.ReadPos(r) {
		l.peer.Queue.DrainOne(r)
	}
	l.fifoMismatch = false
}

// syncLocalFifos aligns this port's own queue positions with the
// peer's read position once the local residue is fully drained, so
// subsequent accounting matches the pure-local steady state (spec.md
// §4.3).
func (l *LocalInEndpoint) syncLocalFifos() {
	r := l.reader()
	synced := l.peer.Queue.ReadPos(r)
	l.Port.Queue.SetPositions(r, synced)
}

func (l *LocalInEndpoint) PeekToken() (types.Token, bool) {
	if l.fifoMismatch {
		l.fixMismatch()
	}

	r := l.reader()
	if l.dataInLocalFifo {
		if t, ok := l.Port.Queue.Read(r); ok {
			return t, true
		}
	}
	return l.peer.Queue.Read(r)
}

func (l *LocalInEndpoint) PeekRewind() {
	r := l.reader()
	if l.dataInLocalFifo {
		l.Port.Queue.RollbackReads(r)
	}
	l.peer.Queue.RollbackReads(r)
}

// CommitPeekAsRead commits the pending peek(s). When draining local
// residue it acks locally (SPEC_FULL.md §13.2: local durability has no
// round trip to wait for) and, once that residue runs dry, commits the
// peer side and synchronizes positions.
func (l *LocalInEndpoint) CommitPeekAsRead() {
	r := l.reader()
	if l.dataInLocalFifo {
		l.Port.Queue.CommitReads(r, true)
		if l.Port.Queue.CanRead(r) {
			// Still data left in the local queue: no peer-side commit
			// or sync should happen yet.
			return
		}
		l.dataInLocalFifo = false
	}
	l.peer.Queue.CommitReads(r, true)
	l.syncLocalFifos()
}

func (l *LocalInEndpoint) TokensAvailable(length int) bool {
	if l.fifoMismatch {
		l.fixMismatch()
	}

	r := l.reader()
	tokens := 0
	if l.dataInLocalFifo {
		tokens += l.Port.Queue.AvailableTokens(r)
		if tokens == 0 {
			l.dataInLocalFifo = false
		}
	}
	tokens += l.peer.Queue.AvailableTokens(r)
	return tokens >= length
}
