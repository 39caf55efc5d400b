package core

import (
	"fmt"

	"github.com/jabolina/go-port/pkg/port/types"
)

// TunnelInEndpoint receives framed tokens over a Tunnel, enforces
// strict in-order write into its port's queue, and replies ACK/NACK.
// Grounded on calvin's TunnelInEndpoint.
type TunnelInEndpoint struct {
	BaseEndpoint

	tunnel     Tunnel
	peerNodeID string
	peerPortID PortID
	trigger    TriggerLoop
}

func NewTunnelInEndpoint(port *Port, tunnel Tunnel, peerNodeID string, peerPortID PortID, trigger TriggerLoop, log types.Logger) *TunnelInEndpoint {
	if trigger == nil {
		trigger = NoopTrigger
	}
	return &TunnelInEndpoint{
		BaseEndpoint: BaseEndpoint{
			Port:                  port,
			SingleTokensAvailable: true,
			Log:                   log,
		},
		tunnel:     tunnel,
		peerNodeID: peerNodeID,
		peerPortID: peerPortID,
		trigger:    trigger,
	}
}

func (t *TunnelInEndpoint) IsConnected() bool { return true }

func (t *TunnelInEndpoint) Attached() {
	t.Port.Queue.AddReader(types.ReaderID(t.Port.ID))
}

func (t *TunnelInEndpoint) GetPeer() PeerDescriptor {
	return PeerDescriptor{NodeID: t.peerNodeID, PortID: t.peerPortID}
}

func (t *TunnelInEndpoint) SetPeerPortID(id PortID) {
	t.peerPortID = id
}

// OnTokenFrame implements Dispatcher for the receiving side of the
// wire protocol (spec.md §4.5 decision table), applied atomically per
// frame:
//
//   - write_pos == sequencenbr and the queue has room: write, wake the
//     scheduler, ACK.
//   - write_pos > sequencenbr: a duplicate retransmit (our previous
//     ACK was lost); do nothing to the queue but still ACK -- this is
//     mandatory, it's what closes the retransmit window (spec.md §4.5,
//     §8 property 5).
//   - otherwise (sequence number ahead of write_pos, or queue full):
//     drop and NACK.
func (t *TunnelInEndpoint) OnTokenFrame(frame types.TokenFrame) {
	result, err := t.recvToken(frame)
	if err != nil && t.Log != nil {
		t.Log.Errorf("seq %d on port %s: %v", frame.SequenceNbr, t.Port.ID, err)
	}

	reply := types.TokenReplyFrame{
		Cmd:         types.CmdTokenReply,
		PortID:      frame.PortID,
		PeerPortID:  frame.PeerPortID,
		SequenceNbr: frame.SequenceNbr,
		Value:       types.ReplyNACK,
	}
	if result == types.Delivered {
		reply.Value = types.ReplyACK
	}
	if err := t.tunnel.Send(reply); err != nil && t.Log != nil {
		t.Log.Errorf("failed replying %s for seq %d on port %s: %v", reply.Value, frame.SequenceNbr, t.Port.ID, err)
	}
}

// recvToken applies the decision table spec.md §4.5 describes, and
// names the failure via the sentinels in types/errors.go instead of
// collapsing every non-delivery into a bare Dropped: a version
// mismatch, a malformed payload, a full queue, and a plain
// out-of-order frame are distinct conditions even though all four NACK
// the same way. The version check consults t.Port.Version, which a
// caller built with NewPortWithConfig controls (SPEC_FULL.md §10.3).
func (t *TunnelInEndpoint) recvToken(frame types.TokenFrame) (types.CommResult, error) {
	if frame.ProtocolVersn != t.Port.Version {
		return types.Dropped, fmt.Errorf("%w: peer speaks version %d, port %s expects %d",
			types.ErrMalformedFrame, frame.ProtocolVersn, t.Port.ID, t.Port.Version)
	}

	writePos := t.Port.Queue.WritePos()

	switch {
	case writePos == frame.SequenceNbr && t.Port.Queue.CanWrite():
		token, err := types.DecodeToken(frame.Token)
		if err != nil {
			return types.Dropped, fmt.Errorf("%w: %v", types.ErrMalformedFrame, err)
		}
		t.Port.Queue.Write(token)
		t.trigger(0)
		return types.Delivered, nil
	case writePos == frame.SequenceNbr:
		// In order, but there is nowhere to put it.
		return types.Dropped, types.ErrQueueOverflow
	case writePos > frame.SequenceNbr:
		// Already received: the peer is retransmitting because our
		// previous ACK was lost. Nothing to apply, but still ACK.
		return types.Delivered, nil
	default:
		// Ahead of write_pos: a gap we cannot fill out of order.
		return types.Dropped, nil
	}
}

func (t *TunnelInEndpoint) PeekToken() (types.Token, bool) {
	return t.Port.Queue.Read(types.ReaderID(t.Port.ID))
}

func (t *TunnelInEndpoint) PeekRewind() {
	t.Port.Queue.RollbackReads(types.ReaderID(t.Port.ID))
}

func (t *TunnelInEndpoint) CommitPeekAsRead() {
	t.Port.Queue.CommitReads(types.ReaderID(t.Port.ID), true)
}

func (t *TunnelInEndpoint) TokensAvailable(length int) bool {
	return t.Port.Queue.AvailableTokens(types.ReaderID(t.Port.ID)) >= length
}

// Communicate is not meaningful for an in-endpoint.
func (t *TunnelInEndpoint) Communicate() types.CommResult {
	return t.BaseEndpoint.Communicate()
}
