package core

import (
	"context"
	"encoding/json"

	"github.com/jabolina/go-port/pkg/port/types"
	"github.com/jabolina/relt/pkg/relt"
)

// Dispatcher receives decoded wire frames arriving on a Tunnel.
// TunnelInEndpoint implements OnTokenFrame, TunnelOutEndpoint
// implements OnTokenReply; ReltTunnel hands each incoming frame to
// whichever one applies, by its cmd field.
type Dispatcher interface {
	OnTokenFrame(types.TokenFrame)
	OnTokenReply(types.TokenReplyFrame)
}

// envelope peeks only the cmd discriminator before committing to a
// concrete frame type, the same two-step decode the teacher's
// transport.go performs (unmarshal into types.Message, inspect, then
// act).
type envelope struct {
	Cmd types.CommandKind `json:"cmd"`
}

// ReltTunnel is the concrete Tunnel implementation wiring the
// TOKEN/TOKEN_REPLY wire protocol over a relt reliable group
// transport, grounded on the teacher's core.ReliableTransport
// (pkg/mcast/core/transport.go): same relt.NewRelt /
// Broadcast / Consume / context-cancellation shape, narrowed from
// multicast broadcast to the point-to-point send/receive a single
// connected port pair needs -- one relt "exchange" per pair.
type ReltTunnel struct {
	log types.Logger
	rt  *relt.Relt

	exchange relt.GroupAddress
	dispatch Dispatcher

	ctx    context.Context
	cancel context.CancelFunc
}

// NewReltTunnel opens a relt exchange named for the connected port
// pair and starts polling it for inbound frames.
func NewReltTunnel(name, exchange string, dispatch Dispatcher, log types.Logger) (*ReltTunnel, error) {
	conf := relt.DefaultReltConfiguration()
	conf.Name = name
	conf.Exchange = relt.GroupAddress(exchange)
	rt, err := relt.NewRelt(*conf)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &ReltTunnel{
		log:      log,
		rt:       rt,
		exchange: relt.GroupAddress(exchange),
		dispatch: dispatch,
		ctx:      ctx,
		cancel:   cancel,
	}
	InvokerInstance().Spawn(t.poll)
	return t, nil
}

// Send implements Tunnel.
func (t *ReltTunnel) Send(frame interface{}) error {
	data, err := json.Marshal(frame)
	if err != nil {
		t.log.Errorf("failed marshalling frame %#v: %v", frame, err)
		return err
	}
	return t.rt.Broadcast(t.ctx, relt.Send{Address: t.exchange, Data: data})
}

// Close implements Tunnel.
func (t *ReltTunnel) Close() error {
	t.cancel()
	return t.rt.Close()
}

func (t *ReltTunnel) poll() {
	listener, err := t.rt.Consume()
	if err != nil {
		t.log.Fatalf("failed consuming relt exchange %s: %v", t.exchange, err)
		return
	}
	for {
		select {
		case <-t.ctx.Done():
			return
		case recv, ok := <-listener:
			if !ok {
				return
			}
			t.consume(recv.Origin, relt.Recv{Data: recv.Data, Error: recv.Error})
		}
	}
}

func (t *ReltTunnel) consume(origin string, recv relt.Recv) {
	if recv.Error != nil {
		t.log.Errorf("failed consuming from tunnel %s (origin %s): %v", t.exchange, origin, recv.Error)
		return
	}
	if recv.Data == nil {
		t.log.Warnf("received empty frame on tunnel %s (origin %s)", t.exchange, origin)
		return
	}

	var e envelope
	if err := json.Unmarshal(recv.Data, &e); err != nil {
		t.log.Errorf("failed decoding frame on tunnel %s: %v", t.exchange, err)
		return
	}

	switch e.Cmd {
	case types.CmdToken:
		var f types.TokenFrame
		if err := json.Unmarshal(recv.Data, &f); err != nil {
			t.log.Errorf("failed decoding TOKEN frame: %v", err)
			return
		}
		t.dispatch.OnTokenFrame(f)
	case types.CmdTokenReply:
		var f types.TokenReplyFrame
		if err := json.Unmarshal(recv.Data, &f); err != nil {
			t.log.Errorf("failed decoding TOKEN_REPLY frame: %v", err)
			return
		}
		t.dispatch.OnTokenReply(f)
	default:
		t.log.Errorf("%v: %q on tunnel %s", types.ErrUnknownCommand, e.Cmd, t.exchange)
	}
}
