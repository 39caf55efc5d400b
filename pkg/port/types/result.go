package types

// CommResult is the outcome of a call into the endpoint layer,
// replacing the original's exceptional control flow (raising from an
// unconnected communicate(), catching any error during migration
// sync) with explicit result kinds, per DESIGN NOTES §9.
type CommResult int

const (
	// NotReady: nothing could be done this call (nothing to send,
	// still throttled, or waiting on outstanding ACKs). Not an error;
	// a future trigger_loop wakeup will retry.
	NotReady CommResult = iota

	// Delivered: at least one token was handed to its destination
	// (written to a queue, or sent on the wire).
	Delivered

	// Dropped: a frame was rejected (out-of-order sequence number,
	// destination queue full, undecodable payload) and the failure
	// was fully handled locally (NACK sent, or nothing owed).
	Dropped

	// FatalBug: the call represents a violated contract (poll on a
	// disconnected endpoint, write past capacity) that the caller
	// must treat as a scheduler bug, not a retryable condition.
	FatalBug
)

func (r CommResult) String() string {
	switch r {
	case NotReady:
		return "NotReady"
	case Delivered:
		return "Delivered"
	case Dropped:
		return "Dropped"
	case FatalBug:
		return "FatalBug"
	default:
		return "Unknown"
	}
}
