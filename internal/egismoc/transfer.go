package egismoc

import (
	"context"
	"fmt"
)

// Transport is the USB collaborator this core consumes (spec.md §6): a
// bulk-OUT for commands, a bulk-IN for command replies, an interrupt-IN
// for finger-present events, and the handful of control transfers used
// during open. Implementations own cancellation of the interrupt-IN wait;
// bulk command transfers are not individually cancellable (spec.md §5).
type Transport interface {
	// Send performs the bulk-OUT command write. A short write is an error.
	Send(ctx context.Context, cmd Command) error
	// Receive performs the bulk-IN command read. Exchange rejects a reply
	// shorter than the device's read-prefix length with a KindGeneral error.
	Receive(ctx context.Context) ([]byte, error)
	// WaitFinger blocks on the interrupt-IN endpoint until a finger is
	// detected, the wait is cancelled, or it times out. A one-byte short
	// read on this endpoint is expected device behavior, not an error.
	WaitFinger(ctx context.Context) error
	// CancelFingerWait cancels any in-flight WaitFinger and arms a fresh
	// cancellation handle so the next call to WaitFinger starts
	// uncancelled (spec.md §5).
	CancelFingerWait()
	// ControlIn performs a device-to-host control transfer, used only
	// during Open (spec.md §4.E "Open").
	ControlIn(ctx context.Context, requestType, request uint8, value, index uint16, length int) ([]byte, error)
}

// Exchange runs the SEND-then-RECEIVE micro state machine for one command
// (spec.md §4.C): it writes cmd, reads the reply, and returns it. Either
// step failing surfaces as a KindGeneral error wrapping the transport's
// error.
func Exchange(ctx context.Context, t Transport, cmd Command) ([]byte, error) {
	if err := t.Send(ctx, cmd); err != nil {
		return nil, wrapErr(KindGeneral, "command send failed", err)
	}
	reply, err := t.Receive(ctx)
	if err != nil {
		return nil, wrapErr(KindGeneral, "command receive failed", err)
	}
	if len(reply) < readPrefixLen {
		return nil, newErr(KindGeneral, fmt.Sprintf("reply truncated below read-prefix length: got %d bytes", len(reply)))
	}
	return reply, nil
}

// ExchangeBody is a convenience that composes body into a frame and runs
// Exchange.
func ExchangeBody(ctx context.Context, t Transport, body []byte) ([]byte, error) {
	return Exchange(ctx, t, Compose(body))
}
