// usb_transport.go wires the Transport interface (transfer.go) onto a real
// sensor over github.com/google/gousb. It follows the claim/release and
// endpoint-lookup conventions of the teacher's own gousb integration in
// internal/driver/device/usb_device.go: open the device by VID/PID, set
// the configuration, claim the interface, and resolve the endpoints once
// up front, tearing everything down in reverse order on Close.
package egismoc

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/gousb"
)

// USBTransport is the gousb-backed Transport used by production callers.
type USBTransport struct {
	ctx    *gousb.Context
	device *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface

	epOut    *gousb.OutEndpoint
	epIn     *gousb.InEndpoint
	epFinger *gousb.InEndpoint

	mu         sync.Mutex
	fingerCtx  context.Context
	fingerStop context.CancelFunc
}

// OpenUSBTransport opens the first device matching VendorID/ProductID,
// claims interface 0 alt 0, and resolves the command/finger endpoints.
// On any failure it unwinds everything it already opened.
func OpenUSBTransport() (*USBTransport, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		ctx.Close()
		return nil, wrapErr(KindGeneral, "open USB device", err)
	}
	if device == nil {
		ctx.Close()
		return nil, newErr(KindGeneral, fmt.Sprintf("sensor not found (VID:0x%04x PID:0x%04x)", VendorID, ProductID))
	}

	if err := device.Reset(); err != nil {
		device.Close()
		ctx.Close()
		return nil, wrapErr(KindGeneral, "USB reset", err)
	}

	config, err := device.Config(USBConfigValue)
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, wrapErr(KindGeneral, "set USB configuration", err)
	}

	intf, err := config.Interface(USBInterface, USBAltSetting)
	if err != nil {
		config.Close()
		device.Close()
		ctx.Close()
		return nil, wrapErr(KindGeneral, "claim USB interface", err)
	}

	epOut, err := intf.OutEndpoint(EndpointCmdOut)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, wrapErr(KindGeneral, "open command OUT endpoint", err)
	}

	epIn, err := intf.InEndpoint(EndpointCmdIn)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, wrapErr(KindGeneral, "open command IN endpoint", err)
	}

	epFinger, err := intf.InEndpoint(EndpointFingerIn)
	if err != nil {
		intf.Close()
		config.Close()
		device.Close()
		ctx.Close()
		return nil, wrapErr(KindGeneral, "open finger interrupt endpoint", err)
	}

	t := &USBTransport{
		ctx:      ctx,
		device:   device,
		config:   config,
		intf:     intf,
		epOut:    epOut,
		epIn:     epIn,
		epFinger: epFinger,
	}
	t.fingerCtx, t.fingerStop = context.WithCancel(context.Background())

	log.Printf("egismoc: opened sensor at VID:0x%04x PID:0x%04x", VendorID, ProductID)
	return t, nil
}

// ReleaseInterface releases the claimed interface. Used by Close and by
// Open's error path (spec.md §4.F: "On error, release the interface
// before surfacing").
func (t *USBTransport) ReleaseInterface() {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
}

// Close tears down the device in reverse order of acquisition.
func (t *USBTransport) Close() error {
	t.CancelFingerWait()
	t.ReleaseInterface()
	if t.config != nil {
		t.config.Close()
		t.config = nil
	}
	if t.device != nil {
		t.device.Close()
		t.device = nil
	}
	if t.ctx != nil {
		t.ctx.Close()
		t.ctx = nil
	}
	return nil
}

func (t *USBTransport) Send(ctx context.Context, cmd Command) error {
	sendCtx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	n, err := t.epOut.WriteContext(sendCtx, cmd.Bytes())
	if err != nil {
		return fmt.Errorf("USB write failed: %w", err)
	}
	if n != cmd.Len() {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, cmd.Len())
	}
	return nil
}

func (t *USBTransport) Receive(ctx context.Context) ([]byte, error) {
	recvCtx, cancel := context.WithTimeout(ctx, ReceiveTimeout)
	defer cancel()

	buf := make([]byte, maxReplyLength)
	n, err := t.epIn.ReadContext(recvCtx, buf)
	if err != nil {
		return nil, fmt.Errorf("USB read failed: %w", err)
	}
	return buf[:n], nil
}

// WaitFinger blocks on the interrupt-IN endpoint for a finger-present
// event. A one-byte short read is expected device behavior and is not an
// error; a cancellation or timeout is reported to the caller.
func (t *USBTransport) WaitFinger(ctx context.Context) error {
	t.mu.Lock()
	fingerCtx := t.fingerCtx
	t.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(fingerCtx, InterruptTimeout)
	defer cancel()
	// also respect the caller's own cancellation (e.g. operation teardown)
	merged, cancelMerged := mergeContext(ctx, waitCtx)
	defer cancelMerged()

	buf := make([]byte, 1)
	_, err := t.epFinger.ReadContext(merged, buf)
	if err != nil {
		return fmt.Errorf("finger wait failed: %w", err)
	}
	return nil
}

// CancelFingerWait cancels any in-flight WaitFinger and rearms a fresh
// cancellation handle, per spec.md §5 ("reconstructed fresh after every
// cancel so the next operation starts uncancelled").
func (t *USBTransport) CancelFingerWait() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fingerStop != nil {
		t.fingerStop()
	}
	t.fingerCtx, t.fingerStop = context.WithCancel(context.Background())
}

func (t *USBTransport) ControlIn(ctx context.Context, requestType, request uint8, value, index uint16, length int) ([]byte, error) {
	ctrlCtx, cancel := context.WithTimeout(ctx, ControlTimeout)
	defer cancel()

	buf := make([]byte, length)
	n, err := t.device.Control(requestType, request, value, index, buf)
	_ = ctrlCtx // gousb's synchronous Control call does not take a context; timeout is enforced by the device's own default control timeout.
	if err != nil {
		return nil, fmt.Errorf("USB control transfer failed: %w", err)
	}
	return buf[:n], nil
}

// mergeContext returns a context cancelled when either input is.
func mergeContext(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := make(chan struct{})
	go func() {
		select {
		case <-b.Done():
			cancel()
		case <-stop:
		}
	}()
	return ctx, func() {
		close(stop)
		cancel()
	}
}
