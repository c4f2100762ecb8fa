// driver.go is the public adapter (spec.md §4.G): it dispatches the
// generic fingerprint framework's abstract operations onto the operation
// state machines implemented in the other op_*.go files. The framework
// itself is an external collaborator; Framework below is the narrow
// interface this core calls into to report progress and completion,
// modeled on the fpi_device_* callback surface in
// original_source/libfprint/drivers/egismoc/egismoc.c.
package egismoc

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// FingerStatus mirrors FP_FINGER_STATUS_NEEDED/PRESENT from the original
// driver: reported whenever the core starts or resolves a finger-presence
// wait.
type FingerStatus int

const (
	FingerStatusNeeded FingerStatus = iota
	FingerStatusPresent
)

// Framework is the set of callbacks this core invokes on the generic
// fingerprint framework. Each *Complete method is called exactly once per
// operation, and each *Report method at most once (not on an operation
// that fails before a match decision) (spec.md §7's double-reporting
// guard); the caller's
// framework glue owns everything downstream (print database, D-Bus
// signaling, etc).
type Framework interface {
	ReportFingerStatus(status FingerStatus)

	EnrollProgress(stage int, print *Print, err error)
	EnrollComplete(print *Print, err error)

	IdentifyReport(matched *Print, print *Print, err error)
	IdentifyComplete(err error)

	VerifyReport(matchSuccess bool, print *Print, err error)
	VerifyComplete(err error)

	ListComplete(prints []Print, err error)
	DeleteComplete(err error)
	ClearStorageComplete(err error)
}

// Driver is the core's public adapter. Exactly one public operation may
// be outstanding at a time (spec.md §5); the framework is expected to
// serialize calls, but busy guards against misuse defensively.
type Driver struct {
	transport Transport

	mu              sync.Mutex
	busy            bool
	registry        EnrolledRegistry
	firmwareVersion string
}

// NewDriver constructs a Driver over an already-open Transport. Use Open
// to run the device-lifecycle handshake before issuing any other
// operation.
func NewDriver(t Transport) *Driver {
	return &Driver{transport: t}
}

// FirmwareVersion returns the version string read during Open, or "" if
// Open has not completed.
func (d *Driver) FirmwareVersion() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.firmwareVersion
}

func (d *Driver) acquire() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return newErr(KindGeneral, "an operation is already in progress")
	}
	d.busy = true
	return nil
}

func (d *Driver) release() {
	d.mu.Lock()
	d.busy = false
	d.mu.Unlock()
}

// Open runs the vendor/standard control handshake over the already-open
// transport, then reads the firmware version (spec.md §4.E "Open",
// §4.F). USB reset and interface claim are done by OpenUSBTransport, not
// here. On failure the interface is released before the error surfaces.
func (d *Driver) Open(ctx context.Context) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	version, err := runOpen(ctx, d.transport)
	if err != nil {
		if rel, ok := d.transport.(interface{ ReleaseInterface() }); ok {
			rel.ReleaseInterface()
		}
		return err
	}
	d.mu.Lock()
	d.firmwareVersion = version
	d.mu.Unlock()
	log.Printf("egismoc: device open, firmware %q", version)
	return nil
}

// Close cancels any outstanding finger wait and releases the interface.
func (d *Driver) Close(ctx context.Context) error {
	d.Cancel()
	if closer, ok := d.transport.(interface{ Close() error }); ok {
		return closer.Close()
	}
	if rel, ok := d.transport.(interface{ ReleaseInterface() }); ok {
		rel.ReleaseInterface()
	}
	return nil
}

// Cancel tears down only the finger-presence interrupt wait (spec.md §5,
// §4.E "Cancel"). Bulk command transfers are not individually
// cancellable; an in-flight operation unwinds naturally once its wait
// resolves to a cancellation error.
func (d *Driver) Cancel() {
	d.transport.CancelFingerWait()
}

// Suspend aliases Cancel (spec.md §4.F).
func (d *Driver) Suspend() { d.Cancel() }

// List refreshes the registry and reports the hydrated Prints to fw.
func (d *Driver) List(ctx context.Context, fw Framework) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	reg, err := runList(ctx, d.transport)
	if err != nil {
		fw.ListComplete(nil, err)
		return err
	}
	d.mu.Lock()
	d.registry = reg
	d.mu.Unlock()

	prints := make([]Print, reg.Len())
	for i := 0; i < reg.Len(); i++ {
		prints[i] = PrintFromID(reg.At(i))
	}
	fw.ListComplete(prints, nil)
	return nil
}

// Delete refreshes the registry, then deletes target's PrintID from the
// device.
func (d *Driver) Delete(ctx context.Context, target Print, fw Framework) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	err := runDelete(ctx, d.transport, target)
	fw.DeleteComplete(err)
	return err
}

// ClearStorage refreshes the registry, deletes every enrolled PrintID, and
// verifies the device reports zero enrollments afterward.
func (d *Driver) ClearStorage(ctx context.Context, fw Framework) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	err := runClearStorage(ctx, d.transport)
	fw.ClearStorageComplete(err)
	return err
}

// Enroll drives the full enrollment sequence, reporting per-stage
// progress and retries through fw before completing with the finished
// Print.
func (d *Driver) Enroll(ctx context.Context, newPrint Print, gen UserIDGenerator, fw Framework) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	finished, err := runEnroll(ctx, d.transport, newPrint, gen, fw)
	fw.EnrollComplete(finished, err)
	return err
}

// Identify drives the identify sequence: a successful on-device match is
// looked up in gallery by PrintID equality.
func (d *Driver) Identify(ctx context.Context, gallery []Print, fw Framework) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	err := runIdentifyVerify(ctx, d.transport, identifyVerifyArgs{
		isIdentify: true,
		gallery:    gallery,
	}, fw)
	fw.IdentifyComplete(err)
	return err
}

// Verify drives the same transport path as Identify but compares the
// on-device match against a single reference Print.
func (d *Driver) Verify(ctx context.Context, reference Print, fw Framework) error {
	if err := d.acquire(); err != nil {
		return err
	}
	defer d.release()

	err := runIdentifyVerify(ctx, d.transport, identifyVerifyArgs{
		isIdentify: false,
		reference:  reference,
	}, fw)
	fw.VerifyComplete(err)
	return err
}

func fmtProtocolError(what string) error {
	return newErr(KindProtocol, fmt.Sprintf("unrecognized response from device (%s)", what))
}
