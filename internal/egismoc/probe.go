package egismoc

import (
	"context"

	"github.com/google/gousb"
)

// ProbeDevice reports whether a sensor matching VendorID/ProductID is
// currently present, without claiming it. It is meant for diagnostic
// tooling (cmd/egismoc-monitor) that wants to check device availability
// ahead of a real Open/claim attempt.
func ProbeDevice(ctx context.Context) (bool, error) {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	device, err := usbCtx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		return false, wrapErr(KindGeneral, "probe USB device", err)
	}
	if device == nil {
		return false, nil
	}
	device.Close()
	return true, nil
}
