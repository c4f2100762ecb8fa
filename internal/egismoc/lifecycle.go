package egismoc

import (
	"bytes"
	"context"
)

// runOpen drives the device-lifecycle handshake (spec.md §4.E "Open"): a
// handful of control transfers the sensor expects before it will answer
// bulk commands, followed by a firmware-version read used both to confirm
// the device is responsive and to surface Driver.FirmwareVersion.
func runOpen(ctx context.Context, t Transport) (string, error) {
	if _, err := t.ControlIn(ctx, ctrlInVendorDevice, reqVendorInit1, 0, 4, 16); err != nil {
		return "", wrapErr(KindGeneral, "open: vendor control (init1/16)", err)
	}
	if _, err := t.ControlIn(ctx, ctrlInVendorDevice, reqVendorInit1, 0, 4, 40); err != nil {
		return "", wrapErr(KindGeneral, "open: vendor control (init1/40)", err)
	}
	if _, err := t.ControlIn(ctx, ctrlInStandardDevice, reqStandardGetStatus, 0, 0, 2); err != nil {
		return "", wrapErr(KindGeneral, "open: standard status (1)", err)
	}
	if _, err := t.ControlIn(ctx, ctrlInStandardDevice, reqStandardGetStatus, 0, 0, 2); err != nil {
		return "", wrapErr(KindGeneral, "open: standard status (2)", err)
	}
	if _, err := t.ControlIn(ctx, ctrlInVendorDevice, reqVendorInit2, 0, 0, 8); err != nil {
		return "", wrapErr(KindGeneral, "open: vendor control (init2)", err)
	}

	reply, err := ExchangeBody(ctx, t, cmdFwVersion)
	if err != nil {
		return "", wrapErr(KindGeneral, "open: read firmware version", err)
	}
	if !ValidateSuffix(reply, rspFwVersionSuffix) {
		return "", fmtProtocolError("firmware version reply")
	}

	// 3 reserved bytes plus a leading carriage return precede the version text.
	start := readPrefixLen + checkBytesLength + 3 + 1
	end := len(reply) - len(rspFwVersionSuffix)
	if end < start {
		return "", fmtProtocolError("firmware version reply too short")
	}
	version := bytes.TrimRight(reply[start:end], "\x00")
	return string(version), nil
}
