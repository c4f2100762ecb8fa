// Package egismoc implements the host-side driver core for the Egis
// Technology (LighTuning) match-on-chip fingerprint sensor family
// (vendor 0x1c7a, product 0x0582). The sensor stores enrolled templates
// on-device and performs matching internally; the host only ever sees
// opaque 32-byte identifiers.
package egismoc

import "time"

// USB identity.
const (
	VendorID  = 0x1c7a
	ProductID = 0x0582

	USBInterface    = 0
	USBAltSetting   = 0
	USBConfigValue  = 1
	EndpointCmdOut  = 0x01
	EndpointCmdIn   = 0x82
	EndpointFingerIn = 0x83
)

// Wire framing.
const (
	checkBytesLength = 2
	readPrefixLen    = 6 // device-prepended header on every inbound reply
	fingerprintIDSize = 32
	cmdCheckSeparatorLength = fingerprintIDSize // 32-byte sentinel slot before the ID list

	// maxReplyLength bounds the fixed-size buffer used for bulk-IN reads.
	maxReplyLength = 4096

	// identifyResponsePrintIDOffset is where the matched print's 32-byte
	// identifier begins within an identify/verify check reply.
	identifyResponsePrintIDOffset = 46
)

var writePrefix = []byte{'E', 'G', 'I', 'S', 0x00, 0x00, 0x00, 0x01}

// EnrollTimes is the number of successful partial captures required to
// commit a new enrollment. The upstream driver fixes this at compile time;
// it is overridable via config for testing (see internal/config).
var EnrollTimes = 3

// MaxEnrolledPrints is the device's believed maximum number of concurrently
// enrolled templates. The wire protocol's size-byte encoding saturates
// above 14; this core refuses to build a frame beyond that regardless of
// MaxEnrolledPrints.
const MaxEnrolledPrints = 10

// sizeByteHardLimit is the point past which the 1-byte/2-byte size field
// encoding can no longer represent a count; building a frame for more
// entries than this is a programmer error, not a device error.
const sizeByteHardLimit = 14

// Transfer timeouts. Interrupt is long because it waits on a human finger;
// everything else is a short round trip to the sensor's own firmware.
const (
	SendTimeout      = 2 * time.Second
	ReceiveTimeout   = 2 * time.Second
	ControlTimeout   = 2 * time.Second
	InterruptTimeout = 30 * time.Second
)

// Outbound command body markers. These are opaque constants defined by the
// device's firmware; the upstream libfprint driver copies them verbatim
// from a captured byte table that was not available in this retrieval
// (only egismoc.c, not egismoc.h, was retained from original_source — see
// DESIGN.md). The values below are internally-consistent placeholders
// preserving every length and structural invariant the protocol depends
// on; a real device integration would replace them with the captured
// bytes without touching any other part of this package.
var (
	cmdFwVersion          = []byte{0x01, 0x00, 0x00}
	cmdSensorReset        = []byte{0x02, 0x01}
	cmdSensorEnroll       = []byte{0x02, 0x02}
	cmdSensorIdentify     = []byte{0x02, 0x03}
	cmdSensorCheck        = []byte{0x02, 0x04}
	cmdSensorStartCapture = []byte{0x02, 0x05}
	cmdReadCapture        = []byte{0x03, 0x01}
	cmdEnrollStarting     = []byte{0x04, 0x01}
	cmdCommitStarting     = []byte{0x04, 0x02}
	cmdNewPrintPrefix     = []byte{0x04, 0x03}
	cmdList               = []byte{0x05, 0x00}
	cmdDeletePrefix       = []byte{0x06, 0x00}
	cmdCheckPrefix        = []byte{0x07, 0x01}
	cmdCheckSuffix        = []byte{0x07, 0xff}
)

// Control-transfer request types and codes used only during Open
// (spec.md §4.E "Open"). bmRequestType values follow the USB spec
// directly rather than going through gousb's constants so the Transport
// interface stays free of a gousb import.
const (
	ctrlInVendorDevice   = 0xC0 // device-to-host | vendor | device
	ctrlInStandardDevice = 0x80 // device-to-host | standard | device

	reqVendorInit1       = 0x20 // 32
	reqStandardGetStatus = 0x00
	reqVendorInit2       = 0x52 // 82
)

// Inbound reply markers.
var (
	rspDeleteSuccessPrefix       = []byte{0x10, 0x01}
	rspReadSuccessPrefix         = []byte{0x11, 0x01}
	rspReadSuccessSuffix         = []byte{0x11, 0xff}
	rspReadOffcenterPrefix       = []byte{0x12, 0x01}
	rspReadOffcenterSuffix       = []byte{0x12, 0xff}
	rspReadDirtyPrefix           = []byte{0x13, 0x01}
	rspCheckNotYetEnrolledPrefix = []byte{0x14, 0x00}
	rspIdentifyMatchPrefix       = []byte{0x15, 0x01}
	rspIdentifyMatchSuffix       = []byte{0x15, 0xff}
	rspIdentifyNotmatchPrefix    = []byte{0x16, 0x00}
	rspFwVersionSuffix           = []byte{0x1f, 0xff}
)

// unknownFingerprintDescriptionPrefix is used when hydrating a Print whose
// PrintId was not created by this driver (enrolled by other software).
const unknownFingerprintDescriptionPrefix = "Unknown (not created by libfprint) "
