package egismoc

import "fmt"

// Print mirrors the three attributes this driver reads and writes on the
// generic fingerprint framework's print record (spec.md §3). The
// framework itself — description rendering, user-id generation, gallery
// storage — is an external collaborator out of this core's scope; Print
// is the narrow data shape the core needs to marshal PrintIds through.
type Print struct {
	Description string
	UserID      []byte
	FpiData     FpiData
}

// FpiData is the tagged wrapper this driver stores in a Print's opaque
// fpi_data blob: a single fixed-size 32-byte array carrying the PrintID.
// The wrapper holds only a set flag and the ID; no tag is stored in it.
// IDFromPrint treats a wrapper that was never set as
// FP_DEVICE_ERROR_DATA_INVALID.
type FpiData struct {
	set bool
	id  PrintID
}

const fpiDataTag = "egismoc-print-id-v1"

// NewFpiData packs id into the tagged wrapper shape this driver expects.
func NewFpiData(id PrintID) FpiData {
	return FpiData{set: true, id: id}
}

// Equal reports whether two Prints carry the same PrintID, the comparison
// used for gallery lookups during identify.
func (p Print) Equal(other Print) bool {
	if !p.FpiData.set || !other.FpiData.set {
		return false
	}
	return p.FpiData.id == other.FpiData.id
}

// PrintFromID hydrates a Print from a device-stored PrintID per
// spec.md §3/§4.G: user_id is the raw 32 bytes; description is the
// user_id itself when it looks host-originated ("FP"-prefixed), else the
// "Unknown (not created by libfprint) " fallback followed by the hex of
// the first 4 ID bytes.
func PrintFromID(id PrintID) Print {
	userID := append([]byte(nil), id[:]...)

	var description string
	if len(userID) >= 2 && userID[0] == 'F' && userID[1] == 'P' {
		description = string(userID)
	} else {
		description = fmt.Sprintf("%s%02x%02x%02x%02x",
			unknownFingerprintDescriptionPrefix, id[0], id[1], id[2], id[3])
	}

	return Print{
		Description: description,
		UserID:      userID,
		FpiData:     NewFpiData(id),
	}
}

// IDFromPrint extracts the PrintID a Print carries, failing with
// KindDataInvalid if fpi_data was never set to the tagged-array shape
// this driver produces (spec.md §4.G).
func IDFromPrint(p Print) (PrintID, error) {
	if !p.FpiData.set {
		return PrintID{}, newErr(KindDataInvalid, "print has no egismoc fpi_data")
	}
	return p.FpiData.id, nil
}

// UserIDGenerator asks the external framework to mint a fresh user-id
// string for a Print being newly enrolled. The framework owns identifier
// uniqueness and formatting (e.g. the "FP..." convention); this core only
// truncates/pads the result to fingerprintIDSize bytes to use as the new
// on-device PrintID (spec.md §4.G "Newly enrolled").
type UserIDGenerator func(p Print) string

// NewEnrolledID derives the PrintID for a newly committed enrollment by
// asking gen for a user-id and taking its first 32 bytes, zero-padded if
// shorter.
func NewEnrolledID(gen UserIDGenerator, p Print) PrintID {
	userID := gen(p)
	return NewPrintID([]byte(userID))
}
