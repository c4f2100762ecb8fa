package egismoc

// PrintID is the opaque 32-byte identifier the device assigns to (or
// accepts for) one enrolled template.
type PrintID [fingerprintIDSize]byte

// NewPrintID builds a PrintID from raw bytes, zero-padding if shorter than
// fingerprintIDSize and truncating if longer.
func NewPrintID(raw []byte) PrintID {
	var id PrintID
	copy(id[:], raw)
	return id
}

// EnrolledRegistry is the host's cached snapshot of the device's current
// set of enrolled PrintIDs, in device order. It is never authoritative and
// is rebuilt from the device at the start of every operation that needs
// it (see ParseListReply).
type EnrolledRegistry struct {
	ids []PrintID
}

func (r EnrolledRegistry) Len() int            { return len(r.ids) }
func (r EnrolledRegistry) At(i int) PrintID    { return r.ids[i] }
func (r EnrolledRegistry) All() []PrintID      { return r.ids }
func (r EnrolledRegistry) IsEmpty() bool       { return len(r.ids) == 0 }

// ParseListReply decodes the response to the list subcommand per
// spec.md §4.D: the first 16 bytes are framing; if the reply is shorter
// than 16+32 the registry is empty, otherwise N = (len-16)/32 and IDs are
// read from offset 14 in 32-byte strides for N iterations.
func ParseListReply(reply []byte) EnrolledRegistry {
	if len(reply) < 16+fingerprintIDSize {
		return EnrolledRegistry{}
	}
	n := (len(reply) - 16) / fingerprintIDSize
	ids := make([]PrintID, n)
	for i := 0; i < n; i++ {
		start := 14 + i*fingerprintIDSize
		ids[i] = NewPrintID(reply[start : start+fingerprintIDSize])
	}
	return EnrolledRegistry{ids: ids}
}

// targetsForDelete resolves the IDs to place in a delete body: a single
// PrintID for a one-print delete, or the full registry in order for a
// clear-all.
func targetsForDelete(registry EnrolledRegistry, single *PrintID) []PrintID {
	if single != nil {
		return []PrintID{*single}
	}
	return registry.All()
}
