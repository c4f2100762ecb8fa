package egismoc

import "testing"

func TestComposeChecksumValid(t *testing.T) {
	bodies := [][]byte{
		nil,
		{0x01},
		{0x01, 0x02, 0x03},
		make([]byte, 37),
	}
	for _, body := range bodies {
		cmd := Compose(body)
		if !ChecksumIsValid(cmd.Bytes()) {
			t.Errorf("Compose(%v): checksum invalid on composed frame", body)
		}
	}
}

func TestComposePrefix(t *testing.T) {
	cmd := Compose([]byte{0xAA})
	b := cmd.Bytes()
	want := []byte{'E', 'G', 'I', 'S', 0x00, 0x00, 0x00, 0x01}
	for i, w := range want {
		if b[i] != w {
			t.Fatalf("byte %d: got 0x%02x, want 0x%02x", i, b[i], w)
		}
	}
}

func TestComposeLength(t *testing.T) {
	body := []byte{1, 2, 3, 4, 5}
	cmd := Compose(body)
	wantLen := len(writePrefix) + checkBytesLength + len(body)
	if cmd.Len() != wantLen {
		t.Errorf("Len() = %d, want %d", cmd.Len(), wantLen)
	}
}

func TestValidatePrefixAndSuffix(t *testing.T) {
	marker := []byte{0x11, 0x01}
	reply := make([]byte, readPrefixLen+checkBytesLength+4)
	copy(reply[readPrefixLen+checkBytesLength:], marker)
	if !ValidatePrefix(reply, marker) {
		t.Error("expected ValidatePrefix to match")
	}

	suffixMarker := []byte{0x11, 0xff}
	copy(reply[len(reply)-len(suffixMarker):], suffixMarker)
	if !ValidateSuffix(reply, suffixMarker) {
		t.Error("expected ValidateSuffix to match")
	}

	if ValidatePrefix(reply, []byte{0x99, 0x99}) {
		t.Error("expected ValidatePrefix to reject a non-matching marker")
	}
}

func TestValidatePrefixShortReply(t *testing.T) {
	reply := make([]byte, 3)
	if ValidatePrefix(reply, []byte{0x01, 0x02}) {
		t.Error("expected ValidatePrefix to reject a reply shorter than the prefix offset")
	}
}
