package egismoc

import (
	"strings"
	"testing"
)

func TestPrintFromIDHostOriginated(t *testing.T) {
	id := NewPrintID([]byte("FP1234567890"))
	p := PrintFromID(id)
	if p.Description != string(p.UserID) {
		t.Errorf("expected description to echo the host-originated user id, got %q", p.Description)
	}
	if !strings.HasPrefix(p.Description, "FP") {
		t.Errorf("expected description to retain the FP prefix, got %q", p.Description)
	}
}

func TestPrintFromIDUnknownOrigin(t *testing.T) {
	id := NewPrintID([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	p := PrintFromID(id)
	if !strings.HasPrefix(p.Description, unknownFingerprintDescriptionPrefix) {
		t.Errorf("expected the unknown-origin fallback prefix, got %q", p.Description)
	}
	if !strings.Contains(p.Description, "deadbeef") {
		t.Errorf("expected hex of the first 4 id bytes in description, got %q", p.Description)
	}
}

func TestIDFromPrintRequiresFpiData(t *testing.T) {
	_, err := IDFromPrint(Print{})
	if err == nil {
		t.Fatal("expected an error for a Print with no fpi_data")
	}
	if kind, ok := AsKind(err); !ok || kind != KindDataInvalid {
		t.Errorf("expected KindDataInvalid, got %v", kind)
	}
}

func TestIDFromPrintRoundTrip(t *testing.T) {
	id := NewPrintID([]byte("abc"))
	p := PrintFromID(id)
	got, err := IDFromPrint(p)
	if err != nil {
		t.Fatalf("IDFromPrint: %v", err)
	}
	if got != id {
		t.Errorf("IDFromPrint round trip = %v, want %v", got, id)
	}
}

func TestNewEnrolledID(t *testing.T) {
	gen := func(p Print) string { return "FPshort" }
	id := NewEnrolledID(gen, Print{})
	want := NewPrintID([]byte("FPshort"))
	if id != want {
		t.Errorf("NewEnrolledID = %v, want %v", id, want)
	}
}

func TestPrintEqual(t *testing.T) {
	a := PrintFromID(NewPrintID([]byte("same")))
	b := PrintFromID(NewPrintID([]byte("same")))
	c := PrintFromID(NewPrintID([]byte("different")))

	if !a.Equal(b) {
		t.Error("expected prints with the same PrintID to be Equal")
	}
	if a.Equal(c) {
		t.Error("expected prints with different PrintIDs to not be Equal")
	}
	if a.Equal(Print{}) {
		t.Error("expected Equal to reject a Print with unset fpi_data")
	}
}
