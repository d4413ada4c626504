package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/weft/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"MiddlewareID", id.NewMiddlewareID, "mw_"},
		{"CapabilityID", id.NewCapabilityID, "cap_"},
		{"InvocationID", id.NewInvocationID, "inv_"},
		{"EntryID", id.NewEntryID, "ep_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew_Unique(t *testing.T) {
	a := id.NewMiddlewareID()
	b := id.NewMiddlewareID()
	if a.String() == b.String() {
		t.Fatalf("expected distinct IDs, got %q twice", a)
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewMiddlewareID()
	parsed, err := id.ParseMiddlewareID(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestParseWithPrefix_RejectsOtherKind(t *testing.T) {
	inv := id.NewInvocationID()
	if _, err := id.ParseMiddlewareID(inv.String()); err == nil {
		t.Fatal("expected error parsing invocation ID as middleware ID")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestNil(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Fatal("expected Nil.IsNil() to be true")
	}
	if id.Nil.String() != "" {
		t.Errorf("expected empty string, got %q", id.Nil.String())
	}
	if id.Nil.Prefix() != "" {
		t.Errorf("expected empty prefix, got %q", id.Nil.Prefix())
	}
}

func TestTextRoundTrip(t *testing.T) {
	original := id.NewEntryID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var parsed id.ID
	if err := parsed.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed, original)
	}

	var empty id.ID
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatalf("unmarshal empty failed: %v", err)
	}
	if !empty.IsNil() {
		t.Error("expected Nil after unmarshalling empty text")
	}
}
