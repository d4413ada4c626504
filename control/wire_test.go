package control_test

import (
	"errors"
	"testing"

	"github.com/xraph/weft/control"
)

func signals() map[string]error {
	return map[string]error{
		"not found":     control.NotFound(),
		"redirect":      control.Redirect("/login"),
		"push redirect": control.RedirectWithMode("/a;b?c=1", control.ModePush),
		"permanent":     control.PermanentRedirect("https://example.com/new"),
	}
}

func TestParseDigest_ReversesDigest(t *testing.T) {
	for name, err := range signals() {
		t.Run(name, func(t *testing.T) {
			want, _ := control.As(err)
			got, perr := control.ParseDigest(want.Digest())
			if perr != nil {
				t.Fatal(perr)
			}
			if got.Digest() != want.Digest() || got.URL() != want.URL() || got.Mode() != want.Mode() {
				t.Errorf("ParseDigest(%q) = %q", want.Digest(), got.Digest())
			}
		})
	}
}

func TestParseDigest_Invalid(t *testing.T) {
	for _, d := range []string{
		"",
		"NOT_A_SIGNAL",
		"WEFT_REDIRECT;replace",
		"WEFT_REDIRECT;replace;/x;abc",
		"WEFT_REDIRECT;sideways;/x;307",
		"WEFT_REDIRECT;replace;/x;200",
	} {
		if _, err := control.ParseDigest(d); !errors.Is(err, control.ErrInvalidSignal) {
			t.Errorf("ParseDigest(%q) error = %v", d, err)
		}
	}
}

func TestBinary_Roundtrip(t *testing.T) {
	for name, err := range signals() {
		t.Run(name, func(t *testing.T) {
			want, _ := control.As(err)
			data, merr := want.MarshalBinary()
			if merr != nil {
				t.Fatal(merr)
			}
			again, _ := want.MarshalBinary()
			if string(data) != string(again) {
				t.Error("encoding is not deterministic")
			}

			var got control.Signal
			if err := got.UnmarshalBinary(data); err != nil {
				t.Fatal(err)
			}
			if got.Digest() != want.Digest() {
				t.Errorf("decoded %q, want %q", got.Digest(), want.Digest())
			}
		})
	}
}

func TestBinary_Invalid(t *testing.T) {
	var s control.Signal
	if err := s.UnmarshalBinary([]byte{0xff, 0x00}); !errors.Is(err, control.ErrInvalidSignal) {
		t.Errorf("garbage input error = %v", err)
	}
	if _, err := (&control.Signal{}).MarshalBinary(); !errors.Is(err, control.ErrInvalidSignal) {
		t.Errorf("zero signal marshal error = %v", err)
	}
}
