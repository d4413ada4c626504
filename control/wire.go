package control

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// ErrInvalidSignal is returned when a digest or binary form does not
// describe a signal.
var ErrInvalidSignal = errors.New("weft: invalid control signal encoding")

const (
	notFoundDigest = "WEFT_NOT_FOUND"
	redirectPrefix = "WEFT_REDIRECT;"
)

// ParseDigest reverses [Signal.Digest].
func ParseDigest(digest string) (*Signal, error) {
	if digest == notFoundDigest {
		return NotFound().(*Signal), nil
	}
	rest, ok := strings.CutPrefix(digest, redirectPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignal, digest)
	}

	// The URL may itself contain ';', so mode and status are cut from the
	// ends.
	mode, rest, ok := strings.Cut(rest, ";")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignal, digest)
	}
	i := strings.LastIndexByte(rest, ';')
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignal, digest)
	}
	status, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: status in %q", ErrInvalidSignal, digest)
	}

	s := &Signal{kind: KindRedirect, url: rest[:i], status: status, mode: RedirectMode(mode)}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// wireSignal is the binary form of a Signal.
type wireSignal struct {
	Kind   Kind         `cbor:"1,keyasint"`
	URL    string       `cbor:"2,keyasint,omitempty"`
	Status int          `cbor:"3,keyasint"`
	Mode   RedirectMode `cbor:"4,keyasint,omitempty"`
}

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// MarshalBinary encodes the signal as canonical CBOR. Equal signals encode
// to equal bytes.
func (s *Signal) MarshalBinary() ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(wireSignal{Kind: s.kind, URL: s.url, Status: s.status, Mode: s.mode})
	if err != nil {
		return nil, fmt.Errorf("control: encode signal: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes a signal written by MarshalBinary.
func (s *Signal) UnmarshalBinary(data []byte) error {
	var w wireSignal
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignal, err)
	}
	decoded := Signal{kind: w.Kind, url: w.URL, status: w.Status, mode: w.Mode}
	if err := decoded.validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

func (s *Signal) validate() error {
	switch s.kind {
	case KindNotFound:
		if s.status != http.StatusNotFound || s.url != "" || s.mode != "" {
			return fmt.Errorf("%w: malformed not-found", ErrInvalidSignal)
		}
	case KindRedirect:
		if s.status != http.StatusTemporaryRedirect && s.status != http.StatusPermanentRedirect {
			return fmt.Errorf("%w: redirect status %d", ErrInvalidSignal, s.status)
		}
		if s.mode != ModeReplace && s.mode != ModePush {
			return fmt.Errorf("%w: redirect mode %q", ErrInvalidSignal, s.mode)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidSignal, s.kind)
	}
	return nil
}
