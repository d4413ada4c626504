// Package id defines TypeID-based identity types for weft entities.
//
// Middleware descriptors, capability keys, invocations and entry points all
// carry an ID with a prefix naming the entity kind. IDs are K-sortable
// (UUIDv7-based), globally unique, and URL-safe in the format "prefix_suffix".
// Descriptors that share a display name are still told apart by their ID.
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for weft entity types.
const (
	PrefixMiddleware Prefix = "mw"
	PrefixCapability Prefix = "cap"
	PrefixInvocation Prefix = "inv"
	PrefixEntry      Prefix = "ep"
)

// ID wraps a TypeID providing a prefix-qualified, globally unique,
// sortable identifier.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "mw_01h2xcejqtf2nbrexx3vqjhp41").
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MiddlewareID identifies a middleware descriptor (prefix: "mw").
type MiddlewareID = ID

// CapabilityID identifies a capability key (prefix: "cap").
type CapabilityID = ID

// InvocationID identifies one run of a chain (prefix: "inv").
type InvocationID = ID

// EntryID identifies an entry point (prefix: "ep").
type EntryID = ID

// NewMiddlewareID generates a new unique middleware ID.
func NewMiddlewareID() ID { return New(PrefixMiddleware) }

// NewCapabilityID generates a new unique capability ID.
func NewCapabilityID() ID { return New(PrefixCapability) }

// NewInvocationID generates a new unique invocation ID.
func NewInvocationID() ID { return New(PrefixInvocation) }

// NewEntryID generates a new unique entry point ID.
func NewEntryID() ID { return New(PrefixEntry) }

// ParseMiddlewareID parses a string and validates the "mw" prefix.
func ParseMiddlewareID(s string) (ID, error) { return ParseWithPrefix(s, PrefixMiddleware) }

// ParseInvocationID parses a string and validates the "inv" prefix.
func ParseInvocationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvocation) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
