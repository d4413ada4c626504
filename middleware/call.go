package middleware

import (
	"encoding/json"
	"net/url"

	"github.com/xraph/weft/id"
)

// Kind names the entry-point kind that started an invocation.
type Kind uint8

const (
	// KindPage is a request handler for a routed page.
	KindPage Kind = iota + 1
	// KindLayout is a nested layout wrapping pages.
	KindLayout
	// KindAction is a mutation action.
	KindAction
	// KindComponent is a rendered component.
	KindComponent
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindLayout:
		return "layout"
	case KindAction:
		return "action"
	case KindComponent:
		return "component"
	default:
		return "unknown"
	}
}

// Call is the context of one invocation as seen by middleware: who is
// calling and with what raw input. Decoded payloads are only visible to the
// terminal handler.
type Call struct {
	Kind         Kind
	Entry        string
	InvocationID id.InvocationID

	// Params holds route parameters (pages and layouts).
	Params map[string]string
	// SearchParams holds query parameters (pages).
	SearchParams url.Values
	// Input holds the raw JSON body (actions).
	Input json.RawMessage
	// Props holds the component props (components).
	Props any
}
