package entry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xraph/weft/fault"
	"github.com/xraph/weft/middleware"
)

// DecodeError is the typed failure produced when an entry point's input
// does not decode into its parameter type or fails schema validation.
type DecodeError struct {
	Entry string
	Kind  middleware.Kind
	Err   error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("weft: decode %s %q: %v", e.Kind, e.Entry, e.Err)
}

// Unwrap returns the underlying decoding or validation error.
func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeFailure is the failure schema of entry-point decoding.
var DecodeFailure = fault.Of[*DecodeError]("decode")

// compileSchema compiles a JSON Schema document for the named entry point.
func compileSchema(name, schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	uri := "weft://entry/" + url.PathEscape(name) + ".json"
	if err := compiler.AddResource(uri, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("entry %q: add schema: %w", name, err)
	}
	schema, err := compiler.Compile(uri)
	if err != nil {
		return nil, fmt.Errorf("entry %q: compile schema: %w", name, err)
	}
	return schema, nil
}

// decoder turns a call into P.
type decoder[P any] struct {
	schema *jsonschema.Schema
}

func (d decoder[P]) decode(c middleware.Call) (P, error) {
	var zero P

	if c.Kind == middleware.KindComponent && d.schema == nil {
		if p, ok := c.Props.(P); ok {
			return p, nil
		}
	}

	raw, err := rawInput(c)
	if err != nil {
		return zero, err
	}

	if d.schema != nil {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var inst any
		if err := dec.Decode(&inst); err != nil {
			return zero, err
		}
		if err := d.schema.Validate(inst); err != nil {
			return zero, err
		}
	}

	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return zero, err
	}
	return p, nil
}

// rawInput renders the input of a call as JSON.
func rawInput(c middleware.Call) ([]byte, error) {
	switch c.Kind {
	case middleware.KindPage:
		obj := make(map[string]any, len(c.Params)+len(c.SearchParams))
		for k, vs := range c.SearchParams {
			switch len(vs) {
			case 0:
			case 1:
				obj[k] = vs[0]
			default:
				obj[k] = vs
			}
		}
		for k, v := range c.Params {
			obj[k] = v
		}
		return json.Marshal(obj)
	case middleware.KindLayout:
		if c.Params == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(c.Params)
	case middleware.KindAction:
		if len(bytes.TrimSpace(c.Input)) == 0 {
			return []byte("null"), nil
		}
		return c.Input, nil
	case middleware.KindComponent:
		return json.Marshal(c.Props)
	default:
		return nil, fmt.Errorf("unknown entry kind %d", c.Kind)
	}
}
