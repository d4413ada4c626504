package entry

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xraph/weft/chain"
	"github.com/xraph/weft/engine"
	"github.com/xraph/weft/id"
	"github.com/xraph/weft/middleware"
)

// Request is the raw input of one invocation. Which fields are read depends
// on the entry kind.
type Request struct {
	Params       map[string]string
	SearchParams url.Values
	Input        json.RawMessage
	Props        any

	// InvocationID is generated when nil.
	InvocationID id.InvocationID
}

// Handler is the terminal computation of an entry point.
type Handler[P, A any] func(ctx context.Context, p P) (A, error)

// Builder collects the middleware of an entry point.
type Builder[P, A any] struct {
	eng    *engine.Engine
	kind   middleware.Kind
	name   string
	descs  []*middleware.Descriptor
	schema *jsonschema.Schema
	err    error
}

// Page starts a page entry point whose route and search params decode
// into P.
func Page[P, A any](eng *engine.Engine, name string) *Builder[P, A] {
	return newBuilder[P, A](eng, middleware.KindPage, name)
}

// Layout starts a layout entry point whose route params decode into P.
func Layout[P, A any](eng *engine.Engine, name string) *Builder[P, A] {
	return newBuilder[P, A](eng, middleware.KindLayout, name)
}

// Action starts an action entry point whose JSON input decodes into P.
func Action[P, A any](eng *engine.Engine, name string) *Builder[P, A] {
	return newBuilder[P, A](eng, middleware.KindAction, name)
}

// Component starts a component entry point whose props decode into P.
func Component[P, A any](eng *engine.Engine, name string) *Builder[P, A] {
	return newBuilder[P, A](eng, middleware.KindComponent, name)
}

func newBuilder[P, A any](eng *engine.Engine, kind middleware.Kind, name string) *Builder[P, A] {
	return &Builder[P, A]{eng: eng, kind: kind, name: name}
}

// Use appends descriptors. They run in the order given, after any added
// by earlier calls.
func (b *Builder[P, A]) Use(descs ...*middleware.Descriptor) *Builder[P, A] {
	b.descs = append(b.descs, descs...)
	return b
}

// WithSchema validates the decoded input against a JSON Schema document
// before it is unmarshalled into P. A schema that does not compile makes
// Build fail.
func (b *Builder[P, A]) WithSchema(schemaJSON string) *Builder[P, A] {
	s, err := compileSchema(b.name, schemaJSON)
	if err != nil {
		b.err = err
		return b
	}
	b.schema = s
	return b
}

// Build binds h and returns the entry point.
func (b *Builder[P, A]) Build(h Handler[P, A]) (*Entry[P, A], error) {
	return b.build(h, nil)
}

// BuildMapped is Build with typed failures turned into values by mapper.
func (b *Builder[P, A]) BuildMapped(h Handler[P, A], mapper engine.Mapper[A]) (*Entry[P, A], error) {
	return b.build(h, mapper)
}

// MustBuild is like Build but panics on error.
func (b *Builder[P, A]) MustBuild(h Handler[P, A]) *Entry[P, A] {
	e, err := b.Build(h)
	if err != nil {
		panic(err)
	}
	return e
}

func (b *Builder[P, A]) build(h Handler[P, A], mapper engine.Mapper[A]) (*Entry[P, A], error) {
	if b.err != nil {
		return nil, b.err
	}

	var terminal chain.Terminal
	if h != nil {
		dec := decoder[P]{schema: b.schema}
		terminal = func(ctx context.Context, c middleware.Call) (any, error) {
			p, err := dec.decode(c)
			if err != nil {
				return nil, &DecodeError{Entry: c.Entry, Kind: c.Kind, Err: err}
			}
			return h(ctx, p)
		}
	}

	ch, err := b.eng.NewChain(b.descs, terminal)
	if err != nil {
		return nil, err
	}
	return &Entry[P, A]{
		id:     id.NewEntryID(),
		kind:   b.kind,
		name:   b.name,
		eng:    b.eng,
		chain:  ch,
		mapper: mapper,
	}, nil
}

// Entry is a built entry point. It is immutable and safe for concurrent
// use.
type Entry[P, A any] struct {
	id     id.EntryID
	kind   middleware.Kind
	name   string
	eng    *engine.Engine
	chain  *chain.Chain
	mapper engine.Mapper[A]
}

// ID returns the entry point's identifier.
func (e *Entry[P, A]) ID() id.EntryID { return e.id }

// Name returns the entry point's name.
func (e *Entry[P, A]) Name() string { return e.name }

// Kind returns the entry point's kind.
func (e *Entry[P, A]) Kind() middleware.Kind { return e.kind }

// Chain returns the composed chain.
func (e *Entry[P, A]) Chain() *chain.Chain { return e.chain }

// Run invokes the entry point and returns the full outcome. The mapper,
// when set, has already been applied.
func (e *Entry[P, A]) Run(ctx context.Context, req Request) engine.Exit[A] {
	return engine.RunMapped(ctx, e.eng, e.chain, e.call(req), e.mapper)
}

// Invoke invokes the entry point.
func (e *Entry[P, A]) Invoke(ctx context.Context, req Request) (A, error) {
	return e.Run(ctx, req).Result()
}

func (e *Entry[P, A]) call(req Request) middleware.Call {
	return middleware.Call{
		Kind:         e.kind,
		Entry:        e.name,
		InvocationID: req.InvocationID,
		Params:       req.Params,
		SearchParams: req.SearchParams,
		Input:        req.Input,
		Props:        req.Props,
	}
}
