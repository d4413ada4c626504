// Package chain composes middleware descriptors and a terminal handler into
// one computation and runs it.
//
// A [Chain] is built once from an ordered descriptor list and reused for
// every invocation. The first descriptor is the outermost:
//
//	// W1 → N1 → W2 → N2 → handler
//	ch, err := chain.New([]*middleware.Descriptor{W1, N1, W2, N2}, handler)
//
// Non-wrapping middleware run to completion, in order, before anything after
// them. A wrapping middleware receives the rest of the chain as a
// [middleware.Next] and runs its own code around it, so with the chain
// above the observed order is
//
//	W1-before, N1, W2-before, N2, handler, W2-after, W1-after
//
// Capabilities provided by a non-wrapping middleware are visible only to
// what runs after it. An optional middleware that fails is skipped and
// its capability stays absent. A required middleware that fails stops the
// chain; an enclosing wrapping middleware sees the failure as the result of
// its next.
//
// Defects are recorded the moment they are raised. Whatever a wrapping
// middleware does with a defect it receives from next, the chain reports
// the recorded defect.
package chain
