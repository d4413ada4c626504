// Package weft provides a composable middleware chain engine for Go.
// It composes an ordered list of middleware descriptors and a terminal
// handler into a single computation with typed capability injection,
// optional middleware, wrapping (before/after) control, and a strict split
// between recoverable typed failures and fatal defects.
//
// Weft is designed as a library, not a framework. Describe middleware once,
// bind implementations in a service container, and build entry points
// (pages, layouts, actions, components) on top of the engine.
//
// # Quick Start
//
//	var UserKey = capability.NewKey[*User]("user")
//
//	Auth := middleware.New("auth", middleware.WithProvides(UserKey))
//
//	c := service.NewContainer()
//	c.MustInstall(middleware.MustBind(Auth, loadUser))
//
//	eng := engine.New(engine.WithContainer(c))
//
//	page := entry.Page[ProfileParams, Profile](eng, "profile").
//	    Use(Auth).
//	    MustBuild(renderProfile)
//
//	profile, err := page.Invoke(ctx, entry.Request{Params: params})
//
// # Architecture
//
// Each concern lives in its own package: capability (the per-invocation
// registry), middleware (descriptors, bindings, built-ins), chain (the
// composer), engine (settlement and error mapping), and entry (the four
// entry-point kinds). Package hotreload rebuilds service containers during
// development. Defects, including the control signals in package
// control, always pass through unchanged.
//
// All identities use TypeID: type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package weft
