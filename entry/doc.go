// Package entry builds the four kinds of entry point that run on the
// engine: pages, layouts, actions and components.
//
// Each builder collects middleware descriptors with Use, then Build binds
// a typed handler. The handler receives its decoded input P and returns
// A:
//
//	profile, err := entry.Page[ProfileParams, *Profile](eng, "profile").
//	    Use(Auth, Session).
//	    WithSchema(`{"type":"object","required":["user"]}`).
//	    Build(func(ctx context.Context, p ProfileParams) (*Profile, error) {
//	        user := capability.Must(ctx, UserKey)
//	        return loadProfile(ctx, user, p.User)
//	    })
//
//	p, err := profile.Invoke(ctx, entry.Request{Params: map[string]string{"user": "42"}})
//
// Inputs decode as follows:
//
//   - Page: route params and search params merged into one object. Route
//     params win on conflicts; repeated search params become arrays.
//   - Layout: route params.
//   - Action: the raw JSON input.
//   - Component: the props, re-encoded as JSON unless already a P.
//
// Decoding happens after every middleware has run, in the terminal step.
// An optional JSON Schema is validated first. Decoding failures are typed
// failures (*DecodeError) and so may be mapped with BuildMapped.
package entry
