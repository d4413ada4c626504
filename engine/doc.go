// Package engine drives composed chains to settlement and provides the
// primary application-level API for running them.
//
// # Building an Engine
//
//	c := service.NewContainer()
//	c.MustInstall(authBinding, middleware.Logging(logger))
//
//	eng := engine.New(
//	    engine.WithContainer(c),
//	    engine.WithLogger(logger),
//	    engine.WithExtension(myExtension),
//	    engine.WithMaxInFlight(512),
//	)
//
// # Running a Chain
//
//	ch, err := eng.NewChain([]*middleware.Descriptor{Auth}, func(ctx context.Context, c middleware.Call) (any, error) {
//	    user := capability.Must(ctx, UserKey)
//	    return render(user), nil
//	})
//
//	exit := engine.Run[Page](ctx, eng, ch, middleware.Call{Kind: middleware.KindPage, Entry: "profile"})
//	switch {
//	case exit.Succeeded():
//	    // exit.Value
//	case exit.Failed():
//	    // typed failure in exit.Err
//	default:
//	    // defect: exit.Err is the raised value itself
//	}
//
// Invoke returns (value, error) instead, and InvokeMapped turns typed
// failures into values with a Mapper. Defects, including control signals
// and interruptions, are never mapped.
//
// Most code uses package entry, which builds chains and calls for the
// four entry-point kinds.
//
// # Options
//
//   - [WithLogger]: set the logger
//   - [WithConfig]: replace weft.Config
//   - [WithContainer], [WithResolver]: choose the service container
//   - [WithExtension]: register a lifecycle extension
//   - [WithTracerProvider]: set the OpenTelemetry tracer provider
//   - [WithMeterProvider]: set the OpenTelemetry meter provider
//   - [WithMaxInFlight]: bound concurrent invocations
package engine
