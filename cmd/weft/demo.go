package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/weft/capability"
	"github.com/xraph/weft/control"
	"github.com/xraph/weft/engine"
	"github.com/xraph/weft/entry"
	"github.com/xraph/weft/fault"
	"github.com/xraph/weft/middleware"
	"github.com/xraph/weft/service"
)

type demo struct {
	name  string
	short string
	run   func(ctx context.Context, w io.Writer, logger *slog.Logger) error
}

var demos = []demo{
	{"order", "Show the order in which wrapping and plain middleware run", demoOrder},
	{"isolation", "Run concurrent invocations that each see their own capabilities", demoIsolation},
	{"signals", "Show a redirect passing through a catch-all wrapper unchanged", demoSignals},
	{"optional", "Show an optional middleware failing without aborting the chain", demoOptional},
}

func newDemoCmd(logger func(*cobra.Command) (*slog.Logger, error)) *cobra.Command {
	demoCmd := &cobra.Command{
		Use:   "demo [name]",
		Short: "Run a demonstration chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return unknownDemo(args[0])
		},
	}
	for _, d := range demos {
		demoCmd.AddCommand(&cobra.Command{
			Use:   d.name,
			Short: d.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				l, err := logger(cmd)
				if err != nil {
					return err
				}
				return d.run(cmd.Context(), cmd.OutOrStdout(), l)
			},
		})
	}
	return demoCmd
}

func unknownDemo(name string) error {
	names := make([]string, len(demos))
	for i, d := range demos {
		names[i] = d.name
	}
	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return fmt.Errorf("unknown demo %q, did you mean %q?", name, ranks[0].Target)
	}
	return fmt.Errorf("unknown demo %q (available: %s)", name, strings.Join(names, ", "))
}

// trace collects step labels from concurrent code.
type trace struct {
	mu    sync.Mutex
	steps []string
}

func (t *trace) add(step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, step)
}

func wrapStep(t *trace, name string) (*middleware.Descriptor, middleware.Binding) {
	d := middleware.NewWrap(name)
	return d, middleware.MustBindWrap(d, func(ctx context.Context, _ middleware.Call, next middleware.Next) (any, error) {
		t.add(name + ": before")
		v, err := next(ctx)
		t.add(name + ": after")
		return v, err
	})
}

func plainStep(t *trace, name string) (*middleware.Descriptor, middleware.Binding) {
	d := middleware.New(name)
	return d, middleware.MustBind(d, func(context.Context, middleware.Call) (struct{}, error) {
		t.add(name)
		return struct{}{}, nil
	})
}

func demoOrder(ctx context.Context, w io.Writer, logger *slog.Logger) error {
	t := &trace{}
	outer, outerB := wrapStep(t, "outer")
	auth, authB := plainStep(t, "auth")
	inner, innerB := wrapStep(t, "inner")
	load, loadB := plainStep(t, "load")

	c := service.NewContainer()
	c.MustInstall(outerB, authB, innerB, loadB)
	eng := engine.New(engine.WithContainer(c), engine.WithLogger(logger))
	defer func() { _ = eng.Shutdown(ctx) }()

	page, err := entry.Page[map[string]string, string](eng, "order").
		Use(outer, auth, inner, load).
		Build(func(context.Context, map[string]string) (string, error) {
			t.add("handler")
			return "done", nil
		})
	if err != nil {
		return err
	}

	if _, err := page.Invoke(ctx, entry.Request{}); err != nil {
		return err
	}
	for i, s := range t.steps {
		fmt.Fprintf(w, "%d. %s\n", i+1, s)
	}
	return nil
}

type profileParams struct {
	User string `json:"user"`
}

var userKey = capability.NewKey[string]("user")

func demoIsolation(ctx context.Context, w io.Writer, logger *slog.Logger) error {
	loadUser := middleware.Value("load-user", userKey, func(_ context.Context, call middleware.Call) (string, error) {
		// The first user is slower so the invocations overlap.
		if call.Params["user"] == "ada" {
			time.Sleep(20 * time.Millisecond)
		}
		return strings.ToUpper(call.Params["user"]), nil
	})

	c := service.NewContainer()
	c.MustInstall(loadUser)
	eng := engine.New(engine.WithContainer(c), engine.WithLogger(logger))
	defer func() { _ = eng.Shutdown(ctx) }()

	page, err := entry.Page[profileParams, string](eng, "profile").
		Use(loadUser.Descriptor()).
		Build(func(ctx context.Context, p profileParams) (string, error) {
			return fmt.Sprintf("%s sees %s", p.User, capability.Must(ctx, userKey)), nil
		})
	if err != nil {
		return err
	}

	users := []string{"ada", "grace", "linus"}
	results := make([]string, len(users))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range users {
		g.Go(func() error {
			v, err := page.Invoke(gctx, entry.Request{Params: map[string]string{"user": u}})
			results[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Strings(results)
	for _, r := range results {
		fmt.Fprintln(w, r)
	}
	return nil
}

func demoSignals(ctx context.Context, w io.Writer, logger *slog.Logger) error {
	catchAll := middleware.NewWrap("catch-all", middleware.WithCatches(fault.Any()))
	c := service.NewContainer()
	c.MustInstall(middleware.MustBindWrap(catchAll, func(ctx context.Context, _ middleware.Call, next middleware.Next) (any, error) {
		if _, err := next(ctx); err != nil {
			return "fallback", nil
		}
		return "ok", nil
	}))
	eng := engine.New(engine.WithContainer(c), engine.WithLogger(logger))
	defer func() { _ = eng.Shutdown(ctx) }()

	login := control.Redirect("/login")
	page, err := entry.Page[map[string]string, string](eng, "account").
		Use(catchAll).
		Build(func(context.Context, map[string]string) (string, error) {
			control.Throw(login)
			return "", nil
		})
	if err != nil {
		return err
	}

	exit := page.Run(ctx, entry.Request{})
	fmt.Fprintf(w, "outcome: %s\n", exit.Kind)
	sig, ok := control.As(exit.Err)
	if !ok {
		return fmt.Errorf("expected a control signal, got %v", exit.Err)
	}
	fmt.Fprintf(w, "signal: %s %s (%d)\n", sig.Kind(), sig.URL(), sig.Status())
	fmt.Fprintf(w, "identical: %t\n", exit.Err == login)
	return nil
}

var sessionKey = capability.NewKey[string]("session")

var errNoSession = errors.New("no session cookie")

func demoOptional(ctx context.Context, w io.Writer, logger *slog.Logger) error {
	session := middleware.New("session",
		middleware.WithProvides(sessionKey),
		middleware.WithOptional(),
		middleware.WithFailure(fault.Is(errNoSession)),
	)
	c := service.NewContainer()
	c.MustInstall(middleware.MustBind(session, func(_ context.Context, call middleware.Call) (string, error) {
		sid, ok := call.Params["session"]
		if !ok {
			return "", errNoSession
		}
		return sid, nil
	}))
	eng := engine.New(engine.WithContainer(c), engine.WithLogger(logger))
	defer func() { _ = eng.Shutdown(ctx) }()

	page, err := entry.Page[map[string]string, string](eng, "home").
		Use(session).
		Build(func(ctx context.Context, _ map[string]string) (string, error) {
			sid, err := capability.From(ctx, sessionKey)
			if err != nil {
				return "anonymous visitor", nil
			}
			return "signed in as " + sid, nil
		})
	if err != nil {
		return err
	}

	for _, params := range []map[string]string{{"session": "s-42"}, nil} {
		v, err := page.Invoke(ctx, entry.Request{Params: params})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, v)
	}
	return nil
}
