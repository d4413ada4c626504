package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xraph/weft"
	"github.com/xraph/weft/middleware"
	"github.com/xraph/weft/service"
)

func noop(d *middleware.Descriptor) middleware.Binding {
	return middleware.MustBind(d, func(context.Context, middleware.Call) (struct{}, error) {
		return struct{}{}, nil
	})
}

func TestInstallAndResolve(t *testing.T) {
	d := middleware.New("auth")
	c := service.NewContainer()
	if err := c.Install(noop(d)); err != nil {
		t.Fatalf("Install: %v", err)
	}

	b, err := c.Resolve(d)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if b.Descriptor() != d {
		t.Error("resolved binding has a different descriptor")
	}
	if !c.Has(d) || c.Len() != 1 {
		t.Errorf("Has = %v, Len = %d", c.Has(d), c.Len())
	}
}

func TestResolve_SameNameDifferentDescriptor(t *testing.T) {
	a, b := middleware.New("auth"), middleware.New("auth")
	c := service.NewContainer()
	c.MustInstall(noop(a))

	if _, err := c.Resolve(b); !errors.Is(err, weft.ErrNoImplementation) {
		t.Fatalf("expected ErrNoImplementation, got %v", err)
	}
}

func TestInstall_Duplicate(t *testing.T) {
	d := middleware.New("auth")
	c := service.NewContainer()
	c.MustInstall(noop(d))

	if err := c.Install(noop(d)); !errors.Is(err, weft.ErrDuplicateBinding) {
		t.Fatalf("expected ErrDuplicateBinding, got %v", err)
	}
	if err := c.Replace(noop(d)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestInstall_ZeroBinding(t *testing.T) {
	c := service.NewContainer()
	if err := c.Install(middleware.Binding{}); !errors.Is(err, weft.ErrNilDescriptor) {
		t.Fatalf("expected ErrNilDescriptor, got %v", err)
	}
}

func TestNames(t *testing.T) {
	c := service.NewContainer()
	c.MustInstall(noop(middleware.New("session")), noop(middleware.New("auth")))

	if diff := cmp.Diff([]string{"auth", "session"}, c.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestDispose(t *testing.T) {
	c := service.NewContainer()
	d := middleware.New("db")
	c.MustInstall(noop(d))

	var order []string
	errClose := errors.New("close failed")
	c.OnDispose(func() error { order = append(order, "first"); return nil })
	c.OnDispose(func() error { order = append(order, "second"); return errClose })

	if err := c.Dispose(); !errors.Is(err, errClose) {
		t.Fatalf("expected joined close error, got %v", err)
	}
	if diff := cmp.Diff([]string{"second", "first"}, order); diff != "" {
		t.Errorf("dispose order (-want +got):\n%s", diff)
	}
	if !c.Disposed() {
		t.Error("Disposed = false after Dispose")
	}
	if err := c.Dispose(); err != nil {
		t.Errorf("second Dispose = %v", err)
	}
	if len(order) != 2 {
		t.Errorf("dispose functions ran again: %v", order)
	}

	if _, err := c.Resolve(d); !errors.Is(err, weft.ErrContainerDisposed) {
		t.Errorf("Resolve after Dispose = %v", err)
	}
	if err := c.Install(noop(middleware.New("late"))); !errors.Is(err, weft.ErrContainerDisposed) {
		t.Errorf("Install after Dispose = %v", err)
	}
}

func TestStatic(t *testing.T) {
	c := service.NewContainer()
	r := service.Static(c)

	got, err := r.Container("anything")
	if err != nil || got != c {
		t.Fatalf("Container = %p, %v", got, err)
	}

	if _, err := service.Static(nil).Container("x"); !errors.Is(err, weft.ErrNoContainer) {
		t.Fatalf("expected ErrNoContainer, got %v", err)
	}
}

func TestConcurrentResolve(t *testing.T) {
	c := service.NewContainer()
	descs := make([]*middleware.Descriptor, 16)
	for i := range descs {
		descs[i] = middleware.New("mw")
		c.MustInstall(noop(descs[i]))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, d := range descs {
				if _, err := c.Resolve(d); err != nil {
					t.Errorf("Resolve: %v", err)
				}
			}
		}()
	}
	wg.Wait()
}
