package fault_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/xraph/weft"
	"github.com/xraph/weft/control"
	"github.com/xraph/weft/fault"
	"github.com/xraph/weft/id"
)

type quotaError struct{ limit int }

func (e *quotaError) Error() string { return fmt.Sprintf("quota %d exceeded", e.limit) }

func TestRecovered_ErrorValueKeepsIdentity(t *testing.T) {
	raised := errors.New("boom")
	d := fault.Recovered(raised, "auth", "stack")

	if d.Identity() != raised {
		t.Fatal("expected identity to be the raised error")
	}
	if d.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", d.Error(), "boom")
	}
	if !errors.Is(d, raised) {
		t.Error("expected errors.Is to reach the raised error")
	}
}

func TestRecovered_NonErrorValue(t *testing.T) {
	d := fault.Recovered("bad state", "auth", "")

	if d.Identity() != error(d) {
		t.Fatal("expected the defect to be its own identity")
	}
	if got := d.Error(); got != "weft: panic in auth: bad state" {
		t.Errorf("Error() = %q", got)
	}
}

func TestEscalate_UnwrapsSignal(t *testing.T) {
	sig := control.Redirect("/login")
	d := fault.Escalate(fmt.Errorf("loader: %w", sig), "handler")

	if d.Identity() != sig {
		t.Fatal("expected identity to be the signal itself")
	}
}

func TestMustEscalate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"not found", control.NotFound(), true},
		{"redirect wrapped", fmt.Errorf("w: %w", control.Redirect("/")), true},
		{"missing capability", fmt.Errorf("w: %w", weft.ErrMissingCapability), true},
		{"no implementation", weft.ErrNoImplementation, true},
		{"empty outcome", weft.ErrEmptyOutcome, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fault.MustEscalate(tt.err); got != tt.want {
				t.Errorf("MustEscalate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDefect(t *testing.T) {
	if fault.IsDefect(errors.New("typed")) {
		t.Error("typed failure reported as defect")
	}
	if !fault.IsDefect(fault.Recovered("x", "", "")) {
		t.Error("defect not recognised")
	}
	if !fault.IsDefect(&fault.Interrupted{InvocationID: id.NewInvocationID()}) {
		t.Error("interruption not recognised")
	}
	if !fault.IsDefect(fault.Sequential(errors.New("a"), errors.New("b"))) {
		t.Error("composite not recognised")
	}
}

func TestInterrupted(t *testing.T) {
	inv := id.NewInvocationID()
	err := &fault.Interrupted{InvocationID: inv, Cause: context.Canceled}

	if !errors.Is(err, weft.ErrInterrupted) {
		t.Error("expected ErrInterrupted")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected context.Canceled")
	}
	if !strings.Contains(err.Error(), inv.String()) {
		t.Errorf("expected message to carry invocation id, got %q", err.Error())
	}
}

func TestComposite_Message(t *testing.T) {
	seq := fault.Sequential(errors.New("first"), errors.New("second"))
	if got := seq.Error(); got != "weft: sequential faults: (first) then (second)" {
		t.Errorf("sequential Error() = %q", got)
	}

	par := fault.Parallel(errors.New("left"), errors.New("right"))
	if got := par.Error(); got != "weft: parallel faults: (left) | (right)" {
		t.Errorf("parallel Error() = %q", got)
	}
}

func TestSchema(t *testing.T) {
	errDenied := errors.New("denied")
	quota := &quotaError{limit: 3}

	if fault.Never.Match(errDenied) {
		t.Error("Never matched a failure")
	}
	if !fault.Never.IsNever() || fault.Never.Name() != "never" {
		t.Error("Never should describe itself as never")
	}

	if !fault.Any().Match(errDenied) {
		t.Error("Any did not match a typed failure")
	}
	if fault.Any().Match(control.NotFound()) {
		t.Error("Any matched a control signal")
	}
	if fault.Any().Match(fault.Recovered("x", "", "")) {
		t.Error("Any matched a defect")
	}

	if !fault.Is(errDenied).Match(fmt.Errorf("wrapped: %w", errDenied)) {
		t.Error("Is did not match through wrapping")
	}
	if !fault.Of[*quotaError]("quota").Match(quota) {
		t.Error("Of did not match its type")
	}
	if fault.Of[*quotaError]("quota").Match(errDenied) {
		t.Error("Of matched another type")
	}

	both := fault.OneOf(fault.Is(errDenied), fault.Of[*quotaError]("quota"))
	if !both.Match(quota) || !both.Match(errDenied) {
		t.Error("OneOf did not match its members")
	}
	if both.Name() != "denied | quota" {
		t.Errorf("OneOf name = %q", both.Name())
	}
}
