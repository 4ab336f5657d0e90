package core

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
)

func testRun() *Run {
	return &Run{Inst: &Instance{Log: zerolog.Nop()}}
}

// acquireStep records its execution and registers an inverse that
// records the unwind.
func acquireStep(name string, trace *[]string) Step {
	return Step{Name: name, Fn: func(_ context.Context, r *Run) error {
		*trace = append(*trace, "run:"+name)
		r.OnUnwind(name, func() { *trace = append(*trace, "undo:"+name) })
		return nil
	}}
}

func TestRunStepsAllContinue(t *testing.T) {
	var trace []string
	r := testRun()
	steps := []Step{
		acquireStep("a", &trace),
		acquireStep("b", &trace),
	}

	if err := runSteps(context.Background(), r, steps); err != nil {
		t.Fatal(err)
	}
	if len(trace) != 2 {
		t.Errorf("trace = %v, no unwind expected on success", trace)
	}
	// The undo stack survives for the instance teardown to consume.
	if names := r.UnwindNames(); len(names) != 2 {
		t.Errorf("undo stack = %v", names)
	}
}

func TestRunStepsUnwindsInReverseOnFailure(t *testing.T) {
	var trace []string
	boom := vlcerrors.New("step exploded")
	steps := []Step{
		acquireStep("a", &trace),
		acquireStep("b", &trace),
		{Name: "c", Fn: func(context.Context, *Run) error { return boom }},
		acquireStep("d", &trace),
	}

	err := runSteps(context.Background(), testRun(), steps)
	if err == nil {
		t.Fatal("expected failure")
	}

	var stepErr *vlcerrors.StepError
	if !vlcerrors.As(err, &stepErr) || stepErr.Step != "c" {
		t.Errorf("err = %v, want StepError for step c", err)
	}
	if !vlcerrors.Is(err, boom) {
		t.Error("cause should be preserved through the wrap")
	}

	want := []string{"run:a", "run:b", "undo:b", "undo:a"}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestRunStepsExitRequestUnwindsAndReturnsCode(t *testing.T) {
	var trace []string
	steps := []Step{
		acquireStep("a", &trace),
		{Name: "help", Fn: func(context.Context, *Run) error { return vlcerrors.Exit(0) }},
		acquireStep("never", &trace),
	}

	err := runSteps(context.Background(), testRun(), steps)
	code, ok := vlcerrors.ExitCode(err)
	if !ok || code != 0 {
		t.Fatalf("err = %v, want exit request with code 0", err)
	}
	if len(trace) != 2 || trace[1] != "undo:a" {
		t.Errorf("trace = %v, want [run:a undo:a]", trace)
	}
}

func TestRunStepsContextCancel(t *testing.T) {
	var trace []string
	ctx, cancel := context.WithCancel(context.Background())

	steps := []Step{
		acquireStep("a", &trace),
		{Name: "cancel", Fn: func(context.Context, *Run) error {
			cancel()
			return nil
		}},
		acquireStep("never", &trace),
	}

	err := runSteps(ctx, testRun(), steps)
	if !vlcerrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	for _, ev := range trace {
		if ev == "run:never" {
			t.Error("step after cancellation must not run")
		}
	}
	if trace[len(trace)-1] != "undo:a" {
		t.Errorf("trace = %v, cancellation must unwind", trace)
	}
}

func TestOnUnwindStackNames(t *testing.T) {
	r := testRun()
	r.OnUnwind("one", func() {})
	r.OnUnwind("two", func() {})

	names := r.UnwindNames()
	if len(names) != 2 || names[0] != "one" || names[1] != "two" {
		t.Errorf("names = %v", names)
	}
}
