package core

// bootstrap.go - the ordered step sequencer with reverse-order unwind.
//
// Each step returns nil to continue, *vlcerrors.ExitRequest for a
// normal early termination (help, version, daemon parent, forwarding),
// or any other error for a failure.  Steps register their inverses on
// the run as soon as a resource is acquired; the sequencer is the only
// place that unwinds, so no step needs to know about its siblings.

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/schokhani1999/vlc/config"
	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
)

// Step is one named phase of the bootstrap.
type Step struct {
	Name string
	Fn   func(ctx context.Context, r *Run) error
}

// Run carries the mutable state of one bootstrap attempt: the instance
// being initialized, the raw arguments, and the undo stack.
type Run struct {
	Inst *Instance
	Args []string

	// reloaded is set after the one permitted language re-run of the
	// bank-init..cmdline-parse window.
	reloaded bool

	fs          *flag.FlagSet
	trailing    []string
	pipeline    *config.Pipeline
	resetConfig bool

	undo []undoEntry
}

type undoEntry struct {
	step string
	fn   func()
}

// OnUnwind registers an inverse for the currently executing step.  The
// sequencer runs inverses in reverse registration order when a later
// step fails or requests exit.
func (r *Run) OnUnwind(step string, fn func()) {
	r.undo = append(r.undo, undoEntry{step: step, fn: fn})
}

// UnwindNames returns the step names on the undo stack, oldest first.
// Test hook.
func (r *Run) UnwindNames() []string {
	names := make([]string, len(r.undo))
	for i, e := range r.undo {
		names[i] = e.step
	}
	return names
}

// unwind runs every registered inverse in reverse order and clears the
// stack.
func (r *Run) unwind() {
	for i := len(r.undo) - 1; i >= 0; i-- {
		e := r.undo[i]
		r.Inst.Log.Debug().Str("step", e.step).Msg("unwinding")
		e.fn()
	}
	r.undo = nil
}

// runSteps executes the steps in order.  On failure or exit request it
// unwinds everything acquired so far and returns the cause; failures
// are wrapped with the name of the step that raised them.
func runSteps(ctx context.Context, r *Run, steps []Step) error {
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			r.unwind()
			return err
		}

		start := time.Now()
		err := step.Fn(ctx, r)
		r.Inst.Metrics.Time(step.Name, time.Since(start))
		if err == nil {
			r.Inst.Metrics.StepRun()
			continue
		}

		r.unwind()
		var exit *vlcerrors.ExitRequest
		if vlcerrors.As(err, &exit) {
			// Normal termination path, not a failure.
			return exit
		}
		r.Inst.Metrics.RecordError(err.Error())
		return &vlcerrors.StepError{Step: step.Name, Err: err}
	}
	return nil
}
