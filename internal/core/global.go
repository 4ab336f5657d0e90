// Package core owns the process-wide shared state, the per-instance
// lifecycle state machine, and the ordered bootstrap sequencer with
// reverse-order unwind.
package core

import (
	"sync"

	"github.com/schokhani1999/vlc/internal/capability"
	"github.com/schokhani1999/vlc/modules"
)

// SharedState is the record shared by every instance in the process:
// the capability snapshot and the module bank handle.  Both are
// populated by the first Acquire and read-only afterwards, so reads
// need no lock.
type SharedState struct {
	Caps capability.Snapshot
	Bank *modules.Bank
}

// globalState is the process-wide singleton behind Acquire/Release.
// All mutation happens under mu; the lock is held only for the short
// critical sections, never across blocking work.
var globalState struct {
	mu            sync.Mutex
	ready         bool
	instanceCount uint
	shared        *SharedState
	teardown      []func()
}

// Acquire registers a new instance against the process-wide state.
// The first acquirer computes the capability snapshot and creates the
// empty module bank; later acquirers share both.
func Acquire() *SharedState {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	globalState.instanceCount++
	if !globalState.ready {
		globalState.shared = &SharedState{
			Caps: capability.Detect(),
			Bank: modules.NewBank(),
		}
		globalState.ready = true
	}
	return globalState.shared
}

// Release drops one instance's hold on the shared state.  When the
// last instance releases, the registered teardown hooks run exactly
// once and the state resets for a possible future Acquire.
//
// Releasing a handle twice, or a handle that was never acquired, is a
// contract violation and panics.
func Release(h *SharedState) {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if h == nil || h != globalState.shared || globalState.instanceCount == 0 {
		panic("core: Release without a matching Acquire")
	}
	globalState.instanceCount--
	if globalState.instanceCount > 0 {
		return
	}

	for i := len(globalState.teardown) - 1; i >= 0; i-- {
		globalState.teardown[i]()
	}
	globalState.teardown = nil
	globalState.shared = nil
	globalState.ready = false
}

// OnProcessTeardown registers fn to run when the last instance
// releases the shared state.  Hooks run in reverse registration order.
func OnProcessTeardown(fn func()) {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	globalState.teardown = append(globalState.teardown, fn)
}

// InstanceCount returns the number of live holds on the shared state.
func InstanceCount() uint {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	return globalState.instanceCount
}

// Ready reports whether the shared state is currently populated.
func Ready() bool {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()
	return globalState.ready
}
