// Package daemon detaches the process from its controlling terminal by
// re-executing itself in a new session.  The parent returns
// ParentShouldExit and terminates normally; the child comes back up
// with its standard streams pointed at /dev/null and continues the
// bootstrap from the top.
package daemon

import (
	"fmt"
	"os"
	"strconv"
)

// childMarker is set in the re-executed child's environment so the
// second bootstrap pass knows detachment already happened.
const childMarker = "VLC_DAEMON_CHILD"

// Outcome tells the caller how to proceed after Daemonize.
type Outcome int

const (
	// ParentShouldExit: the detached child was started; this process
	// must exit successfully without touching shared state further.
	ParentShouldExit Outcome = iota
	// ChildContinuing: this process is the detached child (or was
	// already detached); carry on with the bootstrap.
	ChildContinuing
	// Failed: detachment could not be performed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case ParentShouldExit:
		return "parent-should-exit"
	case ChildContinuing:
		return "child-continuing"
	default:
		return "failed"
	}
}

// IsChild reports whether this process is the re-executed child of a
// previous Daemonize call.
func IsChild() bool {
	return os.Getenv(childMarker) == "1"
}

// WritePID writes the current process ID to path.  An empty path is a
// no-op.
func WritePID(path string) error {
	if path == "" {
		return nil
	}
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing pid file %s: %w", path, err)
	}
	return nil
}

// RemovePID deletes the pid file, tolerating its absence.
func RemovePID(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "cannot remove pid file %s: %v\n", path, err)
	}
}
