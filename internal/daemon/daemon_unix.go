//go:build unix

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Daemonize detaches the process.  In the parent it re-executes the
// current binary with the same arguments in a new session and returns
// ParentShouldExit.  In the re-executed child it redirects the
// standard streams to /dev/null and returns ChildContinuing.
//
// The runtime cannot fork after goroutines exist, so detachment is a
// full re-exec with an environment marker rather than fork+setsid.
func Daemonize() (Outcome, error) {
	if IsChild() {
		if err := detachStdio(); err != nil {
			return Failed, err
		}
		os.Unsetenv(childMarker)
		return ChildContinuing, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return Failed, fmt.Errorf("locating executable: %w", err)
	}

	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Env = append(os.Environ(), childMarker+"=1")
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return Failed, fmt.Errorf("starting detached child: %w", err)
	}
	// The child belongs to its own session now; do not wait for it.
	if err := cmd.Process.Release(); err != nil {
		return Failed, err
	}
	return ParentShouldExit, nil
}

// detachStdio points stdin, stdout and stderr at /dev/null so the
// child holds no reference to the terminal it was started from.
func detachStdio() error {
	null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("opening %s: %w", os.DevNull, err)
	}
	defer null.Close()

	fd := int(null.Fd())
	for _, target := range []int{0, 1, 2} {
		if err := unix.Dup3(fd, target, 0); err != nil {
			return fmt.Errorf("redirecting fd %d: %w", target, err)
		}
	}
	return nil
}
