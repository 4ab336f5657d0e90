// Package errors provides domain-specific error types for the bootstrap
// core.
//
// Every failure that can stop a bootstrap run is classified by a Kind,
// so the caller can distinguish recoverable instance-level failures
// (module bank, config, playlist, interface) from fatal ones and from
// the single-instance forwarding diagnostics.
package errors

import (
	"errors"
	"fmt"
)

// ── Failure kinds ────────────────────────────────────────────────────

// Kind classifies a bootstrap failure.
type Kind int

const (
	// KindGeneric is an unclassified failure.
	KindGeneric Kind = iota

	// KindLock means the process-wide lock could not be obtained.
	// Fatal: the process cannot continue.
	KindLock

	// KindOutOfMemory means an allocation failed.  Fatal for the
	// failing instance; the instance unwinds and is destroyed.
	KindOutOfMemory

	// KindModuleBank means builtin or plugin discovery failed.
	KindModuleBank

	// KindConfigParse means the config file or command line could not
	// be parsed.
	KindConfigParse

	// KindPlaylistInit means the playlist engine failed to start.
	KindPlaylistInit

	// KindInterfaceInit means an interface module failed to start.
	KindInterfaceInit

	// KindPeerUnreachable means another instance owns the endpoint but
	// did not answer the liveness probe.
	KindPeerUnreachable

	// KindForward means handing a work item to the peer instance
	// failed.  The process exits; there is no local fallback.
	KindForward
)

func (k Kind) String() string {
	switch k {
	case KindLock:
		return "lock failure"
	case KindOutOfMemory:
		return "out of memory"
	case KindModuleBank:
		return "module bank failure"
	case KindConfigParse:
		return "config parse failure"
	case KindPlaylistInit:
		return "playlist init failure"
	case KindInterfaceInit:
		return "interface init failure"
	case KindPeerUnreachable:
		return "peer unreachable"
	case KindForward:
		return "forward failure"
	default:
		return "generic failure"
	}
}

// ── Structured error types ───────────────────────────────────────────

// FailureError is a classified bootstrap failure.
type FailureError struct {
	Kind Kind
	Err  error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// Failure wraps err with a failure kind.
func Failure(kind Kind, err error) *FailureError {
	return &FailureError{Kind: kind, Err: err}
}

// Failuref is Failure with fmt-style message construction.
func Failuref(kind Kind, format string, args ...interface{}) *FailureError {
	return &FailureError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from err, or KindGeneric.
func KindOf(err error) Kind {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindGeneric
}

// StepError reports which bootstrap step failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// BusError represents a failure talking to the local IPC bus.
type BusError struct {
	Op       string // "claim", "dial", "send", "recv"
	Endpoint string
	Err      error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// ── Exit requests ────────────────────────────────────────────────────

// ExitRequest travels up the bootstrap like an error but is a normal
// termination path: help/version output, daemon parent exit, or
// successful forwarding to a running peer.
type ExitRequest struct {
	Code int
}

func (e *ExitRequest) Error() string {
	return fmt.Sprintf("exit requested (code %d)", e.Code)
}

// Exit returns an ExitRequest with the given process exit code.
func Exit(code int) *ExitRequest { return &ExitRequest{Code: code} }

// ExitCode reports whether err is an exit request and, if so, its code.
func ExitCode(err error) (int, bool) {
	var er *ExitRequest
	if errors.As(err, &er) {
		return er.Code, true
	}
	return 0, false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use this package as a drop-in replacement for
// the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }
