//go:build !unix

package daemon

import "errors"

// Daemonize is unsupported outside unix-like systems.
func Daemonize() (Outcome, error) {
	return Failed, errors.New("daemon mode is not supported on this platform")
}
