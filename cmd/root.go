// Package cmd drives one engine instance through its lifecycle:
// bootstrap, main interface loop, cleanup, destroy.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schokhani1999/vlc/internal/core"
	vlcerrors "github.com/schokhani1999/vlc/internal/errors"
)

// Exit codes at the process boundary.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Execute runs the full lifecycle over args and returns the process
// exit code.  Help, version, daemon-parent and forwarding paths all
// come back as exit requests carrying their own code; anything else
// that fails maps to ExitFailure.
func Execute(ctx context.Context, args []string) int {
	inst := core.New()

	if err := inst.Init(ctx, args); err != nil {
		// The instance already unwound and destroyed itself.
		if code, ok := vlcerrors.ExitCode(err); ok {
			return code
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", inst.Name, err)
		return ExitFailure
	}

	runErr := inst.RunInterface(ctx)

	inst.Cleanup()
	inst.Destroy()

	if runErr != nil && !vlcerrors.Is(runErr, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", inst.Name, runErr)
		return ExitFailure
	}
	return ExitSuccess
}
