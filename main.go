// vlc - multimedia engine bootstrap with single-instance coordination.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/schokhani1999/vlc/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(cmd.Execute(ctx, os.Args[1:]))
}
