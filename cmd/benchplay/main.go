package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/benchplay/internal/prompt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	o := &rootOptions{}
	err := newRootCmd(o).ExecuteContext(ctx)
	o.close()
	stop()

	os.Exit(exitCode(err, os.Stderr))
}

// exitCode reports err on stderr. Cancellation is silent.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, prompt.ErrCancelled), errors.Is(err, context.Canceled):
		return 0
	default:
		fmt.Fprintf(stderr, "benchplay: %v\n", err)
		return 1
	}
}
