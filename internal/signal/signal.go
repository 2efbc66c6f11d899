// Package signal wires interrupt handling into command contexts.
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context cancelled on SIGINT or SIGTERM, so a
// long server call aborts cleanly on ctrl+c. Callers must invoke the
// stop function when done.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
