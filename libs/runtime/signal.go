package runtime

import (
	"context"
	"os/signal"
	"syscall"
)

// SignalContext is the root context of a service process. It ends on
// SIGINT or SIGTERM; everything long-running hangs off it.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
