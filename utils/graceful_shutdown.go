package utils

import (
	"context"
)

// GracefulShutdown waits for ctx to be cancelled (SIGINT/SIGTERM through
// signal.NotifyContext) and runs cleanup once before releasing cancel.
func GracefulShutdown(ctx context.Context, cancel context.CancelFunc, cleanup func()) {
	<-ctx.Done()
	if cleanup != nil {
		cleanup()
	}
	cancel()
}
