package httpapi

import (
	"context"
)

// serverBaseCtx is the daemon-lifetime context. Canceling it (on shutdown)
// aborts in-flight loads and generations alongside per-request cancellation.
var serverBaseCtx = context.Background()

// SetBaseContext installs the daemon-lifetime context; nil resets to
// Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context canceled when either parent is done, so a
// handler stops on client disconnect or daemon shutdown, whichever comes
// first. The returned cancel must be called to release the watcher goroutine.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
			cancel()
		case <-b.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
