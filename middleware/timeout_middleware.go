package middleware

import (
	"context"
	"time"

	"github.com/95rangerxlt/jabref/message"
)

// TimeoutMiddleware bounds the wait for a response. When the deadline expires
// the in-flight future resolves with context.DeadlineExceeded and the
// transport's correlation slot is freed, so the channel stays usable — the
// host is an external process and may simply never answer.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request string) (message.Message, error) {
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, request)
		}
	}
}
