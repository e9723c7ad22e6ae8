package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/95rangerxlt/jabref/message"
)

// RateLimitMiddleware throttles outgoing requests with a token bucket.
// Wait (rather than Allow) is used so that a burst of callers is delayed in
// arrival order instead of rejected — the channel serializes requests anyway,
// and send order must match issue order.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request string) (message.Message, error) {
			if ctx == nil {
				ctx = context.Background()
			}
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return next(ctx, request)
		}
	}
}
