package middleware

import (
	"context"
	"log"
	"time"

	"github.com/95rangerxlt/jabref/message"
)

func LoggingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, request string) (message.Message, error) {
			start := time.Now()
			msg, err := next(ctx, request)
			// Print the request size and the time taken, and the error if any.
			// The payload itself is not logged: it is caller data of
			// arbitrary size.
			duration := time.Since(start)
			log.Printf("Request: %d bytes, Duration: %s", len(request), duration)
			if err != nil {
				log.Printf("Error: %v", err)
			}
			return msg, err
		}
	}
}
