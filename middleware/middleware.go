// Package middleware provides composable decorators for the client's blocking
// call path (send a request, wait for the response).
//
// A middleware wraps a HandlerFunc and may act before and/or after the call:
//
//	Chain(A, B, C)(handler) → A(B(C(handler)))
//	Execution order: A.before → B.before → C.before → call → C.after → B.after → A.after
package middleware

import (
	"context"

	"github.com/95rangerxlt/jabref/message"
)

// HandlerFunc performs one request/response exchange: request is the JSON
// text to send, the result is the host's decoded response.
type HandlerFunc func(ctx context.Context, request string) (message.Message, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines multiple middlewares into one, applied in the given order.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
