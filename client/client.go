// Package client composes the transport, the push hub and the middleware chain
// behind the public native messaging surface: Send, SendAsync, Call and push
// listener registration.
package client

import (
	"context"
	"io"
	"time"

	"github.com/95rangerxlt/jabref/message"
	"github.com/95rangerxlt/jabref/middleware"
	"github.com/95rangerxlt/jabref/push"
	"github.com/95rangerxlt/jabref/transport"
)

// Client is the caller-facing handle for one native messaging channel.
type Client struct {
	transport   *transport.ChannelTransport
	hub         *push.Hub
	handler     middleware.HandlerFunc
	middlewares []middleware.Middleware
}

type Option func(*Client)

// WithMiddleware appends middlewares to the Call chain, applied in the order
// they are added.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mws...)
	}
}

// WithTimeout bounds every Call with a per-request deadline.
func WithTimeout(timeout time.Duration) Option {
	return WithMiddleware(middleware.TimeoutMiddleware(timeout))
}

// WithRateLimit throttles Calls with a token bucket of r requests per second
// and the given burst.
func WithRateLimit(r float64, burst int) Option {
	return WithMiddleware(middleware.RateLimitMiddleware(r, burst))
}

// NewClient creates a client over the given streams and starts its read loop.
// The streams must already be open and must outlive the client; spawning the
// host process and keeping its pipes alive is the process manager's job, not
// the client's.
func NewClient(in io.Reader, out io.Writer, opts ...Option) *Client {
	hub := push.NewHub()
	c := &Client{
		transport: transport.NewChannelTransport(in, out, hub),
		hub:       hub,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Build the handler chain once at construction (not per-call).
	c.handler = middleware.Chain(c.middlewares...)(func(ctx context.Context, request string) (message.Message, error) {
		return c.transport.Call(ctx, request)
	})
	return c
}

// Send writes text as one frame to the host without waiting for a response.
func (c *Client) Send(text string) error {
	return c.transport.Send(text)
}

// SendAsync sends text as a request and returns the future for its response.
// It bypasses the middleware chain; use Call for the decorated blocking form.
func (c *Client) SendAsync(ctx context.Context, text string) (<-chan transport.Response, error) {
	return c.transport.SendAsync(ctx, text)
}

// Call sends text and blocks until the host's response arrives, running the
// configured middleware chain around the exchange.
func (c *Client) Call(ctx context.Context, text string) (message.Message, error) {
	return c.handler(ctx, text)
}

// AddPushListener registers fn to receive every future push message. The
// returned token removes the listener via RemovePushListener.
func (c *Client) AddPushListener(fn push.Listener) string {
	return c.hub.Subscribe(fn)
}

// RemovePushListener removes a listener registered by AddPushListener.
func (c *Client) RemovePushListener(token string) bool {
	return c.hub.Unsubscribe(token)
}

// PushMessage returns the most recent push message, or false if the host has
// not pushed anything yet.
func (c *Client) PushMessage() (message.Message, bool) {
	return c.hub.Current()
}

// Closed reports whether the channel has terminally closed (inbound stream
// ended). All sends fail immediately once closed.
func (c *Client) Closed() bool {
	return c.transport.Closed()
}
