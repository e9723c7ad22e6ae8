// Package transport implements the client-side channel over the two native
// messaging streams: a serialized send path and a single read loop.
//
// The protocol has no correlation IDs, so ordering is the only way to match a
// response to its request: at most one request may be awaiting a response at
// any time, and the next inbound frame read while that slot is occupied IS the
// response. A background goroutine (readLoop) is the sole reader of the
// inbound stream and routes every frame it reads:
//
//	caller ──SendAsync──→ pending slot ──→ outbound stream ──→ host
//
//	readLoop: ←── frame ── slot occupied? → resolve the pending future
//	                       slot empty?    → publish to the push hub
//
// Why a single goroutine for reading? The stream is a byte sequence — reads
// must be sequential to correctly parse frame boundaries. A second reader
// (e.g. a separate "push listener" loop) would corrupt the stream.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/95rangerxlt/jabref/message"
	"github.com/95rangerxlt/jabref/protocol"
	"github.com/95rangerxlt/jabref/push"
)

var (
	// ErrRequestPending is returned by SendAsync when a request is already
	// awaiting its response. The caller must wait for the outstanding future
	// to resolve before issuing the next request.
	ErrRequestPending = errors.New("transport: a request is already awaiting its response")

	// ErrChannelClosed is returned once the inbound stream has ended. The
	// transport is terminal at that point; every later send fails with it.
	ErrChannelClosed = errors.New("transport: native messaging channel closed")
)

// Response is the resolution of one asynchronous request: either the decoded
// response message or the error that ended the wait (decode failure, channel
// closed, context expired).
type Response struct {
	Message message.Message
	Err     error
}

// Flusher is implemented by buffered writers (e.g. *bufio.Writer). When the
// outbound stream implements it, every frame is flushed immediately after the
// write — the host must see complete frames, not buffered fragments.
type Flusher interface {
	Flush() error
}

// pendingRequest is the single in-flight correlation slot.
// resolve must be called exactly once, by whoever removed the request from
// the slot while holding the transport mutex.
type pendingRequest struct {
	resp chan Response // buffered 1; the future handed to the caller
	done chan struct{} // closed after resolution; releases the context watcher
}

func (p *pendingRequest) resolve(r Response) {
	p.resp <- r
	close(p.done)
}

// ChannelTransport owns the two byte streams of one native messaging channel.
// The streams must be open when the transport is created and are not closed by
// it; whoever spawned the host process owns their lifetime.
type ChannelTransport struct {
	in  io.Reader
	out io.Writer
	hub *push.Hub

	sending sync.Mutex // write lock — frames must not interleave on out

	mu       sync.Mutex      // guards pending, closed, closeErr
	pending  *pendingRequest // nil when no request is awaiting a response
	closed   bool
	closeErr error
}

// NewChannelTransport creates a transport over the given streams and starts
// the read loop goroutine. The read loop is the only reader of in and runs
// until the stream ends.
func NewChannelTransport(in io.Reader, out io.Writer, hub *push.Hub) *ChannelTransport {
	t := &ChannelTransport{
		in:  in,
		out: out,
		hub: hub,
	}
	go t.readLoop()
	return t
}

// Send encodes text as one frame and writes it to the outbound stream,
// flushing immediately. It blocks only on the write; it does not wait for any
// response. Write errors are returned as-is and never retried.
func (t *ChannelTransport) Send(text string) error {
	t.sending.Lock()
	defer t.sending.Unlock()

	if err := t.closedErr(); err != nil {
		return err
	}
	if err := protocol.Encode(t.out, text); err != nil {
		return err
	}
	if f, ok := t.out.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// SendAsync sends text as a request and returns a future that resolves with
// the next inbound frame. The returned channel receives exactly one Response.
//
// At most one request may be in flight: a second SendAsync before the first
// future resolves fails synchronously with ErrRequestPending rather than
// interleaving — with no correlation IDs on the wire, overlapping requests
// would make responses unattributable.
//
// If ctx carries a deadline or is cancelled before the response arrives, the
// future resolves with ctx.Err() and the slot is freed. The host's late
// response, if it ever comes, is then indistinguishable from a push message
// and will be routed to the push hub.
func (t *ChannelTransport) SendAsync(ctx context.Context, text string) (<-chan Response, error) {
	p := &pendingRequest{
		resp: make(chan Response, 1),
		done: make(chan struct{}),
	}

	// Occupy the slot BEFORE writing, so the read loop can never see the
	// response frame while the slot is still empty.
	t.mu.Lock()
	if t.closed {
		err := t.closeErr
		t.mu.Unlock()
		return nil, err
	}
	if t.pending != nil {
		t.mu.Unlock()
		return nil, ErrRequestPending
	}
	t.pending = p
	t.mu.Unlock()

	if err := t.Send(text); err != nil {
		// The request never reached the wire; free the slot.
		t.clear(p)
		return nil, err
	}

	if ctx != nil && ctx.Done() != nil {
		go t.watchContext(ctx, p)
	}
	return p.resp, nil
}

// Call is the blocking form of SendAsync: send text, wait for the future.
func (t *ChannelTransport) Call(ctx context.Context, text string) (message.Message, error) {
	ch, err := t.SendAsync(ctx, text)
	if err != nil {
		return nil, err
	}
	resp := <-ch
	return resp.Message, resp.Err
}

// Closed reports whether the inbound stream has ended.
func (t *ChannelTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *ChannelTransport) closedErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return t.closeErr
	}
	return nil
}

// take removes and returns the pending request, or nil if the slot is empty.
// The caller owns resolution of the returned request.
func (t *ChannelTransport) take() *pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.pending
	t.pending = nil
	return p
}

// clear frees the slot only if p still occupies it. Reports whether p was
// removed; false means the read loop (or the context watcher) got there first
// and owns resolution.
func (t *ChannelTransport) clear(p *pendingRequest) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == p {
		t.pending = nil
		return true
	}
	return false
}

func (t *ChannelTransport) watchContext(ctx context.Context, p *pendingRequest) {
	select {
	case <-ctx.Done():
		if t.clear(p) {
			p.resolve(Response{Err: ctx.Err()})
		}
	case <-p.done:
	}
}

// readLoop runs in a dedicated goroutine for the transport's lifetime,
// reading one frame at a time from the inbound stream.
//
// Routing per frame:
//   - request pending → the frame (decoded message or decode error) resolves it
//   - no request, frame decoded → published to the push hub
//   - no request, decode failed → logged and dropped; malformed push data has
//     no addressee
//
// The loop ends only when the stream itself ends; that terminal condition is
// propagated to any pending request and to all future sends.
func (t *ChannelTransport) readLoop() {
	for {
		msg, err := protocol.Decode(t.in)
		if err != nil {
			if protocol.IsClosed(err) {
				t.shutdown(err)
				return
			}
			if p := t.take(); p != nil {
				p.resolve(Response{Err: err})
			} else {
				log.Printf("transport: dropping undecodable push frame: %v", err)
			}
			continue
		}
		if p := t.take(); p != nil {
			p.resolve(Response{Message: msg})
		} else {
			t.hub.Publish(msg)
		}
	}
}

// shutdown marks the transport terminally closed and fails the pending
// request, if any, with the close error.
func (t *ChannelTransport) shutdown(cause error) {
	closeErr := fmt.Errorf("%w: %v", ErrChannelClosed, cause)

	t.mu.Lock()
	t.closed = true
	t.closeErr = closeErr
	p := t.pending
	t.pending = nil
	t.mu.Unlock()

	if p != nil {
		p.resolve(Response{Err: closeErr})
	}
}
