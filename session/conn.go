package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/andaru/ncclient/transport"
)

// Conn performs a Channel's transport I/O.
type Conn interface {
	// Read returns the next bytes available from the transport.
	Read(ctx context.Context) ([]byte, error)
	// Write writes all of b to the transport.
	Write(ctx context.Context, b []byte) error
	// Probe starts waiting up to window for bytes to arrive, returning a
	// function which completes the wait and returns any bytes read.
	Probe(window time.Duration) (await func() []byte)
	Close() error
}

const readSize = 64 * 1024

type readResult struct {
	b   []byte
	err error
}

// blockingConn reads the transport in the calling goroutine.
type blockingConn struct {
	t transport.Transport
	w *transport.Writer

	buf []byte
	// pending is a probe read still outstanding after its window
	pending chan readResult
}

func newBlockingConn(t transport.Transport) *blockingConn {
	return &blockingConn{t: t, w: transport.NewWriter(t), buf: make([]byte, readSize)}
}

// watch closes the transport when ctx is done, which is the only way to
// interrupt a blocked transport read.
func (c *blockingConn) watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() { c.t.Close() })
}

func (c *blockingConn) Read(ctx context.Context) ([]byte, error) {
	defer c.watch(ctx)()
	var r readResult
	if c.pending != nil {
		r = <-c.pending
		c.pending = nil
	} else {
		n, err := c.t.Read(c.buf)
		r = readResult{b: append([]byte(nil), c.buf[:n]...), err: err}
	}
	if len(r.b) > 0 {
		return r.b, nil
	}
	if r.err == nil {
		r.err = io.ErrNoProgress
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, r.err
}

func (c *blockingConn) Write(ctx context.Context, b []byte) error {
	defer c.watch(ctx)()
	_, err := c.w.Write(b)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *blockingConn) Probe(window time.Duration) func() []byte {
	deadline := time.Now().Add(window)
	ch := make(chan readResult, 1)
	c.pending = ch
	go func() {
		buf := make([]byte, readSize)
		n, err := c.t.Read(buf)
		ch <- readResult{b: buf[:n], err: err}
	}()
	return func() []byte {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		select {
		case r := <-ch:
			if len(r.b) > 0 {
				c.pending = nil
				return r.b
			}
			// hand the error to the next Read
			ch <- r
			return nil
		case <-t.C:
			return nil
		}
	}
}

func (c *blockingConn) Close() error { return nil }

// asyncConn reads the transport in a background goroutine.
type asyncConn struct {
	t transport.Transport
	w *transport.Writer

	mu sync.Mutex
	r  *transport.Reader
}

func newAsyncConn(t transport.Transport) *asyncConn {
	return &asyncConn{t: t, w: transport.NewWriter(t)}
}

// reader starts the read pump on first use, after the transport is open.
func (c *asyncConn) reader() *transport.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.r == nil {
		c.r = transport.NewReader(c.t)
	}
	return c.r
}

func (c *asyncConn) Read(ctx context.Context) ([]byte, error) {
	return c.reader().Next(ctx)
}

func (c *asyncConn) Write(ctx context.Context, b []byte) error {
	done := make(chan error, 1)
	go func() {
		_, err := c.w.Write(b)
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		c.t.Close()
		return ctx.Err()
	}
}

func (c *asyncConn) Probe(window time.Duration) func() []byte {
	deadline := time.Now().Add(window)
	r := c.reader()
	return func() []byte { return r.Wait(time.Until(deadline)) }
}

func (c *asyncConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.r == nil {
		return nil
	}
	return c.r.Close()
}
