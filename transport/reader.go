package transport

import (
	"context"
	"io"
	"sync"
	"time"
)

const readerBufsize = 64 * 1024

// Reader reads from a source in a background goroutine, offering each
// read's bytes to callers which may give up waiting for them.
//
// Transports are read with blocking calls that cannot be cancelled, so a
// caller waiting on a context would otherwise leak a read it no longer
// wants. Reader keeps exactly one read outstanding and hands its result
// to whichever caller asks next.
type Reader struct {
	src  io.Reader
	data chan []byte
	done chan struct{}

	mu   sync.Mutex
	err  error
	once sync.Once
}

// NewReader returns a new Reader, and starts reading from source.
func NewReader(source io.Reader) *Reader {
	if source == nil {
		panic("NewReader: source must be non-nil")
	}
	r := &Reader{src: source, data: make(chan []byte), done: make(chan struct{})}
	go r.pump()
	return r
}

func (r *Reader) pump() {
	defer close(r.data)
	buf := make([]byte, readerBufsize)
	for {
		n, err := r.src.Read(buf)
		if n > 0 {
			b := make([]byte, n)
			copy(b, buf[:n])
			select {
			case r.data <- b:
			case <-r.done:
				return
			}
		}
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			return
		}
	}
}

func (r *Reader) readErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		return io.EOF
	}
	return r.err
}

// Next returns the bytes of the next read from the source. It returns
// ctx.Err() if ctx is done first, or the source's error once the source
// is exhausted.
func (r *Reader) Next(ctx context.Context) ([]byte, error) {
	select {
	case b, ok := <-r.data:
		if !ok {
			return nil, r.readErr()
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait returns the bytes of the next read if they arrive within window,
// else nil.
func (r *Reader) Wait(window time.Duration) []byte {
	t := time.NewTimer(window)
	defer t.Stop()
	select {
	case b := <-r.data:
		return b
	case <-t.C:
		return nil
	}
}

// Close stops the Reader. A read already in progress completes when the
// source is closed.
func (r *Reader) Close() error {
	r.once.Do(func() { close(r.done) })
	return nil
}
