package transport

import (
	"io"

	"github.com/pkg/errors"
)

// WriteSize is the largest single write issued to the destination.
const WriteSize = 64 * 1024

// Writer writes complete messages to a transport.
//
// Messages larger than WriteSize are written in pieces, since some SSH
// servers stall on very large channel writes.
type Writer struct {
	dst io.Writer
}

// NewWriter returns a new Writer writing to dst.
func NewWriter(dst io.Writer) *Writer { return &Writer{dst: dst} }

// Write writes all of b, returning io.ErrShortWrite if the destination
// accepts fewer bytes than it was given without reporting an error.
func (w *Writer) Write(b []byte) (n int, err error) {
	for n < len(b) {
		end := n + WriteSize
		if end > len(b) {
			end = len(b)
		}
		var wrote int
		wrote, err = w.dst.Write(b[n:end])
		short := wrote < end-n
		n += wrote
		if err != nil {
			return n, errors.Wrap(err, "transport write")
		}
		if short {
			return n, io.ErrShortWrite
		}
	}
	return n, nil
}
