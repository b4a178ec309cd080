package session

import (
	"bytes"
	"context"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/andaru/ncclient/framing"
	"github.com/andaru/ncclient/ncerr"
	"github.com/andaru/ncclient/rfc6242"
	"github.com/andaru/ncclient/transport"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Channel runs the NETCONF session protocol over a transport.
type Channel struct {
	*Session

	t           transport.Transport
	conn        Conn
	probeWindow time.Duration
	open        atomic.Bool
	// overflow holds bytes read past the end of the last message
	overflow []byte
}

// NewBlockingChannel returns a Channel reading t in the calling goroutine.
// Echo probes wait for probeWindow.
func NewBlockingChannel(s *Session, t transport.Transport, probeWindow time.Duration) *Channel {
	return &Channel{Session: s, t: t, conn: newBlockingConn(t), probeWindow: probeWindow}
}

// NewAsyncChannel returns a Channel reading t in a background goroutine.
// Echo probes wait for probeWindow.
func NewAsyncChannel(s *Session, t transport.Transport, probeWindow time.Duration) *Channel {
	return &Channel{Session: s, t: t, conn: newAsyncConn(t), probeWindow: probeWindow}
}

var (
	helloEnd    = []byte("</hello>")
	rpcEnd      = []byte("</rpc>")
	endOfChunks = []byte("##")
	newline     = []byte("\n")

	// echoedInput matches a message holding client input rather than a
	// reply: its first element is <rpc> or <hello>, not <rpc-reply>.
	echoedInput = regexp.MustCompile(`\A\s*(?:#\d+\s+)?(?:<\?xml[^>]*\?>\s*)?<(\w+:)?(rpc|hello)[\s/>]`)
)

// Open exchanges capabilities on the open transport, negotiating the
// protocol version (preferring preferred, if set) and the echo state.
func (c *Channel) Open(ctx context.Context, preferred rfc6242.Version) error {
	c.t.Lock()
	defer c.t.Unlock()

	raw, err := c.readUntil(ctx, "reading server capabilities", func(b []byte) (int, bool) {
		return framing.EndOfMessage(b, false)
	})
	if err != nil {
		return err
	}
	glog.V(2).Infof("[%s] server capabilities: %q", c.ID, raw)
	hello, err := ParseServerHello(raw)
	if err != nil {
		return c.Fail(err)
	}
	v, err := Negotiate(hello.Capabilities, preferred)
	if err != nil {
		return c.Fail(err)
	}
	c.Negotiated(hello, v)

	var await func() []byte
	if c.t.CombinedIO() {
		c.Echo = Echoes
	} else {
		await = c.conn.Probe(c.probeWindow)
	}
	if err := c.write(ctx, "sending client capabilities", ClientHello(v)); err != nil {
		return err
	}
	if await != nil {
		if b := await(); len(b) > 0 {
			c.Echo = Echoes
			c.overflow = append(c.overflow, b...)
		} else {
			c.Echo = DoesNotEcho
		}
	}
	glog.V(1).Infof("[%s] %s session-id %d version %s transport %s", c.ID, c.Host, c.SessionID, v, c.Echo)

	if c.Echo == Echoes {
		if err := c.consumeEcho(ctx, helloEnd, framing.TokenEOM); err != nil {
			return err
		}
	}
	c.open.Store(true)
	return nil
}

// SendInput writes the framed request payload and returns the raw reply,
// including its framing.
func (c *Channel) SendInput(ctx context.Context, payload []byte) ([]byte, error) {
	if !c.open.Load() {
		return nil, errors.WithStack(ncerr.ErrNotOpen)
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	c.t.Lock()
	defer c.t.Unlock()

	if err := c.write(ctx, "sending request", payload); err != nil {
		return nil, err
	}
	if c.Echo == Echoes {
		term := framing.TokenEOM
		if c.Version.Chunked() {
			term = endOfChunks
		}
		if err := c.consumeEcho(ctx, rpcEnd, term); err != nil {
			return nil, err
		}
	}
	chunked := c.Version.Chunked()
	for {
		raw, err := c.readUntil(ctx, "reading reply", func(b []byte) (int, bool) {
			return framing.EndOfMessage(b, chunked)
		})
		if err != nil {
			return nil, err
		}
		if echoedInput.Match(raw) {
			// input echoed after the probe window closed
			glog.V(1).Infof("[%s] discarding echoed input: %q", c.ID, raw)
			continue
		}
		glog.V(2).Infof("[%s] read: %q", c.ID, raw)
		return raw, nil
	}
}

// Close stops channel I/O. It does not close the transport.
func (c *Channel) Close() error {
	c.open.Store(false)
	return c.conn.Close()
}

// write writes b followed by a newline.
func (c *Channel) write(ctx context.Context, op string, b []byte) error {
	glog.V(2).Infof("[%s] write: %q", c.ID, b)
	if err := c.conn.Write(ctx, b); err != nil {
		return c.fail(op, err)
	}
	if err := c.conn.Write(ctx, newline); err != nil {
		return c.fail(op, err)
	}
	return nil
}

// consumeEcho discards echoed input up to and including term following
// anchor.
func (c *Channel) consumeEcho(ctx context.Context, anchor, term []byte) error {
	echo, err := c.readUntil(ctx, "reading echoed input", func(b []byte) (int, bool) {
		i := bytes.Index(b, anchor)
		if i < 0 {
			return 0, false
		}
		i += len(anchor)
		end, ok := framing.Index(b[i:], term)
		return i + end, ok
	})
	if err == nil {
		glog.V(2).Infof("[%s] echo: %q", c.ID, echo)
	}
	return err
}

// readUntil reads until end reports a complete message in the bytes read,
// returning the message and retaining the remainder.
func (c *Channel) readUntil(ctx context.Context, op string, end func([]byte) (int, bool)) ([]byte, error) {
	buf := c.overflow
	c.overflow = nil
	for {
		if n, ok := end(buf); ok {
			if n < len(buf) {
				c.overflow = append([]byte(nil), buf[n:]...)
			}
			return buf[:n], nil
		}
		b, err := c.conn.Read(ctx)
		if err != nil {
			c.overflow = buf
			return nil, c.fail(op, err)
		}
		buf = append(buf, b...)
	}
}

// fail marks the session unusable; the stream position is unknown after
// any I/O error.
func (c *Channel) fail(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = &ncerr.TimeoutError{Op: op}
	}
	err = errors.WithStack(err)
	glog.Errorf("[%s] %s: %s: %v", c.ID, c.Host, op, err)
	return c.Fail(err)
}
