// Package transporttest provides an in-memory NETCONF server for tests.
package transporttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/andaru/ncclient/framing"
	"github.com/andaru/ncclient/rfc6242"
)

// Hello11 is a server <hello> advertising :base:1.0, :base:1.1 and the
// candidate and confirmed-commit capabilities.
const Hello11 = `<?xml version="1.0" encoding="UTF-8"?>
<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <capabilities>
    <capability>urn:ietf:params:netconf:base:1.0</capability>
    <capability>urn:ietf:params:netconf:base:1.1</capability>
    <capability>urn:ietf:params:netconf:capability:candidate:1.0</capability>
    <capability>urn:ietf:params:netconf:capability:confirmed-commit:1.1</capability>
  </capabilities>
  <session-id>4242</session-id>
</hello>
]]>]]>`

// Hello10 is a server <hello> advertising only :base:1.0 and
// writeable-running.
const Hello10 = `<?xml version="1.0" encoding="UTF-8"?>
<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <capabilities>
    <capability>urn:ietf:params:netconf:base:1.0</capability>
    <capability>urn:ietf:params:netconf:capability:writeable-running:1.0</capability>
  </capabilities>
  <session-id>7</session-id>
</hello>
]]>]]>`

// Handler returns the reply document for the rpc document req, which is
// the client's message with framing removed. A nil reply sends nothing.
type Handler func(req []byte) (reply []byte)

var messageID = regexp.MustCompile(`message-id="([^"]*)"`)

// OK replies <ok/> to every request.
func OK(req []byte) []byte {
	id := ""
	if m := messageID.FindSubmatch(req); m != nil {
		id = string(m[1])
	}
	return []byte(fmt.Sprintf(`<rpc-reply message-id="%s" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><ok/></rpc-reply>`, id))
}

// Device is an in-memory NETCONF server implementing transport.Transport.
//
// Writes are processed synchronously: echoed if Echo is set, then each
// complete <rpc> message is answered by Handler.
type Device struct {
	sync.Mutex

	// Hello is sent on Open, verbatim.
	Hello string
	// Echo causes written bytes to be read back.
	Echo bool
	// Combined is returned by CombinedIO; it implies Echo.
	Combined bool
	// EchoRequests echoes only writes holding an <rpc>, so the echo is
	// missed while capabilities are exchanged.
	EchoRequests bool
	// Handler answers requests. OK is used if nil.
	Handler Handler

	mu      sync.Mutex
	cond    *sync.Cond
	out     bytes.Buffer
	in      []byte
	written bytes.Buffer
	chunked bool
	opened  bool
	closed  bool
}

// Open queues the server <hello>.
func (d *Device) Open(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	d.opened = true
	d.out.WriteString(d.Hello)
	d.cond.Broadcast()
	return nil
}

func (d *Device) init() {
	if d.cond == nil {
		d.cond = sync.NewCond(&d.mu)
	}
}

// CombinedIO returns d.Combined.
func (d *Device) CombinedIO() bool { return d.Combined }

// Host returns "device".
func (d *Device) Host() string { return "device" }

// Read blocks until the device has output or is closed.
func (d *Device) Read(b []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	for d.out.Len() == 0 && !d.closed {
		d.cond.Wait()
	}
	if d.out.Len() == 0 {
		return 0, io.EOF
	}
	return d.out.Read(b)
}

// Write delivers b to the device.
func (d *Device) Write(b []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	d.written.Write(b)
	if d.Echo || d.Combined || (d.EchoRequests && bytes.Contains(b, []byte("<rpc "))) {
		d.out.Write(b)
	}
	d.in = append(d.in, b...)
	for {
		msg, rest, ok := framing.Split(d.in, d.chunked)
		if !ok {
			break
		}
		d.in = rest
		d.receive(msg)
	}
	d.cond.Broadcast()
	return len(b), nil
}

func (d *Device) receive(msg []byte) {
	if bytes.Contains(msg, []byte("<hello")) {
		d.chunked = bytes.Contains(msg, []byte(":base:1.1<"))
		return
	}
	req := msg
	if d.chunked {
		var parts [][]byte
		chunks, err := rfc6242.Chunks(msg)
		if err != nil {
			return
		}
		for _, c := range chunks {
			parts = append(parts, c.Data)
		}
		req = bytes.Join(parts, nil)
	} else {
		req = bytes.TrimSuffix(req, framing.TokenEOM)
	}
	h := d.Handler
	if h == nil {
		h = OK
	}
	reply := h(req)
	if reply == nil {
		return
	}
	if d.chunked {
		fmt.Fprintf(&d.out, "\n#%d\n%s\n##\n", len(reply), reply)
	} else {
		fmt.Fprintf(&d.out, "%s]]>]]>\n", reply)
	}
}

// Close closes the device, waking any blocked Read.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.init()
	d.closed = true
	d.cond.Broadcast()
	return nil
}

// Closed returns true once Close has been called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Written returns everything written to the device.
func (d *Device) Written() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written.String()
}
