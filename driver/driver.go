package driver

import (
	"context"
	"sync"

	"github.com/andaru/ncclient/message"
	"github.com/andaru/ncclient/rpc"
	"github.com/andaru/ncclient/session"
	"github.com/andaru/ncclient/transport"
	"github.com/andaru/ncclient/xmlutil"
)

// Driver is a NETCONF client performing operations in the calling
// goroutine. Operations are serialized.
type Driver struct {
	*base
	mu sync.Mutex
}

// New returns a new Driver using the transport named by o.Transport.
func New(o Options) (*Driver, error) {
	t, err := transport.New(o.Transport, o.transportConfig())
	if err != nil {
		return nil, err
	}
	return NewWithTransport(t, o)
}

// NewWithTransport returns a new Driver using t.
func NewWithTransport(t transport.Transport, o Options) (*Driver, error) {
	b, err := newBase(t, o, session.NewBlockingChannel)
	if err != nil {
		return nil, err
	}
	return &Driver{base: b}, nil
}

// Open opens the transport and exchanges capabilities.
func (d *Driver) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open(context.Background())
}

// Close closes the session and its transport. An operation in progress
// fails once the transport is closed.
func (d *Driver) Close() error {
	terr := d.t.Close()
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.close(); err != nil {
		return err
	}
	return terr
}

func (d *Driver) do(build func() (*message.Request, error)) (*message.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.base.do(context.Background(), build)
}

// Get retrieves state and configuration data, optionally filtered by
// filter.
func (d *Driver) Get(filter string, opts ...rpc.Option) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.Get(withFilter(filter, opts)...) })
}

// GetConfig retrieves the configuration in source.
func (d *Driver) GetConfig(source string, opts ...rpc.Option) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.GetConfig(source, opts...) })
}

// EditConfig applies config to target.
func (d *Driver) EditConfig(config, target string) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.EditConfig(config, target) })
}

// DeleteConfig deletes the target datastore.
func (d *Driver) DeleteConfig(target string) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.DeleteConfig(target) })
}

// Commit commits the candidate configuration.
func (d *Driver) Commit(opts ...rpc.CommitOption) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.Commit(opts...) })
}

// Discard discards uncommitted candidate changes.
func (d *Driver) Discard() (*message.Response, error) {
	return d.do(d.b.Discard)
}

// Lock locks target.
func (d *Driver) Lock(target string) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.Lock(target) })
}

// Unlock unlocks target.
func (d *Driver) Unlock(target string) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.Unlock(target) })
}

// Validate validates the configuration in source.
func (d *Driver) Validate(source string) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.Validate(source) })
}

// CopyConfig copies the configuration in source to target.
func (d *Driver) CopyConfig(source, target string) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.CopyConfig(source, target) })
}

// RPC sends the operation element in fragment.
func (d *Driver) RPC(fragment string) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.RPC(fragment) })
}

// RPCElement sends the operation element op.
func (d *Driver) RPCElement(op *xmlutil.Node) (*message.Response, error) {
	return d.do(func() (*message.Request, error) { return d.b.RPCElement(op) })
}
