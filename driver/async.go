package driver

import (
	"context"

	"github.com/andaru/ncclient/message"
	"github.com/andaru/ncclient/rpc"
	"github.com/andaru/ncclient/session"
	"github.com/andaru/ncclient/transport"
	"github.com/andaru/ncclient/xmlutil"
)

// AsyncDriver is a NETCONF client whose operations return when their
// context is done. One operation runs at a time; others wait their turn
// or until their context is done.
type AsyncDriver struct {
	*base
	sem chan struct{}
}

// NewAsync returns a new AsyncDriver using the transport named by
// o.Transport.
func NewAsync(o Options) (*AsyncDriver, error) {
	t, err := transport.New(o.Transport, o.transportConfig())
	if err != nil {
		return nil, err
	}
	return NewAsyncWithTransport(t, o)
}

// NewAsyncWithTransport returns a new AsyncDriver using t.
func NewAsyncWithTransport(t transport.Transport, o Options) (*AsyncDriver, error) {
	b, err := newBase(t, o, session.NewAsyncChannel)
	if err != nil {
		return nil, err
	}
	return &AsyncDriver{base: b, sem: make(chan struct{}, 1)}, nil
}

func (d *AsyncDriver) acquire(ctx context.Context) error {
	select {
	case d.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *AsyncDriver) release() { <-d.sem }

// Open opens the transport and exchanges capabilities.
func (d *AsyncDriver) Open(ctx context.Context) error {
	if err := d.acquire(ctx); err != nil {
		return err
	}
	defer d.release()
	return d.open(ctx)
}

// Close closes the session and its transport. It does not wait for an
// operation in progress, which fails once the transport is closed.
func (d *AsyncDriver) Close() error { return d.close() }

func (d *AsyncDriver) do(ctx context.Context, build func() (*message.Request, error)) (*message.Response, error) {
	if err := d.acquire(ctx); err != nil {
		return nil, err
	}
	defer d.release()
	return d.base.do(ctx, build)
}

// Get retrieves state and configuration data, optionally filtered by
// filter.
func (d *AsyncDriver) Get(ctx context.Context, filter string, opts ...rpc.Option) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.Get(withFilter(filter, opts)...) })
}

// GetConfig retrieves the configuration in source.
func (d *AsyncDriver) GetConfig(ctx context.Context, source string, opts ...rpc.Option) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.GetConfig(source, opts...) })
}

// EditConfig applies config to target.
func (d *AsyncDriver) EditConfig(ctx context.Context, config, target string) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.EditConfig(config, target) })
}

// DeleteConfig deletes the target datastore.
func (d *AsyncDriver) DeleteConfig(ctx context.Context, target string) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.DeleteConfig(target) })
}

// Commit commits the candidate configuration.
func (d *AsyncDriver) Commit(ctx context.Context, opts ...rpc.CommitOption) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.Commit(opts...) })
}

// Discard discards uncommitted candidate changes.
func (d *AsyncDriver) Discard(ctx context.Context) (*message.Response, error) {
	return d.do(ctx, d.b.Discard)
}

// Lock locks target.
func (d *AsyncDriver) Lock(ctx context.Context, target string) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.Lock(target) })
}

// Unlock unlocks target.
func (d *AsyncDriver) Unlock(ctx context.Context, target string) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.Unlock(target) })
}

// Validate validates the configuration in source.
func (d *AsyncDriver) Validate(ctx context.Context, source string) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.Validate(source) })
}

// CopyConfig copies the configuration in source to target.
func (d *AsyncDriver) CopyConfig(ctx context.Context, source, target string) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.CopyConfig(source, target) })
}

// RPC sends the operation element in fragment.
func (d *AsyncDriver) RPC(ctx context.Context, fragment string) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.RPC(fragment) })
}

// RPCElement sends the operation element op.
func (d *AsyncDriver) RPCElement(ctx context.Context, op *xmlutil.Node) (*message.Response, error) {
	return d.do(ctx, func() (*message.Request, error) { return d.b.RPCElement(op) })
}
