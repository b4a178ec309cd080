package driver

import (
	"context"
	"time"

	"github.com/andaru/ncclient/message"
	"github.com/andaru/ncclient/rfc6242"
	"github.com/andaru/ncclient/rpc"
	"github.com/andaru/ncclient/session"
	"github.com/andaru/ncclient/transport"
	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"
)

// base holds the state shared by both driver flavors.
type base struct {
	opts      Options
	preferred rfc6242.Version

	t  transport.Transport
	s  *session.Session
	ch *session.Channel
	b  *rpc.Builder
}

func newBase(t transport.Transport, o Options, newChannel func(*session.Session, transport.Transport, time.Duration) *session.Channel) (*base, error) {
	preferred, err := rfc6242.ParseVersion(o.PreferredVersion)
	if err != nil {
		return nil, err
	}
	s := session.New(t.Host(), o.MessageIDBase)
	return &base{
		opts:      o,
		preferred: preferred,
		t:         t,
		s:         s,
		ch:        newChannel(s, t, o.TimeoutTransport/20),
		b:         rpc.NewBuilder(s, o.StrictDatastores),
	}, nil
}

// opContext bounds ctx by TimeoutOps.
func (d *base) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.opts.TimeoutOps <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.opts.TimeoutOps)
}

func (d *base) open(ctx context.Context) error {
	ctx, cancel := d.opContext(ctx)
	defer cancel()
	glog.Infof("[%s] opening connection to %s", d.s.ID, d.t.Host())
	if err := d.t.Open(ctx); err != nil {
		return err
	}
	if err := d.ch.Open(ctx, d.preferred); err != nil {
		return err
	}
	glog.Infof("[%s] connection to %s opened successfully", d.s.ID, d.t.Host())
	return nil
}

func (d *base) close() error {
	var merr *multierror.Error
	if err := d.ch.Close(); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := d.t.Close(); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// do builds a request and performs the request/reply cycle.
func (d *base) do(ctx context.Context, build func() (*message.Request, error)) (*message.Response, error) {
	if err := d.s.Err(); err != nil {
		return nil, err
	}
	req, err := build()
	if err != nil {
		return nil, err
	}
	ctx, cancel := d.opContext(ctx)
	defer cancel()
	resp := message.NewResponse(req, d.s.Version, d.opts.responseOptions(d.t.Host())...)
	raw, err := d.ch.SendInput(ctx, req.Payload)
	if err != nil {
		return nil, err
	}
	if err := resp.Record(raw); err != nil {
		return nil, err
	}
	glog.V(1).Infof("[%s] %v", d.s.ID, resp)
	return resp, nil
}

// Session returns the session state.
func (d *base) Session() *session.Session { return d.s }

// Version returns the negotiated protocol version.
func (d *base) Version() rfc6242.Version { return d.s.Version }

// ServerCapabilities returns the capabilities the server advertised.
func (d *base) ServerCapabilities() session.Capabilities { return d.s.ServerCapabilities }

func withFilter(filter string, opts []rpc.Option) []rpc.Option {
	if filter == "" {
		return opts
	}
	return append([]rpc.Option{rpc.WithFilter(filter)}, opts...)
}
