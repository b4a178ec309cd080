package rpc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andaru/ncclient/message"
	"github.com/andaru/ncclient/ncerr"
	"github.com/andaru/ncclient/session"
	"github.com/andaru/ncclient/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Builder builds requests for a session.
type Builder struct {
	s *session.Session
	// strict rejects unknown datastores rather than warning about them
	strict bool
}

// NewBuilder returns a Builder for requests on s. If strictDatastores is
// false, datastore validation failures are logged and the request is
// built anyway.
func NewBuilder(s *session.Session, strictDatastores bool) *Builder {
	return &Builder{s: s, strict: strictDatastores}
}

// request wraps op in an <rpc> envelope with the next message-id.
func (b *Builder) request(op *xmlutil.Node) *message.Request {
	rpc := xmlutil.Element("rpc", op)
	id := b.s.NextMessageID()
	rpc.SetAttr(xmlutil.XMLName("message-id"), strconv.FormatUint(id, 10))
	rpc.SetAttr(xmlutil.XMLName("xmlns"), session.XMLNSNetconf)
	req := message.NewRequest(id, op.Name.Local, rpc, b.s.Version)
	glog.V(2).Infof("[%s] built %s request %d: %s", b.s.ID, req.Operation, id, req.Document)
	return req
}

// checkDatastore validates name against the allowed datastores.
func (b *Builder) checkDatastore(role, name string, allowed []string) error {
	for _, a := range allowed {
		if a == name {
			return nil
		}
	}
	msg := fmt.Sprintf("'%s' should be one of %v, got '%s'", role, allowed, name)
	return b.datastoreError(&ncerr.DatastoreError{Datastore: name, Role: role, Message: msg})
}

func (b *Builder) datastoreError(e *ncerr.DatastoreError) error {
	if b.strict {
		return errors.WithStack(e)
	}
	glog.Warningf("[%s] %s: %v", b.s.ID, b.s.Host, e)
	return nil
}

// datastore returns <role><name/></role>, or <role><url>name</url></role>
// for a URL.
func datastore(role, name string) *xmlutil.Node {
	if isURL(name) {
		return xmlutil.Element(role, xmlutil.Element("url", xmlutil.Text(name)))
	}
	return xmlutil.Element(role, xmlutil.Element(name))
}

func isURL(s string) bool { return strings.Contains(s, "://") }

func newOptions(opts []Option) *options {
	o := &options{filterType: Subtree}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// filter builds the <filter> element for o, or returns nil if o has no
// filters.
func (b *Builder) filter(o *options) (*xmlutil.Node, error) {
	switch o.filterType {
	case Subtree:
		if len(o.filters) == 0 {
			return nil, nil
		}
		return subtreeFilter(o.filters)
	case XPath:
		if !b.s.ServerCapabilities.Has(session.CapXPath) {
			return nil, ncerr.CapabilityNotSupported(session.CapXPath, "xpath filter requested, but is not supported by the server")
		}
		switch len(o.filters) {
		case 0:
			return nil, nil
		case 1:
			return xmlutil.Element("filter").
				SetAttr(xmlutil.XMLName("type"), string(XPath)).
				SetAttr(xmlutil.XMLName("select"), o.filters[0]), nil
		}
		return nil, ncerr.InvalidArgument("xpath filter takes a single expression, got %d", len(o.filters))
	}
	return nil, ncerr.InvalidArgument("'filter_type' should be one of subtree|xpath, got '%s'", o.filterType)
}

// subtreeFilter combines the subtree filter fragments under one <filter>.
// The children of fragments already wrapped in <filter> are moved into
// it along with their namespace declarations.
func subtreeFilter(filters []string) (*xmlutil.Node, error) {
	f := xmlutil.Element("filter").SetAttr(xmlutil.XMLName("type"), string(Subtree))
	pm := xmlutil.PrefixMap{}
	for _, s := range filters {
		nodes, err := xmlutil.Parse(s)
		if err != nil {
			return nil, ncerr.InvalidArgument("invalid subtree filter: %v", err)
		}
		for _, n := range nodes {
			if n.Name.Local != "filter" {
				f.Append(n)
				continue
			}
			pm.Merge(n.Namespaces())
			defaultNS, hasDefault := n.AttrValue("xmlns")
			for _, c := range n.Children {
				if c.Type == xmlutil.ElementNode && hasDefault {
					if _, ok := c.AttrValue("xmlns"); !ok {
						c.SetAttr(xmlutil.XMLName("xmlns"), defaultNS)
					}
				}
				f.Append(c)
			}
		}
	}
	f.Attr = append(f.Attr, pm.Attr()...)
	return f, nil
}

func (b *Builder) withDefaults(m DefaultsMode) (*xmlutil.Node, error) {
	if m == "" {
		return nil, nil
	}
	if !m.valid() {
		return nil, ncerr.InvalidArgument("'default_type' should be one of report-all|trim|explicit|report-all-tagged, got '%s'", m)
	}
	if !b.s.ServerCapabilities.Has(session.CapWithDefaults) {
		return nil, ncerr.CapabilityNotSupported(session.CapWithDefaults, "with-defaults requested, but is not supported by the server")
	}
	return xmlutil.Element("with-defaults", xmlutil.Text(string(m))).
		SetAttr(xmlutil.XMLName("xmlns"), session.XMLNSWithDefaults), nil
}

// Get builds a <get> request.
func (b *Builder) Get(opts ...Option) (*message.Request, error) {
	o := newOptions(opts)
	op := xmlutil.Element("get")
	f, err := b.filter(o)
	if err != nil {
		return nil, err
	}
	wd, err := b.withDefaults(o.defaults)
	if err != nil {
		return nil, err
	}
	appendNonNil(op, f, wd)
	return b.request(op), nil
}

// GetConfig builds a <get-config> request reading source.
func (b *Builder) GetConfig(source string, opts ...Option) (*message.Request, error) {
	o := newOptions(opts)
	if err := b.checkDatastore("source", source, b.s.Datastores.Readable); err != nil {
		return nil, err
	}
	op := xmlutil.Element("get-config", datastore("source", source))
	f, err := b.filter(o)
	if err != nil {
		return nil, err
	}
	wd, err := b.withDefaults(o.defaults)
	if err != nil {
		return nil, err
	}
	appendNonNil(op, f, wd)
	return b.request(op), nil
}

func appendNonNil(n *xmlutil.Node, children ...*xmlutil.Node) {
	for _, c := range children {
		if c != nil {
			n.Append(c)
		}
	}
}

// EditConfig builds an <edit-config> request applying config, a fragment
// normally holding a <config> element, to target.
func (b *Builder) EditConfig(config, target string) (*message.Request, error) {
	if err := b.checkDatastore("target", target, b.s.Datastores.Writeable); err != nil {
		return nil, err
	}
	nodes, err := xmlutil.Parse(config)
	if err != nil {
		return nil, ncerr.InvalidArgument("invalid config: %v", err)
	}
	op := xmlutil.Element("edit-config", datastore("target", target)).Append(nodes...)
	return b.request(op), nil
}

// DeleteConfig builds a <delete-config> request. The running datastore
// may not be deleted.
func (b *Builder) DeleteConfig(target string) (*message.Request, error) {
	if target == session.Running {
		err := b.datastoreError(&ncerr.DatastoreError{
			Datastore: target, Role: "target",
			Message: "delete-config 'target' may not be 'running'",
		})
		if err != nil {
			return nil, err
		}
	} else if err := b.checkDatastore("target", target, b.s.Datastores.Writeable); err != nil {
		return nil, err
	}
	return b.request(xmlutil.Element("delete-config", datastore("target", target))), nil
}

// Commit builds a <commit> request.
func (b *Builder) Commit(opts ...CommitOption) (*message.Request, error) {
	o := &commitOptions{}
	for _, opt := range opts {
		opt(o)
	}
	switch {
	case o.persist != "" && o.persistID != "":
		return nil, ncerr.InvalidArgument("Invalid combination - 'persist' cannot be present with 'persist-id'")
	case o.confirmed && o.persistID != "":
		return nil, ncerr.InvalidArgument("Invalid combination - 'confirmed' cannot be present with 'persist-id'")
	case !o.confirmed && (o.confirmTimeout > 0 || o.persist != ""):
		return nil, ncerr.InvalidArgument("Invalid combination - 'confirm-timeout' and 'persist' require 'confirmed'")
	}
	if (o.confirmed || o.persistID != "") && !b.s.ServerCapabilities.HasAny(session.CapConfirmedCommit10, session.CapConfirmedCommit11) {
		return nil, ncerr.CapabilityNotSupported(session.CapConfirmedCommit11, "confirmed-commit requested, but is not supported by the server")
	}

	op := xmlutil.Element("commit")
	if o.confirmed {
		op.Append(xmlutil.Element("confirmed"))
		if o.confirmTimeout > 0 {
			op.Append(xmlutil.Element("confirm-timeout", xmlutil.Text(strconv.FormatUint(uint64(o.confirmTimeout), 10))))
		}
		if o.persist != "" {
			op.Append(xmlutil.Element("persist", xmlutil.Text(o.persist)))
		}
	}
	if o.persistID != "" {
		op.Append(xmlutil.Element("persist-id", xmlutil.Text(o.persistID)))
	}
	return b.request(op), nil
}

// Discard builds a <discard-changes> request.
func (b *Builder) Discard() (*message.Request, error) {
	return b.request(xmlutil.Element("discard-changes")), nil
}

// Lock builds a <lock> request.
func (b *Builder) Lock(target string) (*message.Request, error) {
	return b.targeted("lock", target)
}

// Unlock builds an <unlock> request.
func (b *Builder) Unlock(target string) (*message.Request, error) {
	return b.targeted("unlock", target)
}

func (b *Builder) targeted(name, target string) (*message.Request, error) {
	if err := b.checkDatastore("target", target, b.s.Datastores.Writeable); err != nil {
		return nil, err
	}
	return b.request(xmlutil.Element(name, datastore("target", target))), nil
}

// Validate builds a <validate> request. The server must advertise the
// :validate capability.
func (b *Builder) Validate(source string) (*message.Request, error) {
	if !b.s.ServerCapabilities.HasAny(session.CapValidate10, session.CapValidate11) {
		return nil, ncerr.CapabilityNotSupported(session.CapValidate11, "validate requested, but is not supported by the server")
	}
	if err := b.checkDatastore("source", source, b.s.Datastores.Writeable); err != nil {
		return nil, err
	}
	return b.request(xmlutil.Element("validate", datastore("source", source))), nil
}

// CopyConfig builds a <copy-config> request. Either of source and target
// may be a URL.
func (b *Builder) CopyConfig(source, target string) (*message.Request, error) {
	if !isURL(source) {
		if err := b.checkDatastore("source", source, b.s.Datastores.Readable); err != nil {
			return nil, err
		}
	}
	if !isURL(target) {
		if err := b.checkDatastore("target", target, b.s.Datastores.Writeable); err != nil {
			return nil, err
		}
	}
	return b.request(xmlutil.Element("copy-config", datastore("target", target), datastore("source", source))), nil
}

// RPC builds a request for the operation element in fragment.
func (b *Builder) RPC(fragment string) (*message.Request, error) {
	nodes, err := xmlutil.Parse(fragment)
	if err != nil {
		return nil, ncerr.InvalidArgument("invalid rpc: %v", err)
	}
	if len(nodes) != 1 {
		return nil, ncerr.InvalidArgument("rpc must hold one operation element, got %d", len(nodes))
	}
	return b.request(nodes[0]), nil
}

// RPCElement builds a request for the operation element op.
func (b *Builder) RPCElement(op *xmlutil.Node) (*message.Request, error) {
	if op == nil || op.Type != xmlutil.ElementNode {
		return nil, ncerr.InvalidArgument("rpc operation must be an element")
	}
	return b.request(op), nil
}
