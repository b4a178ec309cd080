package session

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/andaru/ncclient/ncerr"
	"github.com/andaru/ncclient/rfc6242"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Capability URIs referenced by the client.
const (
	CapBase10            = "urn:ietf:params:netconf:base:1.0"
	CapBase11            = "urn:ietf:params:netconf:base:1.1"
	CapCandidate         = "urn:ietf:params:netconf:capability:candidate:1.0"
	CapStartup           = "urn:ietf:params:netconf:capability:startup:1.0"
	CapWriteableRunning  = "urn:ietf:params:netconf:capability:writeable-running:1.0"
	CapWritableRunning   = "urn:ietf:params:netconf:capability:writable-running:1.0" // IOS-XE spelling
	CapConfirmedCommit10 = "urn:ietf:params:netconf:capability:confirmed-commit:1.0"
	CapConfirmedCommit11 = "urn:ietf:params:netconf:capability:confirmed-commit:1.1"
	CapValidate10        = "urn:ietf:params:netconf:capability:validate:1.0"
	CapValidate11        = "urn:ietf:params:netconf:capability:validate:1.1"
	CapXPath             = "urn:ietf:params:netconf:capability:xpath:1.0"
	CapWithDefaults      = "urn:ietf:params:netconf:capability:with-defaults:1.0"

	XMLNSNetconf      = "urn:ietf:params:xml:ns:netconf:base:1.0"
	XMLNSWithDefaults = "urn:ietf:params:xml:ns:yang:ietf-netconf-with-defaults"
)

// Datastore names.
const (
	Running   = "running"
	Candidate = "candidate"
	Startup   = "startup"
)

// The client <hello> messages. Both are end-of-message framed, as the
// <hello> exchange always is.
const (
	ClientHello10 = `
<?xml version="1.0" encoding="utf-8"?>
    <hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
        <capabilities>
            <capability>urn:ietf:params:netconf:base:1.0</capability>
        </capabilities>
</hello>]]>]]>`
	ClientHello11 = `
<?xml version="1.0" encoding="utf-8"?>
    <hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
        <capabilities>
            <capability>urn:ietf:params:netconf:base:1.1</capability>
        </capabilities>
</hello>]]>]]>`
)

// ClientHello returns the client <hello> message advertising version v.
func ClientHello(v rfc6242.Version) []byte {
	if v == rfc6242.Version11 {
		return []byte(ClientHello11)
	}
	return []byte(ClientHello10)
}

// Capabilities is a slice of strings denoting NETCONF capability URIs
type Capabilities []string

// Has returns true if uri is in the capabilities set. Any "?" query
// parameters are ignored on both sides of the comparison.
func (c Capabilities) Has(uri string) bool {
	uri, _, _ = strings.Cut(uri, "?")
	for _, cap := range c {
		if base, _, _ := strings.Cut(cap, "?"); base == uri {
			return true
		}
	}
	return false
}

// HasAny returns true if any of uris is in the capabilities set.
func (c Capabilities) HasAny(uris ...string) bool {
	for _, uri := range uris {
		if c.Has(uri) {
			return true
		}
	}
	return false
}

// Hello is the content of a server <hello> message.
type Hello struct {
	Capabilities Capabilities
	// SessionID is the server assigned session-id, or 0 if none was sent
	SessionID uint32
}

var (
	// helloPattern tolerates a namespace prefix on the hello element
	helloPattern = regexp.MustCompile(`(?is)(<(\w+:)?hello.*</(\w+:)?hello>)`)

	xpCapability = xpath.MustCompile(`//*[local-name()='hello']/*[local-name()='capabilities']/*[local-name()='capability']`)
	xpSessionID  = xpath.MustCompile(`//*[local-name()='hello']/*[local-name()='session-id']`)
)

// ParseServerHello extracts the server <hello> from raw, the bytes read
// up to and including the end-of-message token.
//
// Line breaks inside the <hello> are removed before parsing, since some
// servers insert them inside element names.
func ParseServerHello(raw []byte) (*Hello, error) {
	m := helloPattern.Find(raw)
	if m == nil {
		return nil, errors.Wrap(ncerr.ErrCouldNotExchangeCapabilities, "no <hello> found")
	}
	m = bytes.ReplaceAll(m, []byte("\n"), nil)
	m = bytes.ReplaceAll(m, []byte("\r"), nil)
	doc, err := xmlquery.Parse(bytes.NewReader(m))
	if err != nil {
		return nil, errors.Wrapf(ncerr.ErrCouldNotExchangeCapabilities, "parse <hello>: %v", err)
	}

	hello := &Hello{}
	for _, n := range xmlquery.QuerySelectorAll(doc, xpCapability) {
		if x := strings.TrimSpace(n.InnerText()); x != "" {
			hello.Capabilities = append(hello.Capabilities, x)
		}
	}
	if len(hello.Capabilities) == 0 {
		return nil, errors.Wrap(ncerr.ErrCouldNotExchangeCapabilities, "missing non-empty <capability> element(s)")
	}
	if sid := xmlquery.QuerySelector(doc, xpSessionID); sid != nil {
		v, err := strconv.ParseUint(strings.TrimSpace(sid.InnerText()), 10, 32)
		if err != nil {
			return nil, errors.Wrap(ncerr.ErrCouldNotExchangeCapabilities, "invalid session-id value")
		}
		hello.SessionID = uint32(v)
	}
	return hello, nil
}

// Negotiate selects the protocol version for a session with a server
// advertising caps. A preferred version of VersionUnknown selects :base:1.1
// when available.
func Negotiate(caps Capabilities, preferred rfc6242.Version) (rfc6242.Version, error) {
	switch preferred {
	case rfc6242.Version10:
		if !caps.Has(CapBase10) {
			return rfc6242.VersionUnknown, ncerr.CapabilityNotSupported(CapBase10, "user requested netconf version 1.0 but capability not offered")
		}
		return rfc6242.Version10, nil
	case rfc6242.Version11:
		if !caps.Has(CapBase11) {
			return rfc6242.VersionUnknown, ncerr.CapabilityNotSupported(CapBase11, "user requested netconf version 1.1 but capability not offered")
		}
		return rfc6242.Version11, nil
	}
	if caps.Has(CapBase11) {
		return rfc6242.Version11, nil
	}
	if !caps.Has(CapBase10) {
		glog.Warningf("server advertised neither %s nor %s, assuming 1.0", CapBase10, CapBase11)
	}
	return rfc6242.Version10, nil
}

// Datastores are the datastores a server offers to read from and to
// write to.
type Datastores struct {
	Readable  []string
	Writeable []string
}

// BuildDatastores derives the datastores offered by a server advertising caps.
func BuildDatastores(caps Capabilities) Datastores {
	ds := Datastores{Readable: []string{Running}}
	if caps.HasAny(CapWriteableRunning, CapWritableRunning) {
		ds.Writeable = append(ds.Writeable, Running)
	}
	if caps.Has(CapCandidate) {
		ds.Readable = append(ds.Readable, Candidate)
		ds.Writeable = append(ds.Writeable, Candidate)
	}
	if caps.Has(CapStartup) {
		ds.Readable = append(ds.Readable, Startup)
		ds.Writeable = append(ds.Writeable, Startup)
	}
	return ds
}

// CanRead returns true if name is a readable datastore.
func (d Datastores) CanRead(name string) bool { return contains(d.Readable, name) }

// CanWrite returns true if name is a writeable datastore.
func (d Datastores) CanWrite(name string) bool { return contains(d.Writeable, name) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
