package rpc

import (
	"fmt"
	"testing"

	"github.com/andaru/ncclient/message"
	"github.com/andaru/ncclient/ncerr"
	"github.com/andaru/ncclient/rfc6242"
	"github.com/andaru/ncclient/session"
	"github.com/andaru/ncclient/xmlutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envelope = `<rpc message-id="%d" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">%s</rpc>`

func newSession(v rfc6242.Version, caps ...string) *session.Session {
	s := session.New("r1", 0)
	s.Negotiated(&session.Hello{Capabilities: caps}, v)
	return s
}

var allCaps = []string{
	session.CapBase10, session.CapBase11, session.CapCandidate, session.CapStartup,
	session.CapWriteableRunning, session.CapXPath, session.CapConfirmedCommit11,
	session.CapValidate11, session.CapWithDefaults + "?basic-mode=explicit",
}

func TestBuilder(t *testing.T) {
	for _, tc := range []struct {
		name  string
		build func(*Builder) (*message.Request, error)
		op    string
		want  string
	}{
		{
			name:  "get",
			build: func(b *Builder) (*message.Request, error) { return b.Get() },
			op:    "get",
			want:  `<get/>`,
		},
		{
			name: "get subtree",
			build: func(b *Builder) (*message.Request, error) {
				return b.Get(WithFilter(`<interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces"/>`))
			},
			op:   "get",
			want: `<get><filter type="subtree"><interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces"/></filter></get>`,
		},
		{
			name: "get xpath with defaults",
			build: func(b *Builder) (*message.Request, error) {
				return b.Get(WithFilter("/interfaces/interface[name='eth0']"), WithFilterType(XPath), WithDefaults(ReportAll))
			},
			op: "get",
			want: `<get><filter type="xpath" select="/interfaces/interface[name=&#39;eth0&#39;]"/>` +
				`<with-defaults xmlns="urn:ietf:params:xml:ns:yang:ietf-netconf-with-defaults">report-all</with-defaults></get>`,
		},
		{
			name: "get-config merged filters",
			build: func(b *Builder) (*message.Request, error) {
				return b.GetConfig("running", WithFilter(`<interfaces/>`, `<system><hostname/></system>`))
			},
			op:   "get-config",
			want: `<get-config><source><running/></source><filter type="subtree"><interfaces/><system><hostname/></system></filter></get-config>`,
		},
		{
			name: "get-config wrapped filter",
			build: func(b *Builder) (*message.Request, error) {
				return b.GetConfig("candidate", WithFilter(
					`<filter type="xpath" xmlns:if="urn:if" xmlns="urn:sys"><system/><if:interfaces/></filter>`,
					`<routing/>`,
				))
			},
			op: "get-config",
			want: `<get-config><source><candidate/></source><filter type="subtree" xmlns:if="urn:if">` +
				`<system xmlns="urn:sys"/><if:interfaces xmlns="urn:sys"/><routing/></filter></get-config>`,
		},
		{
			name: "edit-config",
			build: func(b *Builder) (*message.Request, error) {
				return b.EditConfig(`<config><system/></config>`, "candidate")
			},
			op:   "edit-config",
			want: `<edit-config><target><candidate/></target><config><system/></config></edit-config>`,
		},
		{
			name:  "delete-config",
			build: func(b *Builder) (*message.Request, error) { return b.DeleteConfig("startup") },
			op:    "delete-config",
			want:  `<delete-config><target><startup/></target></delete-config>`,
		},
		{
			name:  "commit",
			build: func(b *Builder) (*message.Request, error) { return b.Commit() },
			op:    "commit",
			want:  `<commit/>`,
		},
		{
			name: "confirmed commit",
			build: func(b *Builder) (*message.Request, error) {
				return b.Commit(Confirmed(), ConfirmTimeout(60), Persist("tok"))
			},
			op:   "commit",
			want: `<commit><confirmed/><confirm-timeout>60</confirm-timeout><persist>tok</persist></commit>`,
		},
		{
			name:  "persist-id commit",
			build: func(b *Builder) (*message.Request, error) { return b.Commit(PersistID("tok")) },
			op:    "commit",
			want:  `<commit><persist-id>tok</persist-id></commit>`,
		},
		{
			name:  "discard",
			build: func(b *Builder) (*message.Request, error) { return b.Discard() },
			op:    "discard-changes",
			want:  `<discard-changes/>`,
		},
		{
			name:  "lock",
			build: func(b *Builder) (*message.Request, error) { return b.Lock("candidate") },
			op:    "lock",
			want:  `<lock><target><candidate/></target></lock>`,
		},
		{
			name:  "unlock",
			build: func(b *Builder) (*message.Request, error) { return b.Unlock("running") },
			op:    "unlock",
			want:  `<unlock><target><running/></target></unlock>`,
		},
		{
			name:  "validate",
			build: func(b *Builder) (*message.Request, error) { return b.Validate("candidate") },
			op:    "validate",
			want:  `<validate><source><candidate/></source></validate>`,
		},
		{
			name:  "copy-config",
			build: func(b *Builder) (*message.Request, error) { return b.CopyConfig("running", "startup") },
			op:    "copy-config",
			want:  `<copy-config><target><startup/></target><source><running/></source></copy-config>`,
		},
		{
			name: "copy-config url",
			build: func(b *Builder) (*message.Request, error) {
				return b.CopyConfig("candidate", "ftp://example.com/backup.xml")
			},
			op:   "copy-config",
			want: `<copy-config><target><url>ftp://example.com/backup.xml</url></target><source><candidate/></source></copy-config>`,
		},
		{
			name:  "rpc",
			build: func(b *Builder) (*message.Request, error) { return b.RPC(`<get-software-information/>`) },
			op:    "get-software-information",
			want:  `<get-software-information/>`,
		},
		{
			name: "rpc element",
			build: func(b *Builder) (*message.Request, error) {
				return b.RPCElement(xmlutil.Element("clear-counters", xmlutil.Element("all")))
			},
			op:   "clear-counters",
			want: `<clear-counters><all/></clear-counters>`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			b := NewBuilder(newSession(rfc6242.Version11, allCaps...), true)
			req, err := tc.build(b)
			require.NoError(t, err)
			a.Equal(uint64(101), req.MessageID)
			a.Equal(tc.op, req.Operation)
			doc := fmt.Sprintf(envelope, 101, tc.want)
			a.Equal(doc, string(req.Document))
			a.Equal(fmt.Sprintf("#%d\n%s\n##", len(doc), doc), string(req.Payload))
		})
	}
}

func TestBuilderLockPayload10(t *testing.T) {
	b := NewBuilder(newSession(rfc6242.Version10, session.CapBase10, session.CapCandidate), true)
	req, err := b.Lock("candidate")
	require.NoError(t, err)
	assert.Equal(t,
		`<?xml version="1.0" encoding="utf-8"?><rpc message-id="101" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><lock><target><candidate/></target></lock></rpc>]]>]]>`,
		string(req.Payload))
}

func TestBuilderMessageIDs(t *testing.T) {
	a := assert.New(t)
	b := NewBuilder(newSession(rfc6242.Version11, allCaps...), true)
	var ids []uint64
	for _, build := range []func() (*message.Request, error){
		func() (*message.Request, error) { return b.Lock("candidate") },
		func() (*message.Request, error) { return b.Commit(Confirmed(), PersistID("x")) },
		func() (*message.Request, error) { return b.GetConfig("running") },
		func() (*message.Request, error) { return b.Discard() },
	} {
		if req, err := build(); err == nil {
			ids = append(ids, req.MessageID)
		}
	}
	a.Equal([]uint64{101, 102, 103}, ids)
}

func TestBuilderErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		caps    []string
		strict  bool
		build   func(*Builder) (*message.Request, error)
		target  error
		wantErr string
	}{
		{
			name:    "confirmed with persist-id",
			caps:    allCaps,
			build:   func(b *Builder) (*message.Request, error) { return b.Commit(Confirmed(), PersistID("x")) },
			target:  ncerr.ErrInvalidArgument,
			wantErr: "Invalid combination - 'confirmed' cannot be present with 'persist-id'",
		},
		{
			name:    "persist with persist-id",
			caps:    allCaps,
			build:   func(b *Builder) (*message.Request, error) { return b.Commit(Persist("x"), PersistID("x")) },
			target:  ncerr.ErrInvalidArgument,
			wantErr: "Invalid combination - 'persist' cannot be present with 'persist-id'",
		},
		{
			name:   "confirm-timeout without confirmed",
			caps:   allCaps,
			build:  func(b *Builder) (*message.Request, error) { return b.Commit(ConfirmTimeout(10)) },
			target: ncerr.ErrInvalidArgument,
		},
		{
			name:    "confirmed without capability",
			caps:    []string{session.CapBase11, session.CapCandidate},
			build:   func(b *Builder) (*message.Request, error) { return b.Commit(Confirmed()) },
			target:  ncerr.ErrCapabilityNotSupported,
			wantErr: "confirmed-commit requested, but is not supported by the server",
		},
		{
			name:    "xpath without capability",
			caps:    []string{session.CapBase11},
			build:   func(b *Builder) (*message.Request, error) { return b.Get(WithFilter("/a"), WithFilterType(XPath)) },
			target:  ncerr.ErrCapabilityNotSupported,
			wantErr: "xpath filter requested, but is not supported by the server",
		},
		{
			name: "two xpath filters",
			caps: allCaps,
			build: func(b *Builder) (*message.Request, error) {
				return b.Get(WithFilter("/a", "/b"), WithFilterType(XPath))
			},
			target: ncerr.ErrInvalidArgument,
		},
		{
			name:    "bad filter type",
			caps:    allCaps,
			build:   func(b *Builder) (*message.Request, error) { return b.Get(WithFilter("<a/>"), WithFilterType("tacos")) },
			target:  ncerr.ErrInvalidArgument,
			wantErr: "'filter_type' should be one of subtree|xpath, got 'tacos'",
		},
		{
			name:   "bad subtree filter",
			caps:   allCaps,
			build:  func(b *Builder) (*message.Request, error) { return b.GetConfig("running", WithFilter("<a>")) },
			target: ncerr.ErrInvalidArgument,
		},
		{
			name:    "with-defaults without capability",
			caps:    []string{session.CapBase11},
			build:   func(b *Builder) (*message.Request, error) { return b.GetConfig("running", WithDefaults(Trim)) },
			target:  ncerr.ErrCapabilityNotSupported,
			wantErr: "with-defaults requested, but is not supported by the server",
		},
		{
			name:    "bad with-defaults mode",
			caps:    allCaps,
			build:   func(b *Builder) (*message.Request, error) { return b.GetConfig("running", WithDefaults("all")) },
			target:  ncerr.ErrInvalidArgument,
			wantErr: "'default_type' should be one of report-all|trim|explicit|report-all-tagged, got 'all'",
		},
		{
			name:    "strict unreadable source",
			caps:    []string{session.CapBase11},
			strict:  true,
			build:   func(b *Builder) (*message.Request, error) { return b.GetConfig("candidate") },
			target:  ncerr.ErrInvalidDatastore,
			wantErr: "'source' should be one of [running], got 'candidate'",
		},
		{
			name:    "strict unwriteable target",
			caps:    []string{session.CapBase11, session.CapCandidate},
			strict:  true,
			build:   func(b *Builder) (*message.Request, error) { return b.Lock("running") },
			target:  ncerr.ErrInvalidDatastore,
			wantErr: "'target' should be one of [candidate], got 'running'",
		},
		{
			name:    "strict delete running",
			caps:    allCaps,
			strict:  true,
			build:   func(b *Builder) (*message.Request, error) { return b.DeleteConfig("running") },
			target:  ncerr.ErrInvalidDatastore,
			wantErr: "delete-config 'target' may not be 'running'",
		},
		{
			name:    "validate without capability",
			caps:    []string{session.CapBase11, session.CapCandidate},
			build:   func(b *Builder) (*message.Request, error) { return b.Validate("candidate") },
			target:  ncerr.ErrCapabilityNotSupported,
			wantErr: "validate requested, but is not supported by the server",
		},
		{
			name:   "rpc with two operations",
			caps:   allCaps,
			build:  func(b *Builder) (*message.Request, error) { return b.RPC("<a/><b/>") },
			target: ncerr.ErrInvalidArgument,
		},
		{
			name:   "nil rpc element",
			caps:   allCaps,
			build:  func(b *Builder) (*message.Request, error) { return b.RPCElement(nil) },
			target: ncerr.ErrInvalidArgument,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			s := newSession(rfc6242.Version11, tc.caps...)
			req, err := tc.build(NewBuilder(s, tc.strict))
			a.Nil(req)
			a.True(errors.Is(err, tc.target), "%v", err)
			if tc.wantErr != "" {
				a.EqualError(err, tc.wantErr)
			}
			// rejected requests take no message-id
			a.Equal(uint64(101), s.NextMessageID())
		})
	}
}

func TestBuilderNonStrictDatastores(t *testing.T) {
	a := assert.New(t)
	b := NewBuilder(newSession(rfc6242.Version11, session.CapBase11), false)

	req, err := b.GetConfig("candidate")
	a.NoError(err)
	a.Contains(string(req.Document), "<source><candidate/></source>")

	req, err = b.DeleteConfig("running")
	a.NoError(err)
	a.Contains(string(req.Document), "<delete-config><target><running/></target></delete-config>")

	req, err = b.EditConfig("<config/>", "running")
	a.NoError(err)
	a.Equal(uint64(103), req.MessageID)
}
