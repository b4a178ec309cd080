package message

import (
	"fmt"
	"testing"

	"github.com/andaru/ncclient/ncerr"
	"github.com/andaru/ncclient/rfc6242"
	"github.com/andaru/ncclient/xmlutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(p string) []byte { return []byte(fmt.Sprintf("#%d\n%s\n##", len(p), p)) }

func eom(p string) []byte { return []byte(p + "]]>]]>") }

func lockRequest(v rfc6242.Version) *Request {
	rpc := xmlutil.Element("rpc", xmlutil.Element("lock", xmlutil.Element("target", xmlutil.Element("candidate"))))
	rpc.SetAttr(xmlutil.XMLName("message-id"), "101")
	return NewRequest(101, "lock", rpc, v)
}

func TestNewRequest(t *testing.T) {
	a := assert.New(t)
	req := lockRequest(rfc6242.Version11)
	a.Equal(`<rpc message-id="101"><lock><target><candidate/></target></lock></rpc>`, string(req.Document))
	a.Equal(string(chunk(string(req.Document))), string(req.Payload))
	req = lockRequest(rfc6242.Version10)
	a.Equal(rfc6242.XMLDeclaration+string(req.Document)+"]]>]]>", string(req.Payload))
}

const rpcErrorReply = `<rpc-reply message-id="101" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <rpc-error>
    <error-type>protocol</error-type>
    <error-tag>lock-denied</error-tag>
    <error-severity>error</error-severity>
    <error-message>
      Lock failed, lock is already held
    </error-message>
    <error-info><session-id>454</session-id></error-info>
  </rpc-error>
</rpc-reply>`

func TestResponseFailed(t *testing.T) {
	for _, tc := range []struct {
		name   string
		raw    []byte
		v      rfc6242.Version
		opts   []Option
		failed bool
	}{
		{name: "ok 1.1", raw: chunk(`<rpc-reply message-id="101"><ok/></rpc-reply>`), v: rfc6242.Version11},
		{name: "ok 1.0", raw: eom(`<rpc-reply message-id="101"><ok/></rpc-reply>`), v: rfc6242.Version10},
		{name: "rpc-error", raw: chunk(rpcErrorReply), v: rfc6242.Version11, failed: true},
		{
			name:   "prefixed rpc-error",
			raw:    eom(`<nc:rpc-reply xmlns:nc="urn:ietf:params:xml:ns:netconf:base:1.0"><nc:rpc-error><nc:error-tag>x</nc:error-tag></nc:rpc-error></nc:rpc-reply>`),
			v:      rfc6242.Version10,
			failed: true,
		},
		{
			name:   "rpc-errors only",
			raw:    eom(`<rpc-reply><rpc-errors/></rpc-reply>`),
			v:      rfc6242.Version10,
			failed: true,
		},
		{
			name:   "rpc-errors with attributes",
			raw:    eom(`<rpc-reply><rpc-errors count="2"></rpc-errors></rpc-reply>`),
			v:      rfc6242.Version10,
			failed: true,
		},
		{
			name: "similar element names",
			raw:  eom(`<rpc-reply><data><rpc-error-count>0</rpc-error-count></data></rpc-reply>`),
			v:    rfc6242.Version10,
		},
		{
			name: "custom trigger replaces defaults",
			raw:  chunk(rpcErrorReply),
			v:    rfc6242.Version11,
			opts: []Option{WithFailedWhenContains("bogus")},
		},
		{
			name:   "custom substring trigger",
			raw:    eom(`<rpc-reply><data>bogus</data></rpc-reply>`),
			v:      rfc6242.Version10,
			opts:   []Option{WithFailedWhenContains("bogus")},
			failed: true,
		},
		{
			name:   "bad chunk size",
			raw:    []byte("#40\n<rpc-reply><ok/></rpc-reply>\n##"),
			v:      rfc6242.Version11,
			failed: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			r := NewResponse(lockRequest(tc.v), tc.v, tc.opts...)
			a.True(r.Failed)
			a.NoError(r.Record(tc.raw))
			a.Equal(tc.failed, r.Failed)
			a.Equal(tc.raw, r.Raw)
			a.False(r.FinishTime.Before(r.StartTime))
			if tc.failed {
				a.ErrorIs(r.RaiseForStatus(), ncerr.ErrOperationFailed)
			} else {
				a.NoError(r.RaiseForStatus())
			}
		})
	}
}

func TestResponseErrors(t *testing.T) {
	a := assert.New(t)
	r := NewResponse(lockRequest(rfc6242.Version11), rfc6242.Version11, WithHost("r1"))
	require.NoError(t, r.Record(chunk(rpcErrorReply)))
	a.True(r.Failed)
	a.Equal([]string{"Lock failed, lock is already held"}, r.ErrorMessages)
	if a.Len(r.Errors, 1) {
		a.Equal(ncerr.TypeProtocol, r.Errors[0].Type)
		a.Equal("lock-denied", r.Errors[0].Tag)
		a.Equal("454", r.Errors[0].Info.SessionID)
	}
	err := r.RaiseForStatus()
	a.EqualError(err, `operation failed, reported rpc errors: [Lock failed, lock is already held]`)
	var oe *ncerr.OperationError
	a.True(errors.As(err, &oe))
	a.Len(oe.Errors, 1)
	a.Equal("Response <lock> host:r1 failed:true elapsed:"+r.Elapsed.String(), r.String())
}

func TestResponseDecodeError(t *testing.T) {
	a := assert.New(t)
	r := NewResponse(lockRequest(rfc6242.Version11), rfc6242.Version11)
	require.NoError(t, r.Record([]byte("#40\n<rpc-reply><ok/></rpc-reply>\n##")))
	a.True(r.Failed)
	a.ErrorIs(r.DecodeErr, rfc6242.ErrChunkSize)
	a.Nil(r.Doc)
	err := r.RaiseForStatus()
	a.ErrorIs(err, ncerr.ErrOperationFailed)
	a.ErrorIs(err, rfc6242.ErrChunkSize)
}

func TestResponseRecordTwice(t *testing.T) {
	a := assert.New(t)
	r := NewResponse(lockRequest(rfc6242.Version10), rfc6242.Version10)
	a.ErrorIs(r.RaiseForStatus(), ncerr.ErrOperationFailed)
	a.NoError(r.Record(eom(`<rpc-reply><ok/></rpc-reply>`)))
	a.ErrorIs(r.Record(eom(`<rpc-reply><rpc-error/></rpc-reply>`)), ErrAlreadyRecorded)
	a.False(r.Failed)
}

const dataReply = `<rpc-reply message-id="101" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <data>
    <interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces">
      <interface><name>eth0</name></interface>
    </interfaces>
    <sys:system xmlns:sys="urn:example:system"><sys:hostname>r1</sys:hostname></sys:system>
  </data>
</rpc-reply>`

func TestResponseResult(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []Option
		want string
	}{
		{
			name: "stripped and compressed",
			opts: []Option{WithStripNamespaces(true), WithCompressedParser(true)},
			want: `<rpc-reply message-id="101"><data><interfaces><interface><name>eth0</name></interface></interfaces><system><hostname>r1</hostname></system></data></rpc-reply>`,
		},
		{
			name: "compressed",
			opts: []Option{WithCompressedParser(true)},
			want: `<rpc-reply message-id="101" xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><data><interfaces xmlns="urn:ietf:params:xml:ns:yang:ietf-interfaces"><interface><name>eth0</name></interface></interfaces><sys:system xmlns:sys="urn:example:system"><sys:hostname>r1</sys:hostname></sys:system></data></rpc-reply>`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			r := NewResponse(nil, rfc6242.Version11, tc.opts...)
			require.NoError(t, r.Record(chunk(dataReply)))
			a.False(r.Failed)
			a.Equal(tc.want, r.Result)

			elems := r.XMLElements()
			a.Len(elems, 2)
			if a.Contains(elems, "interfaces") {
				a.Equal("eth0", elems["interfaces"].SelectElement("//name").InnerText())
			}
			a.Contains(elems, "system")
		})
	}
}

func TestResponseXMLElementsNoData(t *testing.T) {
	r := NewResponse(nil, rfc6242.Version10)
	assert.Empty(t, r.XMLElements())
	assert.NoError(t, r.Record(eom(`<rpc-reply><ok/></rpc-reply>`)))
	assert.Empty(t, r.XMLElements())
}
