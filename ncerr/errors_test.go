package ncerr

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		input   string
		want    Error
		error   string
		json    string
		wantErr bool
	}{
		{
			input: `<rpc-error xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">
  <error-type>protocol</error-type>
  <error-tag>lock-denied</error-tag>
  <error-severity>error</error-severity>
  <error-message>
    lock held
  </error-message>
  <error-info><session-id> 454 </session-id></error-info>
</rpc-error>`,
			want: Error{
				Type: TypeProtocol, Tag: "lock-denied", Severity: SeverityError,
				Message: "lock held", Info: &InfoData{SessionID: "454"},
			},
			error: "protocol error tag:lock-denied session-id:454 lock held",
			json:  `{"error-type":"protocol","error-tag":"lock-denied","error-severity":"error","error-message":"lock held","error-info":{"session-id":"454"}}`,
		},
		{
			input: `<nc:rpc-error><nc:error-type>application</nc:error-type><nc:error-tag>invalid-value</nc:error-tag><nc:error-severity>warning</nc:error-severity><nc:error-path>/a/b</nc:error-path></nc:rpc-error>`,
			want:  Error{Type: TypeApplication, Tag: "invalid-value", Severity: SeverityWarning, Path: "/a/b"},
			error: "application warning tag:invalid-value path:/a/b",
			json:  `{"error-type":"application","error-tag":"invalid-value","error-severity":"warning","error-path":"/a/b"}`,
		},
		{
			input:   `<rpc-error><error-type>bogus</error-type></rpc-error>`,
			wantErr: true,
		},
	} {
		t.Run(tc.input, func(t *testing.T) {
			check := assert.New(t)
			got, err := Decode([]byte(tc.input))
			if tc.wantErr {
				check.Error(err)
				return
			}
			if !check.NoError(err) {
				return
			}
			got.XMLName = tc.want.XMLName
			check.Equal(tc.want, got)
			check.Equal(tc.error, got.Error())
			b, _ := json.Marshal(got)
			check.Equal(tc.json, string(b))
		})
	}
}

func TestTaxonomy(t *testing.T) {
	for _, tc := range []struct {
		err    error
		target error
		error  string
	}{
		{
			err:    CapabilityNotSupported("urn:ietf:params:netconf:capability:xpath:1.0", "xpath filter requested, but is not supported by the server"),
			target: ErrCapabilityNotSupported,
			error:  "xpath filter requested, but is not supported by the server",
		},
		{
			err:    CapabilityNotSupported("urn:x", ""),
			target: ErrCapabilityNotSupported,
			error:  `capability "urn:x" is not supported by the server`,
		},
		{
			err:    InvalidArgument("'filter_type' should be one of subtree|xpath, got '%s'", "tacos"),
			target: ErrInvalidArgument,
			error:  "'filter_type' should be one of subtree|xpath, got 'tacos'",
		},
		{
			err:    errors.WithStack(&DatastoreError{Datastore: "running", Role: "target"}),
			target: ErrInvalidDatastore,
			error:  "'target' may not be 'running'",
		},
		{
			err:    errors.Wrap(&TimeoutError{Op: "reading reply", After: 2 * time.Second}, "lock"),
			target: ErrTimeout,
			error:  "lock: timed out reading reply after 2s",
		},
		{
			err:    &OperationError{Messages: []string{"lock held", "bad element"}},
			target: ErrOperationFailed,
			error:  `operation failed, reported rpc errors: [lock held, bad element]`,
		},
		{
			err:    &OperationError{Cause: errors.New("chunk size mismatch")},
			target: ErrOperationFailed,
			error:  "operation failed: chunk size mismatch",
		},
	} {
		t.Run(fmt.Sprintf("%v", tc.err), func(t *testing.T) {
			a := assert.New(t)
			a.EqualError(tc.err, tc.error)
			a.ErrorIs(tc.err, tc.target)
			a.NotErrorIs(tc.err, ErrSessionUnusable)
		})
	}
}

func TestTimeoutError(t *testing.T) {
	a := assert.New(t)
	e := &TimeoutError{Op: "reading reply"}
	a.True(e.Timeout())
	a.Equal("timed out reading reply", e.Error())
	var ne interface{ Timeout() bool }
	a.True(errors.As(errors.WithStack(e), &ne))
}
