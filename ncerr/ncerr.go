// Package ncerr holds the errors returned by the NETCONF client packages
// and the <rpc-error> structure reported by NETCONF servers.
package ncerr

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrCouldNotExchangeCapabilities indicates the server <hello> could
	// not be found or parsed. The session is unusable.
	ErrCouldNotExchangeCapabilities = errors.New("could not exchange capabilities with server")
	// ErrCapabilityNotSupported indicates an operation requires a
	// capability the server did not advertise. Nothing was sent.
	ErrCapabilityNotSupported = errors.New("capability not supported by the server")
	// ErrInvalidDatastore indicates a datastore the server does not offer
	// for the requested operation.
	ErrInvalidDatastore = errors.New("invalid datastore")
	// ErrInvalidArgument indicates a bad operation argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTimeout indicates a read or write did not complete in time.
	ErrTimeout = errors.New("timed out")
	// ErrSessionUnusable is returned for operations attempted after a
	// fatal session error.
	ErrSessionUnusable = errors.New("session is unusable")
	// ErrNotOpen is returned for operations attempted before Open.
	ErrNotOpen = errors.New("session is not open")
	// ErrOperationFailed is wrapped by errors promoted from a failed
	// response.
	ErrOperationFailed = errors.New("operation failed")
)

// CapabilityError reports a missing server capability.
type CapabilityError struct {
	Capability string
	Message    string
}

func (e *CapabilityError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("capability %q is not supported by the server", e.Capability)
}

func (e *CapabilityError) Is(target error) bool { return target == ErrCapabilityNotSupported }

// CapabilityNotSupported returns a CapabilityError with stack.
func CapabilityNotSupported(capability, message string) error {
	return errors.WithStack(&CapabilityError{Capability: capability, Message: message})
}

// ArgumentError reports an invalid operation argument.
type ArgumentError struct{ Message string }

func (e *ArgumentError) Error() string { return e.Message }

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// InvalidArgument returns an ArgumentError with stack.
func InvalidArgument(format string, args ...interface{}) error {
	return errors.WithStack(&ArgumentError{Message: fmt.Sprintf(format, args...)})
}

// DatastoreError reports a datastore the server does not offer.
type DatastoreError struct {
	Datastore string
	Role      string // "source" or "target"
	Message   string
}

func (e *DatastoreError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("'%s' may not be '%s'", e.Role, e.Datastore)
}

func (e *DatastoreError) Is(target error) bool { return target == ErrInvalidDatastore }

// TimeoutError reports an expired read or write.
type TimeoutError struct {
	Op string
	// After is the time waited, if known
	After time.Duration
}

func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("timed out %s after %s", e.Op, e.After)
	}
	return "timed out " + e.Op
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Timeout reports true, as net.Error does.
func (e *TimeoutError) Timeout() bool { return true }

// OperationError is returned for a response a server reported failed.
type OperationError struct {
	// Messages are the <error-message> values of the reply
	Messages []string
	// Errors are the reply's <rpc-error> elements
	Errors []Error
	// Cause is set when the reply could not be decoded
	Cause error
}

func (e *OperationError) Error() string {
	if e.Cause != nil && len(e.Messages) == 0 {
		return "operation failed: " + e.Cause.Error()
	}
	return fmt.Sprintf("operation failed, reported rpc errors: [%s]", strings.Join(e.Messages, ", "))
}

func (e *OperationError) Is(target error) bool { return target == ErrOperationFailed }

func (e *OperationError) Unwrap() error { return e.Cause }
