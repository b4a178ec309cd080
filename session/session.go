package session

import (
	"sync"

	"github.com/andaru/ncclient/ncerr"
	"github.com/andaru/ncclient/rfc6242"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultMessageIDBase is the message-id of the first request on a session.
const DefaultMessageIDBase = 101

// EchoState records whether a session's transport echoes written bytes
// back on its read stream.
type EchoState int

const (
	// EchoUnknown is the state prior to echo detection.
	EchoUnknown EchoState = iota
	// Echoes indicates written bytes are read back before any reply.
	Echoes
	// DoesNotEcho indicates written bytes are not read back.
	DoesNotEcho
)

func (e EchoState) String() string {
	switch e {
	case Echoes:
		return "echoes"
	case DoesNotEcho:
		return "does-not-echo"
	default:
		return "unknown"
	}
}

// Session is the client side state of a NETCONF session.
type Session struct {
	// ID identifies the session in log output
	ID string
	// Host is the remote host
	Host string
	// SessionID is the server assigned session-id
	SessionID uint32
	// Version is the negotiated protocol version
	Version rfc6242.Version
	// ServerCapabilities holds the capabilities advertised by the server
	ServerCapabilities Capabilities
	// Datastores holds the datastores derived from ServerCapabilities
	Datastores Datastores
	// Echo is the transport echo state
	Echo EchoState

	mu        sync.Mutex
	messageID uint64
	fatal     error
}

// New returns a new Session whose first request will use message-id
// messageIDBase (DefaultMessageIDBase if zero).
func New(host string, messageIDBase uint64) *Session {
	if messageIDBase == 0 {
		messageIDBase = DefaultMessageIDBase
	}
	return &Session{ID: uuid.NewString(), Host: host, messageID: messageIDBase}
}

// NextMessageID returns the message-id for the next request. Each call
// returns a new value.
func (s *Session) NextMessageID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.messageID
	s.messageID++
	return id
}

// Negotiated records the outcome of capabilities exchange.
func (s *Session) Negotiated(hello *Hello, v rfc6242.Version) {
	s.Version = v
	s.SessionID = hello.SessionID
	s.ServerCapabilities = append(Capabilities(nil), hello.Capabilities...)
	s.Datastores = BuildDatastores(s.ServerCapabilities)
}

// Fail marks the session unusable because of err, returning err.
func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal == nil {
		s.fatal = err
	}
	return err
}

// Err returns the error that made the session unusable, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal == nil {
		return nil
	}
	return errors.Wrapf(ncerr.ErrSessionUnusable, "%v", s.fatal)
}
