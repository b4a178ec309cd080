package transport

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrAuthenticationFailed is returned by Open when the server rejects
	// the client credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrNotOpen is returned by reads and writes on a transport which is
	// not open.
	ErrNotOpen = errors.New("transport is not open")
)

// Transport is a byte stream to a NETCONF server.
//
// The Locker is held by the session layer while it owns the stream, for
// capabilities exchange and for each request/reply cycle.
type Transport interface {
	sync.Locker
	io.ReadWriteCloser
	// Open connects and authenticates, leaving the stream at the start of
	// the server <hello>.
	Open(ctx context.Context) error
	// CombinedIO returns true if the transport's input and output share
	// one stream, in which case all written bytes are read back.
	CombinedIO() bool
	// Host returns the remote host name.
	Host() string
}

// Config is the configuration shared by all transports.
type Config struct {
	Host                 string
	Port                 int
	Username             string
	Password             string
	PrivateKeyFile       string
	PrivateKeyPassphrase string
	// StrictHostKey requires the server host key to be found in
	// KnownHostsFile.
	StrictHostKey  bool
	KnownHostsFile string
	// TimeoutSocket bounds connection establishment.
	TimeoutSocket time.Duration
	// TimeoutTransport bounds authentication.
	TimeoutTransport time.Duration
}

// DefaultPort is the IANA assigned NETCONF over SSH port.
const DefaultPort = 830

func (c Config) port() int {
	if c.Port == 0 {
		return DefaultPort
	}
	return c.Port
}

// Factory constructs a Transport.
type Factory func(Config) (Transport, error)

// UnknownTransportError is returned by New for an unregistered name.
type UnknownTransportError struct{ Name string }

func (e *UnknownTransportError) Error() string {
	return fmt.Sprintf("unknown transport %q, must be one of %v", e.Name, Names())
}

var registry = struct {
	sync.RWMutex
	m map[string]Factory
}{m: map[string]Factory{}}

// Register makes a transport available by name. Registering the same
// name twice replaces the earlier factory.
func Register(name string, f Factory) {
	if f == nil {
		panic("transport: Register factory is nil")
	}
	registry.Lock()
	defer registry.Unlock()
	registry.m[name] = f
}

// New returns a new Transport of the named kind.
func New(name string, cfg Config) (Transport, error) {
	registry.RLock()
	f, ok := registry.m[name]
	registry.RUnlock()
	if !ok {
		return nil, errors.WithStack(&UnknownTransportError{Name: name})
	}
	return f(cfg)
}

// Names returns the sorted names of the registered transports.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
