package driver

import (
	"time"

	"github.com/andaru/ncclient/message"
	"github.com/andaru/ncclient/transport"
	"github.com/joeshaw/envdecode"
	"github.com/pkg/errors"
)

// Options configures a Driver or AsyncDriver.
type Options struct {
	Host                 string `env:"NETCONF_HOST"`
	Port                 int    `env:"NETCONF_PORT,default=830"`
	Username             string `env:"NETCONF_USERNAME"`
	Password             string `env:"NETCONF_PASSWORD"`
	PrivateKeyFile       string `env:"NETCONF_PRIVATE_KEY_FILE"`
	PrivateKeyPassphrase string `env:"NETCONF_PRIVATE_KEY_PASSPHRASE"`
	StrictHostKey        bool   `env:"NETCONF_STRICT_HOST_KEY,default=true"`
	KnownHostsFile       string `env:"NETCONF_KNOWN_HOSTS_FILE"`
	// Transport is the registered transport name, "system" or "ssh"
	Transport string `env:"NETCONF_TRANSPORT,default=system"`

	TimeoutSocket    time.Duration `env:"NETCONF_TIMEOUT_SOCKET,default=15s"`
	TimeoutTransport time.Duration `env:"NETCONF_TIMEOUT_TRANSPORT,default=30s"`
	// TimeoutOps bounds capabilities exchange and each operation. Zero
	// means no limit.
	TimeoutOps time.Duration `env:"NETCONF_TIMEOUT_OPS,default=30s"`

	MessageIDBase uint64 `env:"NETCONF_MESSAGE_ID_BASE,default=101"`
	// StrictDatastores rejects requests for datastores the server does
	// not offer, rather than logging a warning
	StrictDatastores bool `env:"NETCONF_STRICT_DATASTORES"`
	// StripNamespaces removes namespaces from parsed replies
	StripNamespaces bool `env:"NETCONF_STRIP_NAMESPACES"`
	// PreferredVersion is "1.0", "1.1" or empty for no preference
	PreferredVersion string `env:"NETCONF_PREFERRED_VERSION"`
	// UseCompressedParser drops whitespace-only text from parsed replies
	UseCompressedParser bool `env:"NETCONF_USE_COMPRESSED_PARSER,default=true"`
	// FailedWhenContains replaces the default response failure triggers
	FailedWhenContains []string `env:"NETCONF_FAILED_WHEN_CONTAINS"`
}

// DefaultOptions returns the default Options.
func DefaultOptions() Options {
	return Options{
		Port:                transport.DefaultPort,
		StrictHostKey:       true,
		Transport:           "system",
		TimeoutSocket:       15 * time.Second,
		TimeoutTransport:    30 * time.Second,
		TimeoutOps:          30 * time.Second,
		MessageIDBase:       101,
		UseCompressedParser: true,
	}
}

// OptionsFromEnv returns the default Options overridden by NETCONF_*
// environment variables.
func OptionsFromEnv() (Options, error) {
	o := DefaultOptions()
	if err := envdecode.Decode(&o); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return o, errors.Wrap(err, "netconf options from environment")
	}
	return o, nil
}

func (o Options) transportConfig() transport.Config {
	return transport.Config{
		Host:                 o.Host,
		Port:                 o.Port,
		Username:             o.Username,
		Password:             o.Password,
		PrivateKeyFile:       o.PrivateKeyFile,
		PrivateKeyPassphrase: o.PrivateKeyPassphrase,
		StrictHostKey:        o.StrictHostKey,
		KnownHostsFile:       o.KnownHostsFile,
		TimeoutSocket:        o.TimeoutSocket,
		TimeoutTransport:     o.TimeoutTransport,
	}
}

func (o Options) responseOptions(host string) []message.Option {
	opts := []message.Option{
		message.WithHost(host),
		message.WithStripNamespaces(o.StripNamespaces),
		message.WithCompressedParser(o.UseCompressedParser),
	}
	if len(o.FailedWhenContains) > 0 {
		opts = append(opts, message.WithFailedWhenContains(o.FailedWhenContains...))
	}
	return opts
}
