package transport

import (
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func init() {
	Register("ssh", NewSSH)
}

// SSH is a Transport running the netconf subsystem over an SSH channel
// established with golang.org/x/crypto/ssh.
type SSH struct {
	sync.Mutex
	cfg Config

	closeMu sync.Mutex

	client  *ssh.Client
	session *ssh.Session
	stdin   io.Writer
	stdout  io.Reader
}

// NewSSH returns a new, unopened SSH transport.
func NewSSH(cfg Config) (Transport, error) {
	if cfg.Host == "" {
		return nil, errors.New("ssh transport requires a host")
	}
	return &SSH{cfg: cfg}, nil
}

// Host returns the remote host name.
func (t *SSH) Host() string { return t.cfg.Host }

// CombinedIO returns false; subsystem channels have separate input and
// output streams.
func (t *SSH) CombinedIO() bool { return false }

func (t *SSH) clientConfig() (*ssh.ClientConfig, error) {
	cc := &ssh.ClientConfig{User: t.cfg.Username, Timeout: t.cfg.TimeoutTransport}

	if t.cfg.PrivateKeyFile != "" {
		key, err := os.ReadFile(t.cfg.PrivateKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "read private key")
		}
		var signer ssh.Signer
		if t.cfg.PrivateKeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(t.cfg.PrivateKeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(key)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse private key %s", t.cfg.PrivateKeyFile)
		}
		cc.Auth = append(cc.Auth, ssh.PublicKeys(signer))
	}
	if t.cfg.Password != "" {
		password := t.cfg.Password
		cc.Auth = append(cc.Auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}))
	}

	if t.cfg.StrictHostKey {
		cb, err := knownhosts.New(t.cfg.KnownHostsFile)
		if err != nil {
			return nil, errors.Wrap(err, "load known hosts")
		}
		cc.HostKeyCallback = cb
	} else {
		cc.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	}
	return cc, nil
}

// Open dials the server, authenticates and requests the netconf subsystem.
func (t *SSH) Open(ctx context.Context) error {
	cc, err := t.clientConfig()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.port()))
	d := net.Dialer{Timeout: t.cfg.TimeoutSocket}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "dial %s", addr)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cc)
	if err != nil {
		conn.Close()
		return errors.Wrapf(ErrAuthenticationFailed, "%s: %v", addr, err)
	}
	t.client = ssh.NewClient(sshConn, chans, reqs)

	if t.session, err = t.client.NewSession(); err != nil {
		t.client.Close()
		return errors.Wrap(err, "open session channel")
	}
	stdin, err := t.session.StdinPipe()
	if err != nil {
		t.Close()
		return errors.Wrap(err, "stdin")
	}
	stdout, err := t.session.StdoutPipe()
	if err != nil {
		t.Close()
		return errors.Wrap(err, "stdout")
	}
	if err := t.session.RequestSubsystem("netconf"); err != nil {
		t.Close()
		return errors.Wrap(err, "request netconf subsystem")
	}
	t.stdin, t.stdout = stdin, stdout
	glog.V(1).Infof("ssh transport to %s open", addr)
	return nil
}

func (t *SSH) Read(b []byte) (int, error) {
	if t.stdout == nil {
		return 0, ErrNotOpen
	}
	return t.stdout.Read(b)
}

func (t *SSH) Write(b []byte) (int, error) {
	if t.stdin == nil {
		return 0, ErrNotOpen
	}
	return t.stdin.Write(b)
}

// Close closes the session channel and the connection.
func (t *SSH) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.client == nil {
		return nil
	}
	if t.session != nil {
		t.session.Close()
	}
	err := t.client.Close()
	t.client = nil
	return err
}
