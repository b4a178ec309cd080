package transport

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"sync"

	"github.com/creack/pty"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

func init() {
	Register("system", NewSystem)
}

// SystemBinary is the OpenSSH client executable used by the system transport.
var SystemBinary = "ssh"

// System is a Transport running the OpenSSH client on a pseudo-terminal.
//
// The pty merges the client's input and output, so all bytes written are
// read back before the server's reply.
type System struct {
	sync.Mutex
	cfg Config

	closeMu sync.Mutex

	cmd *exec.Cmd
	pty *os.File
	// login holds the bytes read during authentication, which include the
	// start of the server <hello>.
	login []byte
}

// NewSystem returns a new, unopened system transport.
func NewSystem(cfg Config) (Transport, error) {
	if cfg.Host == "" {
		return nil, errors.New("system transport requires a host")
	}
	return &System{cfg: cfg}, nil
}

// Host returns the remote host name.
func (t *System) Host() string { return t.cfg.Host }

// CombinedIO returns true.
func (t *System) CombinedIO() bool { return true }

// Args returns the OpenSSH client arguments.
func (t *System) Args() []string {
	args := []string{t.cfg.Host, "-p", strconv.Itoa(t.cfg.port()), "-tt"}
	if t.cfg.Username != "" {
		args = append(args, "-l", t.cfg.Username)
	}
	if t.cfg.PrivateKeyFile != "" {
		args = append(args, "-i", t.cfg.PrivateKeyFile)
	}
	if t.cfg.TimeoutSocket > 0 {
		args = append(args, "-o", "ConnectTimeout="+strconv.Itoa(int(t.cfg.TimeoutSocket.Seconds())))
	}
	if t.cfg.StrictHostKey {
		args = append(args, "-o", "StrictHostKeyChecking=yes")
		if t.cfg.KnownHostsFile != "" {
			args = append(args, "-o", "UserKnownHostsFile="+t.cfg.KnownHostsFile)
		}
	} else {
		args = append(args, "-o", "StrictHostKeyChecking=no", "-o", "UserKnownHostsFile=/dev/null")
	}
	return append(args, "-s", "netconf")
}

var (
	passwordPrompt = regexp.MustCompile(`(?i)password:`)
	helloStart     = regexp.MustCompile(`(?i)<(\w+:)?hello`)
)

// Open spawns the client and answers password prompts until the server
// <hello> begins.
func (t *System) Open(ctx context.Context) error {
	if t.cfg.TimeoutTransport > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.TimeoutTransport)
		defer cancel()
	}

	t.cmd = exec.Command(SystemBinary, t.Args()...)
	f, err := pty.Start(t.cmd)
	if err != nil {
		return errors.Wrapf(err, "spawn %s", SystemBinary)
	}
	t.pty = f
	glog.V(1).Infof("spawned %s %v", SystemBinary, t.cmd.Args[1:])

	stop := context.AfterFunc(ctx, func() { f.Close() })
	defer stop()

	var out []byte
	buf := make([]byte, 4096)
	prompts := 0
	for {
		n, err := f.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			t.Close()
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), "waiting for server hello")
			}
			return errors.Wrapf(ErrAuthenticationFailed, "%s: %q", t.cfg.Host, bytes.TrimSpace(out))
		}
		if passwordPrompt.Match(out) {
			if prompts++; prompts > 1 {
				t.Close()
				return errors.Wrap(ErrAuthenticationFailed, "password prompt seen more than once")
			}
			out = nil
			if _, err := f.Write([]byte(t.cfg.Password + "\n")); err != nil {
				t.Close()
				return errors.Wrap(err, "send password")
			}
			continue
		}
		if helloStart.Match(out) {
			t.login = out
			return nil
		}
	}
}

// Read returns any bytes read during Open, then reads from the pty.
func (t *System) Read(b []byte) (int, error) {
	if t.pty == nil {
		return 0, ErrNotOpen
	}
	if len(t.login) > 0 {
		n := copy(b, t.login)
		t.login = t.login[n:]
		return n, nil
	}
	return t.pty.Read(b)
}

func (t *System) Write(b []byte) (int, error) {
	if t.pty == nil {
		return 0, ErrNotOpen
	}
	return t.pty.Write(b)
}

// Close closes the pty and reaps the client process.
func (t *System) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	if t.cmd == nil {
		return nil
	}
	err := t.pty.Close()
	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
		t.cmd.Wait()
	}
	t.cmd = nil
	return err
}
