// Package sshtransport is the concrete transport.Dialer/transport.Client
// implementation used in production: one SSH connection per managed
// host, each capability invoked as a session running the client
// executor under sudo (spec §4.5, §6). Grounded on the concern
// original_source/src/run_plan/client.rs's Client wraps (an
// openssh::Session, client_command() building
// "sudo /opt/sira/bin/sira-client <yaml> [<sig>]", and the upload
// rm-then-copy-then-invoke dance), re-expressed with
// golang.org/x/crypto/ssh the way the teacher wires SSH-adjacent
// concerns through small, directly-held client structs.
package sshtransport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sira-systems/sira/internal/transport"
	sshagent "github.com/xanzy/ssh-agent"
	"github.com/skeema/knownhosts"
	"golang.org/x/crypto/ssh"
)

// Config parameterizes how a Dialer connects to and drives managed
// hosts (spec §9: transport details are deliberately out of the
// action/plan data model).
type Config struct {
	// User is the SSH login user; defaults to the OS user if empty.
	User string
	// Port defaults to 22.
	Port int
	// PrivateKeyPath, if set, is read and used for public-key auth
	// instead of the SSH agent.
	PrivateKeyPath string
	// KnownHostsFile is passed to knownhosts.New; defaults to
	// ~/.ssh/known_hosts.
	KnownHostsFile string
	// ClientBinary is the remote path to the sira-client executable
	// (spec §6); defaults to /opt/sira/bin/sira-client.
	ClientBinary string
	// NoSudo disables the leading "sudo" in the remote invocation,
	// for hosts where the client executor is already privileged.
	NoSudo bool
	// ConnectTimeout bounds the initial TCP+SSH handshake.
	ConnectTimeout time.Duration
}

func (c Config) port() int {
	if c.Port != 0 {
		return c.Port
	}
	return 22
}

func (c Config) clientBinary() string {
	if c.ClientBinary != "" {
		return c.ClientBinary
	}
	return "/opt/sira/bin/sira-client"
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeout != 0 {
		return c.ConnectTimeout
	}
	return 15 * time.Second
}

func (c Config) knownHostsFile() (string, error) {
	if c.KnownHostsFile != "" {
		return c.KnownHostsFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("sshtransport: resolve home directory for known_hosts: %w", err)
	}
	return home + "/.ssh/known_hosts", nil
}

// Dialer opens SSH-backed transport.Client sessions.
type Dialer struct {
	cfg Config
}

// NewDialer builds a Dialer from cfg.
func NewDialer(cfg Config) *Dialer {
	return &Dialer{cfg: cfg}
}

var _ transport.Dialer = (*Dialer)(nil)

// Dial opens an SSH connection to host (spec §4.5 Dialing state).
func (d *Dialer) Dial(ctx context.Context, host string) (transport.Client, error) {
	authMethods, agentCloser, err := d.authMethods()
	if err != nil {
		return nil, fmt.Errorf("sshtransport: %s: %w", host, err)
	}
	if agentCloser != nil {
		defer agentCloser.Close()
	}

	khFile, err := d.cfg.knownHostsFile()
	if err != nil {
		return nil, err
	}
	hostKeyCallback, err := knownhosts.New(khFile)
	if err != nil {
		return nil, fmt.Errorf("sshtransport: %s: load known_hosts %s: %w", host, khFile, err)
	}

	user := d.cfg.User
	if user == "" {
		user = os.Getenv("USER")
	}

	clientConfig := &ssh.ClientConfig{
		User:              user,
		Auth:              authMethods,
		HostKeyCallback:   ssh.HostKeyCallback(hostKeyCallback),
		HostKeyAlgorithms: hostKeyCallback.HostKeyAlgorithms(host),
		Timeout:           d.cfg.connectTimeout(),
	}

	addr := net.JoinHostPort(host, strconv.Itoa(d.cfg.port()))
	var netDialer net.Dialer
	conn, err := netDialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sshtransport: dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sshtransport: handshake with %s: %w", addr, err)
	}

	return &client{
		cfg:  d.cfg,
		conn: ssh.NewClient(sshConn, chans, reqs),
		host: host,
	}, nil
}

func (d *Dialer) authMethods() ([]ssh.AuthMethod, io.Closer, error) {
	if d.cfg.PrivateKeyPath != "" {
		keyBytes, err := os.ReadFile(d.cfg.PrivateKeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read private key %s: %w", d.cfg.PrivateKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("parse private key %s: %w", d.cfg.PrivateKeyPath, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil, nil
	}

	agentClient, closer, err := sshagent.New()
	if err != nil {
		return nil, nil, fmt.Errorf("connect to ssh-agent (set PrivateKeyPath to bypass): %w", err)
	}
	return []ssh.AuthMethod{ssh.PublicKeysCallback(agentClient.Signers)}, closer, nil
}

// client is the per-host transport.Client backed by one *ssh.Client.
type client struct {
	cfg  Config
	conn *ssh.Client
	host string
}

var _ transport.Client = (*client)(nil)

func (c *client) Command(ctx context.Context, actionYAML, signature []byte) (transport.Result, error) {
	return c.invoke(ctx, actionYAML, signature)
}

func (c *client) LineInFile(ctx context.Context, actionYAML, signature []byte) (transport.Result, error) {
	return c.invoke(ctx, actionYAML, signature)
}

func (c *client) Script(ctx context.Context, actionYAML, signature []byte) (transport.Result, error) {
	return c.invoke(ctx, actionYAML, signature)
}

// Upload deletes any stale artifact at stagingPath, streams from's bytes
// to stagingPath, then invokes the client executor so it can relocate
// and chown/chmod the staged file into place (spec §4.5).
func (c *client) Upload(ctx context.Context, from, stagingPath string, actionYAML, signature []byte) (transport.Result, error) {
	if _, err := c.runRaw(ctx, "rm -f "+shellQuote(stagingPath), nil, nil); err != nil {
		return transport.Result{}, fmt.Errorf("sshtransport: %s: clear staging path: %w", c.host, err)
	}

	f, err := os.Open(from)
	if err != nil {
		return transport.Result{}, fmt.Errorf("sshtransport: %s: open %s: %w", c.host, from, err)
	}
	defer f.Close()

	if _, err := c.runRaw(ctx, "cat > "+shellQuote(stagingPath), f, nil); err != nil {
		return transport.Result{}, fmt.Errorf("sshtransport: %s: stage %s: %w", c.host, stagingPath, err)
	}

	return c.invoke(ctx, actionYAML, signature)
}

// Download streams from on the remote host to the local path to.
func (c *client) Download(ctx context.Context, from, to string) (transport.Result, error) {
	out, err := os.Create(to)
	if err != nil {
		return transport.Result{}, fmt.Errorf("sshtransport: %s: create %s: %w", c.host, to, err)
	}
	defer out.Close()

	res, err := c.runRaw(ctx, "cat "+shellQuote(from), nil, out)
	if err != nil {
		return res, fmt.Errorf("sshtransport: %s: download %s: %w", c.host, from, err)
	}
	return res, nil
}

func (c *client) Close() error {
	return c.conn.Close()
}

// invoke runs the client executor with actionYAML and an optional
// signature, base64-encoded as positional arguments to survive shell
// quoting regardless of their contents (spec §6).
func (c *client) invoke(ctx context.Context, actionYAML, signature []byte) (transport.Result, error) {
	args := []string{shellQuote(base64.StdEncoding.EncodeToString(actionYAML))}
	if len(signature) > 0 {
		args = append(args, shellQuote(base64.StdEncoding.EncodeToString(signature)))
	}

	cmd := c.cfg.clientBinary() + " " + strings.Join(args, " ")
	if !c.cfg.NoSudo {
		cmd = "sudo " + cmd
	}

	return c.runRaw(ctx, cmd, nil, nil)
}

// runRaw opens one session, runs cmd, and captures its output. If
// stdout is non-nil, remote stdout is streamed there instead of being
// captured into the Result.
func (c *client) runRaw(ctx context.Context, cmd string, stdin io.Reader, stdout io.Writer) (transport.Result, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return transport.Result{}, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			session.Signal(ssh.SIGKILL)
			session.Close()
		case <-done:
		}
	}()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdin = stdin
	if stdout != nil {
		session.Stdout = stdout
	} else {
		session.Stdout = &stdoutBuf
	}
	session.Stderr = &stderrBuf

	runErr := session.Run(cmd)

	result := transport.Result{Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
	if runErr == nil {
		result.ExitCode = 0
		return result, nil
	}
	if exitErr, ok := runErr.(*ssh.ExitError); ok {
		result.ExitCode = exitErr.ExitStatus()
		return result, nil
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, runErr
}

// shellQuote wraps s in single quotes, escaping any embedded single
// quote the POSIX-safe way.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
