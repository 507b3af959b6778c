package session

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/net/proxy"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/logger"
	"github.com/kbukum/remoter/process"
)

// SSHConfig configures SSHDialer.
type SSHConfig struct {
	// ConnectTimeout bounds dialing and the SSH handshake. Zero means no timeout.
	ConnectTimeout time.Duration
	// KnownHostsFile is the host key database; defaults to ~/.ssh/known_hosts.
	KnownHostsFile string
	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool
	// IdentityFiles are private keys tried when no password is given.
	// Defaults to the usual keys under ~/.ssh.
	IdentityFiles []string
	// AgentSocket is the ssh-agent socket; defaults to $SSH_AUTH_SOCK.
	AgentSocket string
}

// SSHDialer opens sessions over SSH. File transfer uses SFTP.
type SSHDialer struct {
	cfg SSHConfig
	log *logger.Logger
}

// NewSSHDialer creates an SSH dialer.
func NewSSHDialer(cfg SSHConfig, log *logger.Logger) *SSHDialer {
	if log == nil {
		log = logger.Nop()
	}
	return &SSHDialer{cfg: cfg, log: log.WithComponent("ssh")}
}

// Dial connects, authenticates and opens the SFTP subsystem.
func (d *SSHDialer) Dial(ctx context.Context, target Target) (Session, error) {
	if target.User == "" || target.Address == "" {
		return nil, errors.InvalidConfig(fmt.Sprintf("incomplete ssh target %q", target))
	}

	hostKeyCallback, err := d.hostKeyCallback()
	if err != nil {
		return nil, errors.ConnectionFailed(target.Address, err)
	}

	auth, release := d.authMethods(target)
	defer release()

	config := &ssh.ClientConfig{
		User:            target.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.cfg.ConnectTimeout,
	}

	dialCtx := ctx
	if d.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, d.cfg.ConnectTimeout)
		defer cancel()
	}

	conn, err := proxy.Dial(dialCtx, "tcp", target.Address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, canceled("dial "+target.Address, ctx)
		}
		return nil, errors.ConnectionFailed(target.Address, err)
	}

	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(dialCtx, func() { _ = conn.Close() })
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, target.Address, config)
	stop()
	if err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil, canceled("handshake with "+target.Address, ctx)
		}
		return nil, classifyHandshake(target, err)
	}
	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(clientConn, chans, reqs)
	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, errors.ConnectionFailed(target.Address, fmt.Errorf("sftp subsystem: %w", err))
	}

	d.log.Debug("SSH session opened", logger.Fields(logger.FieldHost, target.Address, logger.FieldUser, target.User))
	return &sshSession{target: target, client: client, sftp: sftpClient}, nil
}

func (d *SSHDialer) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if d.cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // explicitly requested by settings
	}
	file := strings.TrimSpace(d.cfg.KnownHostsFile)
	if file == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("known hosts file not set and home dir unavailable: %w", err)
		}
		file = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(file)
}

// authMethods returns password auth when a password is set, otherwise the
// agent and the identity files. release closes the agent connection.
func (d *SSHDialer) authMethods(target Target) ([]ssh.AuthMethod, func()) {
	if target.Password != "" {
		password := target.Password
		return []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		}, func() {}
	}

	var methods []ssh.AuthMethod
	release := func() {}

	socket := d.cfg.AgentSocket
	if socket == "" {
		socket = os.Getenv("SSH_AUTH_SOCK")
	}
	if socket != "" {
		if conn, err := net.Dial("unix", socket); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			release = func() { _ = conn.Close() }
		} else {
			d.log.Debug("ssh-agent unavailable", logger.ErrorFields("agent", err))
		}
	}

	var signers []ssh.Signer
	for _, file := range d.identityFiles() {
		key, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			d.log.Debug("Skipping identity file", logger.Fields("file", file, logger.FieldError, err.Error()))
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	return methods, release
}

func (d *SSHDialer) identityFiles() []string {
	if len(d.cfg.IdentityFiles) > 0 {
		return d.cfg.IdentityFiles
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
}

func classifyHandshake(target Target, err error) *errors.AppError {
	var keyErr *knownhosts.KeyError
	if stderrors.As(err, &keyErr) {
		return errors.ConnectionFailed(target.Address, err).WithDetail("reason", "host key verification failed")
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return errors.AuthenticationFailed(target.User, target.Address, err)
	}
	return errors.ConnectionFailed(target.Address, err)
}

type sshSession struct {
	target Target
	client *ssh.Client
	sftp   *sftp.Client

	closeOnce sync.Once
	closeErr  error
	mu        sync.RWMutex
	closed    bool
}

func (s *sshSession) Push(ctx context.Context, localPath, remotePath string) error {
	if err := s.check(ctx, "push "+localPath); err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	if err := s.sftp.MkdirAll(path.Dir(remotePath)); err != nil {
		return errors.TransferFailed(localPath, remotePath, fmt.Errorf("create parent directory: %w", err))
	}

	dst, err := s.sftp.Create(remotePath)
	if err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	if _, err := dst.ReadFrom(src); err != nil {
		_ = dst.Close()
		return errors.TransferFailed(localPath, remotePath, err)
	}
	if err := dst.Close(); err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	if err := s.sftp.Chmod(remotePath, info.Mode().Perm()); err != nil {
		return errors.TransferFailed(localPath, remotePath, fmt.Errorf("chmod: %w", err))
	}
	return nil
}

func (s *sshSession) Pull(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	if err := s.check(ctx, "pull "+remotePath); err != nil {
		return nil, err
	}
	f, err := s.sftp.Open(remotePath)
	if err != nil {
		return nil, errors.FetchFailed(remotePath, err)
	}
	return f, nil
}

func (s *sshSession) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	line := cmd.ShellLine()
	if err := s.check(ctx, "run "+line); err != nil {
		return nil, err
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return nil, errors.ConnectionFailed(s.target.Address, fmt.Errorf("open channel: %w", err))
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr
	if cmd.Stdin != nil {
		sess.Stdin = cmd.Stdin
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- sess.Run(line) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGTERM)
		_ = sess.Close()
		<-done
		return &process.Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: -1, Duration: time.Since(start)},
			canceled("run "+line, ctx)
	}

	result := &process.Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Duration: time.Since(start)}
	if err == nil {
		return result, nil
	}

	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case stderrors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitStatus()
		return result, commandFailed(line, result)
	case stderrors.As(err, &missingErr):
		result.ExitCode = -1
		return result, commandFailed(line, result)
	default:
		result.ExitCode = -1
		return result, errors.ConnectionFailed(s.target.Address, err)
	}
}

func (s *sshSession) Start(ctx context.Context, cmd process.Command) error {
	line := "(" + cmd.ShellLine() + ") </dev/null >/dev/null 2>&1 &"
	if err := s.check(ctx, "start "+line); err != nil {
		return err
	}
	sess, err := s.client.NewSession()
	if err != nil {
		return errors.ConnectionFailed(s.target.Address, fmt.Errorf("open channel: %w", err))
	}
	defer sess.Close()

	if err := sess.Run(line); err != nil {
		return commandFailed(line, nil).WithCause(err)
	}
	return nil
}

func (s *sshSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.closeErr = stderrors.Join(s.sftp.Close(), s.client.Close())
	})
	return s.closeErr
}

func (s *sshSession) check(ctx context.Context, op string) error {
	if ctx.Err() != nil {
		return canceled(op, ctx)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ConnectionFailed(s.target.Address, ErrClosed)
	}
	return nil
}
