package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/process"
)

// LocalDialer runs every machine on this host. Each target gets its own
// directory under Root; remote absolute paths are mapped inside it.
type LocalDialer struct {
	Root string
}

// NewLocalDialer creates a dialer rooted at root.
func NewLocalDialer(root string) *LocalDialer {
	return &LocalDialer{Root: root}
}

// Dial creates the machine directory.
func (d *LocalDialer) Dial(ctx context.Context, target Target) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled("dial "+target.Address, ctx)
	}
	if d.Root == "" {
		return nil, errors.InvalidConfig("local transport requires a root directory")
	}
	dir := filepath.Join(d.Root, MachineDir(target))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.ConnectionFailed(target.Address, err)
	}
	return &localSession{target: target, dir: dir}, nil
}

// MachineDir returns the directory name of target under the root.
func MachineDir(target Target) string {
	return strings.NewReplacer(":", "_", "/", "_", "[", "", "]", "").Replace(target.Address)
}

type localSession struct {
	target Target
	dir    string
	closed atomic.Bool
}

// path maps a remote path into the machine directory.
func (s *localSession) path(remote string) string {
	return filepath.Join(s.dir, filepath.FromSlash(remote))
}

func (s *localSession) Push(ctx context.Context, localPath, remotePath string) error {
	if err := s.check(ctx, "push "+localPath); err != nil {
		return err
	}
	dst := s.path(remotePath)

	src, err := os.Open(localPath)
	if err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.TransferFailed(localPath, remotePath, fmt.Errorf("create parent directory: %w", err))
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return errors.TransferFailed(localPath, remotePath, err)
	}
	if err := out.Close(); err != nil {
		return errors.TransferFailed(localPath, remotePath, err)
	}
	return nil
}

func (s *localSession) Pull(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	if err := s.check(ctx, "pull "+remotePath); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(remotePath))
	if err != nil {
		return nil, errors.FetchFailed(remotePath, err)
	}
	return f, nil
}

func (s *localSession) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	if err := s.check(ctx, "run "+cmd.String()); err != nil {
		return nil, err
	}
	local := s.localCommand(cmd)

	result, err := process.Run(ctx, local)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return result, canceled("run "+cmd.String(), ctx)
	}
	return result, commandFailed(cmd.String(), result).WithCause(err)
}

func (s *localSession) Start(ctx context.Context, cmd process.Command) error {
	if err := s.check(ctx, "start "+cmd.String()); err != nil {
		return err
	}
	if err := process.Start(ctx, s.localCommand(cmd)); err != nil {
		return commandFailed(cmd.String(), nil).WithCause(err)
	}
	return nil
}

func (s *localSession) localCommand(cmd process.Command) process.Command {
	if cmd.Dir != "" {
		cmd.Dir = s.path(cmd.Dir)
	} else {
		cmd.Dir = s.dir
	}
	return cmd
}

func (s *localSession) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *localSession) check(ctx context.Context, op string) error {
	if ctx.Err() != nil {
		return canceled(op, ctx)
	}
	if s.closed.Load() {
		return errors.ConnectionFailed(s.target.Address, ErrClosed)
	}
	return nil
}
