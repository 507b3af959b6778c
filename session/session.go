package session

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/process"
)

// ErrClosed is the cause of errors returned by a closed session.
var ErrClosed = stderrors.New("session closed")

// maxStderr bounds the stderr kept in REMOTE_COMMAND_FAILED details.
const maxStderr = 4096

// Target identifies one machine and the credentials to reach it.
type Target struct {
	// Address is host:port.
	Address string
	User    string
	// Password is optional; without it agent and key authentication are used.
	Password string
}

// String renders the target as user@host:port.
func (t Target) String() string {
	return t.User + "@" + t.Address
}

// Session is one authenticated channel to a machine.
type Session interface {
	// Push copies a local file to remotePath, creating parent directories.
	Push(ctx context.Context, localPath, remotePath string) error
	// Pull opens a remote file for reading.
	Pull(ctx context.Context, remotePath string) (io.ReadCloser, error)
	// Run executes cmd and waits for it. A non-zero exit returns both the
	// result and a REMOTE_COMMAND_FAILED error.
	Run(ctx context.Context, cmd process.Command) (*process.Result, error)
	// Start launches cmd without waiting for it.
	Start(ctx context.Context, cmd process.Command) error
	// Close releases the session. It is safe to call more than once.
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Session, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, target Target) (Session, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, target Target) (Session, error) {
	return f(ctx, target)
}

func commandFailed(line string, result *process.Result) *errors.AppError {
	stderr := ""
	if result != nil {
		stderr = string(result.Stderr)
		if len(stderr) > maxStderr {
			stderr = stderr[len(stderr)-maxStderr:]
		}
	}
	code := -1
	if result != nil {
		code = result.ExitCode
	}
	return errors.RemoteCommandFailed(line, code, strings.TrimSpace(stderr))
}

func canceled(op string, ctx context.Context) *errors.AppError {
	return errors.Canceled(op, context.Cause(ctx))
}
