package process

import (
	"io"
	"strings"
	"time"
)

// Command configures a process to execute, locally or on a remote shell.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// Stdin provides input to the process. May be nil.
	Stdin io.Reader
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
	// Timeout bounds the whole execution. Zero means no timeout.
	Timeout time.Duration
}

// String renders the command as a single line for logs and error details.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Binary)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// ShellLine renders the command for a POSIX shell: every word is quoted,
// Env entries are prefixed as assignments, and a non-empty Dir becomes a
// leading "cd <dir> &&".
func (c Command) ShellLine() string {
	var b strings.Builder
	if c.Dir != "" {
		b.WriteString("cd ")
		b.WriteString(Quote(c.Dir))
		b.WriteString(" && ")
	}
	for _, kv := range c.Env {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(Quote(value))
		b.WriteByte(' ')
	}
	b.WriteString(Quote(c.Binary))
	for _, arg := range c.Args {
		b.WriteByte(' ')
		b.WriteString(Quote(arg))
	}
	return b.String()
}

// Quote wraps s in single quotes for a POSIX shell.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if isShellSafe(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isShellSafe(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./:=@%+,", r):
		default:
			return false
		}
	}
	return true
}
