package remoter

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/kbukum/remoter/errors"
)

// outputSink is the append target shared by every scenario writing to one
// output file. Each line is written with a single Write under the lock.
type outputSink struct {
	path string

	mu     sync.Mutex
	f      *os.File
	closed bool
}

// createSink creates or truncates path.
func createSink(path string) (*outputSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.OutputUnavailable(path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.OutputUnavailable(path, err)
	}
	return &outputSink{path: path, f: f}, nil
}

// Append writes lines, each already terminated by "\n", and returns how
// many were written.
func (s *outputSink) Append(lines []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, line := range lines {
		if _, err := s.f.WriteString(line); err != nil {
			return i, errors.OutputUnavailable(s.path, err)
		}
	}
	return len(lines), nil
}

func (s *outputSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}
