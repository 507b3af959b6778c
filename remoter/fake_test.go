package remoter

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/process"
	"github.com/kbukum/remoter/session"
)

// fakeMachine scripts the behaviour of one remote host.
type fakeMachine struct {
	output   string
	authFail bool
	failStep Step
	// block makes the script run until its context ends.
	block bool
}

// fakeDialer is an in-memory Dialer keyed by host:port.
type fakeDialer struct {
	machines map[string]*fakeMachine

	mu       sync.Mutex
	pushed   map[string][]string
	commands map[string][]process.Command
	closed   map[string]int

	open    atomic.Int32
	maxOpen atomic.Int32
	started chan string
}

func newFakeDialer(machines map[string]*fakeMachine) *fakeDialer {
	return &fakeDialer{
		machines: machines,
		pushed:   make(map[string][]string),
		commands: make(map[string][]process.Command),
		closed:   make(map[string]int),
		started:  make(chan string, 64),
	}
}

func (d *fakeDialer) Dial(ctx context.Context, target session.Target) (session.Session, error) {
	m, ok := d.machines[target.Address]
	if !ok {
		return nil, errors.ConnectionFailed(target.Address, io.EOF)
	}
	if m.authFail {
		return nil, errors.AuthenticationFailed(target.User, target.Address, nil)
	}

	n := d.open.Add(1)
	for {
		current := d.maxOpen.Load()
		if n <= current || d.maxOpen.CompareAndSwap(current, n) {
			break
		}
	}
	return &fakeSession{dialer: d, machine: m, address: target.Address, files: map[string]string{}}, nil
}

func (d *fakeDialer) pushedTo(address string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.pushed[address]...)
}

func (d *fakeDialer) commandsOn(address string) []process.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]process.Command(nil), d.commands[address]...)
}

func (d *fakeDialer) closeCount(address string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed[address]
}

type fakeSession struct {
	dialer  *fakeDialer
	machine *fakeMachine
	address string
	files   map[string]string

	mu     sync.Mutex
	closed bool
}

func (s *fakeSession) Push(ctx context.Context, localPath, remotePath string) error {
	if s.machine.failStep == StepTransfer {
		return errors.TransferFailed(localPath, remotePath, io.ErrUnexpectedEOF)
	}
	s.dialer.mu.Lock()
	s.dialer.pushed[s.address] = append(s.dialer.pushed[s.address], remotePath)
	s.dialer.mu.Unlock()
	return nil
}

func (s *fakeSession) Pull(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[remotePath]
	if !ok || s.machine.failStep == StepFetch {
		return nil, errors.FetchFailed(remotePath, io.EOF)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (s *fakeSession) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	s.dialer.mu.Lock()
	s.dialer.commands[s.address] = append(s.dialer.commands[s.address], cmd)
	s.dialer.mu.Unlock()

	step := StepExecute
	if len(cmd.Args) > 0 && cmd.Args[0] == "-m" {
		step = StepInstall
	}
	if s.machine.failStep == step {
		result := &process.Result{ExitCode: 1, Stderr: []byte("boom")}
		return result, errors.RemoteCommandFailed(cmd.ShellLine(), 1, "boom")
	}

	if step == StepExecute {
		if s.machine.block {
			s.dialer.started <- s.address
			<-ctx.Done()
			return nil, errors.Canceled("run", ctx.Err())
		}
		// Give sibling pipelines a chance to overlap.
		time.Sleep(time.Millisecond)
		s.mu.Lock()
		s.files[cmd.Dir+"/out.txt"] = s.machine.output
		s.mu.Unlock()
	}
	return &process.Result{}, nil
}

func (s *fakeSession) Start(context.Context, process.Command) error { return nil }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.dialer.open.Add(-1)
	s.dialer.mu.Lock()
	s.dialer.closed[s.address]++
	s.dialer.mu.Unlock()
	return nil
}
