package remoter

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/logger"
	"github.com/kbukum/remoter/observability"
	"github.com/kbukum/remoter/process"
	"github.com/kbukum/remoter/resilience"
	"github.com/kbukum/remoter/scenario"
	"github.com/kbukum/remoter/session"
)

// Orchestrator runs scenarios against remote machines.
type Orchestrator struct {
	dialer         session.Dialer
	bulkhead       *resilience.Bulkhead
	concurrency    int
	commandTimeout time.Duration
	workingDir     string
	namespace      string
	log            *logger.Logger
	metrics        *observability.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency caps simultaneously open sessions across all scenarios.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// WithCommandTimeout bounds every remote command.
func WithCommandTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.commandTimeout = d }
}

// WithWorkingDir sets the directory local paths are resolved against.
func WithWorkingDir(dir string) Option {
	return func(o *Orchestrator) { o.workingDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithMetrics sets the metric instruments. Nil disables metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates an orchestrator dialing through dialer.
func NewOrchestrator(dialer session.Dialer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dialer:    dialer,
		namespace: Namespace,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	cfg := resilience.DefaultBulkheadConfig("sessions")
	if o.concurrency > 0 {
		cfg.MaxConcurrent = o.concurrency
	}
	o.bulkhead = resilience.NewBulkhead(cfg)
	o.log = o.log.WithComponent("orchestrator")
	return o
}

// Run executes every scenario in parallel and returns their results in
// input order. Scenarios resolving to the same output file share it: the
// file is truncated once and receives the lines of all of them.
func (o *Orchestrator) Run(ctx context.Context, scenarios []scenario.Scenario) []ScenarioResult {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, op := observability.StartOperation(ctx, observability.SpanRun,
		attribute.String(observability.AttrRunID, runID),
		attribute.Int("remoter.scenarios", len(scenarios)),
	)

	sinks := make(map[string]*outputSink)
	sinkErrs := make(map[string]error)
	for _, s := range scenarios {
		path := o.outputPath(s)
		if _, seen := sinks[path]; seen {
			continue
		}
		if _, failed := sinkErrs[path]; failed {
			continue
		}
		sink, err := createSink(path)
		if err != nil {
			sinkErrs[path] = err
			continue
		}
		sinks[path] = sink
	}

	results := make([]ScenarioResult, len(scenarios))
	var wg sync.WaitGroup
	for i, s := range scenarios {
		path := o.outputPath(s)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.runScenario(ctx, s, sinks[path], sinkErrs[path])
		}()
	}
	wg.Wait()

	for path, sink := range sinks {
		if err := sink.Close(); err != nil {
			o.log.WithContext(ctx).Warn("Closing output file failed",
				logger.Fields(logger.FieldPath, path, logger.FieldError, err.Error()))
		}
	}

	var errs []error
	for _, r := range results {
		errs = append(errs, r.Err)
	}
	op.End(stderrors.Join(errs...))
	return results
}

// RunScenario truncates the output file of s, then runs one pipeline per
// machine concurrently.
func (o *Orchestrator) RunScenario(ctx context.Context, s scenario.Scenario) ScenarioResult {
	sink, err := createSink(o.outputPath(s))
	if err != nil {
		return o.runScenario(ctx, s, nil, err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			o.log.WithContext(ctx).Warn("Closing output file failed",
				logger.Fields(logger.FieldPath, sink.path, logger.FieldError, err.Error()))
		}
	}()
	return o.runScenario(ctx, s, sink, nil)
}

// runScenario runs the machines of s against an already created sink.
// sinkErr is the failure to create it, in which case no machine runs.
func (o *Orchestrator) runScenario(ctx context.Context, s scenario.Scenario, sink *outputSink, sinkErr error) ScenarioResult {
	name := s.Name(o.namespace)
	outputPath := o.outputPath(s)
	result := ScenarioResult{Name: name, OutputPath: outputPath}

	ctx, op := observability.StartOperation(ctx, observability.SpanScenario,
		attribute.String(observability.AttrScenario, name),
		attribute.String(observability.AttrOutputPath, outputPath),
	)
	log := o.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldScenario, name))

	if sinkErr != nil {
		result.Err = sinkErr
		op.End(sinkErr)
		log.Error("Cannot create output file", logger.Fields(logger.FieldPath, outputPath, logger.FieldError, sinkErr.Error()))
		return result
	}

	machines := s.Machines()
	result.Machines = make([]MachineResult, len(machines))
	log.Info("Scenario started", logger.Fields("machines", len(machines), logger.FieldPath, outputPath))

	var wg sync.WaitGroup
	for i, m := range machines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Machines[i] = o.runMachine(ctx, name, s, m, sink)
		}()
	}
	wg.Wait()

	lines := result.Lines()
	o.metrics.RecordOutputLines(ctx, name, lines)
	op.SetAttributes(attribute.Int(observability.AttrLines, lines))
	duration := op.End(nil)

	log.Info("Scenario finished", logger.Fields(
		"succeeded", len(result.Succeeded()),
		"failed", len(result.Failed()),
		"lines", lines,
		logger.FieldDuration, duration.Milliseconds(),
	))
	return result
}

func (o *Orchestrator) runMachine(ctx context.Context, name string, s scenario.Scenario, m scenario.MachineTarget, sink *outputSink) MachineResult {
	res := MachineResult{Target: m, Step: StepConnect}

	ctx, op := observability.StartOperation(ctx, observability.SpanMachine,
		attribute.String(observability.AttrScenario, name),
		attribute.String(observability.AttrHost, m.Address()),
		attribute.String(observability.AttrUser, m.User),
	)
	log := o.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldScenario, name,
		logger.FieldHost, m.Address(),
	))

	started := false
	err := o.bulkhead.Execute(ctx, func() error {
		started = true
		return o.pipeline(ctx, s, m, sink, &res, op, log)
	})
	if err != nil && !started {
		err = errors.Canceled("waiting for a session slot", err)
	}

	res.Err = err
	status := observability.StatusOK
	failedStep := ""
	if err == nil {
		res.Step = StepDone
	} else {
		status = observability.StatusFailed
		failedStep = string(res.Step)
	}
	res.Duration = op.End(err)
	o.metrics.RecordMachine(ctx, name, status, failedStep, res.Duration)

	if err != nil {
		log.Error("Machine failed", logger.Fields(
			logger.FieldStep, string(res.Step),
			logger.FieldError, err.Error(),
			"code", string(errors.CodeOf(err)),
		))
	} else {
		log.Info("Machine completed", logger.Fields("lines", res.Lines, logger.FieldDuration, res.Duration.Milliseconds()))
	}
	return res
}

// pipeline runs the steps of one machine. The session is closed on every
// exit path, and promptly when ctx ends.
func (o *Orchestrator) pipeline(
	ctx context.Context,
	s scenario.Scenario,
	m scenario.MachineTarget,
	sink *outputSink,
	res *MachineResult,
	op *observability.Operation,
	log *logger.Logger,
) error {
	step := func(st Step) {
		res.Step = st
		op.Step(string(st))
		log.Debug("Step", logger.Fields(logger.FieldStep, string(st)))
	}

	step(StepConnect)
	sess, err := o.dialer.Dial(ctx, session.Target{Address: m.Address(), User: m.User, Password: m.Password})
	if err != nil {
		return err
	}
	o.metrics.SessionOpened(ctx)
	stop := context.AfterFunc(ctx, func() { _ = sess.Close() })
	defer func() {
		stop()
		if err := sess.Close(); err != nil {
			log.Debug("Closing session failed", logger.Fields(logger.FieldError, err.Error()))
		}
		o.metrics.SessionClosed(context.WithoutCancel(ctx))
	}()

	step(StepTransfer)
	for _, t := range transfers(s) {
		if err := sess.Push(ctx, o.resolve(t.local), m.RemotePath(t.remote)); err != nil {
			return err
		}
	}

	if s.HasRequirements() {
		step(StepInstall)
		install := o.command(m, "-m", "pip", "install", "-r", s.RequirementsPath())
		if _, err := sess.Run(ctx, install); err != nil {
			return err
		}
	}

	step(StepExecute)
	if _, err := sess.Run(ctx, o.command(m, s.ScriptPath())); err != nil {
		return err
	}

	step(StepFetch)
	remoteOutput := m.RemotePath(s.Output().File)
	rc, err := sess.Pull(ctx, remoteOutput)
	if err != nil {
		return err
	}
	lines, err := readLines(rc)
	_ = rc.Close()
	if err != nil {
		return errors.FetchFailed(remoteOutput, err)
	}

	step(StepAppend)
	n, err := sink.Append(lines)
	res.Lines = n
	return err
}

// command runs the interpreter inside the working directory; script and
// manifest paths stay relative to it.
func (o *Orchestrator) command(m scenario.MachineTarget, args ...string) process.Command {
	return process.Command{
		Binary:  m.InterpreterPath,
		Args:    args,
		Dir:     m.WorkingDir,
		Timeout: o.commandTimeout,
	}
}

func (o *Orchestrator) outputPath(s scenario.Scenario) string {
	return filepath.Clean(o.resolve(s.Output().Path()))
}

func (o *Orchestrator) resolve(p string) string {
	if filepath.IsAbs(p) || o.workingDir == "" {
		return p
	}
	return filepath.Join(o.workingDir, p)
}

type transfer struct {
	local  string
	remote string
}

// transfers lists the files pushed to every machine, in order.
func transfers(s scenario.Scenario) []transfer {
	list := []transfer{{s.ScriptPath(), s.ScriptPath()}}
	if s.HasRequirements() {
		list = append(list, transfer{s.RequirementsPath(), s.RequirementsPath()})
	}
	list = append(list, transfer{s.InputFile(), scenario.RemoteInputName})
	for _, other := range s.OtherFiles() {
		list = append(list, transfer{other, other})
	}
	return list
}

// readLines splits r into lines, each terminated by "\n".
func readLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	var lines []string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			lines = append(lines, line)
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
