package remoter

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/plugin"
	"github.com/kbukum/remoter/scenario"
)

type runTask struct {
	project            plugin.Project
	orchestrator       *Orchestrator
	failOnMachineError bool
}

func (t *runTask) ID() string { return TaskID }

func (t *runTask) Initialize(context.Context) error { return nil }

// Act runs every configured scenario. It fails when an output file could
// not be created, and on machine failures only when configured to.
func (t *runTask) Act(ctx context.Context) error {
	scenarios, err := scenario.Extract(t.project.Config(), Namespace)
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		t.project.PrintMessage(ctx, "No remoter scenarios configured", plugin.MessageWarning)
		return nil
	}

	results := t.orchestrator.Run(ctx, scenarios)

	var errs []error
	for _, r := range results {
		t.report(ctx, r)
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name, r.Err))
			continue
		}
		if failed := r.Failed(); t.failOnMachineError && len(failed) > 0 {
			errs = append(errs, machineFailures(r.Name, failed))
		}
	}
	return stderrors.Join(errs...)
}

func (t *runTask) report(ctx context.Context, r ScenarioResult) {
	if r.Err != nil {
		t.project.PrintMessage(ctx, fmt.Sprintf("%s: %v", r.Name, r.Err), plugin.MessageError)
		return
	}

	failed := r.Failed()
	msgType := plugin.MessageInfo
	if len(failed) > 0 {
		msgType = plugin.MessageWarning
	}
	t.project.PrintMessage(ctx, fmt.Sprintf("%s: %d/%d machines succeeded, %d lines written to %s",
		r.Name, len(r.Machines)-len(failed), len(r.Machines), r.Lines(), r.OutputPath), msgType)

	for _, m := range failed {
		t.project.PrintMessage(ctx, fmt.Sprintf("%s: %s failed at %s: %v", r.Name, m.Target, m.Step, m.Err), plugin.MessageError)
	}
}

func machineFailures(name string, failed []MachineResult) error {
	hosts := make([]string, len(failed))
	for i, m := range failed {
		hosts[i] = m.Target.String()
	}
	return errors.MachinesFailed(name, hosts)
}
