package remoter

import (
	"time"

	"github.com/kbukum/remoter/scenario"
)

// Step names a stage of a machine pipeline.
type Step string

const (
	StepConnect  Step = "connect"
	StepTransfer Step = "transfer"
	StepInstall  Step = "install"
	StepExecute  Step = "execute"
	StepFetch    Step = "fetch"
	StepAppend   Step = "append"
	StepDone     Step = "done"
)

// MachineResult is the outcome of one machine pipeline. On failure Step
// is the step that failed.
type MachineResult struct {
	Target   scenario.MachineTarget
	Step     Step
	Err      error
	Lines    int
	Duration time.Duration
}

// Succeeded reports whether the pipeline completed.
func (r MachineResult) Succeeded() bool { return r.Err == nil }

// ScenarioResult summarises one scenario. Err is set only when the output
// file could not be created, in which case no machine ran.
type ScenarioResult struct {
	Name       string
	OutputPath string
	Machines   []MachineResult
	Err        error
}

// Succeeded returns the machines that completed.
func (r ScenarioResult) Succeeded() []MachineResult {
	return r.filter(true)
}

// Failed returns the machines that failed.
func (r ScenarioResult) Failed() []MachineResult {
	return r.filter(false)
}

// Lines returns the number of lines aggregated into the output file.
func (r ScenarioResult) Lines() int {
	n := 0
	for _, m := range r.Machines {
		n += m.Lines
	}
	return n
}

func (r ScenarioResult) filter(ok bool) []MachineResult {
	var out []MachineResult
	for _, m := range r.Machines {
		if m.Succeeded() == ok {
			out = append(out, m)
		}
	}
	return out
}
