package scenario

import (
	"fmt"
	"net"
	"path"
	"path/filepath"
	"strconv"
)

const (
	DefaultOutputDirectory = "."
	DefaultInterpreter     = "python"
	DefaultPort            = 22

	// RemoteInputName is the fixed name of the input file on every machine.
	RemoteInputName = "input.txt"
)

// Output locates the local aggregation file of a scenario.
type Output struct {
	Directory string `mapstructure:"directory"`
	File      string `mapstructure:"file"`
}

// Path returns Directory/File.
func (o Output) Path() string {
	return filepath.Join(o.Directory, o.File)
}

// MachineTarget is one remote machine of a scenario.
type MachineTarget struct {
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	WorkingDir      string `mapstructure:"working-dir"`
	InterpreterPath string `mapstructure:"py-interpreter-path"`
}

// Address returns host:port.
func (m MachineTarget) Address() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// String identifies the machine in logs.
func (m MachineTarget) String() string {
	return m.User + "@" + m.Address()
}

// RemotePath places a project-relative path under the working directory.
func (m MachineTarget) RemotePath(rel string) string {
	return path.Join(m.WorkingDir, filepath.ToSlash(rel))
}

// Definition is the decoded form of one scenario block.
type Definition struct {
	Script       string          `mapstructure:"script"`
	Requirements string          `mapstructure:"requirements"`
	Others       []string        `mapstructure:"others"`
	InputFile    string          `mapstructure:"input-file"`
	Output       Output          `mapstructure:"output"`
	Machines     []MachineTarget `mapstructure:"machines"`
}

// Scenario is a script run identically on a set of machines. Values are
// immutable; slice accessors return copies.
type Scenario struct {
	index            int
	scriptPath       string
	requirementsPath string
	otherFiles       []string
	inputFile        string
	output           Output
	machines         []MachineTarget
}

// New applies defaults to d and freezes it. index is the position of the
// block in the project file.
func New(index int, d Definition) Scenario {
	s := Scenario{
		index:            index,
		scriptPath:       d.Script,
		requirementsPath: d.Requirements,
		otherFiles:       append([]string(nil), d.Others...),
		inputFile:        d.InputFile,
		output:           d.Output,
		machines:         make([]MachineTarget, len(d.Machines)),
	}
	if s.output.Directory == "" {
		s.output.Directory = DefaultOutputDirectory
	}
	for i, m := range d.Machines {
		s.machines[i] = withDefaults(m)
	}
	return s
}

func withDefaults(m MachineTarget) MachineTarget {
	if m.InterpreterPath == "" {
		m.InterpreterPath = DefaultInterpreter
	}
	if host, port, err := net.SplitHostPort(m.Host); err == nil {
		if p, err := strconv.Atoi(port); err == nil {
			m.Host = host
			if m.Port == 0 {
				m.Port = p
			}
		}
	}
	if m.Port == 0 {
		m.Port = DefaultPort
	}
	return m
}

// Name identifies the scenario in logs, e.g. "remoter[0]".
func (s Scenario) Name(namespace string) string {
	return fmt.Sprintf("%s[%d]", namespace, s.index)
}

// Index returns the position of the scenario block.
func (s Scenario) Index() int { return s.index }

// ScriptPath returns the project-relative script path.
func (s Scenario) ScriptPath() string { return s.scriptPath }

// RequirementsPath returns the dependency manifest, empty when absent.
func (s Scenario) RequirementsPath() string { return s.requirementsPath }

// HasRequirements reports whether a dependency manifest is declared.
func (s Scenario) HasRequirements() bool { return s.requirementsPath != "" }

// OtherFiles returns the auxiliary files.
func (s Scenario) OtherFiles() []string { return append([]string(nil), s.otherFiles...) }

// InputFile returns the project-relative input data path.
func (s Scenario) InputFile() string { return s.inputFile }

// Output returns the output descriptor.
func (s Scenario) Output() Output { return s.output }

// Machines returns the targets in declaration order.
func (s Scenario) Machines() []MachineTarget { return append([]MachineTarget(nil), s.machines...) }
