package plugin

import (
	"context"

	"github.com/kbukum/remoter/configspec"
	"github.com/kbukum/remoter/project"
)

// MessageType classifies a message printed on behalf of a task.
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageWarning
	MessageError
	MessageDebug
)

// String returns the lower-case name of the type.
func (m MessageType) String() string {
	switch m {
	case MessageWarning:
		return "warning"
	case MessageError:
		return "error"
	case MessageDebug:
		return "debug"
	default:
		return "info"
	}
}

// Project is the view of the project available to tasks.
type Project interface {
	PrintMessage(ctx context.Context, message string, t MessageType)
	WorkingDir() string
	Config() *project.Config
}

// ExtendedProject is the view available during configuration; it can
// extend the configuration specification.
type ExtendedProject interface {
	Project
	ConfigSpec() *configspec.Tree
}

// Task is one unit of work contributed by a plugin.
type Task interface {
	ID() string
	Initialize(ctx context.Context) error
	Act(ctx context.Context) error
}

// Plugin contributes configuration and tasks to a project.
type Plugin interface {
	Name() string
	// Configure runs once, before the specification is sealed.
	Configure(ctx context.Context, project ExtendedProject) error
	// Tasks returns the tasks of the plugin for project.
	Tasks(ctx context.Context, project Project) ([]Task, error)
}
