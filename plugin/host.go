package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/remoter/configspec"
	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/logger"
	"github.com/kbukum/remoter/project"
)

type phase int

const (
	phaseNew phase = iota
	phaseConfigured
)

// Host runs plugins against one project. Plugins are configured in
// registration order and tasks run sequentially.
type Host struct {
	config *project.Config
	spec   *configspec.Tree
	log    *logger.Logger

	mu      sync.Mutex
	plugins []Plugin
	names   map[string]bool
	tasks   []Task
	phase   phase
}

// NewHost creates a host for cfg.
func NewHost(cfg *project.Config, log *logger.Logger) *Host {
	if log == nil {
		log = logger.Nop()
	}
	return &Host{
		config: cfg,
		spec:   configspec.NewTree(),
		log:    log.WithComponent("host"),
		names:  make(map[string]bool),
	}
}

// Use registers a plugin. Plugin names are unique.
func (h *Host) Use(p Plugin) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.phase != phaseNew {
		return errors.SpecSealed(p.Name())
	}
	if h.names[p.Name()] {
		return errors.SpecConflict(p.Name()).WithDetail("kind", "plugin")
	}
	h.names[p.Name()] = true
	h.plugins = append(h.plugins, p)
	h.log.Debug("Plugin registered", logger.Fields("plugin", p.Name()))
	return nil
}

// Spec returns the configuration specification.
func (h *Host) Spec() *configspec.Tree { return h.spec }

// Configure runs every Configure hook, seals the specification and
// validates each registered namespace present in the project file.
// Tasks are collected afterwards.
func (h *Host) Configure(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.phase != phaseNew {
		return nil
	}

	ext := &extendedProject{baseProject{host: h}}
	for _, p := range h.plugins {
		if err := p.Configure(ctx, ext); err != nil {
			return fmt.Errorf("configure %s: %w", p.Name(), err)
		}
	}
	h.spec.Seal()

	if err := h.validate(); err != nil {
		return err
	}

	proj := &baseProject{host: h}
	for _, p := range h.plugins {
		tasks, err := p.Tasks(ctx, proj)
		if err != nil {
			return fmt.Errorf("tasks of %s: %w", p.Name(), err)
		}
		h.tasks = append(h.tasks, tasks...)
	}

	h.phase = phaseConfigured
	h.log.Info("Project configured", logger.Fields(
		"plugins", len(h.plugins),
		"tasks", len(h.tasks),
		"namespaces", h.spec.Namespaces(),
	))
	return nil
}

func (h *Host) validate() error {
	for _, ns := range h.spec.Namespaces() {
		if !h.config.IsSet(ns) {
			continue
		}
		if err := h.spec.Validate(ns, h.config.Get(ns)); err != nil {
			return err
		}
	}
	return nil
}

// Tasks returns the collected tasks in plugin order.
func (h *Host) Tasks() []Task {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Task(nil), h.tasks...)
}

// Run configures the host if needed, then initializes and runs the tasks
// named by ids, or every task when ids is empty. It stops at the first
// failing task.
func (h *Host) Run(ctx context.Context, ids ...string) error {
	if err := h.Configure(ctx); err != nil {
		return err
	}

	selected, err := h.selectTasks(ids)
	if err != nil {
		return err
	}

	for _, task := range selected {
		log := h.log.WithFields(logger.Fields("task", task.ID()))
		if err := ctx.Err(); err != nil {
			return errors.Canceled("task "+task.ID(), err)
		}
		log.Debug("Initializing task")
		if err := task.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize %s: %w", task.ID(), err)
		}
		log.Info("Running task")
		if err := task.Act(ctx); err != nil {
			log.Error("Task failed", logger.Fields(logger.FieldError, err.Error()))
			return fmt.Errorf("task %s: %w", task.ID(), err)
		}
		log.Info("Task completed")
	}
	return nil
}

func (h *Host) selectTasks(ids []string) ([]Task, error) {
	all := h.Tasks()
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[string]Task, len(all))
	for _, t := range all {
		byID[t.ID()] = t
	}
	selected := make([]Task, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, errors.InvalidConfig(fmt.Sprintf("unknown task %q", id))
		}
		selected = append(selected, t)
	}
	return selected, nil
}

type baseProject struct {
	host *Host
}

func (p *baseProject) PrintMessage(ctx context.Context, message string, t MessageType) {
	log := p.host.log.WithContext(ctx)
	switch t {
	case MessageWarning:
		log.Warn(message)
	case MessageError:
		log.Error(message)
	case MessageDebug:
		log.Debug(message)
	default:
		log.Info(message)
	}
}

func (p *baseProject) WorkingDir() string { return p.host.config.WorkingDir() }

func (p *baseProject) Config() *project.Config { return p.host.config }

type extendedProject struct {
	baseProject
}

func (p *extendedProject) ConfigSpec() *configspec.Tree { return p.host.spec }
