package remoter

import (
	"context"
	"path/filepath"

	"github.com/kbukum/remoter/config"
	"github.com/kbukum/remoter/errors"
	"github.com/kbukum/remoter/logger"
	"github.com/kbukum/remoter/observability"
	"github.com/kbukum/remoter/plugin"
	"github.com/kbukum/remoter/session"
)

// TaskID identifies the remote execution task.
const TaskID = "runRemoteExecution"

// Plugin is the remoter plugin.
type Plugin struct {
	settings *config.Settings
	dialer   session.Dialer
	log      *logger.Logger
	metrics  *observability.Metrics
}

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithDialer replaces the dialer derived from the settings.
func WithDialer(d session.Dialer) PluginOption {
	return func(p *Plugin) { p.dialer = d }
}

// WithPluginLogger sets the logger.
func WithPluginLogger(l *logger.Logger) PluginOption {
	return func(p *Plugin) { p.log = l }
}

// WithPluginMetrics sets the metric instruments.
func WithPluginMetrics(m *observability.Metrics) PluginOption {
	return func(p *Plugin) { p.metrics = m }
}

// New creates the plugin. Nil settings mean defaults.
func New(settings *config.Settings, opts ...PluginOption) *Plugin {
	if settings == nil {
		settings = &config.Settings{}
		settings.ApplyDefaults()
	}
	p := &Plugin{settings: settings, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return Namespace }

// Configure registers the configuration block shape.
func (p *Plugin) Configure(_ context.Context, project plugin.ExtendedProject) error {
	_, err := project.ConfigSpec().Register(Namespace, Spec())
	return err
}

// Tasks returns the remote execution task.
func (p *Plugin) Tasks(_ context.Context, project plugin.Project) ([]plugin.Task, error) {
	dialer := p.dialer
	if dialer == nil {
		var err error
		dialer, err = NewDialer(p.settings, project.WorkingDir(), p.log)
		if err != nil {
			return nil, err
		}
	}

	orchestrator := NewOrchestrator(dialer,
		WithConcurrency(p.settings.Concurrency),
		WithCommandTimeout(p.settings.CommandTimeout),
		WithWorkingDir(project.WorkingDir()),
		WithLogger(p.log),
		WithMetrics(p.metrics),
	)
	return []plugin.Task{&runTask{
		project:            project,
		orchestrator:       orchestrator,
		failOnMachineError: p.settings.FailOnMachineError,
	}}, nil
}

// NewDialer builds the dialer selected by settings.Transport. A local
// transport without a root uses .remoter/machines under workingDir.
func NewDialer(settings *config.Settings, workingDir string, log *logger.Logger) (session.Dialer, error) {
	switch settings.Transport {
	case config.TransportSSH, "":
		return session.NewSSHDialer(session.SSHConfig{
			ConnectTimeout:        settings.ConnectTimeout,
			KnownHostsFile:        settings.KnownHosts,
			InsecureIgnoreHostKey: settings.InsecureIgnoreHostKey,
			IdentityFiles:         settings.IdentityFiles,
		}, log), nil
	case config.TransportLocal:
		root := settings.LocalRoot
		if root == "" {
			root = filepath.Join(workingDir, ".remoter", "machines")
		}
		return session.NewLocalDialer(root), nil
	default:
		return nil, errors.InvalidConfig("unknown transport " + settings.Transport)
	}
}
