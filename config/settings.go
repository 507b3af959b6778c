package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/kbukum/remoter/logger"
	"github.com/kbukum/remoter/validation"
)

// Transports accepted by Settings.Transport.
const (
	TransportSSH   = "ssh"
	TransportLocal = "local"
)

// AppName is the default application name and settings file stem.
const AppName = "remoter"

// Settings are the runtime knobs of a remoter run. They never describe
// scenarios; those live in the project configuration.
type Settings struct {
	Name string `yaml:"name" mapstructure:"name" validate:"required"`
	// Concurrency caps simultaneously open remote sessions across all scenarios.
	Concurrency    int           `yaml:"concurrency" mapstructure:"concurrency" validate:"min=1,max=1024"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`
	Transport      string        `yaml:"transport" mapstructure:"transport" validate:"required,oneof=ssh local"`
	// LocalRoot is the directory that stands in for remote machines when Transport is local.
	LocalRoot             string   `yaml:"local_root" mapstructure:"local_root"`
	KnownHosts            string   `yaml:"known_hosts" mapstructure:"known_hosts"`
	InsecureIgnoreHostKey bool     `yaml:"insecure_ignore_host_key" mapstructure:"insecure_ignore_host_key"`
	IdentityFiles         []string `yaml:"identity_files" mapstructure:"identity_files"`
	FailOnMachineError    bool     `yaml:"fail_on_machine_error" mapstructure:"fail_on_machine_error"`

	Logging   logger.Config `yaml:"logging" mapstructure:"logging"`
	Telemetry Telemetry     `yaml:"telemetry" mapstructure:"telemetry"`
}

// Telemetry configures OTLP/HTTP export of traces and metrics.
type Telemetry struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true,omitempty,hostname_port"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
}

// ApplyDefaults fills every unset field.
func (s *Settings) ApplyDefaults() {
	if s.Name == "" {
		s.Name = AppName
	}
	if s.Concurrency == 0 {
		s.Concurrency = 8
	}
	if s.ConnectTimeout == 0 {
		s.ConnectTimeout = 15 * time.Second
	}
	if s.Transport == "" {
		s.Transport = TransportSSH
	}
	if s.KnownHosts == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.KnownHosts = filepath.Join(home, ".ssh", "known_hosts")
		}
	}
	s.Logging.ApplyDefaults()
	s.Telemetry.applyDefaults()
}

func (t *Telemetry) applyDefaults() {
	if t.Endpoint == "" && t.Enabled {
		t.Endpoint = "localhost:4318"
	}
	if t.SampleRate == 0 {
		t.SampleRate = 1.0
	}
	if t.MetricInterval == 0 {
		t.MetricInterval = 15 * time.Second
	}
	if t.Environment == "" {
		t.Environment = "development"
	}
}

// Validate checks struct tags, logging settings and durations.
func (s *Settings) Validate() error {
	v := validation.New().Struct(s)
	if err := s.Logging.Validate(); err != nil {
		v.AddError("", err.Error())
	}
	v.Custom(s.ConnectTimeout >= 0, "connect_timeout", "must not be negative")
	v.Custom(s.CommandTimeout >= 0, "command_timeout", "must not be negative")
	return v.Err()
}

// LoadSettings loads, defaults and validates settings.
func LoadSettings(opts ...LoaderOption) (*Settings, error) {
	var s Settings
	if err := LoadConfig(AppName, &s, opts...); err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
