package project

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/kbukum/remoter/errors"
)

// Config is the parsed project configuration.
type Config struct {
	v          *viper.Viper
	path       string
	workingDir string
}

// Load reads the project file at path. The working directory of the
// project is the directory containing the file.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.InvalidConfig(fmt.Sprintf("invalid project path %s", path)).WithCause(err)
	}

	v := viper.New()
	v.SetConfigFile(abs)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.InvalidConfig(fmt.Sprintf("failed to read project file %s", abs)).WithCause(err)
	}

	return &Config{v: v, path: abs, workingDir: filepath.Dir(abs)}, nil
}

// FromMap builds a configuration from already-parsed values.
func FromMap(values map[string]any, workingDir string) *Config {
	v := viper.New()
	// MergeConfigMap only fails for unreadable input, never for a map.
	_ = v.MergeConfigMap(values)
	return &Config{v: v, workingDir: workingDir}
}

// Path returns the absolute path of the project file, empty for FromMap configs.
func (c *Config) Path() string { return c.path }

// WorkingDir returns the directory relative project paths are resolved against.
func (c *Config) WorkingDir() string { return c.workingDir }

// Resolve returns p joined to the working directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) || c.workingDir == "" {
		return p
	}
	return filepath.Join(c.workingDir, p)
}

// IsSet reports whether key has a value.
func (c *Config) IsSet(key string) bool { return c.v.IsSet(key) }

// Get returns the raw value at key, nil when absent.
func (c *Config) Get(key string) any { return c.v.Get(key) }

// Keys returns the top-level keys of the project file.
func (c *Config) Keys() []string {
	settings := c.v.AllSettings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	return keys
}

// List returns the value at key when it is a list.
func (c *Config) List(key string) ([]any, bool) {
	list, ok := c.v.Get(key).([]any)
	return list, ok
}

// Map returns the value at key when it is a mapping.
func (c *Config) Map(key string) (map[string]any, bool) {
	if !c.v.IsSet(key) {
		return nil, false
	}
	m, ok := c.v.Get(key).(map[string]any)
	return m, ok
}

// String returns the value at key when it is a string.
func (c *Config) String(key string) (string, bool) {
	s, ok := c.v.Get(key).(string)
	return s, ok
}

// Bool returns the value at key when it is a boolean.
func (c *Config) Bool(key string) (bool, bool) {
	b, ok := c.v.Get(key).(bool)
	return b, ok
}

// Int returns the value at key when it is an integer.
func (c *Config) Int(key string) (int, bool) {
	switch n := c.v.Get(key).(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}
