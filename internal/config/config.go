package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/reconciler/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reconciler.yaml"

	// DefaultFrameInterval is the default scheduler time slice.
	DefaultFrameInterval = 5 * time.Millisecond

	// DefaultDevtoolsHost is the default devtools bind host.
	DefaultDevtoolsHost = "localhost"

	// DefaultDevtoolsPort is the default devtools port.
	DefaultDevtoolsPort = 7070

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "github.com/vango-dev/reconciler"
)

// Config represents the complete reconciler.yaml configuration.
type Config struct {
	// Log contains logging configuration.
	Log LogConfig `yaml:"log"`

	// Scheduler contains scheduler configuration.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Reconciler contains reconciler configuration.
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	// Devtools contains devtools server configuration.
	Devtools DevtoolsConfig `yaml:"devtools"`

	// Bench contains defaults for the bench command.
	Bench BenchConfig `yaml:"bench"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is the stderr format: text or json.
	Format string `yaml:"format,omitempty"`

	// File, when set, also receives every record as JSON.
	File string `yaml:"file,omitempty"`
}

// SchedulerConfig contains scheduler settings.
type SchedulerConfig struct {
	// FrameInterval is the time budget of one render slice.
	FrameInterval time.Duration `yaml:"frameInterval,omitempty"`
}

// ReconcilerConfig contains reconciler settings.
type ReconcilerConfig struct {
	// Debug enables development diagnostics and makes unknown fiber tags
	// fatal.
	Debug bool `yaml:"debug,omitempty"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `yaml:"tracerName,omitempty"`
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	// Host is the host to bind to.
	Host string `yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `yaml:"port,omitempty"`
}

// BenchConfig contains bench command defaults.
type BenchConfig struct {
	// Items is the length of the keyed list.
	Items int `yaml:"items,omitempty"`

	// Iterations is the number of reorders per root.
	Iterations int `yaml:"iterations,omitempty"`

	// Roots is the number of independent roots run in parallel.
	Roots int `yaml:"roots,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for reconciler.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault is like Load but returns defaults when the file does not
// exist.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil && errors.HasCode(err, errors.CodeInvalidConfigFile) && isNotExist(err) {
		return New(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeInvalidConfigFile).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New(errors.CodeInvalidConfigFile).Wrap(err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeInvalidConfigFile).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(errors.CodeInvalidConfigFile).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeInvalidConfigFile).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Scheduler.FrameInterval == 0 {
		c.Scheduler.FrameInterval = DefaultFrameInterval
	}
	if c.Reconciler.TracerName == "" {
		c.Reconciler.TracerName = DefaultTracerName
	}
	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultDevtoolsHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultDevtoolsPort
	}
	if c.Bench.Items == 0 {
		c.Bench.Items = 1000
	}
	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = 200
	}
	if c.Bench.Roots == 0 {
		c.Bench.Roots = 1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetailf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetailf("log.format %q must be text or json", c.Log.Format)
	}
	if c.Scheduler.FrameInterval < 0 {
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetail("scheduler.frameInterval must not be negative")
	}
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetail("devtools.port must be between 0 and 65535")
	}
	if c.Bench.Items < 0 || c.Bench.Iterations < 0 || c.Bench.Roots < 0 {
		return errors.New(errors.CodeInvalidConfigValue).
			WithDetail("bench values must not be negative")
	}
	return nil
}

// DevtoolsAddress returns the listen address of the devtools server.
func (c *Config) DevtoolsAddress() string {
	return c.Devtools.Host + ":" + strconv.Itoa(c.Devtools.Port)
}

func isNotExist(err error) bool {
	for err != nil {
		if os.IsNotExist(err) {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
