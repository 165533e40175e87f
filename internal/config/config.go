package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "BENCHPLAY"

// Backend names.
const (
	BackendTmux = "tmux"
	BackendPTY  = "pty"
)

// Config holds all application configuration.
type Config struct {
	Bench     BenchConfig
	Terminal  TerminalConfig
	Companion CompanionConfig
	Logging   LogConfig
}

// BenchConfig holds how bench is invoked.
type BenchConfig struct {
	Command      string `split_words:"true"`
	Path         string `split_words:"true"`
	SiteName     string `split_words:"true"`
	AutoReload   bool   `split_words:"true"`
	AcceptArgs   bool   `split_words:"true"`
	AcceptKwargs bool   `split_words:"true"`
}

// TerminalConfig holds terminal host configuration.
type TerminalConfig struct {
	Backend      string        `split_words:"true"`
	ConsoleName  string        `split_words:"true"`
	ExecuteName  string        `split_words:"true"`
	StartupDelay time.Duration `split_words:"true"`
	LineInterval time.Duration `split_words:"true"`
	Shell        string        `split_words:"true"`
	TmuxSocket   string        `split_words:"true"`
}

// CompanionConfig holds the external "copy python path" commands.
type CompanionConfig struct {
	CopyImportCommand string `split_words:"true"`
	CopyPathCommand   string `split_words:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `split_words:"true"`
	Development bool   `split_words:"true"`
}

// fileConfig mirrors the settings file. Pointers tell unset keys apart from zero values.
type fileConfig struct {
	SiteName               *string `yaml:"siteName" toml:"siteName"`
	ConsoleTerminalName    *string `yaml:"consoleTerminalName" toml:"consoleTerminalName"`
	ExecuteTerminalName    *string `yaml:"executeTerminalName" toml:"executeTerminalName"`
	AutoReload             *bool   `yaml:"autoReload" toml:"autoReload"`
	AcceptArgsForExecute   *bool   `yaml:"acceptArgsForExecute" toml:"acceptArgsForExecute"`
	AcceptKwargsForExecute *bool   `yaml:"acceptKwargsForExecute" toml:"acceptKwargsForExecute"`
	BenchCommand           *string `yaml:"benchCommand" toml:"benchCommand"`
	BenchPath              *string `yaml:"benchPath" toml:"benchPath"`
	Backend                *string `yaml:"backend" toml:"backend"`
	StartupDelay           *string `yaml:"startupDelay" toml:"startupDelay"`
	LineInterval           *string `yaml:"lineInterval" toml:"lineInterval"`
	Shell                  *string `yaml:"shell" toml:"shell"`
	TmuxSocket             *string `yaml:"tmuxSocket" toml:"tmuxSocket"`
	CopyImportCommand      *string `yaml:"copyImportCommand" toml:"copyImportCommand"`
	CopyPathCommand        *string `yaml:"copyPathCommand" toml:"copyPathCommand"`
	LogLevel               *string `yaml:"logLevel" toml:"logLevel"`
	LogDevelopment         *bool   `yaml:"logDevelopment" toml:"logDevelopment"`
}

// Load builds configuration from defaults, the optional settings file at
// path and then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Bench: BenchConfig{
			Command:      "bench",
			Path:         ".",
			AutoReload:   true,
			AcceptArgs:   true,
			AcceptKwargs: true,
		},
		Terminal: TerminalConfig{
			Backend:      BackendTmux,
			ConsoleName:  "Bench Console",
			ExecuteName:  "Bench Execute",
			StartupDelay: 1500 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "warn",
			Development: true,
		},
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Terminal.Backend {
	case BackendTmux, BackendPTY:
	default:
		return fmt.Errorf("invalid backend %q: want %q or %q", c.Terminal.Backend, BackendTmux, BackendPTY)
	}
	if c.Terminal.StartupDelay < 0 {
		return fmt.Errorf("invalid startup delay %s", c.Terminal.StartupDelay)
	}
	if c.Terminal.LineInterval < 0 {
		return fmt.Errorf("invalid line interval %s", c.Terminal.LineInterval)
	}
	if strings.TrimSpace(c.Bench.Command) == "" {
		return fmt.Errorf("bench command must not be empty")
	}
	if c.Terminal.ConsoleName == "" || c.Terminal.ExecuteName == "" {
		return fmt.Errorf("terminal names must not be empty")
	}
	return nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	default:
		return fmt.Errorf("unsupported config file type %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return c.merge(fc)
}

func (c *Config) merge(fc fileConfig) error {
	setString(&c.Bench.SiteName, fc.SiteName)
	setString(&c.Bench.Command, fc.BenchCommand)
	setString(&c.Bench.Path, fc.BenchPath)
	setBool(&c.Bench.AutoReload, fc.AutoReload)
	setBool(&c.Bench.AcceptArgs, fc.AcceptArgsForExecute)
	setBool(&c.Bench.AcceptKwargs, fc.AcceptKwargsForExecute)

	setString(&c.Terminal.ConsoleName, fc.ConsoleTerminalName)
	setString(&c.Terminal.ExecuteName, fc.ExecuteTerminalName)
	setString(&c.Terminal.Backend, fc.Backend)
	setString(&c.Terminal.Shell, fc.Shell)
	setString(&c.Terminal.TmuxSocket, fc.TmuxSocket)
	if fc.StartupDelay != nil {
		d, err := time.ParseDuration(*fc.StartupDelay)
		if err != nil {
			return fmt.Errorf("invalid startupDelay: %w", err)
		}
		c.Terminal.StartupDelay = d
	}
	if fc.LineInterval != nil {
		d, err := time.ParseDuration(*fc.LineInterval)
		if err != nil {
			return fmt.Errorf("invalid lineInterval: %w", err)
		}
		c.Terminal.LineInterval = d
	}

	setString(&c.Companion.CopyImportCommand, fc.CopyImportCommand)
	setString(&c.Companion.CopyPathCommand, fc.CopyPathCommand)

	setString(&c.Logging.Level, fc.LogLevel)
	setBool(&c.Logging.Development, fc.LogDevelopment)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
