// Package config handles the ~/.buddyterm directory structure and the
// client configuration file that lives inside it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// HomeEnv overrides the default application directory.
	HomeEnv = "BUDDYTERM_HOME"

	// DirName is the directory created under the user's home directory
	// when HomeEnv is not set.
	DirName = ".buddyterm"

	configFileName = "config.yaml"

	defaultUserID  = "default_user"
	defaultBaseURL = "http://127.0.0.1:5000"
	defaultTimeout = 60
)

const defaultConfigYAML = `# buddyterm configuration
version: 1

server:
  # Base URL of the assistant backend. All /api endpoints hang off this.
  base_url: http://127.0.0.1:5000
  # Per-request timeout in seconds. 0 disables the timeout.
  timeout_seconds: 60

user:
  # Identifier sent with every request. The backend keys tasks by it.
  id: default_user

voice:
  # Command that captures microphone audio and writes WAV to stdout.
  # It is terminated when the recording is stopped.
  record_command: [arecord, -q, -f, cd, -t, wav, -]
  # Command that plays a WAV file given as its final argument.
  play_command: [aplay, -q]
`

// ServerConfig points the client at its backend.
type ServerConfig struct {
	BaseURL        string `yaml:"base_url" validate:"required,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=0"`
}

// UserConfig identifies the user to the backend.
type UserConfig struct {
	ID string `yaml:"id" validate:"required"`
}

// VoiceConfig names the external commands used for capture and playback.
// An empty play_command disables playback of synthesized replies.
type VoiceConfig struct {
	RecordCommand []string `yaml:"record_command" validate:"required,min=1"`
	PlayCommand   []string `yaml:"play_command"`
}

// FileConfig models config.yaml.
type FileConfig struct {
	Version int          `yaml:"version"`
	Server  ServerConfig `yaml:"server"`
	User    UserConfig   `yaml:"user"`
	Voice   VoiceConfig  `yaml:"voice"`
}

// Config holds the runtime configuration for buddyterm.
type Config struct {
	// Home is the application directory (config, logs, clips).
	Home string

	File FileConfig
}

// ResolveHome returns the application directory: HomeEnv when set,
// otherwise DirName under the user's home directory.
func ResolveHome() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Init creates the application directory structure and writes the default
// config file when none exists. Called once at startup.
//
// Structure created:
//
//	<home>/
//	├── config.yaml
//	├── logs/    <- session logbook
//	└── clips/   <- temp files for synthesized reply playback
func Init(home string) error {
	dirs := []string{
		home,
		filepath.Join(home, "logs"),
		filepath.Join(home, "clips"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureConfigFile(filepath.Join(home, configFileName))
}

// Load reads config.yaml from the given application directory, applies
// defaults for omitted fields, and validates the result.
func Load(home string) (*Config, error) {
	cfg := &Config{
		Home: home,
		File: defaultFileConfig(),
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := validator.New().Struct(cfg.File); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", cfg.Path(), err)
	}
	return cfg, nil
}

// Path returns the on-disk location of the config file.
func (c *Config) Path() string {
	return filepath.Join(c.Home, configFileName)
}

// LogsDir returns the directory holding the session logbook.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Home, "logs")
}

// ClipsDir returns the directory used for transient audio files.
func (c *Config) ClipsDir() string {
	return filepath.Join(c.Home, "clips")
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.File.Server.BaseURL, "/")
}

// UserID returns the identifier sent with every backend request.
func (c *Config) UserID() string {
	return c.File.User.ID
}

// RequestTimeout returns the per-request timeout. Zero means no timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.File.Server.TimeoutSeconds) * time.Second
}

// RecordCommand returns the microphone capture command line.
func (c *Config) RecordCommand() []string {
	return c.File.Voice.RecordCommand
}

// PlayCommand returns the playback command line, empty when disabled.
func (c *Config) PlayCommand() []string {
	return c.File.Voice.PlayCommand
}

func (c *Config) loadFile() error {
	path := c.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.File = parsed
	return nil
}

func (c *Config) applyDefaults() {
	if c.File.Version == 0 {
		c.File.Version = 1
	}
	if strings.TrimSpace(c.File.Server.BaseURL) == "" {
		c.File.Server.BaseURL = defaultBaseURL
	}
	if c.File.Server.TimeoutSeconds < 0 {
		c.File.Server.TimeoutSeconds = defaultTimeout
	}
	if strings.TrimSpace(c.File.User.ID) == "" {
		c.File.User.ID = defaultUserID
	}
	if len(c.File.Voice.RecordCommand) == 0 {
		c.File.Voice.RecordCommand = defaultFileConfig().Voice.RecordCommand
	}
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version: 1,
		Server: ServerConfig{
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeout,
		},
		User: UserConfig{ID: defaultUserID},
		Voice: VoiceConfig{
			RecordCommand: []string{"arecord", "-q", "-f", "cd", "-t", "wav", "-"},
			PlayCommand:   []string{"aplay", "-q"},
		},
	}
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default %s: %w", path, err)
	}
	return nil
}
