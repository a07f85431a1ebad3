// Package config handles loading and saving taskmirror configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/taskmirror/config.yaml
//   - Data:    ~/.local/share/taskmirror/ (mirror store)
//
// A per-directory override in .taskmirror/aliases.toml is merged on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG subdirectories.
const AppName = "taskmirror"

// Environment overrides.
const (
	EnvTasksRoot    = "TASKMIRROR_TASKS_ROOT"
	EnvStore        = "TASKMIRROR_STORE"
	EnvForcePolling = "TASKMIRROR_FORCE_POLLING"
)

// Defaults.
const (
	DefaultDebounceMS                = 200
	DefaultPollIntervalMS            = 1000
	DefaultStalenessThresholdMinutes = 15
)

// Local override location, relative to the working directory.
const (
	LocalDir  = ".taskmirror"
	LocalFile = "aliases.toml"
)

// Config is the top-level configuration for taskmirror.
type Config struct {
	TasksRoot                 string            `yaml:"tasks_root,omitempty"`
	StorePath                 string            `yaml:"store_path,omitempty"`
	DebounceMS                int               `yaml:"debounce_ms,omitempty"`
	PollIntervalMS            int               `yaml:"poll_interval_ms,omitempty"`
	StalenessThresholdMinutes int               `yaml:"staleness_threshold_minutes,omitempty"`
	ForcePoll                 bool              `yaml:"force_poll,omitempty"`
	Aliases                   map[string]string `yaml:"aliases,omitempty"`
}

// localConfig is the TOML override file. Only fields that are present win.
type localConfig struct {
	Aliases                   map[string]string `toml:"aliases"`
	StalenessThresholdMinutes *int              `toml:"staleness_threshold_minutes"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TasksRoot:                 DefaultTasksRoot(),
		StorePath:                 DefaultStorePath(),
		DebounceMS:                DefaultDebounceMS,
		PollIntervalMS:            DefaultPollIntervalMS,
		StalenessThresholdMinutes: DefaultStalenessThresholdMinutes,
		Aliases:                   make(map[string]string),
	}
}

// DefaultTasksRoot is ~/.claude/tasks.
func DefaultTasksRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "tasks")
	}
	return filepath.Join(home, ".claude", "tasks")
}

// DefaultStorePath is mirror.db in the data directory.
func DefaultStorePath() string {
	dir := DataDir()
	if dir == "" {
		return "mirror.db"
	}
	return filepath.Join(dir, "mirror.db")
}

// ConfigDir returns the XDG config directory for taskmirror.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// DataDir returns the XDG data directory for taskmirror.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the global config, merges the local override found in the
// working directory and applies environment overrides.
func Load() (Config, error) {
	path := ConfigPath()
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	if wd, err := os.Getwd(); err == nil {
		cfg.MergeLocal(wd)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// MergeLocal merges dir/.taskmirror/aliases.toml over c. Local aliases win
// over global ones and a local staleness threshold replaces the global one.
// A missing or unparseable file leaves c unchanged; the return value reports
// whether the file was applied.
func (c *Config) MergeLocal(dir string) bool {
	path := filepath.Join(dir, LocalDir, LocalFile)
	if _, err := os.Stat(path); err != nil {
		return false
	}

	var local localConfig
	if _, err := toml.DecodeFile(path, &local); err != nil {
		return false
	}

	if c.Aliases == nil {
		c.Aliases = make(map[string]string)
	}
	for id, alias := range local.Aliases {
		c.Aliases[id] = alias
	}
	if local.StalenessThresholdMinutes != nil && *local.StalenessThresholdMinutes >= 0 {
		c.StalenessThresholdMinutes = *local.StalenessThresholdMinutes
	}
	return true
}

// ApplyEnv applies TASKMIRROR_* environment overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvTasksRoot); v != "" {
		c.TasksRoot = expandHome(v)
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.StorePath = expandHome(v)
	}
	if v := os.Getenv(EnvForcePolling); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ForcePoll = b
		}
	}
}

func (c *Config) normalize() {
	if c.Aliases == nil {
		c.Aliases = make(map[string]string)
	}
	if c.TasksRoot == "" {
		c.TasksRoot = DefaultTasksRoot()
	}
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath()
	}
	if c.DebounceMS <= 0 {
		c.DebounceMS = DefaultDebounceMS
	}
	if c.PollIntervalMS <= 0 {
		c.PollIntervalMS = DefaultPollIntervalMS
	}
	if c.StalenessThresholdMinutes < 0 {
		c.StalenessThresholdMinutes = DefaultStalenessThresholdMinutes
	}
	c.TasksRoot = expandHome(c.TasksRoot)
	c.StorePath = expandHome(c.StorePath)
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Debounce returns the watcher quiet period.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// PollInterval returns the consumer tick.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Alias returns the configured alias for a source id.
func (c Config) Alias(id string) (string, bool) {
	alias, ok := c.Aliases[id]
	if !ok || alias == "" {
		return "", false
	}
	return alias, true
}

// DisplayName returns "Alias (a1b2c3d4...)" when id has an alias and the raw
// id otherwise.
func (c Config) DisplayName(id string) string {
	alias, ok := c.Alias(id)
	if !ok {
		return id
	}
	return fmt.Sprintf("%s (%s...)", alias, shortID(id))
}

// FormatOption renders a source for a picker:
// "<name> - N tasks, <age>".
func (c Config) FormatOption(id string, taskCount int, modified, now time.Time) string {
	return fmt.Sprintf("%s - %d tasks, %s", c.DisplayName(id), taskCount, FormatAge(now.Sub(modified)))
}

// FormatAge renders an elapsed time as "just now", "Xm ago", "Xh ago" or
// "Xd ago". Negative durations count as just now.
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

func shortID(id string) string {
	r := []rune(id)
	if len(r) > 8 {
		r = r[:8]
	}
	return string(r)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
