package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	winerrors "binocular/internal/infrastructure/errors"
	"binocular/internal/infrastructure/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. BINOCULAR_LOG_LEVEL
const EnvPrefix = "BINOCULAR"

const (
	minIconSize = 8
	maxIconSize = 256
	maxDebounce = 5 * time.Second
)

var (
	validEnvironments = []string{"development", "production", "test"}
	validLogLevels    = []string{"debug", "info", "warn", "error"}
)

// Config holds every tunable of the switcher
type Config struct {
	Environment string        `mapstructure:"environment" yaml:"environment" json:"environment"`
	Log         LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
	Hotkey      HotkeyConfig  `mapstructure:"hotkey" yaml:"hotkey" json:"hotkey"`
	Icon        IconConfig    `mapstructure:"icon" yaml:"icon" json:"icon"`
	Bridge      BridgeConfig  `mapstructure:"bridge" yaml:"bridge" json:"bridge"`
	Refresh     RefreshConfig `mapstructure:"refresh" yaml:"refresh" json:"refresh"`
	Autostart   bool          `mapstructure:"autostart" yaml:"autostart" json:"autostart"` // register in the user's Run key
}

// LogConfig selects level and output style
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" json:"pretty"` // console writer instead of JSON lines
}

// HotkeyConfig describes the panel toggle hotkey
type HotkeyConfig struct {
	Enabled   bool     `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Modifiers []string `mapstructure:"modifiers" yaml:"modifiers" json:"modifiers"` // ctrl, alt, shift, win
	Key       string   `mapstructure:"key" yaml:"key" json:"key"`                   // A-Z, 0-9, F1-F24, space, tab
}

// IconConfig controls icon encoding
type IconConfig struct {
	Size int `mapstructure:"size" yaml:"size" json:"size"` // edge length of the encoded PNG
}

// BridgeConfig controls change notification handling
type BridgeConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"` // 0 refreshes on every event
}

// RefreshConfig controls refreshes triggered by the user
type RefreshConfig struct {
	Retry bool `mapstructure:"retry" yaml:"retry" json:"retry"` // retry a failed walk once before giving up
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "production",
		Log: LogConfig{
			Level: "info",
		},
		Hotkey: HotkeyConfig{
			Enabled:   true,
			Modifiers: []string{"ctrl"},
			Key:       "M",
		},
		Icon: IconConfig{
			Size: 16,
		},
		Bridge: BridgeConfig{
			Debounce: 50 * time.Millisecond,
		},
		Refresh: RefreshConfig{
			Retry: true,
		},
		Autostart: false,
	}
}

// DevelopmentConfig returns a configuration suited to working on the switcher
func DevelopmentConfig() *Config {
	config := DefaultConfig()
	config.Environment = "development"
	config.Log.Level = "debug"
	config.Log.Pretty = true
	return config
}

// TestConfig returns a configuration for tests: quiet, synchronous, no
// global side effects
func TestConfig() *Config {
	config := DefaultConfig()
	config.Environment = "test"
	config.Log.Level = "error"
	config.Hotkey.Enabled = false
	config.Bridge.Debounce = 0
	config.Refresh.Retry = false
	return config
}

// ConfigForEnvironment returns the baseline configuration for env
func ConfigForEnvironment(env string) *Config {
	switch env {
	case "development":
		return DevelopmentConfig()
	case "test":
		return TestConfig()
	default:
		return DefaultConfig()
	}
}

// Validate checks every field and reports the first problem found
func (c *Config) Validate() error {
	if !slices.Contains(validEnvironments, c.Environment) {
		return winerrors.HandleValidationError("validate config", "environment", c.Environment,
			"must be one of "+strings.Join(validEnvironments, ", "))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return winerrors.HandleValidationError("validate config", "log.level", c.Log.Level,
			"must be one of "+strings.Join(validLogLevels, ", "))
	}

	if c.Icon.Size < minIconSize || c.Icon.Size > maxIconSize {
		return winerrors.HandleValidationError("validate config", "icon.size", strconv.Itoa(c.Icon.Size),
			fmt.Sprintf("must be between %d and %d", minIconSize, maxIconSize))
	}

	if c.Bridge.Debounce < 0 || c.Bridge.Debounce > maxDebounce {
		return winerrors.HandleValidationError("validate config", "bridge.debounce", c.Bridge.Debounce.String(),
			fmt.Sprintf("must be between 0 and %v", maxDebounce))
	}

	if c.Hotkey.Enabled {
		if _, err := c.Hotkey.Spec(); err != nil {
			return winerrors.HandleValidationError("validate config", "hotkey", c.Hotkey.String(), err.Error())
		}
	}

	return nil
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	clone := *c
	clone.Hotkey.Modifiers = slices.Clone(c.Hotkey.Modifiers)
	return &clone
}

// IsDevelopment reports whether the development baseline is in use
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsTest reports whether the test baseline is in use
func (c *Config) IsTest() bool {
	return c.Environment == "test"
}

// Loader reads configuration from an optional YAML file and BINOCULAR_*
// environment variables and can keep it current as the file changes
type Loader struct {
	v      *viper.Viper
	logger logging.Logger

	mu     sync.RWMutex
	config *Config
}

// DefaultPath returns the per-user configuration file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "binocular.yaml"
	}
	return filepath.Join(dir, "binocular", "binocular.yaml")
}

// NewLoader loads configuration. An explicit path must exist; without one
// the default locations are searched and a missing file is not an error.
func NewLoader(path string, logger logging.Logger) (*Loader, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("binocular")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, winerrors.NewOperationError("load config", err, winerrors.ErrCodeConfig)
		}
		logger.Debug("No config file found, using defaults and environment")
	}

	// Defaults follow the selected environment; explicit values still win.
	setDefaults(v, ConfigForEnvironment(v.GetString("environment")))

	config, err := decode(v)
	if err != nil {
		return nil, err
	}

	logger.Info("Config loaded",
		"path", v.ConfigFileUsed(),
		"environment", config.Environment)

	return &Loader{v: v, logger: logger, config: config}, nil
}

// Config returns a copy of the current configuration
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config.Clone()
}

// Path returns the file the configuration was read from, if any
func (l *Loader) Path() string {
	return l.v.ConfigFileUsed()
}

// Persist validates and writes one key into the config file and makes it
// current; an invalid value changes nothing. The rest of the file is left
// as written, so defaults and environment values are not copied into it.
// Without a loaded file one is created at DefaultPath.
func (l *Loader) Persist(key string, value interface{}) error {
	candidate := viper.New()
	if err := candidate.MergeConfigMap(l.v.AllSettings()); err != nil {
		return winerrors.NewOperationError("persist config", err, winerrors.ErrCodeConfig)
	}
	candidate.Set(key, value)
	config, err := decode(candidate)
	if err != nil {
		return err
	}

	path := l.v.ConfigFileUsed()
	if path == "" {
		path = DefaultPath()
	}

	doc := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return winerrors.NewOperationError("persist config", err, winerrors.ErrCodeConfig)
		}
		if doc == nil {
			doc = map[string]interface{}{}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return winerrors.NewOperationError("persist config", err, winerrors.ErrCodeConfig)
	}

	setKey(doc, strings.Split(key, "."), value)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return winerrors.NewOperationError("persist config", err, winerrors.ErrCodeConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return winerrors.NewOperationError("persist config", err, winerrors.ErrCodeConfig)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return winerrors.NewOperationError("persist config", err, winerrors.ErrCodeConfig)
	}

	l.v.SetConfigFile(path)
	l.v.Set(key, value)

	l.mu.Lock()
	l.config = config
	l.mu.Unlock()

	l.logger.Info("Config value persisted", "key", key, "path", path)
	return nil
}

func setKey(doc map[string]interface{}, parts []string, value interface{}) {
	for _, part := range parts[:len(parts)-1] {
		next, ok := doc[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			doc[part] = next
		}
		doc = next
	}
	doc[parts[len(parts)-1]] = value
}

// Watch reloads the file whenever it changes and hands each valid result
// to onChange. An invalid edit is logged and the previous values are kept.
func (l *Loader) Watch(onChange func(*Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		config, err := decode(l.v)
		if err != nil {
			logging.LogError(l.logger, err, "reload config", map[string]interface{}{"path": e.Name})
			return
		}

		l.mu.Lock()
		l.config = config
		l.mu.Unlock()

		l.logger.Info("Config reloaded", "path", e.Name)
		if onChange != nil {
			onChange(config.Clone())
		}
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("environment", c.Environment)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.pretty", c.Log.Pretty)
	v.SetDefault("hotkey.enabled", c.Hotkey.Enabled)
	v.SetDefault("hotkey.modifiers", c.Hotkey.Modifiers)
	v.SetDefault("hotkey.key", c.Hotkey.Key)
	v.SetDefault("icon.size", c.Icon.Size)
	v.SetDefault("bridge.debounce", c.Bridge.Debounce)
	v.SetDefault("refresh.retry", c.Refresh.Retry)
	v.SetDefault("autostart", c.Autostart)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, winerrors.NewOperationError("decode config", err, winerrors.ErrCodeConfig)
	}
	config.Log.Level = strings.ToLower(config.Log.Level)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
