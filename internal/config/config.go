// Package config provides configuration management for Focus.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/xvierd/focus-cli/internal/domain"
)

// defaultDataDir is the unexpanded default storage location.
const defaultDataDir = "~/.focus"

// Config holds all configuration for the Focus application.
type Config struct {
	User          UserConfig         `mapstructure:"user"`
	Timer         TimerConfig        `mapstructure:"timer"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Log           LogConfig          `mapstructure:"log"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// UserConfig identifies the local user whose task lists are loaded.
type UserConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// TimerConfig holds session timer and phase cycle settings.
type TimerConfig struct {
	DefaultDuration   Duration `mapstructure:"default_duration"`
	BreakDuration     Duration `mapstructure:"break_duration"`
	AutoLoop          bool     `mapstructure:"auto_loop"`
	CycleEnabled      bool     `mapstructure:"cycle_enabled"`
	CycleWorkMinutes  int      `mapstructure:"cycle_work_minutes"`
	CycleBreakMinutes int      `mapstructure:"cycle_break_minutes"`
	CycleResumeDelay  Duration `mapstructure:"cycle_resume_delay"`
}

// Cycle converts the timer settings into the domain cycle configuration.
func (t TimerConfig) Cycle() domain.CycleConfig {
	return domain.CycleConfig{
		Enabled:      t.CycleEnabled,
		WorkMinutes:  t.CycleWorkMinutes,
		BreakMinutes: t.CycleBreakMinutes,
	}
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Desktop bool `mapstructure:"desktop"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// LogConfig holds file logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ThemeConfig holds the colors and icons of the focus screen.
type ThemeConfig struct {
	ColorWork          string `mapstructure:"color_work"`
	ColorBreak         string `mapstructure:"color_break"`
	ColorPaused        string `mapstructure:"color_paused"`
	ColorTitle         string `mapstructure:"color_title"`
	ColorTask          string `mapstructure:"color_task"`
	ColorHelp          string `mapstructure:"color_help"`
	WorkGradientStart  string `mapstructure:"work_gradient_start"`
	WorkGradientEnd    string `mapstructure:"work_gradient_end"`
	BreakGradientStart string `mapstructure:"break_gradient_start"`
	BreakGradientEnd   string `mapstructure:"break_gradient_end"`
	IconApp            string `mapstructure:"icon_app"`
	IconTask           string `mapstructure:"icon_task"`
	IconLocked         string `mapstructure:"icon_locked"`
	IconPaused         string `mapstructure:"icon_paused"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorWork:          "#7C6FE0",
		ColorBreak:         "#4ECDC4",
		ColorPaused:        "#6B7280",
		ColorTitle:         "#6B7280",
		ColorTask:          "#A0AEC0",
		ColorHelp:          "#95A5A6",
		WorkGradientStart:  "#7C6FE0",
		WorkGradientEnd:    "#A78BFA",
		BreakGradientStart: "#4ECDC4",
		BreakGradientEnd:   "#2ECC71",
		IconApp:            "🎯",
		IconTask:           "📋",
		IconLocked:         "🔒",
		IconPaused:         "⏸",
	}
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	cycle := domain.DefaultCycleConfig()
	return &Config{
		User: UserConfig{
			ID:   "local",
			Name: "",
		},
		Timer: TimerConfig{
			DefaultDuration:   Duration(25 * time.Minute),
			BreakDuration:     Duration(domain.DefaultBreakDuration),
			CycleWorkMinutes:  cycle.WorkMinutes,
			CycleBreakMinutes: cycle.BreakMinutes,
			CycleResumeDelay:  Duration(time.Second),
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Desktop: true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Log: LogConfig{
			Level: "info",
		},
		Theme: DefaultThemeConfig(),
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.User.ID) == "" {
		return fmt.Errorf("user.id must not be empty")
	}
	if c.Timer.DefaultDuration <= 0 {
		return fmt.Errorf("timer.default_duration must be positive, got %s", c.Timer.DefaultDuration)
	}
	if c.Timer.BreakDuration <= 0 {
		return fmt.Errorf("timer.break_duration must be positive, got %s", c.Timer.BreakDuration)
	}
	if c.Timer.CycleEnabled && (c.Timer.CycleWorkMinutes <= 0 || c.Timer.CycleBreakMinutes <= 0) {
		return fmt.Errorf("cycle minutes must be positive when timer.cycle_enabled is set")
	}
	if c.Timer.CycleResumeDelay < 0 {
		return fmt.Errorf("timer.cycle_resume_delay must not be negative")
	}
	return nil
}

// Load loads the configuration from the default config file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath, writing the defaults
// there first if the file does not exist.
func LoadFrom(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := unmarshal(v, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg to configPath as TOML.
func SaveTo(configPath string, cfg *Config) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	v.Set("user.id", cfg.User.ID)
	v.Set("user.name", cfg.User.Name)
	v.Set("timer.default_duration", cfg.Timer.DefaultDuration.String())
	v.Set("timer.break_duration", cfg.Timer.BreakDuration.String())
	v.Set("timer.auto_loop", cfg.Timer.AutoLoop)
	v.Set("timer.cycle_enabled", cfg.Timer.CycleEnabled)
	v.Set("timer.cycle_work_minutes", cfg.Timer.CycleWorkMinutes)
	v.Set("timer.cycle_break_minutes", cfg.Timer.CycleBreakMinutes)
	v.Set("timer.cycle_resume_delay", cfg.Timer.CycleResumeDelay.String())
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.desktop", cfg.Notifications.Desktop)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("log.level", cfg.Log.Level)

	return v.WriteConfig()
}

// SetValue updates a single key in the config file at configPath.
// The key must be one of Keys().
func SetValue(configPath, key, value string) error {
	if !isKnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}

	// Creates the file with defaults when missing.
	if _, err := LoadFrom(configPath); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	v.Set(key, value)

	var updated Config
	if err := unmarshal(v, &updated); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return SaveTo(configPath, &updated)
}

// GetValue reads a single key from the config file at configPath, falling
// back to its default.
func GetValue(configPath, key string) (string, error) {
	if !isKnownKey(key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	setDefaults(v)
	if _, err := os.Stat(configPath); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v.GetString(key), nil
}

// Keys lists the settable configuration keys in file order.
func Keys() []string {
	return []string{
		"user.id",
		"user.name",
		"timer.default_duration",
		"timer.break_duration",
		"timer.auto_loop",
		"timer.cycle_enabled",
		"timer.cycle_work_minutes",
		"timer.cycle_break_minutes",
		"timer.cycle_resume_delay",
		"notifications.enabled",
		"notifications.desktop",
		"storage.data_dir",
		"log.level",
	}
}

func isKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".focus", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "focus.db")
}

// unmarshal decodes viper settings, parsing Duration fields through their
// TextUnmarshaler.
func unmarshal(v *viper.Viper, cfg *Config) error {
	return v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
}

// expandHome resolves a leading ~ in the data directory.
func expandHome(dir string) (string, error) {
	if dir == "" {
		dir = defaultDataDir
	}
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(dir, "~")), nil
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("user.id", d.User.ID)
	v.SetDefault("user.name", d.User.Name)
	v.SetDefault("timer.default_duration", d.Timer.DefaultDuration.String())
	v.SetDefault("timer.break_duration", d.Timer.BreakDuration.String())
	v.SetDefault("timer.auto_loop", d.Timer.AutoLoop)
	v.SetDefault("timer.cycle_enabled", d.Timer.CycleEnabled)
	v.SetDefault("timer.cycle_work_minutes", d.Timer.CycleWorkMinutes)
	v.SetDefault("timer.cycle_break_minutes", d.Timer.CycleBreakMinutes)
	v.SetDefault("timer.cycle_resume_delay", d.Timer.CycleResumeDelay.String())
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.desktop", d.Notifications.Desktop)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("log.level", d.Log.Level)

	// Theme defaults
	theme := d.Theme
	v.SetDefault("theme.color_work", theme.ColorWork)
	v.SetDefault("theme.color_break", theme.ColorBreak)
	v.SetDefault("theme.color_paused", theme.ColorPaused)
	v.SetDefault("theme.color_title", theme.ColorTitle)
	v.SetDefault("theme.color_task", theme.ColorTask)
	v.SetDefault("theme.color_help", theme.ColorHelp)
	v.SetDefault("theme.work_gradient_start", theme.WorkGradientStart)
	v.SetDefault("theme.work_gradient_end", theme.WorkGradientEnd)
	v.SetDefault("theme.break_gradient_start", theme.BreakGradientStart)
	v.SetDefault("theme.break_gradient_end", theme.BreakGradientEnd)
	v.SetDefault("theme.icon_app", theme.IconApp)
	v.SetDefault("theme.icon_task", theme.IconTask)
	v.SetDefault("theme.icon_locked", theme.IconLocked)
	v.SetDefault("theme.icon_paused", theme.IconPaused)
}
