package config

import "time"

// Config is the root configuration for nudge.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Window        WindowConfig        `yaml:"window"`
	Relay         RelayConfig         `yaml:"relay"`
}

// ServerConfig covers logging and the optional `nudge serve` listener.
type ServerConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `yaml:"log_file"`
	TokenDir string `yaml:"token_dir"`
}

type DatabaseConfig struct {
	Path          string        `yaml:"path" validate:"required"`
	LockTimeout   time.Duration `yaml:"lock_timeout" validate:"gt=0"`
	RetentionDays int           `yaml:"retention_days" validate:"gte=0"`
}

type NotificationsConfig struct {
	Backend       string        `yaml:"backend" validate:"oneof=native branded tracked"`
	Sound         string        `yaml:"sound"`
	Editor        string        `yaml:"editor"`
	BrandedBinary string        `yaml:"branded_binary" validate:"required"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
}

type WindowConfig struct {
	Manager  string `yaml:"manager" validate:"oneof=auto xdotool hammerspoon wezterm"`
	StateDir string `yaml:"state_dir"`
}

type RelayConfig struct {
	ProviderURL string        `yaml:"provider_url" validate:"omitempty,url"`
	APIToken    string        `yaml:"api_token"`
	UserKey     string        `yaml:"user_key"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// Enabled reports whether both push credentials are present.
func (r RelayConfig) Enabled() bool {
	return r.APIToken != "" && r.UserKey != ""
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8421,
			LogLevel: "info",
			LogFile:  "~/.claude/notifier/nudge.log",
			TokenDir: "~/.config/nudge",
		},
		Database: DatabaseConfig{
			Path:          "~/.claude/notifier/sessions.db",
			LockTimeout:   2 * time.Second,
			RetentionDays: 90,
		},
		Notifications: NotificationsConfig{
			Backend:       "branded",
			Sound:         "Glass",
			Editor:        "zed",
			BrandedBinary: "terminal-notifier",
			Timeout:       5 * time.Second,
		},
		Window: WindowConfig{
			Manager: "auto",
		},
		Relay: RelayConfig{
			ProviderURL: "https://api.pushover.net/1/messages.json",
			Timeout:     3 * time.Second,
		},
	}
}
