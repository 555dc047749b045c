package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// searchPaths returns the ordered list of config file locations to try.
func searchPaths() []string {
	paths := []string{
		"/etc/nudge/nudge.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "nudge", "nudge.yaml"))
	}

	paths = append(paths, "nudge.yaml")

	if envPath := os.Getenv("NUDGE_CONFIG"); envPath != "" {
		paths = append(paths, envPath)
	}

	return paths
}

// Load reads configuration from YAML files and environment variables.
// Files are loaded in order (each overrides the previous):
// /etc/nudge/nudge.yaml < ~/.config/nudge/nudge.yaml < ./nudge.yaml < $NUDGE_CONFIG
func Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range searchPaths() {
		if err := loadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg, os.Getenv)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	cfg := Defaults()

	if err := loadFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	applyEnvOverrides(cfg, os.Getenv)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// envOverrides maps the plain key/value pairs handed over by the surrounding
// configuration system (hook templates export them) onto config fields.
var envOverrides = map[string]func(*Config, string){
	"NOTIFICATION_BACKEND": func(c *Config, v string) { c.Notifications.Backend = v },
	"NOTIFICATION_SOUND":   func(c *Config, v string) { c.Notifications.Sound = v },
	"NOTIFICATION_EDITOR":  func(c *Config, v string) { c.Notifications.Editor = v },
	"PUSHOVER_API_TOKEN":   func(c *Config, v string) { c.Relay.APIToken = v },
	"PUSHOVER_USER_KEY":    func(c *Config, v string) { c.Relay.UserKey = v },
	"NUDGE_WINDOW_MANAGER": func(c *Config, v string) { c.Window.Manager = v },
	"NUDGE_DB":             func(c *Config, v string) { c.Database.Path = v },
	"NUDGE_LOG_LEVEL":      func(c *Config, v string) { c.Server.LogLevel = v },
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables have higher priority than YAML config values.
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	for key, apply := range envOverrides {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			apply(cfg, v)
		}
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted config search paths
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	slog.Debug("loading config file", "path", path)

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: value %v fails %q", strings.ToLower(fe.Namespace()), fe.Value(), fe.Tag())
		}
		return err
	}

	if cfg.Server.Host == "0.0.0.0" {
		return fmt.Errorf("server.host must not be 0.0.0.0, nudge serve listens on localhost only")
	}

	cfg.Database.Path = ExpandHome(cfg.Database.Path)
	cfg.Server.LogFile = ExpandHome(cfg.Server.LogFile)
	cfg.Server.TokenDir = ExpandHome(cfg.Server.TokenDir)
	cfg.Window.StateDir = ExpandHome(cfg.Window.StateDir)

	return nil
}
