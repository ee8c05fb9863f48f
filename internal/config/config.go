package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Prompt      PromptConfig      `yaml:"prompt"`
	History     HistoryConfig     `yaml:"history"`
	Connections []SavedConnection `yaml:"connections"`
}

// PromptConfig holds read-loop settings.
type PromptConfig struct {
	// MaxSuggestions caps how many candidates the dropdown shows per Tab
	// press. The completion engine always returns the full list.
	MaxSuggestions int `yaml:"max_suggestions"`
	// Multiline continues reading until a terminating ";" when true.
	Multiline bool `yaml:"multiline"`
}

// HistoryConfig holds query history settings.
type HistoryConfig struct {
	Limit   int  `yaml:"limit"`
	Enabled bool `yaml:"enabled"`
}

// SavedConnection holds parameters for a saved database connection.
type SavedConnection struct {
	Name     string `yaml:"name"`
	Adapter  string `yaml:"adapter"`
	DSN      string `yaml:"dsn,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	File     string `yaml:"file,omitempty"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Prompt: PromptConfig{
			MaxSuggestions: 15,
			Multiline:      true,
		},
		History: HistoryConfig{
			Limit:   1000,
			Enabled: true,
		},
	}
}

// ConfigDir returns the tabsql configuration directory path, typically
// ~/.config/tabsql/.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(base, "tabsql"), nil
}

// Load reads a Config from the YAML file at path. If the file does not
// exist, it returns DefaultConfig without error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadDefault loads configuration from ConfigDir()/config.yaml.
func LoadDefault() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return Load(filepath.Join(dir, "config.yaml"))
}

// Save writes the Config to the YAML file at path, creating any necessary
// parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Lookup finds a saved connection by name.
func (c *Config) Lookup(name string) (*SavedConnection, bool) {
	for i := range c.Connections {
		if c.Connections[i].Name == name {
			return &c.Connections[i], true
		}
	}
	return nil, false
}

// BuildDSN constructs a connection string from the individual fields of a
// SavedConnection. If DSN is already set, it is returned as-is. For
// file-based adapters (sqlite) it returns the File field. For network
// adapters it builds "user:password@host:port/database".
func (sc *SavedConnection) BuildDSN() string {
	if sc.DSN != "" {
		return sc.DSN
	}

	if strings.ToLower(sc.Adapter) == "sqlite" {
		return sc.File
	}

	var b strings.Builder

	if sc.User != "" {
		b.WriteString(sc.User)
		if sc.Password != "" {
			b.WriteByte(':')
			b.WriteString(sc.Password)
		}
		b.WriteByte('@')
	}

	host := sc.Host
	if host == "" {
		host = "localhost"
	}
	b.WriteString(host)

	if sc.Port > 0 {
		fmt.Fprintf(&b, ":%d", sc.Port)
	}

	if sc.Database != "" {
		b.WriteByte('/')
		b.WriteString(sc.Database)
	}

	return b.String()
}
