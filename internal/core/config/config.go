package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	DefaultInput  = "conversations.json"
	DefaultOutput = "formatted"
)

type Config struct {
	Input                string // Export file to read
	Output               string // Directory for generated files
	Catalog              bool   // Also index formatted conversations into the catalog
	DBPath               string // Catalog database path
	ConversationTemplate string // Custom conversation page template (optional)
	IndexTemplate        string // Custom index page template (optional)
}

type tomlConfig struct {
	Input   string `toml:"input"`
	Output  string `toml:"output"`
	Catalog bool   `toml:"catalog"`
	DB      string `toml:"db"`
}

// Dir returns ~/.config/chatfmt, or "" when the home directory is unknown
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chatfmt")
}

// DefaultDBPath returns the catalog location inside the config directory
func DefaultDBPath() string {
	dir := Dir()
	if dir == "" {
		return "catalog.db"
	}
	return filepath.Join(dir, "catalog.db")
}

// Load reads config from ~/.config/chatfmt/
func Load() (*Config, error) {
	dir := Dir()
	if dir == "" {
		return defaults(), nil // Use defaults
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.toml and template overrides from dir. Missing files
// leave defaults in place; a config.toml that exists but does not parse is
// an error.
func LoadFrom(dir string) (*Config, error) {
	cfg := defaults()

	tomlPath := filepath.Join(dir, "config.toml")
	conversationPath := filepath.Join(dir, "conversation.mustache")
	indexPath := filepath.Join(dir, "index.mustache")

	// Load TOML config if it exists
	if _, err := os.Stat(tomlPath); err == nil {
		var tc tomlConfig
		if _, err := toml.DecodeFile(tomlPath, &tc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
		}
		if tc.Input != "" {
			cfg.Input = tc.Input
		}
		if tc.Output != "" {
			cfg.Output = tc.Output
		}
		if tc.DB != "" {
			cfg.DBPath = tc.DB
		}
		cfg.Catalog = tc.Catalog
	}

	// If custom templates exist, use them
	if data, err := os.ReadFile(conversationPath); err == nil {
		cfg.ConversationTemplate = string(data)
	}
	if data, err := os.ReadFile(indexPath); err == nil {
		cfg.IndexTemplate = string(data)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Input:  DefaultInput,
		Output: DefaultOutput,
		DBPath: DefaultDBPath(),
	}
}
