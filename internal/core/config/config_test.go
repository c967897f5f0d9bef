package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Input != DefaultInput {
		t.Errorf("Input = %v, want %v", cfg.Input, DefaultInput)
	}
	if cfg.Output != DefaultOutput {
		t.Errorf("Output = %v, want %v", cfg.Output, DefaultOutput)
	}
	if cfg.Catalog {
		t.Error("Catalog should default to false")
	}
	if cfg.ConversationTemplate != "" || cfg.IndexTemplate != "" {
		t.Error("templates should default to empty")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	dir := t.TempDir()

	toml := `input = "export/conversations.json"
output = "site"
catalog = true
db = "/tmp/catalog.db"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.mustache"), []byte("<h1>{{totalConversations}}</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Input != "export/conversations.json" {
		t.Errorf("Input = %v, want export/conversations.json", cfg.Input)
	}
	if cfg.Output != "site" {
		t.Errorf("Output = %v, want site", cfg.Output)
	}
	if !cfg.Catalog {
		t.Error("Catalog = false, want true")
	}
	if cfg.DBPath != "/tmp/catalog.db" {
		t.Errorf("DBPath = %v, want /tmp/catalog.db", cfg.DBPath)
	}
	if cfg.IndexTemplate != "<h1>{{totalConversations}}</h1>" {
		t.Errorf("IndexTemplate = %q", cfg.IndexTemplate)
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("input = "), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(dir); err == nil {
		t.Error("LoadFrom() should fail on invalid TOML")
	}
}
