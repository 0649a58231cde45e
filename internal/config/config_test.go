package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "docpress.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  url: https://github.com/logsdail/carmm.git
python:
  package: carmm
site:
  title: CARMM Documentation
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Source.Branch != "main" {
		t.Errorf("Source.Branch = %q, want main", cfg.Source.Branch)
	}
	if cfg.Source.Name != "carmm" {
		t.Errorf("Source.Name = %q, want carmm (derived from URL)", cfg.Source.Name)
	}
	if cfg.Python.Version != "3.9" {
		t.Errorf("Python.Version = %q, want 3.9", cfg.Python.Version)
	}
	if cfg.Publish.Branch != "gh-pages" {
		t.Errorf("Publish.Branch = %q, want gh-pages", cfg.Publish.Branch)
	}
	if cfg.Publish.Subdir != "docs" {
		t.Errorf("Publish.Subdir = %q, want docs", cfg.Publish.Subdir)
	}
	if cfg.Publish.URL != cfg.Source.URL {
		t.Errorf("Publish.URL = %q, want source URL", cfg.Publish.URL)
	}
	if cfg.Publish.AuthorName != "GitHub Action" || cfg.Publish.AuthorEmail != "action@github.com" {
		t.Errorf("publish author = %q <%s>, want GitHub Action <action@github.com>",
			cfg.Publish.AuthorName, cfg.Publish.AuthorEmail)
	}
	if cfg.History == nil || cfg.History.Path != DefaultHistoryPath {
		t.Errorf("History defaults not applied: %+v", cfg.History)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCPRESS_TEST_TOKEN", "sekrit")
	path := writeConfig(t, `
source:
  url: https://github.com/logsdail/carmm.git
python:
  package: carmm
publish:
  auth:
    type: token
    token: ${DOCPRESS_TEST_TOKEN}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Publish.Auth == nil || cfg.Publish.Auth.Token != "sekrit" {
		t.Errorf("expected token expanded from environment, got %+v", cfg.Publish.Auth)
	}
}

func TestLoadRejectsMissingSource(t *testing.T) {
	path := writeConfig(t, `
python:
  package: carmm
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "source.url") {
		t.Errorf("expected source.url validation error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"package as path", func(c *Config) { c.Python.Package = "carmm/analyse" }, "dotted package"},
		{"bad python version", func(c *Config) { c.Python.Version = "3.x" }, "python.version"},
		{"absolute subdir", func(c *Config) { c.Publish.Subdir = "/docs" }, "publish.subdir"},
		{"subdir escape", func(c *Config) { c.Publish.Subdir = "../docs" }, "publish.subdir"},
		{"subdir is branch root", func(c *Config) { c.Publish.Subdir = "." }, "branch root"},
		{"subdir cleans to root", func(c *Config) { c.Publish.Subdir = "./" }, "branch root"},
		{"same branch and repo", func(c *Config) { c.Publish.Branch = c.Source.Branch }, "must differ"},
		{"bad auth type", func(c *Config) { c.Publish.Auth = &AuthConfig{Type: "oauth"} }, "unsupported authentication"},
		{"token without token", func(c *Config) { c.Publish.Auth = &AuthConfig{Type: AuthTypeToken} }, "requires a token"},
		{"bad backoff", func(c *Config) { c.Publish.Retry.Backoff = "quadratic" }, "backoff"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := &Config{
				Source: SourceConfig{URL: "https://example.com/p.git"},
				Python: PythonConfig{Package: "p"},
			}
			cfg.ApplyDefaults()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.wantSub) {
				t.Errorf("Validate() = %v, want error containing %q", err, test.wantSub)
			}
		})
	}
}

func TestValidateDaemon(t *testing.T) {
	cfg := &Config{
		Source: SourceConfig{URL: "https://example.com/p.git"},
		Python: PythonConfig{Package: "p"},
		Daemon: &DaemonConfig{},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default daemon config should validate: %v", err)
	}
	if cfg.Daemon.HTTP.WebhookPort != 8081 || cfg.Daemon.HTTP.AdminPort != 8082 {
		t.Errorf("daemon port defaults not applied: %+v", cfg.Daemon.HTTP)
	}
	if cfg.Daemon.Webhook.Path != "/webhook" {
		t.Errorf("webhook path default = %q", cfg.Daemon.Webhook.Path)
	}

	cfg.Daemon.HTTP.AdminPort = cfg.Daemon.HTTP.WebhookPort
	if err := cfg.Validate(); err == nil {
		t.Error("expected port clash to fail validation")
	}
}

func TestInitWritesExample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docpress.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Second init without force must refuse to overwrite.
	if err := Init(path, false); err == nil {
		t.Error("expected error when config already exists")
	}
	if err := Init(path, true); err != nil {
		t.Errorf("Init with force: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read example config: %v", err)
	}
	for _, want := range []string{"gh-pages", "action@github.com", "3.9"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("example config missing %q", want)
		}
	}
}
