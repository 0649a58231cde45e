package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig   `yaml:"source"`
	Python  PythonConfig   `yaml:"python"`
	Apidoc  ApidocConfig   `yaml:"apidoc"`
	Site    SiteConfig     `yaml:"site"`
	Publish PublishConfig  `yaml:"publish"`
	History *HistoryConfig `yaml:"history,omitempty"`
	Daemon  *DaemonConfig  `yaml:"daemon,omitempty"`
}

// SourceConfig identifies the Git repository whose docstrings are documented
type SourceConfig struct {
	URL    string      `yaml:"url"`
	Name   string      `yaml:"name"`
	Branch string      `yaml:"branch,omitempty"`
	Auth   *AuthConfig `yaml:"auth,omitempty"`
}

// PythonConfig pins the interpreter version the docs claim to document and
// the package lookup roots (the PYTHONPATH equivalent for the scanner).
type PythonConfig struct {
	Version     string   `yaml:"version,omitempty"`
	Package     string   `yaml:"package"`
	SearchPaths []string `yaml:"search_paths,omitempty"`
}

// ApidocConfig controls stub page generation from docstrings
type ApidocConfig struct {
	Exclude        []string `yaml:"exclude,omitempty"`         // directory/module names skipped during the walk
	IncludePrivate bool     `yaml:"include_private,omitempty"` // include _underscore members
}

// SiteConfig controls static HTML rendering
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Output      string `yaml:"output,omitempty"`
	Clean       bool   `yaml:"clean"` // Clean output directory before build
}

// PublishConfig describes the pages branch the rendered site is pushed to
type PublishConfig struct {
	URL         string      `yaml:"url,omitempty"` // defaults to source.url
	Branch      string      `yaml:"branch,omitempty"`
	Subdir      string      `yaml:"subdir,omitempty"` // site overlay directory inside the pages branch
	AuthorName  string      `yaml:"author_name,omitempty"`
	AuthorEmail string      `yaml:"author_email,omitempty"`
	Auth        *AuthConfig `yaml:"auth,omitempty"`
	Retry       RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig tunes push retry behavior for transient remote failures
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff,omitempty"`
	Initial    string           `yaml:"initial,omitempty"` // duration string, e.g. "1s"
	Max        string           `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries,omitempty"`
}

// HistoryConfig locates the SQLite build history store
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFiles(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Source: SourceConfig{
			URL:    "https://github.com/example/project.git",
			Name:   "project",
			Branch: "main",
		},
		Python: PythonConfig{
			Version:     "3.9",
			Package:     "project",
			SearchPaths: []string{"."},
		},
		Apidoc: ApidocConfig{
			Exclude: []string{"tests", "examples"},
		},
		Site: SiteConfig{
			Title:  "Project API Documentation",
			Output: "./site",
			Clean:  true,
		},
		Publish: PublishConfig{
			Branch:      "gh-pages",
			Subdir:      "docs",
			AuthorName:  "GitHub Action",
			AuthorEmail: "action@github.com",
			Auth: &AuthConfig{
				Type:  "token",
				Token: "${GITHUB_TOKEN}",
			},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
