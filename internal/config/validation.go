package config

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Validate performs semantic validation after defaults have been applied.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validatePython(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateDaemon(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSource() error {
	if c.Source.URL == "" {
		return errors.New("source.url must be configured")
	}
	if err := validateAuth("source", c.Source.Auth); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePython() error {
	if c.Python.Package == "" {
		return errors.New("python.package must be configured")
	}
	if strings.ContainsAny(c.Python.Package, "/\\") {
		return fmt.Errorf("python.package must be a dotted package name, not a path: %s", c.Python.Package)
	}
	if c.Python.Version != "" {
		// Accept "3", "3.9", "3.9.1". Anything else is a configuration typo.
		for _, part := range strings.Split(c.Python.Version, ".") {
			if part == "" {
				return fmt.Errorf("invalid python.version: %s", c.Python.Version)
			}
			for _, r := range part {
				if r < '0' || r > '9' {
					return fmt.Errorf("invalid python.version: %s", c.Python.Version)
				}
			}
		}
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.Branch == c.Source.Branch && c.Publish.URL == c.Source.URL {
		return fmt.Errorf("publish branch %q must differ from source branch on the same repository", c.Publish.Branch)
	}
	if strings.HasPrefix(c.Publish.Subdir, "/") || strings.Contains(c.Publish.Subdir, "..") {
		return fmt.Errorf("publish.subdir must be a relative path inside the pages branch: %s", c.Publish.Subdir)
	}
	// The publish stage replaces the subdir wholesale; pointing it at the
	// pages checkout root would wipe the branch including .git.
	if path.Clean(c.Publish.Subdir) == "." {
		return fmt.Errorf("publish.subdir must name a subdirectory, not the branch root: %q", c.Publish.Subdir)
	}
	if err := validateAuth("publish", c.Publish.Auth); err != nil {
		return err
	}
	if c.Publish.Retry.Backoff != "" && NormalizeRetryBackoff(string(c.Publish.Retry.Backoff)) == "" {
		return fmt.Errorf("unsupported publish.retry.backoff: %s", c.Publish.Retry.Backoff)
	}
	return nil
}

func (c *Config) validateDaemon() error {
	if c.Daemon == nil {
		return nil
	}
	if c.Daemon.HTTP.WebhookPort == c.Daemon.HTTP.AdminPort {
		return fmt.Errorf("daemon webhook and admin ports must differ (both %d)", c.Daemon.HTTP.WebhookPort)
	}
	if c.Daemon.Schedule != nil && c.Daemon.Schedule.Interval <= 0 {
		return errors.New("daemon.schedule.interval must be > 0")
	}
	if !strings.HasPrefix(c.Daemon.Webhook.Path, "/") {
		return fmt.Errorf("daemon.webhook.path must start with '/': %s", c.Daemon.Webhook.Path)
	}
	return nil
}

func validateAuth(section string, auth *AuthConfig) error {
	if auth.IsZero() {
		return nil
	}
	switch auth.Type {
	case AuthTypeToken:
		if auth.Token == "" {
			return fmt.Errorf("%s auth: token authentication requires a token", section)
		}
	case AuthTypeBasic:
		if auth.Username == "" || auth.Password == "" {
			return fmt.Errorf("%s auth: basic authentication requires username and password", section)
		}
	case AuthTypeSSH:
		// Key path defaults at use site; nothing to check here.
	default:
		return fmt.Errorf("%s auth: unsupported authentication type: %s", section, auth.Type)
	}
	return nil
}
