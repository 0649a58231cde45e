package config

import "time"

// DaemonConfig configures continuous mode: webhook triggers, schedule, queue.
type DaemonConfig struct {
	HTTP     HTTPConfig      `yaml:"http"`
	Webhook  WebhookConfig   `yaml:"webhook"`
	Schedule *ScheduleConfig `yaml:"schedule,omitempty"`
	Queue    QueueConfig     `yaml:"queue"`
	Notify   *NotifyConfig   `yaml:"notify,omitempty"`
}

// HTTPConfig holds the daemon listen ports.
type HTTPConfig struct {
	WebhookPort int `yaml:"webhook_port"`
	AdminPort   int `yaml:"admin_port"`
}

// WebhookConfig describes the push-event endpoint that triggers builds.
type WebhookConfig struct {
	Path   string `yaml:"path,omitempty"`
	Secret string `yaml:"secret,omitempty"`
	// Branch restricts build triggering to pushes on this ref; defaults to
	// the source branch.
	Branch string `yaml:"branch,omitempty"`
}

// ScheduleConfig enables periodic rebuilds independent of pushes.
type ScheduleConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// QueueConfig bounds the in-memory build queue.
type QueueConfig struct {
	Size    int `yaml:"size,omitempty"`
	Workers int `yaml:"workers,omitempty"`
}

// NotifyConfig enables publishing build results on NATS JetStream.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
}

func (d *DaemonConfig) applyDefaults() {
	if d.HTTP.WebhookPort == 0 {
		d.HTTP.WebhookPort = 8081
	}
	if d.HTTP.AdminPort == 0 {
		d.HTTP.AdminPort = 8082
	}
	if d.Webhook.Path == "" {
		d.Webhook.Path = "/webhook"
	}
	if d.Queue.Size == 0 {
		d.Queue.Size = 100
	}
	if d.Queue.Workers == 0 {
		d.Queue.Workers = 1
	}
	if d.Notify != nil {
		if d.Notify.URL == "" {
			d.Notify.URL = "nats://127.0.0.1:4222"
		}
		if d.Notify.Subject == "" {
			d.Notify.Subject = "docpress.builds"
		}
		if d.Notify.Stream == "" {
			d.Notify.Stream = "DOCPRESS"
		}
	}
}
