// Package notify publishes build results on NATS JetStream so other systems
// can react to documentation updates without polling the pages branch.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/logfields"
	"github.com/docpress/docpress/internal/pipeline"
)

// BuildEvent is the message published for every finished build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Repository string    `json:"repository"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Commit     string    `json:"commit,omitempty"`
	Committed  bool      `json:"committed"`
	Pages      int       `json:"pages"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Notifier owns the NATS connection and the target stream.
type Notifier struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNotifier connects to NATS and ensures the configured stream exists.
func NewNotifier(cfg *config.NotifyConfig) (*Notifier, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	slog.Info("Build notifications enabled",
		logfields.URL(cfg.URL),
		slog.String("subject", cfg.Subject),
		slog.String("stream", cfg.Stream))

	return &Notifier{conn: conn, js: js, subject: cfg.Subject}, nil
}

// PublishResult sends a build event for one pipeline run.
func (n *Notifier) PublishResult(ctx context.Context, result *pipeline.Result, repository string) error {
	event := BuildEvent{
		BuildID:    result.BuildID,
		Repository: repository,
		Outcome:    string(result.Outcome),
		Commit:     result.Commit,
		Committed:  result.Committed,
		Pages:      result.Pages,
		DurationMS: result.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if result.Err != nil {
		event.Error = result.Err.Error()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal build event: %w", err)
	}

	if _, err := n.js.Publish(ctx, n.subject, data); err != nil {
		return fmt.Errorf("failed to publish build event: %w", err)
	}

	slog.Debug("Published build event",
		logfields.BuildID(result.BuildID),
		logfields.JobStatus(string(result.Outcome)))
	return nil
}

// Close drains the NATS connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
