// Package daemon runs continuous documentation publishing: push webhooks
// and an optional schedule feed a bounded build queue, and admin endpoints
// expose health, status, and metrics.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/docpress/docpress/internal/config"
	derrors "github.com/docpress/docpress/internal/errors"
	"github.com/docpress/docpress/internal/history"
	"github.com/docpress/docpress/internal/metrics"
	"github.com/docpress/docpress/internal/notify"
	"github.com/docpress/docpress/internal/pipeline"
	"github.com/docpress/docpress/internal/workspace"
)

const shutdownTimeout = 10 * time.Second

// Daemon owns all long-running components of continuous mode.
type Daemon struct {
	cfg      *config.Config
	ws       *workspace.Dir
	registry *prom.Registry
	recorder metrics.Recorder
	queue    *BuildQueue
	store    *history.Store
	notifier *notify.Notifier
}

// New assembles a daemon from the configuration. baseDir is where the
// persistent working tree lives across builds.
func New(cfg *config.Config, baseDir string) (*Daemon, error) {
	if cfg.Daemon == nil {
		return nil, derrors.DaemonError("daemon section missing from configuration")
	}

	ws, err := workspace.Persistent(baseDir)
	if err != nil {
		return nil, err
	}

	registry := prom.NewRegistry()
	d := &Daemon{
		cfg:      cfg,
		ws:       ws,
		registry: registry,
		recorder: metrics.NewPrometheusRecorder(registry),
	}

	if cfg.History != nil {
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryDaemon, "failed to open history store")
		}
		d.store = store
	}

	if cfg.Daemon.Notify != nil && cfg.Daemon.Notify.Enabled {
		notifier, err := notify.NewNotifier(cfg.Daemon.Notify)
		if err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryDaemon, "failed to set up notifications")
		}
		d.notifier = notifier
	}

	d.queue = NewBuildQueue(cfg.Daemon.Queue.Size, cfg.Daemon.Queue.Workers, BuilderFunc(d.build))
	return d, nil
}

// build runs one pipeline pass in the persistent workspace and records the
// outcome.
func (d *Daemon) build(ctx context.Context) (*pipeline.Result, error) {
	startedAt := time.Now()
	result, err := pipeline.New(d.cfg, d.ws.Path(), pipeline.WithRecorder(d.recorder)).Run(ctx)

	if d.store != nil && result != nil {
		if recErr := d.store.RecordResult(ctx, result, startedAt); recErr != nil {
			slog.Warn("Failed to record build history", slog.String("reason", recErr.Error()))
		}
	}
	if d.notifier != nil && result != nil {
		if pubErr := d.notifier.PublishResult(ctx, result, d.cfg.Source.URL); pubErr != nil {
			slog.Warn("Failed to publish build event", slog.String("reason", pubErr.Error()))
		}
	}
	return result, err
}

// Run starts all components and blocks until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.queue.Start(ctx)

	debouncer, err := NewDebouncer(DebouncerConfig{
		QuietWindow: 5 * time.Second,
		MaxDelay:    time.Minute,
	}, func() {
		if _, err := d.queue.Enqueue(BuildTypeWebhook); err != nil {
			slog.Warn("Webhook build not queued", slog.String("reason", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	go debouncer.Run(ctx)

	webhook := NewWebhookServer(d.cfg.Daemon.Webhook, d.cfg.Source.Branch, debouncer.Request)
	webhookSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", d.cfg.Daemon.HTTP.WebhookPort),
		Handler:      webhook.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	adminSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", d.cfg.Daemon.HTTP.AdminPort),
		Handler:      NewAdminServer(d.queue, d.registry).Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 2)
	go serveHTTP("webhook", webhookSrv, serverErr)
	go serveHTTP("admin", adminSrv, serverErr)

	var scheduler *Scheduler
	if d.cfg.Daemon.Schedule != nil {
		scheduler, err = NewScheduler()
		if err != nil {
			return err
		}
		if err := scheduler.SchedulePeriodicBuild(d.cfg.Daemon.Schedule.Interval, d.queue); err != nil {
			return err
		}
		scheduler.Start()
	}

	// An immediate build brings the published site up to date with pushes
	// that happened while the daemon was down.
	if _, err := d.queue.Enqueue(BuildTypeManual); err != nil {
		slog.Warn("Startup build not queued", slog.String("reason", err.Error()))
	}

	slog.Info("Daemon running",
		slog.Int("webhook_port", d.cfg.Daemon.HTTP.WebhookPort),
		slog.Int("admin_port", d.cfg.Daemon.HTTP.AdminPort))

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		cancel()
		d.shutdown(webhookSrv, adminSrv, scheduler)
		return err
	}

	d.shutdown(webhookSrv, adminSrv, scheduler)
	return nil
}

func (d *Daemon) shutdown(webhookSrv, adminSrv *http.Server, scheduler *Scheduler) {
	slog.Info("Daemon shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	_ = webhookSrv.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
	if scheduler != nil {
		_ = scheduler.Stop()
	}

	d.queue.Wait()

	if d.notifier != nil {
		d.notifier.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
}

func serveHTTP(name string, srv *http.Server, errs chan<- error) {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs <- fmt.Errorf("%s server: %w", name, err)
	}
}
