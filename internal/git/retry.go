package git

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/retry"
)

// pushWithRetry wraps a push operation with retry logic from the publish config.
// Permanent errors (auth, missing branch, bad protocol) fail immediately.
func pushWithRetry(pub config.PublishConfig, fn func() error) error {
	pol := retry.FromConfig(pub.Retry)
	if pub.Retry == (config.RetryConfig{}) {
		pol = retry.DefaultPolicy()
	}

	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("retrying push", slog.Int("attempt", attempt), slog.String("error", lastErr.Error()))
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if isPermanentGitError(err) {
			slog.Error("permanent git error during push", slog.String("error", err.Error()))
			return err
		}
		if attempt == pol.MaxRetries {
			break
		}
		time.Sleep(pol.Delay(attempt + 1))
	}
	return fmt.Errorf("push failed after retries: %w", lastErr)
}

func isPermanentGitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") || strings.Contains(msg, "permission") || strings.Contains(msg, "denied") {
		return true
	}
	if strings.Contains(msg, "not found") || strings.Contains(msg, "no such remote") || strings.Contains(msg, "invalid reference") {
		return true
	}
	if strings.Contains(msg, "unsupported protocol") {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return !nerr.Timeout()
	}
	return false
}
