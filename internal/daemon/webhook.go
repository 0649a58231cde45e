package daemon

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docpress/docpress/internal/config"
	"github.com/docpress/docpress/internal/logfields"
)

// pushEvent is the subset of a git forge push payload the daemon cares
// about.
type pushEvent struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
		CloneURL string `json:"clone_url"`
	} `json:"repository"`
}

// WebhookServer accepts push events and turns them into build requests.
type WebhookServer struct {
	cfg     config.WebhookConfig
	branch  string // ref name that triggers builds
	request func() // forwarded to the debouncer
}

// NewWebhookServer creates the webhook endpoint. branch is the source
// branch builds follow when the webhook config does not restrict one.
func NewWebhookServer(cfg config.WebhookConfig, sourceBranch string, request func()) *WebhookServer {
	branch := cfg.Branch
	if branch == "" {
		branch = sourceBranch
	}
	return &WebhookServer{cfg: cfg, branch: branch, request: request}
}

// Handler returns the HTTP handler for the webhook listener.
func (s *WebhookServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handlePush)
	return mux
}

func (s *WebhookServer) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if s.cfg.Secret != "" {
		if !validSignature(body, r.Header.Get("X-Hub-Signature-256"), s.cfg.Secret) {
			slog.Warn("Webhook rejected: bad signature", logfields.Path(r.URL.Path))
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	// Ping events just prove connectivity.
	if r.Header.Get("X-GitHub-Event") == "ping" {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "pong")
		return
	}

	var event pushEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if !refMatches(event.Ref, s.branch) {
		slog.Debug("Ignoring push for other branch",
			logfields.Branch(event.Ref),
			logfields.Repository(event.Repository.FullName))
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintln(w, "ignored: branch not watched")
		return
	}

	slog.Info("Push received",
		logfields.Repository(event.Repository.FullName),
		logfields.Branch(event.Ref),
		logfields.Commit(event.After))
	s.request()

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "build queued")
}

// validSignature checks the GitHub-style HMAC SHA-256 header.
func validSignature(payload []byte, signature, secret string) bool {
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}
	expected := signature[len("sha256="):]
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	calc := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(calc))
}

func refMatches(ref, branch string) bool {
	return ref == branch || ref == "refs/heads/"+branch
}
