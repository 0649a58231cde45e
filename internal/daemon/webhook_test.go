package daemon

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docpress/docpress/internal/config"
)

const pushPayload = `{
	"ref": "refs/heads/main",
	"after": "0123456789abcdef",
	"repository": {"full_name": "example/project", "clone_url": "https://example.com/project.git"}
}`

func newWebhookTest(cfg config.WebhookConfig) (*httptest.Server, *int) {
	requests := 0
	server := NewWebhookServer(cfg, "main", func() { requests++ })
	return httptest.NewServer(server.Handler()), &requests
}

func post(t *testing.T, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookTriggersBuild(t *testing.T) {
	srv, requests := newWebhookTest(config.WebhookConfig{Path: "/webhook"})
	defer srv.Close()

	resp := post(t, srv.URL+"/webhook", pushPayload, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if *requests != 1 {
		t.Errorf("build requests = %d", *requests)
	}
}

func TestWebhookIgnoresOtherBranch(t *testing.T) {
	srv, requests := newWebhookTest(config.WebhookConfig{Path: "/webhook"})
	defer srv.Close()

	payload := strings.Replace(pushPayload, "refs/heads/main", "refs/heads/feature", 1)
	resp := post(t, srv.URL+"/webhook", payload, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if *requests != 0 {
		t.Errorf("build requests = %d, want 0", *requests)
	}
}

func TestWebhookSignatureValidation(t *testing.T) {
	srv, requests := newWebhookTest(config.WebhookConfig{Path: "/webhook", Secret: "s3cret"})
	defer srv.Close()

	// Missing signature.
	resp := post(t, srv.URL+"/webhook", pushPayload, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unsigned status = %d", resp.StatusCode)
	}

	// Wrong secret.
	resp = post(t, srv.URL+"/webhook", pushPayload, map[string]string{
		"X-Hub-Signature-256": sign("wrong", pushPayload),
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad signature status = %d", resp.StatusCode)
	}

	// Valid signature.
	resp = post(t, srv.URL+"/webhook", pushPayload, map[string]string{
		"X-Hub-Signature-256": sign("s3cret", pushPayload),
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("valid signature status = %d", resp.StatusCode)
	}
	if *requests != 1 {
		t.Errorf("build requests = %d", *requests)
	}
}

func TestWebhookPing(t *testing.T) {
	srv, requests := newWebhookTest(config.WebhookConfig{Path: "/webhook"})
	defer srv.Close()

	resp := post(t, srv.URL+"/webhook", `{"zen": "Design for failure."}`, map[string]string{
		"X-GitHub-Event": "ping",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ping status = %d", resp.StatusCode)
	}
	if *requests != 0 {
		t.Errorf("ping queued a build")
	}
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	srv, _ := newWebhookTest(config.WebhookConfig{Path: "/webhook"})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/webhook")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
