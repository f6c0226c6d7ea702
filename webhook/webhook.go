package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/jobscout/config"
)

// Event types.
const (
	SessionCompleted = "session.completed"
	SessionFailed    = "session.failed"
	SessionCanceled  = "session.canceled"
)

// SignatureHeader carries "sha256=<hex HMAC of the body>".
const SignatureHeader = "X-Jobscout-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, sessionID string, data any) *Event {
	return &Event{Type: typ, SessionID: sessionID, Timestamp: time.Now().Unix(), Data: data}
}

// Notifier delivers events with retries.
type Notifier struct {
	client        *http.Client
	defaultSecret string
	// delays[i] is the pause before attempt i+1; delays[0] is normally 0.
	delays []time.Duration
	log    *slog.Logger
}

// New returns a Notifier. Retries back off 1s, 5s, 30s, then 30s for any
// further attempts cfg.MaxRetries allows.
func New(cfg config.WebhookConfig, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	delays := []time.Duration{0}
	backoff := []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}
	for i := 0; i < cfg.MaxRetries; i++ {
		delays = append(delays, backoff[min(i, len(backoff)-1)])
	}
	return &Notifier{
		client:        &http.Client{Timeout: timeout},
		defaultSecret: cfg.Secret,
		delays:        delays,
		log:           log,
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}

// Deliver sends event once. The body is signed when secret, or the
// notifier's default secret, is non-empty.
func (n *Notifier) Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Jobscout-Webhook/1.0")

	if secret == "" {
		secret = n.defaultSecret
	}
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Send delivers event, retrying on failure until the retry budget or ctx
// runs out.
func (n *Notifier) Send(ctx context.Context, url, secret string, event *Event) error {
	var err error
	for attempt, delay := range n.delays {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = n.Deliver(ctx, url, secret, event); err == nil {
			n.log.Info("webhook delivered",
				"url", url,
				"event", event.Type,
				"session_id", event.SessionID,
				"attempt", attempt+1,
			)
			return nil
		}
		n.log.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"session_id", event.SessionID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	n.log.Error("webhook delivery exhausted all retries",
		"url", url,
		"event", event.Type,
		"session_id", event.SessionID,
	)
	return err
}

// SendAsync runs Send in the background.
func (n *Notifier) SendAsync(url, secret string, event *Event) {
	go func() {
		_ = n.Send(context.Background(), url, secret, event)
	}()
}
