package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/config"
)

func TestDeliver_Signed(t *testing.T) {
	var got Event
	var sig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sig = r.Header.Get(SignatureHeader)
		assert.True(t, Verify("s3cret", body, sig))
		_ = json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{}, nil)
	err := n.Deliver(context.Background(), srv.URL, "s3cret", NewEvent(SessionCompleted, "abc", map[string]int{"scraped": 3}))
	require.NoError(t, err)

	assert.Equal(t, SessionCompleted, got.Type)
	assert.Equal(t, "abc", got.SessionID)
	assert.Contains(t, sig, "sha256=")
}

func TestDeliver_DefaultSecretAndUnsigned(t *testing.T) {
	var sig atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig.Store(r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, New(config.WebhookConfig{}, nil).Deliver(context.Background(), srv.URL, "", NewEvent(SessionFailed, "x", nil)))
	assert.Equal(t, "", sig.Load())

	require.NoError(t, New(config.WebhookConfig{Secret: "d"}, nil).Deliver(context.Background(), srv.URL, "", NewEvent(SessionFailed, "x", nil)))
	assert.NotEmpty(t, sig.Load())
}

func TestSend_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{MaxRetries: 3}, nil)
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond, time.Millisecond}

	require.NoError(t, n.Send(context.Background(), srv.URL, "", NewEvent(SessionCompleted, "s", nil)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSend_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(config.WebhookConfig{MaxRetries: 1}, nil)
	n.delays = []time.Duration{0, time.Millisecond}

	assert.Error(t, n.Send(context.Background(), srv.URL, "", NewEvent(SessionCanceled, "s", nil)))
}

func TestNew_Backoff(t *testing.T) {
	n := New(config.WebhookConfig{MaxRetries: 5}, nil)
	assert.Equal(t, []time.Duration{0, time.Second, 5 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second}, n.delays)
}
