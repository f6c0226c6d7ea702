package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/api/handler"
	"github.com/use-agent/jobscout/browser"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
)

func pages() map[string]string {
	return map[string]string{
		"https://www.indeed.ie/jobs?q=barista&l=Cork": `<html><body><ul>
<li><a data-jk="j1">1</a></li><li><a data-jk="j2">2</a></li></ul></body></html>`,
		"https://www.indeed.ie/viewjob?jk=j1": `<html><body><h1>Barista</h1><div id="salaryInfoAndJobType">Full-time · Hybrid work</div>
<div id="jobDescriptionText"><p>Pour coffee.</p></div></body></html>`,
		"https://www.indeed.ie/viewjob?jk=j2": `<html><body><h1>Head Barista</h1>
<div id="jobDescriptionText"><p>Pour more coffee.</p></div></body></html>`,
	}
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Server.Mode = gin.TestMode
	cfg.Auth.APIKeys = []string{"k1"}
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000}
	cfg.Sites.Default = "indeed"
	return cfg
}

func newServer(t *testing.T, cfg *config.Config, factory handler.SessionFactory) *gin.Engine {
	t.Helper()
	if factory == nil {
		factory = func(context.Context) (browser.Session, error) {
			return browser.NewStaticSession(&browser.MapFetcher{Pages: pages()}, nil), nil
		}
	}
	sessions := handler.NewSessions(factory, cfg, nil, nil)
	t.Cleanup(sessions.Close)
	return NewRouter(sessions, cfg, time.Now())
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "k1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func waitDone(t *testing.T, r http.Handler, id string) models.Session {
	t.Helper()
	var s models.Session
	require.Eventually(t, func() bool {
		w := do(r, http.MethodGet, "/api/v1/sessions/"+id, nil)
		if w.Code != http.StatusOK {
			return false
		}
		s = models.Session{}
		return json.Unmarshal(w.Body.Bytes(), &s) == nil && s.Done()
	}, 5*time.Second, 10*time.Millisecond)
	return s
}

func TestHealth_NoAuth(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var h models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 2, h.MaxSessions)
}

func TestAuth(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil)
	req.Header.Set("Authorization", "Bearer k1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}
	r := newServer(t, cfg, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/sites", nil).Code)
	w := do(r, http.MethodGet, "/api/v1/sites", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestSites(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	w := do(r, http.MethodGet, "/api/v1/sites", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SitesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sites, 2)
	assert.Equal(t, "indeed", resp.Sites[0].Name)
	assert.Equal(t, "https://www.indeed.ie", resp.Sites[0].RootDomain)
	assert.Len(t, resp.Sites[0].Countries, 17)
	assert.Equal(t, "li_at", resp.Sites[1].AuthCookie)
	assert.Equal(t, int64(7500), resp.Sites[1].DetailDelayMs)
}

func TestClassify(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	w := do(r, http.MethodPost, "/api/v1/classify", models.ClassifyRequest{Site: "linkedin", Text: "Remote · Contract · Director"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"work_arrangement":"Remote","employment_type":"Contract","experience_level":"Director"}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/classify", models.ClassifyRequest{Text: "£30,000 a year"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"work_arrangement":null,"employment_type":null,"experience_level":null}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/classify", models.ClassifyRequest{Site: "monster", Text: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	r := newServer(t, testConfig(), nil)
	delay := 0

	w := do(r, http.MethodPost, "/api/v1/sessions", models.SessionRequest{
		Keywords: "barista",
		Location: "Cork",
		DelayMs:  &delay,
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var ack models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, models.SessionRunning, ack.Status)

	s := waitDone(t, r, ack.ID)
	assert.Equal(t, models.SessionCompleted, s.Status)
	assert.Equal(t, "indeed", s.Site)
	assert.Equal(t, 2, s.Attempted)
	require.Len(t, s.Records, 2)
	assert.Equal(t, "j1", s.Records[0].ID())
	assert.Equal(t, models.FullTime, s.Records[0].EmploymentType())
	assert.Equal(t, models.Hybrid, s.Records[0].WorkArrangement())
	assert.Equal(t, "Head Barista", s.Records[1].Title())
	assert.Equal(t, models.WorkArrangementUnset, s.Records[1].WorkArrangement())
	assert.Empty(t, s.Pending)
}

func TestSession_ExplicitIDsWithFailure(t *testing.T) {
	r := newServer(t, testConfig(), nil)
	delay := 0

	w := do(r, http.MethodPost, "/api/v1/sessions", models.SessionRequest{IDs: []string{"j2", "gone"}, DelayMs: &delay})
	require.Equal(t, http.StatusAccepted, w.Code)
	var ack models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))

	s := waitDone(t, r, ack.ID)
	assert.Equal(t, models.SessionFailed, s.Status)
	assert.Equal(t, models.ErrCodeNavigation, s.Error.Code)
	require.Len(t, s.Records, 1)
	assert.Equal(t, []string{"gone"}, s.Pending)
}

func TestSession_Cancel(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	// The default Indeed delay (30s) keeps the session busy after the
	// first job so the cancel lands mid-batch.
	w := do(r, http.MethodPost, "/api/v1/sessions", models.SessionRequest{IDs: []string{"j1", "j2"}})
	require.Equal(t, http.StatusAccepted, w.Code)
	var ack models.SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))

	w = do(r, http.MethodDelete, "/api/v1/sessions/"+ack.ID, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	s := waitDone(t, r, ack.ID)
	assert.Equal(t, models.SessionCanceled, s.Status)
	assert.Equal(t, models.ErrCodeCanceled, s.Error.Code)
}

func TestSession_BadRequests(t *testing.T) {
	r := newServer(t, testConfig(), nil)

	w := do(r, http.MethodPost, "/api/v1/sessions", models.SessionRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/sessions", models.SessionRequest{Site: "monster", Keywords: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/sessions", models.SessionRequest{Keywords: "x", DescriptionFormat: "pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodDelete, "/api/v1/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
