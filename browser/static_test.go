package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/models"
)

const listing = `<html><body>
<ul>
  <li><a data-jk="aaa" href="/viewjob?jk=aaa">One</a></li>
  <li><a data-jk="bbb" href="/viewjob?jk=bbb">Two</a></li>
  <li><a href="/ad">Sponsored</a></li>
</ul>
<div id="desc"><p>Build <b>things</b>.</p><p>Ship them.</p></div>
<a data-testid="pagination-page-next" href="/jobs?q=go&amp;start=10">Next</a>
</body></html>`

func newTestSession(t *testing.T) (*StaticSession, *MapFetcher) {
	t.Helper()
	f := &MapFetcher{Pages: map[string]string{
		"https://www.indeed.ie/jobs?q=go":          listing,
		"https://www.indeed.ie/jobs?q=go&start=10": `<html><body><h1>Page two</h1></body></html>`,
	}}
	s := NewStaticSession(f, nil)
	require.NoError(t, s.Navigate(context.Background(), "https://www.indeed.ie/jobs?q=go"))
	return s, f
}

func TestStaticSession_FindAndAttributes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	els, err := s.FindElements(ctx, "li a[data-jk]")
	require.NoError(t, err)
	require.Len(t, els, 2)

	v, ok, err := s.Attribute(ctx, els[1], "data-jk")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bbb", v)

	_, ok, err = s.Attribute(ctx, els[0], "data-missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaticSession_FindElementMissing(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.FindElement(context.Background(), "#jobDescriptionText")
	assert.True(t, models.IsElementNotFound(err))
}

func TestStaticSession_InvalidSelector(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.FindElement(context.Background(), "li[[")
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
}

func TestStaticSession_EvalScripts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	text, err := s.Eval(ctx, InnerTextJS, "#desc")
	require.NoError(t, err)
	assert.Equal(t, "Build things.\n\nShip them.", text)

	inner, err := s.Eval(ctx, InnerHTMLJS, "#desc")
	require.NoError(t, err)
	assert.Equal(t, "<p>Build <b>things</b>.</p><p>Ship them.</p>", inner)

	empty, err := s.Eval(ctx, InnerTextJS, "#nope")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.Eval(ctx, "() => document.title")
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
}

func TestStaticSession_ClickFollowsHref(t *testing.T) {
	ctx := context.Background()
	s, f := newTestSession(t)

	next, err := s.FindElement(ctx, `a[data-testid="pagination-page-next"]`)
	require.NoError(t, err)
	require.NoError(t, s.Click(ctx, next))

	u, err := s.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://www.indeed.ie/jobs?q=go&start=10", u)
	assert.Len(t, f.Requested(), 2)
}

func TestStaticSession_CookiesSentOnRefresh(t *testing.T) {
	ctx := context.Background()
	s, f := newTestSession(t)

	require.NoError(t, s.SetCookie(ctx, "PPID", "secret"))
	require.NoError(t, s.Refresh(ctx))

	cookies := f.LastCookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "PPID", cookies[0].Name)
	assert.Equal(t, "secret", cookies[0].Value)
}

func TestStaticSession_CookieBeforeNavigate(t *testing.T) {
	s := NewStaticSession(&MapFetcher{}, nil)

	err := s.SetCookie(context.Background(), "li_at", "x")
	assert.Equal(t, models.ErrCodeInvalidInput, models.CodeOf(err))
}

func TestStaticSession_NavigateUnknown(t *testing.T) {
	s := NewStaticSession(&MapFetcher{}, nil)

	err := s.Navigate(context.Background(), "https://linkedin.com/jobs/view/1")
	assert.Equal(t, models.ErrCodeNavigation, models.CodeOf(err))
}

func TestStaticSession_CanceledContext(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindElement(ctx, "h1")
	assert.Equal(t, models.ErrCodeCanceled, models.CodeOf(err))
}

func TestIsTrackerHost(t *testing.T) {
	assert.True(t, isTrackerHost("px.ads.linkedin.com"))
	assert.True(t, isTrackerHost("stats.g.doubleclick.net"))
	assert.False(t, isTrackerHost("www.linkedin.com"))
	assert.False(t, isTrackerHost("www.indeed.ie"))
}
