package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/jobscout/browser"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/site"
)

const results = `<html><body><ul class="jobs">
<li data-occludable-job-id="111">a</li>
<li data-occludable-job-id="222">b</li>
<li>promoted</li>
<li data-occludable-job-id="333">c</li>
</ul></body></html>`

func detailPage(title, insight string) string {
	return fmt.Sprintf(`<html><body><main><h1>%s</h1>
<ul><li class="job-details-jobs-unified-top-card__job-insight job-details-jobs-unified-top-card__job-insight--highlight">%s</li></ul>
<div id="job-details"><h2>About</h2><p>Role %s.</p></div>
</main></body></html>`, title, insight, title)
}

func fixtures() map[string]string {
	return map[string]string{
		"https://linkedin.com":                                          `<html><body>home</body></html>`,
		"https://linkedin.com/jobs/search/?keywords=go&location=Dublin": results,
		"https://linkedin.com/jobs/view/111":                            detailPage("Go Engineer", "Remote · Full-time · Mid-Senior level"),
		"https://linkedin.com/jobs/view/222":                            detailPage("SRE", "Hybrid · Contract"),
		"https://linkedin.com/jobs/view/333":                            detailPage("Intern", "On-site · Internship"),
	}
}

func newPipeline(t *testing.T, pages map[string]string, opts ...Option) (*Pipeline, *browser.MapFetcher) {
	t.Helper()
	f := &browser.MapFetcher{Pages: pages}
	s := browser.NewStaticSession(f, nil)
	return New(site.NewLinkedIn(nil), s, opts...), f
}

func ids(recs []models.JobRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}

func TestCollectThenScrapeAllPending(t *testing.T) {
	ctx := context.Background()
	p, _ := newPipeline(t, fixtures())

	require.NoError(t, p.Search(ctx, "go", "Dublin"))
	got, err := p.CollectIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, got)

	report, err := p.ScrapeAllPending(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Empty(t, report.Failures)

	recs := p.Results()
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"111", "222", "333"}, ids(recs))
	assert.Equal(t, "Go Engineer", recs[0].Title())
	assert.Equal(t, "About\n\nRole Go Engineer.", recs[0].Description())
	assert.Equal(t, models.Remote, recs[0].WorkArrangement())
	assert.Equal(t, models.MidSeniorLevel, recs[0].ExperienceLevel())
	assert.Equal(t, models.Contract, recs[1].EmploymentType())
	assert.Equal(t, models.Onsite, recs[2].WorkArrangement())
	assert.Equal(t, models.Internship, recs[2].ExperienceLevel())

	assert.Empty(t, p.PendingIDs())
}

func TestCollectIDs_Accumulates(t *testing.T) {
	ctx := context.Background()
	p, _ := newPipeline(t, fixtures())
	require.NoError(t, p.Search(ctx, "go", "Dublin"))

	_, err := p.CollectIDs(ctx)
	require.NoError(t, err)
	_, err = p.CollectIDs(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"111", "222", "333", "111", "222", "333"}, p.PendingIDs())
}

func TestScrapeMany_SkipsMissingElements(t *testing.T) {
	pages := fixtures()
	pages["https://linkedin.com/jobs/view/222"] = `<html><body><main><h1>Expired</h1></main></body></html>`
	p, _ := newPipeline(t, pages)
	p.AddPending("111", "222", "333")

	report, err := p.ScrapeAllPending(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, []string{"111", "333"}, ids(report.Scraped))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "222", report.Failures[0].ID)
	assert.Equal(t, models.ErrCodeElementNotFound, report.Failures[0].Code)
	assert.Equal(t, []string{"222"}, p.PendingIDs(), "failed jobs stay pending")
}

func TestScrapeMany_AbortsOnNavigationFailure(t *testing.T) {
	pages := fixtures()
	delete(pages, "https://linkedin.com/jobs/view/222")
	p, _ := newPipeline(t, pages)

	report, err := p.ScrapeMany(context.Background(), []string{"111", "222", "333"}, 0)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeNavigation, models.CodeOf(err))

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, []string{"111"}, ids(report.Scraped))
	assert.Len(t, p.Results(), 1)
}

func TestScrapeMany_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, _ := newPipeline(t, fixtures(), WithObserver(func(models.JobRecord) { cancel() }))

	report, err := p.ScrapeMany(ctx, []string{"111", "222", "333"}, time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, []string{"111"}, ids(report.Scraped))
}

func TestScrapeMany_InputOrderAndDuplicates(t *testing.T) {
	p, _ := newPipeline(t, fixtures())

	report, err := p.ScrapeMany(context.Background(), []string{"333", "111", "333"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"333", "111", "333"}, ids(report.Scraped))
}

func TestInitialise_SetsCookieThenRefreshes(t *testing.T) {
	ctx := context.Background()
	p, f := newPipeline(t, fixtures())

	require.NoError(t, p.Initialise(ctx, "li_at", "token"))

	assert.Equal(t, []string{"https://linkedin.com", "https://linkedin.com"}, f.Requested())
	cookies := f.LastCookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "li_at", cookies[0].Name)
	assert.Equal(t, "token", cookies[0].Value)
}

func TestMarkdownDescriptions(t *testing.T) {
	p, _ := newPipeline(t, fixtures(), WithDescriptionFormat(FormatMarkdown))

	rec, err := p.ScrapeOne(context.Background(), "111")
	require.NoError(t, err)
	assert.Contains(t, rec.Description(), "## About")
}

func TestRun_SearchAndScrape(t *testing.T) {
	var seen []string
	p, _ := newPipeline(t, fixtures(), WithObserver(func(r models.JobRecord) { seen = append(seen, r.ID()) }))

	report, err := p.Run(context.Background(), Plan{
		Cookie:   "token",
		Keywords: "go",
		Location: "Dublin",
		MaxPages: 1,
		Delay:    0,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, ids(report.Scraped))
	assert.Equal(t, []string{"111", "222", "333"}, seen)
}

func TestRun_ExplicitIDs(t *testing.T) {
	p, f := newPipeline(t, fixtures())

	report, err := p.Run(context.Background(), Plan{IDs: []string{"222"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"222"}, ids(report.Scraped))
	assert.Equal(t, []string{"https://linkedin.com/jobs/view/222"}, f.Requested())
}

func TestGovernor_Wait(t *testing.T) {
	g := NewGovernor(0)

	assert.NoError(t, g.Wait(context.Background(), 0))

	start := time.Now()
	require.NoError(t, g.Wait(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Wait(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, g.Wait(ctx, 0), context.Canceled)
}

func TestGovernor_Jitter(t *testing.T) {
	g := NewGovernor(10 * time.Millisecond)

	start := time.Now()
	require.NoError(t, g.Wait(context.Background(), 5*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
}

func TestPresets(t *testing.T) {
	assert.Equal(t, 30*time.Second, CautiousDelay)
	assert.Equal(t, 7500*time.Millisecond, QuickDelay)
}

func indeedPages() map[string]string {
	return map[string]string{
		"https://www.indeed.ie/jobs?q=go&l=Cork": `<html><body><ul>
<li><a data-jk="a1">1</a></li><li><a data-jk="a2">2</a></li></ul>
<a data-testid="pagination-page-next" href="/jobs?q=go&amp;l=Cork&amp;start=10">next</a></body></html>`,
		"https://www.indeed.ie/jobs?q=go&l=Cork&start=10": `<html><body><ul>
<li><a data-jk="a3">3</a></li></ul></body></html>`,
	}
}

func newIndeedPipeline(t *testing.T) (*Pipeline, *browser.StaticSession) {
	t.Helper()
	s := browser.NewStaticSession(&browser.MapFetcher{Pages: indeedPages()}, nil)
	p := New(site.NewIndeed(site.Ireland, nil), s)
	require.NoError(t, p.Search(context.Background(), "go", "Cork"))
	return p, s
}

func TestCollectAcrossPages(t *testing.T) {
	p, _ := newIndeedPipeline(t)

	all, err := p.CollectAcrossPages(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3"}, all)
	assert.Equal(t, all, p.PendingIDs())
}

func TestCollectAcrossPages_MaxPages(t *testing.T) {
	p, _ := newIndeedPipeline(t)

	all, err := p.CollectAcrossPages(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, all)
}

func TestPaginator_IdempotentOnLastPage(t *testing.T) {
	ctx := context.Background()
	p, s := newIndeedPipeline(t)
	pag := NewPaginator(p.Adapter(), p.page)

	moved, err := pag.AdvanceIfPossible(ctx)
	require.NoError(t, err)
	assert.True(t, moved)

	for range 3 {
		moved, err = pag.AdvanceIfPossible(ctx)
		require.NoError(t, err)
		assert.False(t, moved)
	}
	u, _ := s.URL(ctx)
	assert.Equal(t, "https://www.indeed.ie/jobs?q=go&l=Cork&start=10", u)
}
