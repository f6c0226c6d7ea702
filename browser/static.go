package browser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/jobscout/cleaner"
	"github.com/use-agent/jobscout/models"
	"golang.org/x/net/html"
)

// StaticSession is a Session over server-rendered HTML. No script runs, so
// it only sees what the server sends; it suits fixture-driven tests and
// boards whose listings render server-side.
type StaticSession struct {
	fetcher Fetcher
	log     *slog.Logger

	url       string
	doc       *goquery.Document
	cookies   map[string]string
	selectors map[string]cascadia.SelectorGroup
}

var _ Session = (*StaticSession)(nil)

// NewStaticSession returns a session that loads pages through f.
func NewStaticSession(f Fetcher, log *slog.Logger) *StaticSession {
	if log == nil {
		log = slog.Default()
	}
	return &StaticSession{
		fetcher:   f,
		log:       log,
		cookies:   make(map[string]string),
		selectors: make(map[string]cascadia.SelectorGroup),
	}
}

func (s *StaticSession) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return categorizeError(err, "navigation canceled")
	}

	body, final, err := s.fetcher.Fetch(ctx, target, s.cookieList())
	if err != nil {
		return categorizeError(err, fmt.Sprintf("navigation to %s failed", target))
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, fmt.Sprintf("parsing %s failed", target), err)
	}

	s.url = final
	s.doc = doc
	s.log.Debug("static page loaded", "url", final, "bytes", len(body))
	return nil
}

func (s *StaticSession) Refresh(ctx context.Context) error {
	if s.url == "" {
		return models.NewScrapeError(models.ErrCodeNavigation, "nothing to refresh", nil)
	}
	return s.Navigate(ctx, s.url)
}

func (s *StaticSession) URL(context.Context) (string, error) {
	return s.url, nil
}

func (s *StaticSession) compile(selector string) (cascadia.SelectorGroup, error) {
	if sel, ok := s.selectors[selector]; ok {
		return sel, nil
	}
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("invalid selector %q", selector), err)
	}
	s.selectors[selector] = sel
	return sel, nil
}

func (s *StaticSession) root() *html.Node {
	if s.doc == nil {
		return nil
	}
	return s.doc.Nodes[0]
}

func (s *StaticSession) FindElement(ctx context.Context, selector string) (Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "lookup canceled")
	}
	sel, err := s.compile(selector)
	if err != nil {
		return nil, err
	}
	root := s.root()
	if root == nil {
		return nil, models.ElementNotFound(selector)
	}
	n := cascadia.Query(root, sel)
	if n == nil {
		return nil, models.ElementNotFound(selector)
	}
	return n, nil
}

func (s *StaticSession) FindElements(ctx context.Context, selector string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, categorizeError(err, "lookup canceled")
	}
	sel, err := s.compile(selector)
	if err != nil {
		return nil, err
	}
	root := s.root()
	if root == nil {
		return nil, nil
	}
	nodes := cascadia.QueryAll(root, sel)
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out, nil
}

func (s *StaticSession) Attribute(_ context.Context, el Element, name string) (string, bool, error) {
	n, err := htmlNode(el)
	if err != nil {
		return "", false, err
	}
	v, ok := s.doc.FindNodes(n).Attr(name)
	return v, ok, nil
}

func (s *StaticSession) Text(_ context.Context, el Element) (string, error) {
	n, err := htmlNode(el)
	if err != nil {
		return "", err
	}
	return cleaner.InnerText(n), nil
}

// Eval understands only InnerTextJS and InnerHTMLJS, each called with a
// single selector argument.
func (s *StaticSession) Eval(ctx context.Context, js string, args ...any) (string, error) {
	if js != InnerTextJS && js != InnerHTMLJS {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, "static session cannot run arbitrary scripts", nil)
	}
	if len(args) != 1 {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, "script expects one selector argument", nil)
	}
	selector, ok := args[0].(string)
	if !ok {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("selector argument is %T", args[0]), nil)
	}

	el, err := s.FindElement(ctx, selector)
	if models.IsElementNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	n := el.(*html.Node)
	if js == InnerTextJS {
		return cleaner.InnerText(n), nil
	}
	out, err := s.doc.FindNodes(n).Html()
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInternal, "rendering element html failed", err)
	}
	return out, nil
}

func (s *StaticSession) SetCookie(_ context.Context, name, value string) error {
	if s.url == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("cannot set cookie %q before navigating to a site", name), nil)
	}
	s.cookies[name] = value
	return nil
}

// Click follows the element's href, resolved against the current URL.
func (s *StaticSession) Click(ctx context.Context, el Element) error {
	href, ok, err := s.Attribute(ctx, el, "href")
	if err != nil {
		return err
	}
	if !ok || href == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "static session can only click links", nil)
	}
	base, err := url.Parse(s.url)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, "current url is not parseable", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeNavigation, fmt.Sprintf("bad link %q", href), err)
	}
	return s.Navigate(ctx, base.ResolveReference(ref).String())
}

func (s *StaticSession) Close() error {
	s.doc = nil
	return nil
}

// cookieList returns the jar in name order so requests are reproducible.
func (s *StaticSession) cookieList() []*http.Cookie {
	if len(s.cookies) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.cookies))
	for name := range s.cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*http.Cookie, len(names))
	for i, name := range names {
		out[i] = &http.Cookie{Name: name, Value: s.cookies[name]}
	}
	return out
}

func htmlNode(el Element) (*html.Node, error) {
	n, ok := el.(*html.Node)
	if !ok || n == nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal,
			fmt.Sprintf("element %T does not belong to a static session", el), nil)
	}
	return n, nil
}
