package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/jobscout/models"
	"github.com/ysmood/gson"
)

// SessionOptions tunes a RodSession.
type SessionOptions struct {
	// Stealth injects go-rod/stealth before every document.
	Stealth bool

	// UserAgent overrides the browser's user agent when non-empty.
	UserAgent string

	// Headers are sent with every request from the page.
	Headers map[string]string

	// ImplicitWait is how long FindElement keeps retrying before it
	// reports ELEMENT_NOT_FOUND. Zero means look once.
	ImplicitWait time.Duration

	// NavigationTimeout bounds Navigate and Refresh. Zero means the
	// caller's context alone decides.
	NavigationTimeout time.Duration

	// BlockedResourceTypes lists resource types to fail ("Image", "Font", ...).
	BlockedResourceTypes []string

	// BlockAds fails requests to known ad and tracking hosts.
	BlockAds bool

	Logger *slog.Logger
}

// RodSession is a Session over one go-rod page.
type RodSession struct {
	page    *rod.Page
	opts    SessionOptions
	router  *rod.HijackRouter
	log     *slog.Logger
	onClose func() error
}

var _ Session = (*RodSession)(nil)

// NewRodSession prepares page for scraping. Stealth, headers and request
// hijacking only affect navigations made after this call.
func NewRodSession(page *rod.Page, opts SessionOptions) *RodSession {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	if opts.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			log.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			log.Warn("user agent override failed", "error", err)
		}
	}

	if len(opts.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(opts.Headers),
		}.Call(page)
	}

	return &RodSession{
		page:   page,
		opts:   opts,
		router: setupHijack(page, opts.BlockedResourceTypes, opts.BlockAds),
		log:    log,
	}
}

func (s *RodSession) withNavTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.NavigationTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.NavigationTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *RodSession) Navigate(ctx context.Context, target string) error {
	ctx, cancel := s.withNavTimeout(ctx)
	defer cancel()

	p := s.page.Context(ctx)
	if err := p.Navigate(target); err != nil {
		return categorizeError(err, fmt.Sprintf("navigation to %s failed", target))
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, fmt.Sprintf("waiting for %s to load failed", target))
	}
	s.settle(p)
	return nil
}

func (s *RodSession) Refresh(ctx context.Context) error {
	ctx, cancel := s.withNavTimeout(ctx)
	defer cancel()

	p := s.page.Context(ctx)
	if err := p.Reload(); err != nil {
		return categorizeError(err, "reload failed")
	}
	if err := p.WaitLoad(); err != nil {
		return categorizeError(err, "waiting for reload failed")
	}
	s.settle(p)
	return nil
}

// settle waits briefly for client-side rendering to stop mutating the DOM.
func (s *RodSession) settle(p *rod.Page) {
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		s.log.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

func (s *RodSession) URL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to read page info", err)
	}
	return info.URL, nil
}

func (s *RodSession) FindElement(ctx context.Context, selector string) (Element, error) {
	if s.opts.ImplicitWait > 0 {
		wctx, cancel := context.WithTimeout(ctx, s.opts.ImplicitWait)
		defer cancel()

		el, err := s.page.Context(wctx).Element(selector)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, models.ElementNotFound(selector)
			}
			return nil, categorizeError(err, fmt.Sprintf("looking up %q failed", selector))
		}
		return el, nil
	}

	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, categorizeError(err, fmt.Sprintf("looking up %q failed", selector))
	}
	if !has {
		return nil, models.ElementNotFound(selector)
	}
	return el, nil
}

func (s *RodSession) FindElements(ctx context.Context, selector string) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, categorizeError(err, fmt.Sprintf("looking up %q failed", selector))
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (s *RodSession) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	e, err := rodElement(el)
	if err != nil {
		return "", false, err
	}
	v, err := e.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, categorizeError(err, fmt.Sprintf("reading attribute %q failed", name))
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (s *RodSession) Text(ctx context.Context, el Element) (string, error) {
	e, err := rodElement(el)
	if err != nil {
		return "", err
	}
	text, err := e.Context(ctx).Text()
	if err != nil {
		return "", categorizeError(err, "reading element text failed")
	}
	return text, nil
}

func (s *RodSession) Eval(ctx context.Context, js string, args ...any) (string, error) {
	res, err := s.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return "", categorizeError(err, "script evaluation failed")
	}
	if res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

func (s *RodSession) SetCookie(ctx context.Context, name, value string) error {
	current, err := s.URL(ctx)
	if err != nil {
		return err
	}
	u, err := url.Parse(current)
	if err != nil || u.Hostname() == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("cannot set cookie %q before navigating to a site", name), err)
	}

	_, err = proto.NetworkSetCookie{
		Name:   name,
		Value:  value,
		Domain: u.Hostname(),
		Path:   "/",
		Secure: u.Scheme == "https",
	}.Call(s.page.Context(ctx))
	if err != nil {
		return categorizeError(err, fmt.Sprintf("setting cookie %q failed", name))
	}
	return nil
}

func (s *RodSession) Click(ctx context.Context, el Element) error {
	e, err := rodElement(el)
	if err != nil {
		return err
	}
	if err := e.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return categorizeError(err, "click failed")
	}
	s.settle(s.page.Context(ctx))
	return nil
}

// Close stops request hijacking and closes the page (and its incognito
// context when the Launcher created one).
func (s *RodSession) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	err := s.page.Close()
	if s.onClose != nil {
		if cerr := s.onClose(); err == nil {
			err = cerr
		}
	}
	return err
}

func rodElement(el Element) (*rod.Element, error) {
	e, ok := el.(*rod.Element)
	if !ok || e == nil {
		return nil, models.NewScrapeError(models.ErrCodeInternal,
			fmt.Sprintf("element %T does not belong to a rod session", el), nil)
	}
	return e, nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
