package browser

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	tls2 "github.com/refraction-networking/utls"
	"github.com/use-agent/jobscout/models"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBody caps how much of a response is read.
const maxBody = 10 << 20

// Fetcher retrieves raw HTML for a StaticSession.
type Fetcher interface {
	// Fetch returns the body of target and the URL it was finally served
	// from after redirects.
	Fetch(ctx context.Context, target string, cookies []*http.Cookie) (body []byte, finalURL string, err error)
}

// HTTPFetcher fetches pages over HTTP with a Chrome TLS fingerprint.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher. proxy, when set, must be an http(s)
// proxy URL; proxied requests use the stock TLS stack.
func NewHTTPFetcher(proxy string, timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{
		DialTLSContext:      dialTLSChrome,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &HTTPFetcher{client: &http.Client{Transport: transport, Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, target string, cookies []*http.Cookie) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("bad url %q", target), err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", categorizeError(err, fmt.Sprintf("fetching %s failed", target))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, target), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, "", categorizeError(err, "reading response body failed")
	}
	return body, resp.Request.URL.String(), nil
}

// dialTLSChrome dials addr with a Chrome ClientHello. ALPN is pinned to
// http/1.1 because net/http cannot speak h2 over a custom TLS conn.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	rawConn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	spec, err := tls2.UTLSIdToSpec(tls2.HelloChrome_Auto)
	if err != nil {
		rawConn.Close()
		return nil, err
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls2.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{ServerName: host}, tls2.HelloCustom)
	if err := tlsConn.ApplyPreset(&spec); err != nil {
		rawConn.Close()
		return nil, err
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// MapFetcher serves canned pages keyed by URL. Unknown URLs fail like an
// HTTP 404. It is used for offline runs and tests.
type MapFetcher struct {
	Pages map[string]string

	mu        sync.Mutex
	requested []string
	cookies   [][]*http.Cookie
}

func (f *MapFetcher) Fetch(_ context.Context, target string, cookies []*http.Cookie) ([]byte, string, error) {
	f.mu.Lock()
	f.requested = append(f.requested, target)
	f.cookies = append(f.cookies, cookies)
	f.mu.Unlock()

	page, ok := f.Pages[target]
	if !ok {
		return nil, "", models.NewScrapeError(models.ErrCodeNavigation,
			fmt.Sprintf("HTTP 404 for %s", target), nil)
	}
	return []byte(page), target, nil
}

// Requested lists every URL fetched so far, in order.
func (f *MapFetcher) Requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requested...)
}

// LastCookies returns the cookies sent with the most recent fetch.
func (f *MapFetcher) LastCookies() []*http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cookies) == 0 {
		return nil
	}
	return f.cookies[len(f.cookies)-1]
}
