package browser

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/models"
)

// Launcher owns one Chromium process and hands out isolated sessions.
// It is safe for concurrent use.
type Launcher struct {
	browser    *rod.Browser
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
	active     atomic.Int32
	log        *slog.Logger
}

// Launch starts Chromium with automation fingerprints suppressed and
// connects to it.
func Launch(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig, log *slog.Logger) (*Launcher, error) {
	if log == nil {
		log = slog.Default()
	}

	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	log.Info("browser launched", "controlURL", controlURL, "headless", browserCfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &Launcher{
		browser:    b,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		log:        log,
	}, nil
}

// NewSession opens a page in a fresh incognito context, so cookies set by
// one session never leak into another. Closing the session disposes the
// context.
func (l *Launcher) NewSession(ctx context.Context) (*RodSession, error) {
	inc, err := l.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, categorizeError(err, "failed to create incognito context")
	}
	page, err := inc.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = inc.Close()
		return nil, categorizeError(err, "failed to open page")
	}

	s := NewRodSession(page, SessionOptions{
		Stealth:              l.browserCfg.Stealth,
		UserAgent:            l.browserCfg.UserAgent,
		ImplicitWait:         l.scraperCfg.ImplicitWait,
		NavigationTimeout:    l.scraperCfg.NavigationTimeout,
		BlockedResourceTypes: l.browserCfg.BlockedResourceTypes,
		BlockAds:             l.browserCfg.BlockTrackers,
		Logger:               l.log,
	})

	l.active.Add(1)
	s.onClose = func() error {
		l.active.Add(-1)
		return inc.Close()
	}
	return s, nil
}

// ActiveSessions reports how many sessions are open.
func (l *Launcher) ActiveSessions() int {
	return int(l.active.Load())
}

// Close kills the browser process.
func (l *Launcher) Close() {
	l.log.Info("closing browser", "activeSessions", l.ActiveSessions())
	if err := l.browser.Close(); err != nil {
		l.log.Warn("browser close failed", "error", err)
	}
}
