package browser

import (
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to CDP resource types. Scripts are not
// blockable here: both job boards render their listings client-side.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// trackerHosts are analytics and ad hosts seen on job-board pages.
var trackerHosts = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"facebook.net":          {},
	"ads.linkedin.com":      {},
	"px.ads.linkedin.com":   {},
	"snap.licdn.com":        {},
	"bat.bing.com":          {},
	"adnxs.com":             {},
	"adsrvr.org":            {},
	"criteo.com":            {},
	"hotjar.com":            {},
	"scorecardresearch.com": {},
	"demdex.net":            {},
	"omtrdc.net":            {},
	"consensu.org":          {},
}

// isTrackerHost reports whether host or one of its parent domains is listed.
func isTrackerHost(host string) bool {
	host = strings.ToLower(host)
	for host != "" {
		if _, ok := trackerHosts[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}

// blockedTypes turns config names into a lookup set, ignoring unknown names.
func blockedTypes(names []string) map[proto.NetworkResourceType]struct{} {
	set := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := resourceTypes[name]; ok {
			set[rt] = struct{}{}
		}
	}
	return set
}

// setupHijack fails requests for the blocked resource types and, when
// blockTrackers is set, for tracker hosts. It returns nil when there is
// nothing to block; otherwise the caller must Stop the router.
func setupHijack(page *rod.Page, types []string, blockTrackers bool) *rod.HijackRouter {
	blocked := blockedTypes(types)
	if len(blocked) == 0 && !blockTrackers {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if _, ok := blocked[h.Request.Type()]; ok {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if blockTrackers {
			if u, err := url.Parse(h.Request.URL().String()); err == nil && isTrackerHost(u.Hostname()) {
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()

	return router
}
