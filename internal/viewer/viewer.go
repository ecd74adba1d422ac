// Package viewer describes who is watching a session: coarse location from
// the client address and browser details from the user agent.
package viewer

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"
	"github.com/prahasith1996/video-player/internal/geoip"
	"github.com/prahasith1996/video-player/internal/report"
)

type Describer struct {
	geo *geoip.Resolver
}

func NewDescriber(geo *geoip.Resolver) *Describer {
	return &Describer{geo: geo}
}

// Describe builds the viewer block of an interaction report from the request
// that created the session.
func (d *Describer) Describe(r *http.Request) *report.Viewer {
	loc := d.geo.Lookup(ClientIP(r))
	browser, os, device := ParseUserAgent(r.UserAgent())
	return &report.Viewer{
		Country: loc.Country,
		City:    loc.City,
		Browser: browser,
		OS:      os,
		Device:  device,
	}
}

func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	return r.RemoteAddr
}

// ParseUserAgent reduces a user agent string to browser, OS and device class.
func ParseUserAgent(ua string) (browser, os, device string) {
	if strings.TrimSpace(ua) == "" {
		return "Other", "", "Other"
	}
	parsed := useragent.New(ua)

	browser, _ = parsed.Browser()
	switch {
	case browser == "":
		browser = "Other"
	case strings.HasPrefix(browser, "Edge"):
		browser = "Edge"
	}

	os = parsed.OSInfo().Name

	switch {
	case parsed.Bot():
		device = "Bot"
	case strings.Contains(ua, "iPad") || strings.Contains(ua, "Tablet"):
		device = "Tablet"
	case parsed.Mobile():
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return browser, os, device
}
