package util

import (
	"fmt"
	"net/url"
	"strings"
)

type Platform string

const (
	PlatformYouTube Platform = "youtube"
	PlatformOther   Platform = "other"
)

// ParseSourceURL parses a user-supplied URL, adding https:// when the scheme
// is missing, and reports which platform it targets. Only http(s) URLs with
// a host are accepted.
func ParseSourceURL(raw string) (Platform, *url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil, fmt.Errorf("empty URL")
	}
	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		if u2, e2 := url.Parse("https://" + raw); e2 == nil {
			u = u2
		}
	}
	if err != nil || u.Host == "" {
		return "", nil, fmt.Errorf("invalid URL %q", raw)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", nil, fmt.Errorf("invalid URL %q: unsupported scheme %q", raw, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be", "youtube-nocookie.com":
		return PlatformYouTube, u, nil
	default:
		return PlatformOther, u, nil
	}
}
