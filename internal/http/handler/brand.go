package handler

import (
	"net/http"
	"strings"
)

// DetectBrand resolves the market brand for a request. An explicit ?brand=
// wins; otherwise the origin-ish headers are sniffed for a known market
// domain. Danish is the fallback because it is the oldest market.
func DetectBrand(r *http.Request) string {
	switch strings.ToLower(r.URL.Query().Get("brand")) {
	case "dk":
		return "dk"
	case "se":
		return "se"
	case "ie":
		return "ie"
	}
	blob := strings.ToLower(strings.Join([]string{
		r.Header.Get("X-Forwarded-Host"),
		r.Header.Get("Origin"),
		r.Header.Get("Referer"),
		r.Host,
	}, " "))
	switch {
	case strings.Contains(blob, "dinfamiliejurist.dk"):
		return "dk"
	case strings.Contains(blob, "dinfamiljejurist.se"):
		return "se"
	case strings.Contains(blob, "hereslaw.ie"):
		return "ie"
	}
	return "dk"
}
