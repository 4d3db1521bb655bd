package backend

import "strings"

// NormalizeServerURL prepends "http://" if no scheme is present,
// then strips trailing slashes.
func NormalizeServerURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	return strings.TrimRight(rawURL, "/")
}
