// ABOUTME: Domain derivation from entry URLs
// ABOUTME: Strips a leading www. label and falls back to "" on parse failure

package models

import (
	"net/url"
	"strings"
)

// DomainFromURL returns the host of rawURL without a leading "www." label.
// Unparseable or host-less URLs yield "".
func DomainFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
