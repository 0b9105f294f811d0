// Package session persists browser session cookies between an authentication
// run and later extraction runs, normalizing them into the shape x.com
// accepts regardless of where they were originally captured.
package session

import "strings"

// SameSite values in the canonical, title-cased form the browser expects.
const (
	SameSiteStrict = "Strict"
	SameSiteLax    = "Lax"
	SameSiteNone   = "None"
)

const canonicalDomain = ".x.com"

// Cookie is one session credential in browser-consumable shape.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
	SameSite string `json:"sameSite"`
	// Expires is epoch seconds; zero means a session cookie.
	Expires int64 `json:"expires,omitempty"`
}

// Normalize rewrites a cookie set into canonical form. It is idempotent:
// normalizing an already-normalized set yields an identical set.
func Normalize(cookies []Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, normalizeCookie(c))
	}
	return out
}

func normalizeCookie(c Cookie) Cookie {
	c.Domain = normalizeDomain(c.Domain)
	if c.Path == "" {
		c.Path = "/"
	}

	switch strings.ToLower(c.SameSite) {
	case "no_restriction", "none":
		// SameSite=None is only honored on secure cookies.
		c.SameSite = SameSiteNone
		c.Secure = true
	case "lax":
		c.SameSite = SameSiteLax
	case "strict":
		c.SameSite = SameSiteStrict
	default:
		if c.Secure {
			c.SameSite = SameSiteNone
		} else {
			c.SameSite = SameSiteLax
		}
	}
	return c
}

// normalizeDomain forces a leading dot and rewrites the legacy twitter.com
// host to the canonical x.com host.
func normalizeDomain(domain string) string {
	if domain == "" {
		return canonicalDomain
	}
	if !strings.HasPrefix(domain, ".") {
		domain = "." + domain
	}
	if strings.Contains(domain, "twitter.com") {
		domain = strings.ReplaceAll(domain, "twitter.com", "x.com")
	}
	return domain
}
