package dedup

import (
	"net/url"
	"regexp"
	"strings"
)

// trackingParams are query parameters stripped before URL comparison
var trackingParams = map[string]struct{}{
	// UTM
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	// Facebook
	"fbclid": {}, "fb_action_ids": {}, "fb_action_types": {}, "fb_source": {}, "fb_ref": {},
	// Google
	"gclid": {}, "gclsrc": {}, "dclid": {},
	// Microsoft
	"msclkid": {},
	// Twitter
	"twclid": {},
	// Generic referral
	"ref": {}, "ref_src": {}, "ref_url": {}, "source": {}, "campaign": {},
	// Session identifiers
	"sessionid": {}, "session_id": {}, "sid": {}, "visitor_id": {},
	// Analytics
	"_ga": {}, "_gl": {}, "_hsenc": {}, "_hsmi": {}, "mc_cid": {}, "mc_eid": {},
	// Affiliate
	"affiliate": {}, "partner": {}, "referrer": {},
}

// indexSuffixes are default index files stripped from paths
var indexSuffixes = []string{"/index.html", "/index.php", "/index.htm", "/default.aspx"}

var repeatedSlashes = regexp.MustCompile(`/+`)

// URLNormalizer produces a canonical string form of a URL so the same
// page fetched from different providers compares equal. Normalize is
// deterministic and never fails: unparseable input falls back to a
// lowercased, trimmed copy.
type URLNormalizer struct{}

// NewURLNormalizer creates a URL normalizer
func NewURLNormalizer() *URLNormalizer {
	return &URLNormalizer{}
}

// Normalize canonicalizes a URL for equality comparison. The scheme is
// kept as-is, the fragment is dropped, the host loses its www. prefix
// and default port, the path is lowercased and cleaned, and tracking
// parameters are removed with the remainder re-encoded in sorted order.
func (n *URLNormalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	host = stripDefaultPort(host, scheme)
	host = strings.TrimPrefix(host, "www.")

	path := normalizePath(strings.ToLower(u.EscapedPath()))
	query := normalizeQuery(u.RawQuery)

	var b strings.Builder
	if scheme != "" {
		b.WriteString(scheme)
		b.WriteString("://")
	}
	b.WriteString(host)
	b.WriteString(path)
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	return b.String()
}

// ExtractDomain returns the lowercased host without a www. prefix,
// or "" when the URL cannot be parsed. Used for domain-based grouping.
func (n *URLNormalizer) ExtractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// AreSameURL reports whether two URLs normalize to the same string
func (n *URLNormalizer) AreSameURL(a, b string) bool {
	return n.Normalize(a) == n.Normalize(b)
}

func stripDefaultPort(host, scheme string) string {
	switch scheme {
	case "https":
		return strings.TrimSuffix(host, ":443")
	case "http":
		return strings.TrimSuffix(host, ":80")
	}
	return host
}

func normalizePath(path string) string {
	path = repeatedSlashes.ReplaceAllString(path, "/")

	if path != "/" && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	for _, suffix := range indexSuffixes {
		if strings.HasSuffix(path, suffix) {
			path = strings.TrimSuffix(path, suffix)
			if path == "" {
				path = "/"
			}
			break
		}
	}

	if path == "" {
		return "/"
	}
	return path
}

func normalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	// ParseQuery keeps blank values and returns whatever it could
	// parse even on error
	params, _ := url.ParseQuery(rawQuery)
	for key := range params {
		if _, tracking := trackingParams[strings.ToLower(key)]; tracking {
			delete(params, key)
		}
	}
	if len(params) == 0 {
		return ""
	}

	// Encode sorts keys, which makes the output order-independent
	return params.Encode()
}
