// Package dedup implements cross-platform duplicate suppression: exact
// matching on canonicalized URLs and near-duplicate matching on simhash
// fingerprints of normalized text.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Parameters that carry tracking or variant noise and never identity.
var trackedParams = []string{
	"variant", "utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
	"fbclid", "gclid", "msclkid", "ref", "source", "campaign",
	"_ga", "_gl", "mc_cid", "mc_eid", "yclid", "igsh", "si", "feature",
}

// CanonicalizeURL normalizes a URL into the form used as the dedup and
// identity key: scheme and host lowercased, tracking query parameters
// stripped, fragment dropped, trailing slash removed. https and http forms
// of the same resource collapse together.
func CanonicalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL // Return original if parsing fails
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme == "http" {
		parsed.Scheme = "https"
	}
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	query := parsed.Query()
	for _, param := range trackedParams {
		query.Del(param)
	}
	parsed.RawQuery = query.Encode()

	parsed.Path = strings.TrimRight(parsed.Path, "/")

	return parsed.String()
}

// DocID derives the stable record identifier from a canonical URL. The
// mapping is deterministic so re-ingestion of the same URL is idempotent.
func DocID(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])[:32]
}
