package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"jobscout/internal/model"
)

// titlePrefix marks identities derived from posting content rather than a link.
const titlePrefix = "t:"

// Identity computes the stable deduplication key for a posting. Postings
// carrying a stable link use their canonicalized URL verbatim, which keeps
// state files readable; link-less or unstable-link postings hash normalized
// title and company instead. Enrichment and timestamps never take part, so
// the key survives re-extraction unchanged.
func Identity(p model.Posting) model.Identity {
	if p.URL != "" && !p.URLUnstable {
		return model.Identity(CanonicalURL(p.URL))
	}
	h := sha256.Sum256([]byte(normalizeText(p.Title) + "\x1f" + normalizeText(p.Company)))
	return model.Identity(titlePrefix + hex.EncodeToString(h[:]))
}

// IsTitleIdentity reports whether id was derived from posting content
// rather than a link.
func IsTitleIdentity(id model.Identity) bool {
	return strings.HasPrefix(string(id), titlePrefix)
}

// CanonicalURL normalizes a link so cosmetic variants of the same posting
// collapse: scheme and host lowercased, fragment dropped, tracking
// parameters stripped, query re-encoded deterministically. Unparseable
// input is returned as-is.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mc_cid" || lk == "mc_eid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}

	// deterministic query
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// normalizeText lowercases and collapses whitespace so formatting drift
// between runs cannot change a fallback identity.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
