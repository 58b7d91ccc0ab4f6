package identity

import (
	"net/url"
	"strconv"
	"strings"
)

// SourceOther is the catch-all for hostnames the registry does not know.
const SourceOther = "other"

// Identity is the stable external identifier derived for a listing URL.
// It is a best-effort dedup heuristic, not a cryptographic guarantee:
// near-duplicate URLs differing only in tracking parameters may resolve
// differently, which is accepted.
type Identity struct {
	Source     string `json:"source"`
	ExternalID string `json:"external_id"`
}

// Resolve derives the identity for a URL. The same URL always yields the same
// id. Known portals with a numeric-ID URL pattern produce "source:digits";
// everything else falls back to "source:hash" over the full URL.
func (r *Registry) Resolve(rawURL string) Identity {
	source, numericID := r.lookup(rawURL)
	if numericID {
		if digits := firstDigitRun(rawURL); digits != "" {
			return Identity{Source: source, ExternalID: source + ":" + digits}
		}
	}
	return Identity{Source: source, ExternalID: source + ":" + hashURL(rawURL)}
}

func (r *Registry) lookup(rawURL string) (source string, numericID bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return SourceOther, false
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range r.patterns {
		for _, h := range p.Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p.Source, p.NumericID
			}
		}
	}
	return SourceOther, false
}

// firstDigitRun returns the first run of digits that occupies a whole path
// segment. Runs embedded in a segment ("4.5-rooms", "12ab34") do not count.
func firstDigitRun(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := u.Path
	for i := 0; i < len(path); i++ {
		if path[i] < '0' || path[i] > '9' {
			continue
		}
		j := i
		for j < len(path) && path[j] >= '0' && path[j] <= '9' {
			j++
		}
		startsSegment := i == 0 || path[i-1] == '/'
		endsSegment := j == len(path) || path[j] == '/'
		if startsSegment && endsSegment {
			return path[i:j]
		}
		i = j
	}
	return ""
}

// hashURL is an order-sensitive rolling accumulation over the URL's characters:
// multiply by 31, add the character code, wrap to signed 32 bits, take the
// absolute value, encode base-36.
func hashURL(rawURL string) string {
	var h int32
	for _, ch := range rawURL {
		h = h*31 + int32(ch)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
