package browser

import (
	"net/url"
	"regexp"
	"strings"
)

// ResolveURL resolves ref against base. Absolute refs are returned unchanged.
func ResolveURL(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// MatchURL reports whether current satisfies pattern. A pattern containing '*'
// is a glob where '*' matches within a path segment and '**' matches across
// segments; any other pattern must equal current, ignoring a trailing slash and
// the fragment.
func MatchURL(pattern, current string) bool {
	if pattern == "" {
		return false
	}
	if strings.Contains(pattern, "*") {
		return globRegexp(pattern).MatchString(current)
	}
	return normalizeURL(pattern) == normalizeURL(current)
}

func normalizeURL(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}

func globRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '*' {
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				b.WriteString(".*")
				i++
				continue
			}
			b.WriteString("[^/]*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(c)))
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
