package crawler

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"
)

// ExtractLinks finds every candidate listing URL in raw page content.
//
// Entities are decoded first so that links inside attributes read "&" rather
// than "&amp;". pattern is applied to the decoded text (callers compile it
// case-insensitive), each match is normalized, matches whose host does not
// contain domain are dropped, and the result is deduplicated in first-seen
// order.
func ExtractLinks(raw string, pattern *regexp.Regexp, domain string) []string {
	text := html.UnescapeString(raw)
	return filterLinks(pattern.FindAllString(text, -1), domain)
}

// NormalizeLink strips the fragment and any trailing utm_* tracking query,
// in that order.
func NormalizeLink(link string) string {
	if i := strings.IndexByte(link, '#'); i >= 0 {
		link = link[:i]
	}
	if i := strings.Index(link, "?utm_"); i >= 0 {
		link = link[:i]
	}
	return link
}

// MergeLinks appends the links of next that are not already in links
func MergeLinks(links []string, next ...[]string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, group := range append([][]string{links}, next...) {
		for _, link := range group {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			out = append(out, link)
		}
	}
	return out
}

func filterLinks(matches []string, domain string) []string {
	seen := make(map[string]struct{}, len(matches))
	links := make([]string, 0, len(matches))
	for _, match := range matches {
		link := NormalizeLink(match)
		if !hostContains(link, domain) {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// hostContains reports whether link parses and its host contains domain
func hostContains(link, domain string) bool {
	u, err := url.Parse(link)
	if err != nil {
		logger.ForCrawler().Debug().
			Err(errors.NewParsing(domain, fmt.Sprintf("unparseable link %q", link), err)).
			Msg("Dropping candidate link")
		return false
	}
	return strings.Contains(u.Host, domain)
}
