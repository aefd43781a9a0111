package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractAnchorLinks runs the ExtractLinks pipeline over the href of every
// anchor in the page, resolved against pageURL. It picks up listings that
// the page links with relative paths, which a pattern over the raw text
// cannot see. Absolute hrefs are matched as written so both passes yield
// the same link for the same listing.
func ExtractAnchorLinks(raw, pageURL string, pattern *regexp.Regexp, domain string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("HTML parsing error: %w", err)
	}

	var matches []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs, ok := resolveHref(base, href)
		if !ok {
			return
		}
		matches = append(matches, pattern.FindAllString(abs, -1)...)
	})

	return filterLinks(matches, domain), nil
}

// resolveHref turns href into an absolute http(s) URL. url.URL.String
// percent-encodes non-ASCII paths, so only hrefs that are not already
// absolute go through ResolveReference, and root-relative ones keep their
// path text as written.
func resolveHref(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	switch {
	case ref.IsAbs():
		if !isHTTP(ref.Scheme) {
			return "", false
		}
		return href, true
	case strings.HasPrefix(href, "//"):
		if !isHTTP(base.Scheme) {
			return "", false
		}
		return base.Scheme + ":" + href, true
	case strings.HasPrefix(href, "/"):
		if !isHTTP(base.Scheme) || base.Host == "" {
			return "", false
		}
		return base.Scheme + "://" + base.Host + href, true
	}

	abs := base.ResolveReference(ref)
	if !isHTTP(abs.Scheme) {
		return "", false
	}
	return abs.String(), true
}

func isHTTP(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}
