package launch

import (
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxLinkedContactPages caps how many linked pages are probed after the
// fixed fallback paths.
const maxLinkedContactPages = 3

var (
	// ordered by how likely the page lists an address
	contactPathPatterns = []string{
		"/contact", "/get-in-touch", "/reach-us", "/support", "/help",
		"/about", "/team", "/company", "/imprint", "/impressum",
	}

	contactTextPatterns = []string{
		"contact", "get in touch", "reach us", "support", "about us", "talk to us",
	}

	skipExtensions = []string{
		".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp",
		".zip", ".gz", ".mp4", ".mov",
	}
)

type contactCandidate struct {
	url      string
	priority int
}

// ContactPages returns same-host links on doc that look like contact or
// about pages, best candidates first. Path matches rank above anchor text
// matches.
func ContactPages(doc *goquery.Document, baseURL string) []string {
	if doc == nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	var candidates []contactCandidate

	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return
		}

		resolved := base.ResolveReference(parsed)
		resolved.Fragment = ""

		if resolved.Host != base.Host || slices.Contains(skipExtensions, strings.ToLower(path.Ext(resolved.Path))) {
			return
		}

		full := resolved.String()
		if seen[full] {
			return
		}

		lowerPath := strings.ToLower(resolved.Path)

		for i, pattern := range contactPathPatterns {
			if strings.Contains(lowerPath, pattern) {
				seen[full] = true
				candidates = append(candidates, contactCandidate{url: full, priority: i})

				return
			}
		}

		text := strings.ToLower(strings.TrimSpace(s.Text()))

		for _, pattern := range contactTextPatterns {
			if strings.Contains(text, pattern) {
				seen[full] = true
				candidates = append(candidates, contactCandidate{url: full, priority: len(contactPathPatterns) + len(candidates)})

				return
			}
		}
	})

	slices.SortStableFunc(candidates, func(a, b contactCandidate) int {
		return a.priority - b.priority
	})

	pages := make([]string, 0, len(candidates))
	for _, c := range candidates {
		pages = append(pages, c.url)
	}

	return pages
}

// probeTargets lists the pages to try when a landing page has no email:
// the fixed fallback paths under website, then up to
// maxLinkedContactPages linked contact pages not already covered.
func probeTargets(website string, landing *goquery.Document) []string {
	base := strings.TrimRight(website, "/")

	targets := make([]string, 0, len(fallbackPaths)+maxLinkedContactPages)
	seen := make(map[string]bool)

	for _, p := range fallbackPaths {
		targets = append(targets, base+p)
		seen[base+p] = true
	}

	linked := 0

	for _, page := range ContactPages(landing, website) {
		if linked == maxLinkedContactPages {
			break
		}

		if seen[page] || seen[strings.TrimRight(page, "/")] {
			continue
		}

		seen[page] = true
		targets = append(targets, page)
		linked++
	}

	return targets
}
