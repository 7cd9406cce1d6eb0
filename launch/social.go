package launch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxOtherSocial = 3

// houseAccounts are the listing site's own profiles, which appear on every
// maker page and say nothing about the maker.
var houseAccounts = []string{"producthunt"}

var (
	githubExcludedSegments = []string{"/issues", "/pull", "/blob", "/tree"}

	otherSocialHosts = []string{
		"instagram.com",
		"youtube.com",
		"facebook.com",
		"tiktok.com",
		"dev.to",
		"threads.net",
	}
)

// Socials groups the outbound profile links of a maker.
type Socials struct {
	Twitter  string
	LinkedIn string
	GitHub   string
	Other    []string
}

// OtherJoined renders Other the way it is persisted.
func (s Socials) OtherJoined() string {
	return strings.Join(s.Other, OtherSocialSeparator)
}

// ExtractSocial classifies every anchor on a profile page.
func ExtractSocial(doc *goquery.Document) Socials {
	if doc == nil {
		return Socials{}
	}

	var hrefs []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		hrefs = append(hrefs, s.AttrOr("href", ""))
	})

	return ClassifyLinks(hrefs)
}

// ClassifyLinks sorts links into Twitter/X, LinkedIn, GitHub and other
// networks. The first three keep their first match; Other keeps up to three
// distinct links in encounter order. Stored values are the hrefs as given.
func ClassifyLinks(hrefs []string) Socials {
	var s Socials

	seenOther := make(map[string]bool)

	for _, href := range hrefs {
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil || u.Host == "" {
			continue
		}

		host := normalizeHost(u.Host)
		path := strings.ToLower(u.Path)

		switch {
		case hostIs(host, "twitter.com") || hostIs(host, "x.com"):
			if s.Twitter == "" && !isHouseAccount(path) {
				s.Twitter = href
			}
		case hostIs(host, "linkedin.com"):
			if s.LinkedIn == "" && strings.Contains(path, "/in/") {
				s.LinkedIn = href
			}
		case hostIs(host, "github.com"):
			if s.GitHub == "" && !containsAny(path, githubExcludedSegments) {
				s.GitHub = href
			}
		case isOtherSocial(host, path):
			if len(s.Other) < maxOtherSocial && !seenOther[href] {
				seenOther[href] = true
				s.Other = append(s.Other, href)
			}
		}
	}

	return s
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)

	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}

	return host
}

// hostIs matches domain itself and any of its subdomains.
func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func isHouseAccount(path string) bool {
	first := strings.Trim(path, "/")
	if i := strings.Index(first, "/"); i >= 0 {
		first = first[:i]
	}

	for _, acc := range houseAccounts {
		if first == acc {
			return true
		}
	}

	return false
}

func isOtherSocial(host, path string) bool {
	if hostIs(host, "medium.com") {
		return strings.HasPrefix(path, "/@")
	}

	for _, h := range otherSocialHosts {
		if hostIs(host, h) {
			return true
		}
	}

	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
