package launch

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const visitWebsiteText = "visit website"

// FindWebsite returns the outbound "visit website" target of a detail page,
// without query string or fragment. Links pointing back at listingHost are
// ignored.
func FindWebsite(doc *goquery.Document, pageURL, listingHost string) string {
	if doc == nil {
		return ""
	}

	base, _ := url.Parse(pageURL)

	var website string

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(s.Text()), visitWebsiteText) {
			return true
		}

		ref, err := url.Parse(strings.TrimSpace(s.AttrOr("href", "")))
		if err != nil {
			return true
		}

		if base != nil {
			ref = base.ResolveReference(ref)
		}

		if ref.Scheme != "http" && ref.Scheme != "https" {
			return true
		}

		if ref.Host == "" || sameSite(ref.Host, listingHost) {
			return true
		}

		ref.RawQuery = ""
		ref.ForceQuery = false
		ref.Fragment = ""
		website = ref.String()

		return false
	})

	return website
}

// sameSite reports whether host belongs to the listing site, ignoring a
// leading "www." on either side. Ports are significant.
func sameSite(host, listingHost string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	listingHost = strings.TrimPrefix(strings.ToLower(listingHost), "www.")

	return hostIs(host, listingHost)
}
