package launch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mcnijman/go-emailaddress"
)

// nonContactSubstrings mark addresses that come from asset hosts, tracking
// snippets, markup namespaces or image file names rather than a person.
var nonContactSubstrings = []string{
	"example.com",
	"sentry.io",
	"wixpress",
	"cloudflare",
	"googleapis",
	"schema.org",
	"w3.org",
	"webpack",
	"github",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".svg",
	".webp",
}

// isContactEmail reports whether a lowercased candidate looks like a real
// mailbox and is not on the non-contact denylist.
func isContactEmail(lower string) bool {
	if lower == "" {
		return false
	}

	if _, err := emailaddress.Parse(lower); err != nil {
		return false
	}

	for _, s := range nonContactSubstrings {
		if strings.Contains(lower, s) {
			return false
		}
	}

	return true
}

// mailtoTarget strips the scheme and any query suffix from a mailto href.
func mailtoTarget(href string) (string, bool) {
	value := strings.TrimSpace(href)
	if !strings.HasPrefix(strings.ToLower(value), "mailto:") {
		return "", false
	}

	value = value[len("mailto:"):]

	if idx := strings.Index(value, "?"); idx >= 0 {
		value = value[:idx]
	}

	return strings.ToLower(strings.TrimSpace(value)), true
}

// ExtractEmails returns contact addresses found on a page, lowercased and
// deduplicated. Order is fixed: mailto anchors in document order first, then
// addresses matched anywhere in content in the order they appear. Callers
// treat element 0 as the page's email.
func ExtractEmails(doc *goquery.Document, content string) []string {
	var emails []string

	seen := make(map[string]bool)

	add := func(lower string) {
		if seen[lower] || !isContactEmail(lower) {
			return
		}

		seen[lower] = true
		emails = append(emails, lower)
	}

	if doc != nil {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if target, ok := mailtoTarget(s.AttrOr("href", "")); ok {
				add(target)
			}
		})
	}

	for _, addr := range emailaddress.Find([]byte(content), false) {
		add(strings.ToLower(addr.String()))
	}

	return emails
}

// FirstEmail is the email selected for a page, or "" when none was found.
func FirstEmail(emails []string) string {
	if len(emails) == 0 {
		return ""
	}

	return emails[0]
}
