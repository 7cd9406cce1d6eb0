package launch

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	todaySectionSelector = `[data-test="homepage-section-today"]`
	postItemSelector     = `[data-test^="post-item-"]`
	postItemPrefix       = "post-item-"
	detailLinkSelector   = `a[href*='/products/']`
	taglineSelector      = "p, span"

	minTaglineLength = 10
)

var numberedTitle = regexp.MustCompile(`^\d+\.\s+`)

// Seed is a listing entry waiting to be visited.
type Seed struct {
	ID        string
	Name      string
	Tagline   string
	DetailURL string
}

// Collect walks the listing entries, restricted to today's section when the
// page has one. Entries are deduplicated by their listing id and by detail
// page URL, first seen wins, and entries without a name are dropped.
func Collect(doc *goquery.Document, listingURL string) []Seed {
	if doc == nil {
		return nil
	}

	base, _ := url.Parse(listingURL)

	root := doc.Find(todaySectionSelector).First()
	if root.Length() == 0 {
		root = doc.Selection
	}

	var seeds []Seed

	seen := make(map[string]bool)
	seenURL := make(map[string]bool)

	root.Find(postItemSelector).Each(func(_ int, post *goquery.Selection) {
		id := strings.TrimPrefix(post.AttrOr("data-test", ""), postItemPrefix)
		if id == "" || seen[id] {
			return
		}

		seen[id] = true

		name := postName(doc, post, id)
		if name == "" {
			return
		}

		var detailURL string
		if href := post.Find(detailLinkSelector).First().AttrOr("href", ""); href != "" {
			detailURL = absoluteURL(base, href)
		}

		if detailURL != "" {
			if seenURL[detailURL] {
				return
			}

			seenURL[detailURL] = true
		}

		seeds = append(seeds, Seed{
			ID:        id,
			Name:      name,
			Tagline:   tagline(post, name),
			DetailURL: detailURL,
		})
	})

	return seeds
}

// Truncate keeps the first limit seeds. A limit of zero or less keeps all.
func Truncate(seeds []Seed, limit int) []Seed {
	if limit <= 0 || limit >= len(seeds) {
		return seeds
	}

	return seeds[:limit]
}

func postName(doc *goquery.Document, post *goquery.Selection, id string) string {
	sel := fmt.Sprintf(`[data-test="post-name-%s"]`, id)

	el := post.Find(sel).First()
	if el.Length() == 0 {
		el = doc.Find(sel).First()
	}

	return NormalizeName(el.Text())
}

// NormalizeName trims a listing title and drops a rank prefix such as
// "333. ".
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)

	return numberedTitle.ReplaceAllString(name, "")
}

func tagline(post *goquery.Selection, name string) string {
	var found string

	post.Find(taglineSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		txt := strings.TrimSpace(s.Text())
		if !isTagline(txt, name) {
			return true
		}

		found = txt

		return false
	})

	return found
}

func isTagline(txt, name string) bool {
	if utf8.RuneCountInString(txt) <= minTaglineLength {
		return false
	}

	if isNumeric(txt) {
		return false
	}

	return txt != name && !strings.HasPrefix(txt, name)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}

	return s != ""
}
