package launch

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const makerBadge = "Maker"

// Maker is the person credited for a launch.
type Maker struct {
	Name    string
	Profile string
}

// ExtractMaker finds the first comment carrying a maker badge and takes the
// closest profile link (a target containing "/@") with usable display text.
// Relative profile links are resolved against pageURL.
func ExtractMaker(doc *goquery.Document, pageURL string) Maker {
	if doc == nil {
		return Maker{}
	}

	badge := doc.Find("body *").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Children().Length() == 0 && strings.TrimSpace(s.Text()) == makerBadge
	}).First()
	if badge.Length() == 0 {
		return Maker{}
	}

	base, _ := url.Parse(pageURL)

	var found Maker

	// Parents are ordered closest first, so the comment block that holds the
	// badge is searched before the rest of the page.
	badge.Parents().EachWithBreak(func(_ int, block *goquery.Selection) bool {
		block.Find(`a[href*="/@"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			name := strings.TrimSpace(a.Text())
			if !isDisplayName(name) {
				return true
			}

			found = Maker{
				Name:    name,
				Profile: absoluteURL(base, a.AttrOr("href", "")),
			}

			return false
		})

		return found.Profile == ""
	})

	return found
}

func isDisplayName(name string) bool {
	return utf8.RuneCountInString(name) > 1 && !strings.HasPrefix(name, "Image")
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}

	if base == nil {
		return ref.String()
	}

	return base.ResolveReference(ref).String()
}
