package outreach

import (
	"fmt"
	"os"
	"strings"

	"github.com/polliog/launch-outreach/launch"
)

const (
	FirstNameToken      = "{{FirstName}}"
	ProductNameToken    = "{{ProductName}}"
	LaunchPlatformToken = "{{LaunchPlatform}}"

	defaultFirstName   = "there"
	defaultProductName = "your product"
)

var platformLabels = map[string]string{
	"producthunt":  "Product Hunt",
	"hackernews":   "Hacker News",
	"indiehackers": "Indie Hackers",
}

// Template is an outreach body with literal placeholder tokens.
type Template struct {
	body string
}

func NewTemplate(body string) *Template {
	return &Template{body: body}
}

func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}

	return NewTemplate(string(data)), nil
}

// Render returns the subject and body personalized for p. Substitution is
// literal; nothing in the template is escaped or evaluated.
func (t *Template) Render(p *launch.Product) (string, string) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = defaultProductName
	}

	body := strings.NewReplacer(
		FirstNameToken, FirstName(p.MakerName),
		ProductNameToken, name,
		LaunchPlatformToken, PlatformLabel(p.Source),
	).Replace(t.body)

	return Subject(name), body
}

// Subject is the fixed subject line for a product name.
func Subject(productName string) string {
	return "Congrats on launching " + productName + "!"
}

// FirstName is the first whitespace-delimited token of a maker name.
func FirstName(makerName string) string {
	fields := strings.Fields(makerName)
	if len(fields) == 0 {
		return defaultFirstName
	}

	return fields[0]
}

// PlatformLabel maps a source tag to its display name. Unknown tags are
// returned as-is.
func PlatformLabel(source string) string {
	if label, ok := platformLabels[strings.ToLower(strings.TrimSpace(source))]; ok {
		return label
	}

	return source
}
