package launch

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

func TestIsContactEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{name: "plain", email: "jane@acme.io", want: true},
		{name: "example domain", email: "test@example.com", want: false},
		{name: "sentry dsn", email: "abc@o1.ingest.sentry.io", want: false},
		{name: "retina image", email: "logo@2x.png", want: false},
		{name: "svg asset", email: "icon@sprite.svg", want: false},
		{name: "schema namespace", email: "x@schema.org", want: false},
		{name: "wix asset host", email: "a@static.wixpress.com", want: false},
		{name: "github", email: "noreply@github.com", want: false},
		{name: "not an address", email: "jane.acme.io", want: false},
		{name: "empty", email: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isContactEmail(tt.email), "isContactEmail(%q)", tt.email)
		})
	}
}

func TestMailtoTarget(t *testing.T) {
	got, ok := mailtoTarget("MAILTO:Hello@Acme.io?subject=Hi")
	require.True(t, ok)
	require.Equal(t, "hello@acme.io", got)

	_, ok = mailtoTarget("https://acme.io/contact")
	require.False(t, ok)
}

func TestExtractEmailsMailtoFirst(t *testing.T) {
	html := `<html><body>
		<p>Write to jane@acme.io or test@example.com</p>
		<img src="/img/logo@2x.png">
		<a href="mailto:Hello@Acme.io?subject=Hi">Mail us</a>
		<script>var dsn = "https://abc@o123.ingest.sentry.io/1";</script>
	</body></html>`

	emails := ExtractEmails(mustDoc(t, html), html)

	require.Equal(t, []string{"hello@acme.io", "jane@acme.io"}, emails)
	require.Equal(t, "hello@acme.io", FirstEmail(emails))
}

func TestExtractEmailsDeduplicates(t *testing.T) {
	html := `<html><body>
		<a href="mailto:jane@acme.io">jane@acme.io</a>
		<footer>JANE@ACME.IO</footer>
	</body></html>`

	require.Equal(t, []string{"jane@acme.io"}, ExtractEmails(mustDoc(t, html), html))
}

func TestExtractEmailsNone(t *testing.T) {
	html := `<html><body><p>No contact here.</p></body></html>`

	emails := ExtractEmails(mustDoc(t, html), html)
	require.Empty(t, emails)
	require.Equal(t, "", FirstEmail(emails))
}

func TestExtractEmailsWithoutDocument(t *testing.T) {
	require.Equal(t, []string{"jane@acme.io"}, ExtractEmails(nil, "reach jane@acme.io today"))
}
