package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindWebsite(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "strips query",
			html: `<a href="https://acme.io/?ref=producthunt">Visit website</a>`,
			want: "https://acme.io/",
		},
		{
			name: "case insensitive text",
			html: `<a href="https://acme.io/app#top"><span>VISIT WEBSITE</span></a>`,
			want: "https://acme.io/app",
		},
		{
			name: "skips listing host",
			html: `<a href="https://www.producthunt.com/r/abc">Visit website</a>
				<a href="https://producthunt.com/r/abc">Visit website</a>
				<a href="/r/abc">Visit website</a>
				<a href="https://beta.dev">Visit website</a>`,
			want: "https://beta.dev",
		},
		{
			name: "ignores other anchors",
			html: `<a href="https://acme.io">Acme</a>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, "<html><body>"+tt.html+"</body></html>")
			got := FindWebsite(doc, "https://www.producthunt.com/products/acme", "www.producthunt.com")
			require.Equal(t, tt.want, got)
		})
	}
}
