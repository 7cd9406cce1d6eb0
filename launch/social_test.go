package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyLinks(t *testing.T) {
	got := ClassifyLinks([]string{
		"/@janedoe/upvotes",
		"https://twitter.com/producthunt",
		"https://twitter.com/janedoe",
		"https://x.com/someoneelse",
		"https://www.linkedin.com/company/acme",
		"https://www.linkedin.com/in/janedoe",
		"https://github.com/janedoe/repo/issues/3",
		"https://github.com/janedoe",
		"https://www.instagram.com/janedoe",
		"https://www.instagram.com/janedoe",
		"https://medium.com/acme-blog",
		"https://medium.com/@janedoe",
		"https://www.youtube.com/@janedoe",
		"https://tiktok.com/@janedoe",
		"https://www.dropbox.com/s/file",
	})

	require.Equal(t, "https://twitter.com/janedoe", got.Twitter)
	require.Equal(t, "https://www.linkedin.com/in/janedoe", got.LinkedIn)
	require.Equal(t, "https://github.com/janedoe", got.GitHub)
	require.Equal(t, []string{
		"https://www.instagram.com/janedoe",
		"https://medium.com/@janedoe",
		"https://www.youtube.com/@janedoe",
	}, got.Other)
	require.Equal(t,
		"https://www.instagram.com/janedoe | https://medium.com/@janedoe | https://www.youtube.com/@janedoe",
		got.OtherJoined(),
	)
}

func TestClassifyLinksHouseAccountOnly(t *testing.T) {
	got := ClassifyLinks([]string{
		"https://twitter.com/ProductHunt",
		"https://x.com/producthunt/status/1",
	})

	require.Empty(t, got.Twitter)
}

func TestClassifyLinksGitHubSegments(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{name: "profile", href: "https://github.com/janedoe", want: "https://github.com/janedoe"},
		{name: "repo", href: "https://github.com/janedoe/repo", want: "https://github.com/janedoe/repo"},
		{name: "issue", href: "https://github.com/janedoe/repo/issues/3", want: ""},
		{name: "pull", href: "https://github.com/janedoe/repo/pull/9", want: ""},
		{name: "blob", href: "https://github.com/janedoe/repo/blob/main/README.md", want: ""},
		{name: "tree", href: "https://github.com/janedoe/repo/tree/dev", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyLinks([]string{tt.href}).GitHub)
		})
	}
}

func TestExtractSocialFromDocument(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<a href="https://twitter.com/producthunt">Product Hunt</a>
		<a href="https://twitter.com/janedoe">@janedoe</a>
		<a href="https://dev.to/janedoe">dev.to</a>
	</body></html>`)

	got := ExtractSocial(doc)
	require.Equal(t, "https://twitter.com/janedoe", got.Twitter)
	require.Equal(t, []string{"https://dev.to/janedoe"}, got.Other)
}
