package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const detailPage = `<html><body>
	<div class="comments">
		<div class="comment">
			<a href="/@bob">Bob Visitor</a>
			<p>Congrats on the launch!</p>
		</div>
		<div class="comment">
			<div class="header">
				<a href="/@janedoe"><img alt="Image of Jane"></a>
				<a href="/@janedoe">J</a>
				<a href="https://www.producthunt.com/@janedoe?ref=comment">Jane Doe</a>
				<span>Maker</span>
			</div>
			<p>Hi hunters, we built Acme because...</p>
		</div>
	</div>
</body></html>`

func TestExtractMakerFromBadgedComment(t *testing.T) {
	got := ExtractMaker(mustDoc(t, detailPage), "https://www.producthunt.com/products/acme")

	require.Equal(t, "Jane Doe", got.Name)
	require.Equal(t, "https://www.producthunt.com/@janedoe?ref=comment", got.Profile)
}

func TestExtractMakerResolvesRelativeProfile(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div><a href="/@janedoe">Jane Doe</a><span>Maker</span></div>
	</body></html>`)

	got := ExtractMaker(doc, "https://www.producthunt.com/products/acme")

	require.Equal(t, Maker{Name: "Jane Doe", Profile: "https://www.producthunt.com/@janedoe"}, got)
}

func TestExtractMakerWithoutBadge(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div><a href="/@bob">Bob Visitor</a><span>Hunter</span></div>
	</body></html>`)

	require.Equal(t, Maker{}, ExtractMaker(doc, "https://www.producthunt.com/products/acme"))
}

func TestExtractMakerSkipsImagePlaceholders(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div><a href="/@ghost">Image</a><a href="/@x">x</a><span>Maker</span></div>
	</body></html>`)

	require.Equal(t, Maker{}, ExtractMaker(doc, "https://www.producthunt.com/products/acme"))
}
