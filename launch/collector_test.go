package launch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
	<section data-test="homepage-section-yesterday">
		<div data-test="post-item-99">
			<a href="/products/old"><span data-test="post-name-99">Old Thing</span></a>
		</div>
	</section>
	<section data-test="homepage-section-today">
		<div data-test="post-item-1">
			<a href="/products/acme"><span data-test="post-name-1">1. Acme</span></a>
			<span>1</span>
			<span>Acme</span>
			<span>Acme, the rocket company</span>
			<p>Ship rockets from your laptop</p>
		</div>
		<div data-test="post-item-2">
			<a href="/products/beta"><span data-test="post-name-2">Beta</span></a>
			<p>12345678901234</p>
			<p>Short</p>
			<p>Tests your beta tests for you</p>
		</div>
		<div data-test="post-item-1">
			<a href="/products/acme-again"><span data-test="post-name-1">Acme Duplicate</span></a>
		</div>
		<div data-test="post-item-3">
			<a href="/products/nameless"></a>
		</div>
		<div data-test="post-item-4">
			<a href="/products/acme"><span data-test="post-name-4">Acme Mirror</span></a>
		</div>
	</section>
</body></html>`

func TestCollect(t *testing.T) {
	seeds := Collect(mustDoc(t, listingPage), "https://www.producthunt.com")

	require.Equal(t, []Seed{
		{
			ID:        "1",
			Name:      "Acme",
			Tagline:   "Ship rockets from your laptop",
			DetailURL: "https://www.producthunt.com/products/acme",
		},
		{
			ID:        "2",
			Name:      "Beta",
			Tagline:   "Tests your beta tests for you",
			DetailURL: "https://www.producthunt.com/products/beta",
		},
	}, seeds)
}

func TestCollectWithoutTodaySection(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<div data-test="post-item-7">
			<a href="https://www.producthunt.com/products/seven"><span data-test="post-name-7">Seven</span></a>
		</div>
	</body></html>`)

	seeds := Collect(doc, "https://www.producthunt.com")
	require.Len(t, seeds, 1)
	require.Equal(t, "Seven", seeds[0].Name)
	require.Equal(t, "", seeds[0].Tagline)
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "333. Acme", want: "Acme"},
		{in: "  7. Acme  ", want: "Acme"},
		{in: "Acme 2.0", want: "Acme 2.0"},
		{in: "3.14 Pi", want: "3.14 Pi"},
		{in: "Acme", want: "Acme"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	seeds := []Seed{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	require.Len(t, Truncate(seeds, 0), 3)
	require.Len(t, Truncate(seeds, 5), 3)
	require.Equal(t, []Seed{{ID: "1"}, {ID: "2"}}, Truncate(seeds, 2))
}
