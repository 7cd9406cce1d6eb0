package launch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/polliog/launch-outreach/driver"
)

type sites struct {
	listing *httptest.Server
	acme    *httptest.Server
	beta    *httptest.Server
	gamma   *httptest.Server
}

func (s *sites) Close() {
	s.listing.Close()
	s.acme.Close()
	s.beta.Close()
	s.gamma.Close()
}

func html(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, "<html><body>"+body+"</body></html>")
}

// newSites serves a listing with five launches: three link out to a
// website, two of those websites expose an email (one only on /contact).
func newSites(t *testing.T) *sites {
	t.Helper()

	s := &sites{}

	s.acme = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)

			return
		}

		html(w, `<h1>Acme</h1><a href="mailto:jane@acme.io?subject=Hello">Say hi</a>`)
	}))

	s.beta = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			html(w, `<h1>Beta</h1><p>Built with love.</p>`)
		case "/about":
			html(w, `<p>Reach the team at hello@beta.dev</p>`)
		default:
			http.NotFound(w, r)
		}
	}))

	s.gamma = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.Error(w, "boom", http.StatusInternalServerError)

			return
		}

		html(w, `<h1>Gamma</h1>`)
	}))

	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<section data-test="homepage-section-today">
			<div data-test="post-item-1"><a href="/products/acme"><span data-test="post-name-1">1. Acme</span></a><p>Rockets for everyone, today</p></div>
			<div data-test="post-item-2"><a href="/products/beta"><span data-test="post-name-2">2. Beta</span></a></div>
			<div data-test="post-item-1"><a href="/products/acme"><span data-test="post-name-1">1. Acme</span></a></div>
			<div data-test="post-item-3"><a href="/products/gamma"><span data-test="post-name-3">3. Gamma</span></a></div>
			<div data-test="post-item-4"><a href="/products/delta"><span data-test="post-name-4">4. Delta</span></a></div>
			<div data-test="post-item-5"><a href="/products/epsilon"><span data-test="post-name-5">5. Epsilon</span></a></div>
		</section>
		<button>See all of today's products</button>`)
	})
	mux.HandleFunc("/products/acme", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<a href="`+s.acme.URL+`/?ref=producthunt">Visit website</a>
			<div class="comment"><a href="/@janedoe">Jane Doe</a><span>Maker</span><p>Hello hunters</p></div>`)
	})
	mux.HandleFunc("/products/beta", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<a href="`+s.beta.URL+`?ref=producthunt">Visit Website</a>`)
	})
	mux.HandleFunc("/products/gamma", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<a href="`+s.gamma.URL+`">visit website</a>`)
	})
	mux.HandleFunc("/products/delta", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<p>No website yet.</p>`)
	})
	mux.HandleFunc("/products/epsilon", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<a href="/r/epsilon">Visit website</a>`)
	})
	mux.HandleFunc("/@janedoe", func(w http.ResponseWriter, r *http.Request) {
		html(w, `<a href="https://twitter.com/producthunt">PH</a>
			<a href="https://twitter.com/janedoe">Twitter</a>
			<a href="https://www.linkedin.com/in/janedoe">LinkedIn</a>
			<a href="https://github.com/janedoe/repo/issues/3">Issue</a>
			<a href="https://github.com/janedoe">GitHub</a>`)
	})

	s.listing = httptest.NewServer(mux)

	return s
}

type trackedPage struct {
	driver.Page
	closed int
}

func (p *trackedPage) Close() error {
	p.closed++

	return p.Page.Close()
}

func fixedClock() time.Time {
	return time.Date(2026, 1, 8, 9, 30, 0, 0, time.UTC)
}

func TestScraperRun(t *testing.T) {
	s := newSites(t)
	defer s.Close()

	page := &trackedPage{Page: driver.NewStatic(nil)}
	open := func(context.Context) (driver.Page, error) { return page, nil }

	var progress []Progress

	scraper := NewScraper(open, s.listing.URL+"/",
		WithTimings(Timings{}),
		WithClock(fixedClock),
		WithProgress(func(p Progress) { progress = append(progress, p) }),
	)

	products, err := scraper.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, page.closed)
	require.Len(t, products, 5)
	require.Len(t, progress, 10)

	acme := products[0]
	require.Equal(t, Product{
		Date:         "2026-01-08",
		Source:       SourceProductHunt,
		Name:         "Acme",
		Tagline:      "Rockets for everyone, today",
		Website:      s.acme.URL + "/",
		Email:        "jane@acme.io",
		MakerName:    "Jane Doe",
		MakerProfile: s.listing.URL + "/@janedoe",
		Twitter:      "https://twitter.com/janedoe",
		LinkedIn:     "https://www.linkedin.com/in/janedoe",
		GitHub:       "https://github.com/janedoe",
		PHURL:        s.listing.URL + "/products/acme",
	}, acme)

	beta := products[1]
	require.Equal(t, "Beta", beta.Name)
	require.Equal(t, s.beta.URL, beta.Website)
	require.Equal(t, "hello@beta.dev", beta.Email)
	require.Empty(t, beta.MakerName)

	gamma := products[2]
	require.Equal(t, s.gamma.URL, gamma.Website)
	require.Empty(t, gamma.Email)

	for _, p := range products[3:] {
		require.Empty(t, p.Website, p.Name)
		require.Empty(t, p.Email, p.Name)
	}

	st := Summarize(products)
	require.Equal(t, Stats{Total: 5, WithEmail: 2, WithMaker: 1, WithTwitter: 1, WithLinkedIn: 1}, st)
}

func TestScraperRunLimit(t *testing.T) {
	s := newSites(t)
	defer s.Close()

	scraper := NewScraper(driver.OpenStatic(nil), s.listing.URL+"/",
		WithTimings(Timings{}),
		WithLimit(2),
	)

	products, err := scraper.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "Acme", products[0].Name)
	require.Equal(t, "Beta", products[1].Name)
}

func TestScraperRunClosesPageOnListingError(t *testing.T) {
	page := &trackedPage{Page: driver.NewStatic(nil)}
	open := func(context.Context) (driver.Page, error) { return page, nil }

	scraper := NewScraper(open, "http://127.0.0.1:1/", WithTimings(Timings{}))

	products, err := scraper.Run(context.Background())
	require.Error(t, err)
	require.Empty(t, products)
	require.Equal(t, 1, page.closed)
}

func TestScraperRunOpenError(t *testing.T) {
	open := func(context.Context) (driver.Page, error) { return nil, errors.New("no browser") }

	_, err := NewScraper(open, "http://127.0.0.1:1/").Run(context.Background())
	require.ErrorContains(t, err, "no browser")
}

func TestNavigatorVisitCancelled(t *testing.T) {
	s := newSites(t)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	nav := NewNavigator(driver.NewStatic(nil), s.listing.URL, Timings{}, nil)

	_, err := nav.Visit(ctx, Seed{Name: "Acme", DetailURL: s.listing.URL + "/products/acme"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNavigatorListingWithoutExpandButton(t *testing.T) {
	s := newSites(t)
	defer s.Close()

	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html(w, `<div data-test="post-item-7"><a href="/products/zeta"><span data-test="post-name-7">Zeta</span></a></div>`)
	}))
	defer plain.Close()

	for _, listingURL := range []string{plain.URL + "/", s.listing.URL + "/"} {
		core, logs := observer.New(zapcore.DebugLevel)

		nav := NewNavigator(driver.NewStatic(nil), listingURL, Timings{}, zap.New(core))

		seeds, err := nav.Listing(context.Background(), listingURL)
		require.NoError(t, err)
		require.NotEmpty(t, seeds)

		require.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), listingURL)
		require.Equal(t, 1, logs.FilterMessage("today's launches not expanded").Len(), listingURL)
	}
}
