package launch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polliog/launch-outreach/driver"
)

type ScraperOptions func(*Scraper)

// Progress is reported before and after each product is visited.
type Progress struct {
	Index   int
	Total   int
	Seed    Seed
	Product *Product // nil before the visit
}

// Scraper runs one scrape pass: it opens a page session, collects today's
// seeds from the listing and visits them one at a time.
type Scraper struct {
	open       driver.Opener
	listingURL string
	source     string
	limit      int
	timings    Timings
	log        *zap.Logger
	now        func() time.Time
	progress   func(Progress)
}

func NewScraper(open driver.Opener, listingURL string, opts ...ScraperOptions) *Scraper {
	s := Scraper{
		open:       open,
		listingURL: listingURL,
		source:     SourceProductHunt,
		timings:    DefaultTimings(),
		log:        zap.NewNop(),
		now:        time.Now,
		progress:   func(Progress) {},
	}

	for _, opt := range opts {
		opt(&s)
	}

	return &s
}

// WithLimit truncates the seed list to the first n entries before any
// product is visited.
func WithLimit(n int) ScraperOptions {
	return func(s *Scraper) {
		s.limit = n
	}
}

func WithTimings(t Timings) ScraperOptions {
	return func(s *Scraper) {
		s.timings = t
	}
}

func WithLogger(l *zap.Logger) ScraperOptions {
	return func(s *Scraper) {
		if l != nil {
			s.log = l
		}
	}
}

func WithSource(source string) ScraperOptions {
	return func(s *Scraper) {
		s.source = source
	}
}

func WithClock(now func() time.Time) ScraperOptions {
	return func(s *Scraper) {
		s.now = now
	}
}

func WithProgress(fn func(Progress)) ScraperOptions {
	return func(s *Scraper) {
		s.progress = fn
	}
}

// Run returns the products built so far even when it fails part way, so a
// cancelled run can still be persisted. The page session is closed on every
// return path.
func (s *Scraper) Run(ctx context.Context) (products []Product, err error) {
	page, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}

	defer func() {
		if cerr := page.Close(); cerr != nil {
			s.log.Warn("closing page", zap.Error(cerr))
		}
	}()

	nav := NewNavigator(page, s.listingURL, s.timings, s.log)

	seeds, err := nav.Listing(ctx, s.listingURL)
	if err != nil {
		return nil, err
	}

	s.log.Info("collected launches", zap.Int("unique", len(seeds)))

	seeds = Truncate(seeds, s.limit)
	date := s.now().Format(DateLayout)

	for i, seed := range seeds {
		s.progress(Progress{Index: i, Total: len(seeds), Seed: seed})

		v, err := nav.Visit(ctx, seed)
		if err != nil {
			return products, err
		}

		p := s.assemble(date, seed, v)
		products = append(products, p)

		s.progress(Progress{Index: i, Total: len(seeds), Seed: seed, Product: &p})
	}

	return products, nil
}

func (s *Scraper) assemble(date string, seed Seed, v Visit) Product {
	return Product{
		Date:         date,
		Source:       s.source,
		Name:         seed.Name,
		Tagline:      seed.Tagline,
		Website:      v.Website,
		Email:        v.Email,
		MakerName:    v.Maker.Name,
		MakerProfile: v.Maker.Profile,
		Twitter:      v.Socials.Twitter,
		LinkedIn:     v.Socials.LinkedIn,
		GitHub:       v.Socials.GitHub,
		OtherSocial:  v.Socials.OtherJoined(),
		PHURL:        seed.DetailURL,
	}
}
