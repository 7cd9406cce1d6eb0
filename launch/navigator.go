package launch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/polliog/launch-outreach/driver"
)

const seeAllButtonText = "See all of today"

// fallbackPaths are probed in order when a website's landing page has no
// email.
var fallbackPaths = []string{"/contact", "/about", "/support"}

// Timings holds navigation timeouts and the settle delays that let client
// side rendering finish before extraction.
type Timings struct {
	ListingTimeout time.Duration
	ListingSettle  time.Duration
	DetailTimeout  time.Duration
	DetailSettle   time.Duration
	ProfileTimeout time.Duration
	ProfileSettle  time.Duration
	WebsiteTimeout time.Duration
	WebsiteSettle  time.Duration
	ProbeTimeout   time.Duration
	ProbeSettle    time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		ListingTimeout: 60 * time.Second,
		ListingSettle:  5 * time.Second,
		DetailTimeout:  30 * time.Second,
		DetailSettle:   2 * time.Second,
		ProfileTimeout: 30 * time.Second,
		ProfileSettle:  2 * time.Second,
		WebsiteTimeout: 20 * time.Second,
		WebsiteSettle:  2 * time.Second,
		ProbeTimeout:   10 * time.Second,
		ProbeSettle:    1 * time.Second,
	}
}

type state int

const (
	stateResolveWebsite state = iota
	stateResolveMaker
	stateResolveSocial
	stateResolveEmail
	stateDone
)

func (s state) String() string {
	switch s {
	case stateResolveWebsite:
		return "resolve_website"
	case stateResolveMaker:
		return "resolve_maker"
	case stateResolveSocial:
		return "resolve_social"
	case stateResolveEmail:
		return "resolve_email"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Visit is what the Navigator learned about one product.
type Visit struct {
	Website string
	Maker   Maker
	Socials Socials
	Email   string
}

// Navigator walks listing -> detail page -> external website -> maker
// profile with a single page. It is not safe for concurrent use.
type Navigator struct {
	page        driver.Page
	listingHost string
	timings     Timings
	log         *zap.Logger
}

func NewNavigator(page driver.Page, listingURL string, timings Timings, log *zap.Logger) *Navigator {
	if log == nil {
		log = zap.NewNop()
	}

	var host string
	if u, err := url.Parse(listingURL); err == nil {
		host = u.Host
	}

	return &Navigator{
		page:        page,
		listingHost: host,
		timings:     timings,
		log:         log,
	}
}

// Listing loads the listing page, expands today's launches when the page
// offers it and returns the collected seeds. A listing that cannot be
// loaded is an error: there is nothing to walk.
func (n *Navigator) Listing(ctx context.Context, listingURL string) ([]Seed, error) {
	if err := n.page.Goto(ctx, listingURL, n.timings.ListingTimeout); err != nil {
		return nil, fmt.Errorf("loading listing: %w", err)
	}

	n.page.Wait(ctx, n.timings.ListingSettle)

	if err := n.expandToday(ctx); err != nil {
		// no button, or a page that cannot click: the listing is used as is
		if errors.Is(err, driver.ErrNoElement) || errors.Is(err, errors.ErrUnsupported) {
			n.log.Debug("today's launches not expanded", zap.Error(err))
		} else {
			n.log.Warn("could not expand today's launches", zap.Error(err))
		}
	}

	doc, err := n.document()
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}

	return Collect(doc, listingURL), nil
}

func (n *Navigator) expandToday(ctx context.Context) error {
	buttons, err := n.page.QueryAll("button")
	if err != nil {
		return err
	}

	for _, b := range buttons {
		text, err := b.Text()
		if err != nil || !strings.Contains(text, seeAllButtonText) {
			continue
		}

		if err := b.Click(); err != nil {
			return err
		}

		n.page.Wait(ctx, n.timings.ListingSettle)

		return nil
	}

	return driver.ErrNoElement
}

// Visit runs the per-product state machine. A failing state leaves its
// facts empty and the machine moves on; only cancellation stops it early.
func (n *Navigator) Visit(ctx context.Context, seed Seed) (Visit, error) {
	var v Visit

	for st := stateResolveWebsite; st != stateDone; st++ {
		if err := ctx.Err(); err != nil {
			return v, err
		}

		var err error

		switch st {
		case stateResolveWebsite:
			err = n.resolveWebsite(ctx, seed, &v)
		case stateResolveMaker:
			err = n.resolveMaker(ctx, seed, &v)
		case stateResolveSocial:
			err = n.resolveSocial(ctx, &v)
		case stateResolveEmail:
			err = n.resolveEmail(ctx, &v)
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return v, ctxErr
			}

			n.log.Warn("navigation step failed",
				zap.Stringer("state", st),
				zap.String("product", seed.Name),
				zap.Error(err),
			)
		}
	}

	return v, nil
}

func (n *Navigator) resolveWebsite(ctx context.Context, seed Seed, v *Visit) error {
	if seed.DetailURL == "" {
		return errors.New("no detail page")
	}

	doc, err := n.load(ctx, seed.DetailURL, n.timings.DetailTimeout, n.timings.DetailSettle)
	if err != nil {
		return err
	}

	v.Website = FindWebsite(doc, n.page.URL(), n.listingHost)

	return nil
}

func (n *Navigator) resolveMaker(ctx context.Context, seed Seed, v *Visit) error {
	if seed.DetailURL == "" {
		return nil
	}

	var (
		doc *goquery.Document
		err error
	)

	if n.page.URL() == seed.DetailURL {
		doc, err = n.document()
	} else {
		doc, err = n.load(ctx, seed.DetailURL, n.timings.DetailTimeout, n.timings.DetailSettle)
	}

	if err != nil {
		return err
	}

	v.Maker = ExtractMaker(doc, n.page.URL())

	if v.Maker.Profile != "" {
		n.log.Info("found maker", zap.String("product", seed.Name), zap.String("maker", v.Maker.Name))
	}

	return nil
}

func (n *Navigator) resolveSocial(ctx context.Context, v *Visit) error {
	if v.Maker.Profile == "" {
		return nil
	}

	doc, err := n.load(ctx, v.Maker.Profile, n.timings.ProfileTimeout, n.timings.ProfileSettle)
	if err != nil {
		return err
	}

	v.Socials = ExtractSocial(doc)

	return nil
}

func (n *Navigator) resolveEmail(ctx context.Context, v *Visit) error {
	if v.Website == "" {
		return nil
	}

	emails, landing, err := n.emailsAt(ctx, v.Website, n.timings.WebsiteTimeout, n.timings.WebsiteSettle)
	if err != nil {
		return err
	}

	if len(emails) == 0 {
		emails = n.probeFallbacks(ctx, probeTargets(v.Website, landing))
	}

	v.Email = FirstEmail(emails)

	return nil
}

func (n *Navigator) probeFallbacks(ctx context.Context, targets []string) []string {
	for _, target := range targets {
		if ctx.Err() != nil {
			return nil
		}

		emails, _, err := n.emailsAt(ctx, target, n.timings.ProbeTimeout, n.timings.ProbeSettle)
		if err != nil {
			n.log.Debug("contact probe failed", zap.String("url", target), zap.Error(err))

			continue
		}

		if len(emails) > 0 {
			return emails
		}
	}

	return nil
}

func (n *Navigator) emailsAt(ctx context.Context, pageURL string, timeout, settle time.Duration) ([]string, *goquery.Document, error) {
	if err := n.page.Goto(ctx, pageURL, timeout); err != nil {
		return nil, nil, err
	}

	n.page.Wait(ctx, settle)

	content, err := n.page.Content()
	if err != nil {
		return nil, nil, err
	}

	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(content))

	return ExtractEmails(doc, content), doc, nil
}

func (n *Navigator) load(ctx context.Context, pageURL string, timeout, settle time.Duration) (*goquery.Document, error) {
	if err := n.page.Goto(ctx, pageURL, timeout); err != nil {
		return nil, err
	}

	n.page.Wait(ctx, settle)

	return n.document()
}

func (n *Navigator) document() (*goquery.Document, error) {
	content, err := n.page.Content()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", n.page.URL(), err)
	}

	return doc, nil
}
