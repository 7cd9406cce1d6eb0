package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures the Chromium session.
type PlaywrightOptions struct {
	Headless  bool
	UserAgent string
}

// Playwright is a Page backed by a Chromium instance. It owns the whole
// browser: closing the page shuts the browser and driver process down.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// OpenPlaywright is an Opener that launches a fresh Chromium per session.
func OpenPlaywright(opts PlaywrightOptions) Opener {
	return func(ctx context.Context) (Page, error) {
		return LaunchPlaywright(ctx, opts)
	}
}

// LaunchPlaywright starts the driver process, a Chromium browser and one
// page. On failure everything started so far is released.
func LaunchPlaywright(ctx context.Context, opts PlaywrightOptions) (*Playwright, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--disable-blink-features=AutomationControlled"},
	})
	if err != nil {
		_ = pw.Stop()

		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(opts.UserAgent),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()

		return nil, fmt.Errorf("creating browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()

		return nil, fmt.Errorf("creating page: %w", err)
	}

	return &Playwright{pw: pw, browser: browser, page: page}, nil
}

func (p *Playwright) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}

	return nil
}

func (p *Playwright) Wait(ctx context.Context, d time.Duration) {
	sleep(ctx, d)
}

func (p *Playwright) URL() string {
	return p.page.URL()
}

func (p *Playwright) Content() (string, error) {
	return p.page.Content()
}

func (p *Playwright) Query(selector string) (Element, error) {
	h, err := p.page.QuerySelector(selector)
	if err != nil {
		return nil, err
	}

	if h == nil {
		return nil, ErrNoElement
	}

	return playwrightElement{h: h}, nil
}

func (p *Playwright) QueryAll(selector string) ([]Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}

	elems := make([]Element, 0, len(handles))
	for _, h := range handles {
		elems = append(elems, playwrightElement{h: h})
	}

	return elems, nil
}

// Close releases the page, the browser and the driver process. It is safe
// to call more than once.
func (p *Playwright) Close() error {
	if p.pw == nil {
		return nil
	}

	var errs []error

	if err := p.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}

	if err := p.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
	}

	p.pw = nil

	return errors.Join(errs...)
}

type playwrightElement struct {
	h playwright.ElementHandle
}

func (e playwrightElement) Text() (string, error) {
	return e.h.InnerText()
}

func (e playwrightElement) Attr(name string) (string, error) {
	return e.h.GetAttribute(name)
}

func (e playwrightElement) Click() error {
	return e.h.Click()
}
