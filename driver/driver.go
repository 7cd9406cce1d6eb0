// Package driver defines the page-driver capability the scraper walks the
// listing site with, plus two implementations: a Playwright-backed browser
// and a static HTTP fetcher for pages that need no client-side rendering.
package driver

import (
	"context"
	"errors"
	"time"
)

// ErrNoElement is returned by Query when no element matches the selector.
var ErrNoElement = errors.New("no element matches selector")

// Page is a single navigation session over a rendered DOM. A Page is owned
// by one caller at a time and must be closed when the caller is done.
type Page interface {
	// Goto navigates to url, giving up after timeout.
	Goto(ctx context.Context, url string, timeout time.Duration) error
	// Wait blocks for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration)
	// URL is the address of the currently loaded document.
	URL() string
	// Content is the serialized markup of the current document.
	Content() (string, error)
	Query(selector string) (Element, error)
	QueryAll(selector string) ([]Element, error)
	Close() error
}

// Element is a handle to a node of the current document.
type Element interface {
	Text() (string, error)
	Attr(name string) (string, error)
	Click() error
}

// Opener starts a new page session.
type Opener func(ctx context.Context) (Page, error)

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
