package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxResponseBytes = 5 * 1024 * 1024 // 5MB
	maxRedirects     = 5

	UserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Static is a Page that fetches documents over plain HTTP and answers
// selector queries from the parsed markup. It cannot run scripts, so Click
// always fails.
type Static struct {
	client *http.Client
	url    string
	body   []byte
	doc    *goquery.Document
}

// NewStatic creates a Static page. A nil client gets a default one that
// follows a bounded number of redirects.
func NewStatic(client *http.Client) *Static {
	if client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()

		client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}

				return nil
			},
			Transport: transport,
		}
	}

	return &Static{client: client}
}

// OpenStatic is an Opener for Static pages.
func OpenStatic(client *http.Client) Opener {
	return func(context.Context) (Page, error) {
		return NewStatic(client), nil
	}
}

func (s *Static) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading body of %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", url, err)
	}

	s.url = resp.Request.URL.String()
	s.body = body
	s.doc = doc

	return nil
}

func (s *Static) Wait(ctx context.Context, d time.Duration) {
	sleep(ctx, d)
}

func (s *Static) URL() string {
	return s.url
}

func (s *Static) Content() (string, error) {
	if s.doc == nil {
		return "", errors.New("no document loaded")
	}

	return string(s.body), nil
}

func (s *Static) Query(selector string) (Element, error) {
	if s.doc == nil {
		return nil, errors.New("no document loaded")
	}

	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, ErrNoElement
	}

	return staticElement{sel: sel}, nil
}

func (s *Static) QueryAll(selector string) ([]Element, error) {
	if s.doc == nil {
		return nil, errors.New("no document loaded")
	}

	var elems []Element

	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		elems = append(elems, staticElement{sel: sel})
	})

	return elems, nil
}

func (s *Static) Close() error {
	s.doc = nil
	s.body = nil

	return nil
}

type staticElement struct {
	sel *goquery.Selection
}

func (e staticElement) Text() (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e staticElement) Attr(name string) (string, error) {
	return e.sel.AttrOr(name, ""), nil
}

func (e staticElement) Click() error {
	return fmt.Errorf("click on static page: %w", errors.ErrUnsupported)
}
