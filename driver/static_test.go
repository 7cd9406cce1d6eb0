package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticGotoAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<a class="nav" href="/about">  About us </a>
			<a class="nav" href="/contact">Contact</a>
			<button>See all of today's products</button>
		</body></html>`)
	}))
	defer srv.Close()

	page := NewStatic(nil)
	defer page.Close()

	err := page.Goto(context.Background(), srv.URL+"/", 0)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/", page.URL())

	content, err := page.Content()
	require.NoError(t, err)
	require.Contains(t, content, "See all of today")

	links, err := page.QueryAll("a.nav")
	require.NoError(t, err)
	require.Len(t, links, 2)

	text, err := links[0].Text()
	require.NoError(t, err)
	require.Equal(t, "About us", text)

	href, err := links[1].Attr("href")
	require.NoError(t, err)
	require.Equal(t, "/contact", href)

	btn, err := page.Query("button")
	require.NoError(t, err)
	require.ErrorIs(t, btn.Click(), errors.ErrUnsupported)

	_, err = page.Query("table")
	require.ErrorIs(t, err, ErrNoElement)
}

func TestStaticGotoHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	page := NewStatic(nil)

	err := page.Goto(context.Background(), srv.URL, 0)
	require.Error(t, err)

	_, err = page.Content()
	require.Error(t, err)
}

func TestStaticGotoConnectionRefused(t *testing.T) {
	page := NewStatic(nil)

	err := page.Goto(context.Background(), "http://127.0.0.1:1", 0)
	require.Error(t, err)
}
