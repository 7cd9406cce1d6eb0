// Package report renders run progress and summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/polliog/launch-outreach/launch"
	"github.com/polliog/launch-outreach/outreach"
)

const (
	sectionWidth = 60
	cellWidth    = 48
)

// Printer writes human-readable progress lines and tables.
type Printer struct {
	w io.Writer
}

func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Section(title string) {
	rule := strings.Repeat("=", sectionWidth)
	fmt.Fprintf(p.w, "\n%s\n  %s\n%s\n", rule, title, rule)
}

func (p *Printer) Linef(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// ScrapeProgress prints the product being visited, then what was found.
func (p *Printer) ScrapeProgress(pr launch.Progress) {
	if pr.Product == nil {
		fmt.Fprintf(p.w, "\n[%d/%d] %s\n", pr.Index, pr.Total, truncate(pr.Seed.Name))

		return
	}

	fmt.Fprintf(p.w, "    website: %s\n", orDash(pr.Product.Website))
	fmt.Fprintf(p.w, "    email:   %s\n", orDash(pr.Product.Email))

	if pr.Product.MakerName != "" {
		fmt.Fprintf(p.w, "    maker:   %s\n", pr.Product.MakerName)
	}
}

// ScrapeStats prints what share of products resolved each fact.
func (p *Printer) ScrapeStats(st launch.Stats) {
	t := p.table()
	t.AppendHeader(table.Row{"Fact", "Products", "Share"})
	t.AppendRows([]table.Row{
		{"Total", st.Total, ""},
		{"With email", st.WithEmail, percent(st.WithEmail, st.Total)},
		{"With maker", st.WithMaker, percent(st.WithMaker, st.Total)},
		{"With Twitter/X", st.WithTwitter, percent(st.WithTwitter, st.Total)},
		{"With LinkedIn", st.WithLinkedIn, percent(st.WithLinkedIn, st.Total)},
	})
	t.Render()
}

// Products prints a short preview of scraped records.
func (p *Printer) Products(products []launch.Product) {
	t := p.table()
	t.AppendHeader(table.Row{"#", "Name", "Website", "Email", "Maker"})

	for i := range products {
		pr := &products[i]
		t.AppendRow(table.Row{i + 1, truncate(pr.Name), truncate(pr.Website), orDash(pr.Email), orDash(pr.MakerName)})
	}

	t.Render()
}

// Delivery prints one delivery outcome.
func (p *Printer) Delivery(e outreach.Event) {
	pr := &e.Product

	if e.Status == launch.StatusSkipped {
		fmt.Fprintf(p.w, "skipped %s <%s>: placeholder or role address\n", truncate(pr.Name), pr.Email)

		return
	}

	fmt.Fprintf(p.w, "\n[%d/%d] %s\n", e.Index, e.Total, truncate(pr.Name))
	fmt.Fprintf(p.w, "    maker: %s\n", orDash(pr.MakerName))

	if e.Recipient != pr.Email {
		fmt.Fprintf(p.w, "    email: %s -> %s\n", pr.Email, e.Recipient)
	} else {
		fmt.Fprintf(p.w, "    email: %s\n", pr.Email)
	}

	if e.Err != nil {
		fmt.Fprintf(p.w, "    failed: %v\n", e.Err)

		return
	}

	fmt.Fprintf(p.w, "    sent (id %s)\n", e.MessageID)
}

// Tally prints the outcome counts of a delivery pass and any failures.
func (p *Printer) Tally(tl outreach.Tally, storePath string) {
	t := p.table()
	t.AppendHeader(table.Row{"Outcome", "Records"})
	t.AppendRows([]table.Row{
		{"Sent", tl.Sent},
		{"Failed", tl.Failed},
		{"Skipped", tl.Skipped},
		{"Eligible", tl.Eligible},
	})
	t.Render()

	fmt.Fprintf(p.w, "store updated: %s\n", storePath)

	if len(tl.Failures) == 0 {
		return
	}

	ft := p.table()
	ft.AppendHeader(table.Row{"Product", "Email", "Error"})

	for _, f := range tl.Failures {
		ft.AppendRow(table.Row{truncate(f.Name), f.Email, truncate(f.Err)})
	}

	ft.Render()
}

func (p *Printer) table() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleRounded)

	return t
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}

	return fmt.Sprintf("%d%%", n*100/total)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// truncate shortens s to the cell width, counting display columns so wide
// runes in product names do not break table alignment.
func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	return runewidth.Truncate(s, cellWidth, "…")
}
