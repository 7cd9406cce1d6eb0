package launch

import "strings"

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"

	// OtherSocialSeparator joins the capped list of secondary social links.
	OtherSocialSeparator = " | "

	SourceProductHunt = "producthunt"
)

// DeliveryStatus is the outreach state of a Product.
type DeliveryStatus string

const (
	StatusNone    DeliveryStatus = ""
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
	StatusSkipped DeliveryStatus = "skipped"
)

// ParseStatus normalizes a persisted status value. Unknown values map to
// StatusNone so a hand-edited store stays eligible rather than terminal.
func ParseStatus(s string) DeliveryStatus {
	switch DeliveryStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusSent:
		return StatusSent
	case StatusFailed:
		return StatusFailed
	case StatusSkipped:
		return StatusSkipped
	default:
		return StatusNone
	}
}

// Product is one launch discovered on the listing. Discovery fields are set
// once by the scraper; only EmailSent and EmailSentAt change afterwards.
type Product struct {
	Date         string `json:"date"`
	Source       string `json:"source"`
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	Website      string `json:"website"`
	Email        string `json:"email"`
	MakerName    string `json:"maker_name"`
	MakerProfile string `json:"maker_profile"`
	Twitter      string `json:"twitter"`
	LinkedIn     string `json:"linkedin"`
	GitHub       string `json:"github"`
	OtherSocial  string `json:"other_social"`
	PHURL        string `json:"ph_url"`

	EmailSent   DeliveryStatus `json:"email_sent,omitempty"`
	EmailSentAt string         `json:"email_sent_at,omitempty"`
}

// Key identifies the product within a run: the detail page URL, or the
// name for entries the listing gave no detail link.
func (p *Product) Key() string {
	if p.PHURL != "" {
		return p.PHURL
	}

	return p.Name
}

// Touched reports whether delivery has written a status for p.
func (p *Product) Touched() bool {
	return p.EmailSent != StatusNone || p.EmailSentAt != ""
}

// Stats counts what a scrape pass managed to resolve.
type Stats struct {
	Total        int `json:"total"`
	WithEmail    int `json:"with_email"`
	WithMaker    int `json:"with_maker"`
	WithTwitter  int `json:"with_twitter"`
	WithLinkedIn int `json:"with_linkedin"`
}

func Summarize(products []Product) Stats {
	st := Stats{Total: len(products)}

	for i := range products {
		p := &products[i]

		if p.Email != "" {
			st.WithEmail++
		}

		if p.MakerName != "" {
			st.WithMaker++
		}

		if p.Twitter != "" {
			st.WithTwitter++
		}

		if p.LinkedIn != "" {
			st.WithLinkedIn++
		}
	}

	return st
}
