package outreach

import (
	"strings"

	"github.com/mcnijman/go-emailaddress"

	"github.com/polliog/launch-outreach/launch"
)

// Verdict is the eligibility decision for one record.
type Verdict int

const (
	// Ignore records have no address or were already sent to.
	Ignore Verdict = iota
	// Eligible records get a send attempt this run.
	Eligible
	// Skip records carry an address that will never be attempted.
	Skip
)

func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case Skip:
		return "skip"
	default:
		return "ignore"
	}
}

var placeholderDomains = []string{
	"example.com",
	"example.org",
	"example.net",
	"test.com",
	"footer.email",
}

var roleLocalParts = []string{
	"your",
	"you",
	"noreply",
	"no-reply",
	"test",
	"demo",
}

var fileExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// Classify decides whether p gets a send attempt. Sent and skipped are
// terminal; only records without a status or with a failed send qualify.
func Classify(p *launch.Product) Verdict {
	email := strings.TrimSpace(p.Email)
	if email == "" || p.EmailSent == launch.StatusSent || p.EmailSent == launch.StatusSkipped {
		return Ignore
	}

	if !Deliverable(email) {
		return Skip
	}

	return Eligible
}

// Deliverable reports whether email looks like a real mailbox rather than a
// placeholder, a role box nobody reads or an asset file name.
func Deliverable(email string) bool {
	lower := strings.ToLower(strings.TrimSpace(email))

	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}

	addr, err := emailaddress.Parse(lower)
	if err != nil {
		return false
	}

	for _, local := range roleLocalParts {
		if addr.LocalPart == local {
			return false
		}
	}

	for _, domain := range placeholderDomains {
		if addr.Domain == domain || strings.HasSuffix(addr.Domain, "."+domain) {
			return false
		}
	}

	return true
}
