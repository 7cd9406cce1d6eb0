// Package outreach runs the delivery pass over a persisted record store:
// it classifies records, personalizes the template, sends through a mail
// transport and writes every outcome back before moving on.
package outreach

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/polliog/launch-outreach/launch"
	"github.com/polliog/launch-outreach/mailer"
	"github.com/polliog/launch-outreach/store"
)

const DefaultDelay = 5 * time.Second

// Store is the persisted record set.
type Store interface {
	Load() ([]launch.Product, error)
	Save(products []launch.Product) error
}

// Journal records why each record ended up in its state.
type Journal interface {
	Record(ctx context.Context, a store.Attempt) error
}

// Event reports one delivery decision as it happens.
type Event struct {
	Index     int
	Total     int
	Product   launch.Product
	Recipient string
	Status    launch.DeliveryStatus
	MessageID string
	Err       error
}

// Failure is a failed send surfaced in the run summary.
type Failure struct {
	Name  string
	Email string
	Err   string
}

// Tally counts the outcomes of one delivery pass.
type Tally struct {
	Records  int
	Eligible int
	Attempts int
	Sent     int
	Failed   int
	Skipped  int
	Failures []Failure
}

type DelivererOptions func(*Deliverer)

// Deliverer is the delivery state machine. It owns no records between
// runs; every Run starts from a fresh Load.
type Deliverer struct {
	store    Store
	sender   mailer.Sender
	template *Template
	from     string

	journal       Journal
	limit         int
	delay         time.Duration
	testRecipient string
	log           *zap.Logger
	now           func() time.Time
	progress      func(Event)
}

func WithLimit(n int) DelivererOptions {
	return func(d *Deliverer) {
		d.limit = n
	}
}

func WithDelay(delay time.Duration) DelivererOptions {
	return func(d *Deliverer) {
		d.delay = delay
	}
}

// WithTestRecipient sends every message to addr instead of the record's
// own address. Records are never rewritten with addr.
func WithTestRecipient(addr string) DelivererOptions {
	return func(d *Deliverer) {
		d.testRecipient = addr
	}
}

func WithJournal(j Journal) DelivererOptions {
	return func(d *Deliverer) {
		d.journal = j
	}
}

func WithLogger(log *zap.Logger) DelivererOptions {
	return func(d *Deliverer) {
		if log != nil {
			d.log = log
		}
	}
}

func WithClock(now func() time.Time) DelivererOptions {
	return func(d *Deliverer) {
		d.now = now
	}
}

func WithProgress(fn func(Event)) DelivererOptions {
	return func(d *Deliverer) {
		d.progress = fn
	}
}

func NewDeliverer(st Store, sender mailer.Sender, tmpl *Template, from string, opts ...DelivererOptions) *Deliverer {
	d := &Deliverer{
		store:    st,
		sender:   sender,
		template: tmpl,
		from:     from,
		delay:    DefaultDelay,
		log:      zap.NewNop(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Run performs one delivery pass. Cancellation is observed between records
// only, so the store is never left half written; the tally gathered so far
// is returned together with ctx.Err().
func (d *Deliverer) Run(ctx context.Context) (Tally, error) {
	products, err := d.store.Load()
	if err != nil {
		return Tally{}, err
	}

	tally := Tally{Records: len(products)}

	var (
		eligible []int
		skipped  []int
	)

	for i := range products {
		switch Classify(&products[i]) {
		case Eligible:
			eligible = append(eligible, i)
		case Skip:
			skipped = append(skipped, i)
		}
	}

	if len(skipped) > 0 {
		at := d.now()
		products = withStatus(products, launch.StatusSkipped, at, skipped...)

		if err := d.store.Save(products); err != nil {
			return tally, err
		}

		for _, i := range skipped {
			tally.Skipped++

			d.record(ctx, &products[i], "", launch.StatusSkipped, "", "address on denylist", at)
			d.emit(Event{Product: products[i], Status: launch.StatusSkipped})
		}
	}

	tally.Eligible = len(eligible)

	if d.limit > 0 && len(eligible) > d.limit {
		eligible = eligible[:d.limit]
	}

	for n, i := range eligible {
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		if n > 0 {
			if err := sleep(ctx, d.delay); err != nil {
				return tally, err
			}
		}

		products, err = d.attempt(ctx, products, i, n, len(eligible), &tally)
		if err != nil {
			return tally, err
		}
	}

	return tally, nil
}

// attempt sends to one record and persists the whole set with its outcome.
// Only a failed Save is returned; transport errors become a failed status.
func (d *Deliverer) attempt(ctx context.Context, products []launch.Product, i, n, total int, tally *Tally) ([]launch.Product, error) {
	p := products[i]

	recipient := p.Email
	if d.testRecipient != "" {
		recipient = d.testRecipient
	}

	subject, body := d.template.Render(&p)

	id, sendErr := d.sender.Send(ctx, mailer.Message{
		From:    d.from,
		To:      []string{recipient},
		Subject: subject,
		Text:    body,
	})

	at := d.now()
	status := launch.StatusSent
	detail := ""

	if sendErr != nil {
		status = launch.StatusFailed
		detail = sendErr.Error()
	}

	updated := withStatus(products, status, at, i)
	if err := d.store.Save(updated); err != nil {
		return products, err
	}

	tally.Attempts++

	log := d.log.With(zap.String("product", p.Name), zap.String("email", p.Email), zap.String("status", string(status)))

	if sendErr != nil {
		tally.Failed++
		tally.Failures = append(tally.Failures, Failure{Name: p.Name, Email: p.Email, Err: detail})
		log.Info("send failed", zap.Error(sendErr))
	} else {
		tally.Sent++
		log.Info("sent", zap.String("message_id", id))
	}

	d.record(ctx, &updated[i], recipient, status, id, detail, at)
	d.emit(Event{
		Index:     n + 1,
		Total:     total,
		Product:   updated[i],
		Recipient: recipient,
		Status:    status,
		MessageID: id,
		Err:       sendErr,
	})

	return updated, nil
}

func (d *Deliverer) record(ctx context.Context, p *launch.Product, recipient string, status launch.DeliveryStatus, id, detail string, at time.Time) {
	if d.journal == nil {
		return
	}

	err := d.journal.Record(ctx, store.Attempt{
		Key:         p.Key(),
		Product:     p.Name,
		Email:       p.Email,
		Recipient:   recipient,
		Status:      status,
		MessageID:   id,
		Detail:      detail,
		AttemptedAt: at,
	})
	if err != nil {
		d.log.Warn("journal write failed", zap.String("product", p.Name), zap.Error(err))
	}
}

func (d *Deliverer) emit(e Event) {
	if d.progress != nil {
		d.progress(e)
	}
}

// withStatus returns a copy of products with the records at idx carrying
// status. The input slice is left untouched.
func withStatus(products []launch.Product, status launch.DeliveryStatus, at time.Time, idx ...int) []launch.Product {
	out := slices.Clone(products)

	for _, i := range idx {
		out[i].EmailSent = status
		out[i].EmailSentAt = at.Format(launch.TimestampLayout)
	}

	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
