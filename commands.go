package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/polliog/launch-outreach/config"
	"github.com/polliog/launch-outreach/driver"
	"github.com/polliog/launch-outreach/launch"
	"github.com/polliog/launch-outreach/mailer"
	"github.com/polliog/launch-outreach/outreach"
	"github.com/polliog/launch-outreach/report"
	"github.com/polliog/launch-outreach/store"
	"github.com/polliog/launch-outreach/web"
)

var errNotTerminal = errors.New("stdin is not a terminal; pass --no-confirm to run unattended")

type app struct {
	cfg config.Config
	log *zap.Logger
	out io.Writer
	in  io.Reader

	// overridable in tests
	sender  func(cfg config.Config) mailer.Sender
	isTTY   func() bool
	now     func() time.Time
	timings *launch.Timings
}

func (a *app) today() string {
	now := time.Now
	if a.now != nil {
		now = a.now
	}

	return now().Format(launch.DateLayout)
}

func dateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "date",
		Usage: "record store date (YYYY-MM-DD), defaults to today",
	}
}

func testFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "test",
			Usage: "send every email to the test address instead of the maker",
		},
		&cli.StringFlag{
			Name:    "test-email",
			Usage:   "address used in test mode",
			Sources: cli.EnvVars("TEST_EMAIL"),
		},
	}
}

func browserFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "headless",
			Usage:   "run the browser without a window",
			Value:   true,
			Sources: cli.EnvVars("HEADLESS"),
		},
		&cli.BoolFlag{
			Name:  "static",
			Usage: "fetch pages over plain HTTP instead of a browser",
		},
	}
}

func (a *app) scrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "collect today's launches into the record store",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "visit at most this many launches (0 = all)"},
		}, browserFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			p := report.New(a.out)
			p.Section("SCRAPING " + a.cfg.ListingURL)

			path, _, err := a.scrape(ctx, cmd, cmd.Int("limit"), p)

			if err == nil {
				p.Linef("\nsaved %s", path)
			}

			return err
		},
	}
}

func (a *app) sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "email the makers in a record store",
		ArgsUsage: "[file]",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "send at most this many emails (0 = all)"},
			dateFlag(),
		}, testFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				path = a.cfg.RecordPath(a.date(cmd))
			}

			return a.deliver(ctx, cmd, path, cmd.Int("limit"), report.New(a.out))
		},
	}
}

func (a *app) runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "scrape, show stats, confirm, then send",
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "scrape-limit", Usage: "visit at most this many launches (0 = all)"},
			&cli.IntFlag{Name: "email-limit", Usage: "send at most this many emails (0 = all)"},
			&cli.BoolFlag{Name: "scrape-only", Usage: "stop after scraping"},
			&cli.BoolFlag{Name: "email-only", Usage: "skip scraping and send from an existing store"},
			&cli.BoolFlag{Name: "no-confirm", Usage: "do not ask before sending"},
			dateFlag(),
		}, append(testFlags(), browserFlags()...)...),
		Action: a.run,
	}
}

func (a *app) serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "browse record stores over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address", Sources: cli.EnvVars("ADDR")},
			&cli.IntFlag{Name: "page-size", Value: 25, Usage: "default records per page"},
			&cli.StringFlag{Name: "auth-user", Usage: "basic auth user", Sources: cli.EnvVars("WEB_AUTH_USER")},
			&cli.StringFlag{Name: "auth-pass-hash", Usage: "bcrypt hash of the basic auth password", Sources: cli.EnvVars("WEB_AUTH_PASS_HASH")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			srv, err := web.New(web.NewService(a.cfg.DataDir), web.Settings{
				Addr:         cmd.String("addr"),
				DataDir:      a.cfg.DataDir,
				PageSize:     cmd.Int("page-size"),
				AuthUser:     cmd.String("auth-user"),
				AuthPassHash: cmd.String("auth-pass-hash"),
			}, a.log)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "visit http://localhost%s/api/v1/files\n", cmd.String("addr"))

			return srv.Start(ctx)
		},
	}
}

func (a *app) run(ctx context.Context, cmd *cli.Command) error {
	scrapeOnly, emailOnly := cmd.Bool("scrape-only"), cmd.Bool("email-only")
	if scrapeOnly && emailOnly {
		return errors.New("--scrape-only and --email-only are mutually exclusive")
	}

	// fail before scraping when delivery could never start
	if !scrapeOnly {
		if err := a.cfg.ValidateDelivery(cmd.Bool("test"), cmd.String("test-email")); err != nil {
			return err
		}
	}

	p := report.New(a.out)

	var (
		path  string
		stats launch.Stats
		err   error
	)

	if emailOnly {
		path = a.cfg.RecordPath(a.date(cmd))

		products, err := store.NewCSV(path).Load()
		if err != nil {
			return err
		}

		stats = launch.Summarize(products)
	} else {
		p.Section("STEP 1: SCRAPING " + a.cfg.ListingURL)

		path, stats, err = a.scrape(ctx, cmd, cmd.Int("scrape-limit"), p)
		if err != nil {
			return err
		}
	}

	if scrapeOnly {
		a.summary(p, path, stats)

		return nil
	}

	if !cmd.Bool("no-confirm") {
		ok, err := a.confirm(fmt.Sprintf("Send emails to %d launches with an address?", stats.WithEmail))
		if err != nil {
			return err
		}

		if !ok {
			a.summary(p, path, stats)

			return nil
		}
	}

	p.Section("STEP 2: SENDING EMAILS")

	if err := a.deliver(ctx, cmd, path, cmd.Int("email-limit"), p); err != nil {
		return err
	}

	a.summary(p, path, stats)

	return nil
}

func (a *app) date(cmd *cli.Command) string {
	if d := cmd.String("date"); d != "" {
		return d
	}

	return a.today()
}

func (a *app) scrape(ctx context.Context, cmd *cli.Command, limit int, p *report.Printer) (string, launch.Stats, error) {
	open := a.browser(cmd)

	opts := []launch.ScraperOptions{
		launch.WithLimit(limit),
		launch.WithLogger(a.log),
		launch.WithProgress(p.ScrapeProgress),
	}

	if a.now != nil {
		opts = append(opts, launch.WithClock(a.now))
	}

	if a.timings != nil {
		opts = append(opts, launch.WithTimings(*a.timings))
	}

	products, err := launch.NewScraper(open, a.cfg.ListingURL, opts...).Run(ctx)
	if err != nil && len(products) == 0 {
		return "", launch.Stats{}, fmt.Errorf("scraping failed: %w", err)
	}

	path := a.cfg.RecordPath(a.today())

	// keep what was gathered before an interrupt; statuses already in the
	// store survive a re-scrape of the same day
	if _, saveErr := store.NewCSV(path).Merge(products); saveErr != nil {
		return "", launch.Stats{}, errors.Join(err, saveErr)
	}

	if err != nil {
		return path, launch.Stats{}, err
	}

	if len(products) == 0 {
		p.Linef("no launches collected; %s left unchanged", path)

		return path, launch.Stats{}, nil
	}

	stats := launch.Summarize(products)

	p.Section("SCRAPING COMPLETE")
	p.Products(products)
	p.ScrapeStats(stats)

	if a.cfg.S3.Bucket != "" {
		archiver, err := store.NewS3Archiver(ctx, a.cfg.S3)
		if err != nil {
			return path, stats, err
		}

		key, err := archiver.Upload(ctx, path)
		if err != nil {
			a.log.Warn("archive upload failed", zap.String("path", path), zap.Error(err))
		} else {
			p.Linef("archived s3://%s/%s", a.cfg.S3.Bucket, key)
		}
	}

	return path, stats, nil
}

func (a *app) browser(cmd *cli.Command) driver.Opener {
	if cmd.Bool("static") {
		return driver.OpenStatic(nil)
	}

	headless := a.cfg.Headless
	if cmd.IsSet("headless") {
		headless = cmd.Bool("headless")
	}

	return driver.OpenPlaywright(driver.PlaywrightOptions{
		Headless:  headless,
		UserAgent: driver.UserAgent,
	})
}

func (a *app) deliver(ctx context.Context, cmd *cli.Command, path string, limit int, p *report.Printer) error {
	testMode := cmd.Bool("test")

	if err := a.cfg.ValidateDelivery(testMode, cmd.String("test-email")); err != nil {
		return err
	}

	tmpl, err := outreach.LoadTemplate(a.cfg.TemplateFile)
	if err != nil {
		return err
	}

	st := store.NewCSV(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", store.ErrNotFound, path)
	}

	journal, err := store.OpenJournal(ctx, a.cfg.JournalPath())
	if err != nil {
		return err
	}
	defer journal.Close()

	opts := []outreach.DelivererOptions{
		outreach.WithLimit(limit),
		outreach.WithDelay(a.cfg.SendDelay),
		outreach.WithJournal(journal),
		outreach.WithLogger(a.log),
		outreach.WithProgress(p.Delivery),
	}

	if a.now != nil {
		opts = append(opts, outreach.WithClock(a.now))
	}

	if testMode {
		recipient := a.cfg.TestRecipient(cmd.String("test-email"))
		p.Linef("TEST MODE: every email goes to %s", recipient)
		opts = append(opts, outreach.WithTestRecipient(recipient))
	}

	newSender := senderFor
	if a.sender != nil {
		newSender = a.sender
	}

	tally, err := outreach.NewDeliverer(st, newSender(a.cfg), tmpl, a.cfg.FromEmail, opts...).Run(ctx)

	p.Section("DELIVERY COMPLETE")
	p.Tally(tally, path)

	return err
}

func senderFor(cfg config.Config) mailer.Sender {
	if cfg.Transport() == config.TransportSMTP {
		return &mailer.SMTP{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
		}
	}

	return mailer.NewResend(cfg.ResendBaseURL, cfg.ResendAPIKey)
}

func (a *app) confirm(question string) (bool, error) {
	isTTY := a.isTTY
	if isTTY == nil {
		isTTY = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}

	if !isTTY() {
		return false, errNotTerminal
	}

	fmt.Fprintf(a.out, "\n%s [y/N] ", question)

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	answer := strings.ToLower(strings.TrimSpace(line))

	return answer == "y" || answer == "yes", nil
}

func (a *app) summary(p *report.Printer, path string, stats launch.Stats) {
	p.Section("WORKFLOW COMPLETE")
	p.Linef("  store:    %s", path)
	p.Linef("  scraped:  %d", stats.Total)
	p.Linef("  w/ email: %d", stats.WithEmail)
}
