package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/polliog/launch-outreach/config"
)

// @title Launch Outreach API
// @version 1.0
// @description Read-only browser over the launch record stores in the data folder.
// @BasePath /
// @securityDefinitions.basic BasicAuth
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// .env has to be in the environment before flags resolve their sources.
	if err := config.LoadEnvFile(cmp.Or(os.Getenv("ENV_FILE"), ".env")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := &app{out: os.Stdout, in: os.Stdin}

	if err := a.command().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:  "launch-outreach",
		Usage: "collect today's product launches and email their makers",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log at debug level",
			},
		},
		Before: a.setup,
		After: func(context.Context, *cli.Command) error {
			if a.log != nil {
				_ = a.log.Sync()
			}

			return nil
		},
		Commands: []*cli.Command{
			a.scrapeCommand(),
			a.sendCommand(),
			a.runCommand(),
			a.serveCommand(),
		},
	}
}

func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	log, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return ctx, err
	}

	a.log = log

	cfg, err := config.FromEnv(os.LookupEnv)
	if err != nil {
		return ctx, fmt.Errorf("configuration: %w", err)
	}

	a.cfg = cfg

	return ctx, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)

	return cfg.Build()
}
