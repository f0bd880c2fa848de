package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/okian/pickgrader/internal/pickload"
	"github.com/okian/pickgrader/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumPicks    = 10000
	defaultNumGames    = 200
	defaultFactorShare = 0.5
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettleWait  = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	// Logs go to stderr so stdout carries only the summary.
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		os.Stderr.WriteString("load run failed: " + err.Error() + "\n")
		stop()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: stop is called above
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "pickload",
		Usage: "submit generated picks to a grader and verify its recommendation board",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the service", Sources: cli.EnvVars("PICKLOAD_URL")},
			&cli.IntFlag{Name: "picks", Value: defaultNumPicks, Usage: "number of picks to generate and submit"},
			&cli.IntFlag{Name: "games", Value: defaultNumGames, Usage: "number of distinct games"},
			&cli.FloatFlag{Name: "factor-share", Value: defaultFactorShare, Usage: "fraction of picks carrying factor scores"},
			&cli.IntFlag{Name: "top", Value: defaultTopN, Usage: "number of board entries to fetch and verify"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU() * defaultWorkers, Usage: "number of concurrent submitters"},
			&cli.Int64Flag{Name: "seed", Value: time.Now().UnixNano(), Usage: "generator seed", DefaultText: "current time"},
			&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "HTTP request timeout"},
			&cli.DurationFlag{Name: "settle", Value: defaultSettleWait, Usage: "how long to wait for grading to catch up"},
			&cli.StringFlag{Name: "output", Usage: "optional file to save generated picks to"},
			&cli.StringFlag{Name: "format", Value: pickload.FormatJSON, Usage: "summary format: json or yaml"},
			&cli.StringFlag{Name: "log-format", Value: logger.FormatText, Usage: "log encoding: text or json"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", Sources: cli.EnvVars("PICKLOAD_DEBUG")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := logger.InitWithFormat(os.Stderr, cmd.String("log-format")); err != nil {
				return err
			}
			if cmd.Bool("debug") {
				_ = logger.SetLevelString("debug")
			}

			ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
			defer cancel()

			_, err := pickload.Run(ctx, &pickload.Config{
				BaseURL:     cmd.String("url"),
				NumPicks:    cmd.Int("picks"),
				NumGames:    cmd.Int("games"),
				FactorShare: cmd.Float("factor-share"),
				TopN:        cmd.Int("top"),
				Workers:     cmd.Int("workers"),
				Seed:        cmd.Int64("seed"),
				Timeout:     cmd.Duration("timeout"),
				SettleWait:  cmd.Duration("settle"),
				OutputFile:  cmd.String("output"),
				Format:      cmd.String("format"),
			}, out)
			return err
		},
	}
}
