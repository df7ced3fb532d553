package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/pkg/banwatch"
	"marketplace/pkg/config"
	"marketplace/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	flagURL        string
	flagToken      string
	flagInterval   time.Duration
	flagMaxRetries int
	flagOnce       bool
)

var rootCmd = &cobra.Command{
	Use:   "banwatch",
	Short: "Poll the moderation service for the ban status of a user",
	Long: `Polls GET /api/v1/bans/status with the given bearer token and logs every state change.
Failed checks are retried with exponential backoff (1s, 2s, 4s, ...). Once retries are
exhausted, automatic polling stops; send SIGHUP to force a manual check.`,
	SilenceUsage: true,
	RunE:         runBanwatch,
}

func init() {
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}

	rootCmd.Flags().StringVar(&flagURL, "url", cfg.ModerationServiceURL, "moderation service base URL")
	rootCmd.Flags().StringVar(&flagToken, "token", os.Getenv("BANWATCH_TOKEN"), "bearer token of the watched user (env BANWATCH_TOKEN)")
	rootCmd.Flags().DurationVar(&flagInterval, "interval", cfg.BanPollInterval, "poll interval (minimum 10s)")
	rootCmd.Flags().IntVar(&flagMaxRetries, "max-retries", cfg.BanMaxRetries, "backoff retries before giving up")
	rootCmd.Flags().BoolVar(&flagOnce, "once", false, "check once and exit")
}

func runBanwatch(cmd *cobra.Command, args []string) error {
	if flagToken == "" {
		return errors.New("a token is required (--token or BANWATCH_TOKEN)")
	}

	log := logger.New().With("component", "banwatch")
	defer log.Sync()

	checker := banwatch.NewHTTPChecker(flagURL, flagToken)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if flagOnce {
		status, err := checker.Check(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), describe(status))
		return nil
	}

	var last string
	poller := banwatch.NewPoller(checker, banwatch.Options{
		Interval:   flagInterval,
		MaxRetries: flagMaxRetries,
		Logger:     log,
		OnChange: func(s banwatch.State) {
			current := summarize(s)
			if current != last {
				log.Info("[BANWATCH] %s", current)
				last = current
			}
		},
	})

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				poller.Refresh()
			}
		}
	}()

	log.Info("[BANWATCH] Watching %s every %s", flagURL, poller.Interval())
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func summarize(s banwatch.State) string {
	if s.ConnectionError {
		return "connection error: ban status unavailable (send SIGHUP to retry)"
	}
	if s.Status == nil {
		return "waiting for first successful check"
	}
	return describe(s.Status)
}

func describe(status *banwatch.Status) string {
	if !status.Banned {
		return fmt.Sprintf("user %s is not banned", status.UserID)
	}
	if status.ExpiresAt != nil {
		return fmt.Sprintf("user %s is banned until %s: %s", status.UserID, status.ExpiresAt.Format(time.RFC3339), status.Reason)
	}
	return fmt.Sprintf("user %s is banned permanently: %s", status.UserID, status.Reason)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
