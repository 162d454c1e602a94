package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/statuspoll"
	"github.com/jpalmerr/statuspoll/config"
	"github.com/jpalmerr/statuspoll/internal/browser"
	"github.com/spf13/cobra"
)

// newLogger creates a JSON logger for CLI use.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// watchCmd runs one profile until its status reaches a target.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Wait for a profile's status to reach a target",
	Long: `Wait for the status described by a profile to reach one of its targets.

The command will:
  - Load the profile from the specified YAML file
  - Open its source (a browser page or an HTTP endpoint)
  - Replay the profile's steps for page sources
  - Poll until a target matches, the timeout elapses, or reads keep failing

Each new status is printed as it is seen, followed by the full trace.
The command exits non-zero unless a target was reached. With --soft-timeout,
running out of time is reported but does not fail the command.

Example:
  statuspoll watch -c statuspoll.yaml -p invoices
  statuspoll watch -c statuspoll.yaml -p import-job --soft-timeout`,
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	watchCmd.Flags().StringP("profile", "p", "", "profile to run (required)")
	watchCmd.Flags().Bool("soft-timeout", false, "report a timeout without failing")
	watchCmd.Flags().BoolP("verbose", "v", false, "log every status change and read")
	_ = watchCmd.MarkFlagRequired("config")
	_ = watchCmd.MarkFlagRequired("profile")
}

func runWatch(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	softTimeout, _ := cmd.Flags().GetBool("soft-timeout")
	logger := newLogger(verbose)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	name, _ := cmd.Flags().GetString("profile")
	profile, err := cfg.Profile(name)
	if err != nil {
		return err
	}

	opts, err := config.BuildOptions(profile)
	if err != nil {
		return fmt.Errorf("failed to build poller: %w", err)
	}
	opts = append(opts,
		statuspoll.WithLogger(logger),
		statuspoll.WithObserver(func(s statuspoll.Snapshot) {
			fmt.Printf("[%s] %s\n", s.ObservedAt.Format(time.TimeOnly), s.Status)
		}),
	)

	poller, err := statuspoll.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to build poller: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("watching profile",
		"profile", profile.Name,
		"source", profile.Source.Type,
		"targets", poller.Targets(),
		"interval", poller.Interval().String(),
		"timeout", poller.Timeout().String(),
	)

	read, closeSource, err := openSource(ctx, profile.Source, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	result, err := poller.Poll(ctx, read)
	fmt.Printf("Statuses seen: %s\n", result.History)

	if err != nil {
		if softTimeout && errors.Is(err, statuspoll.ErrTimeoutExceeded) {
			logger.Warn("timeout ignored",
				"profile", profile.Name,
				"last_status", result.FinalStatus(),
			)
			fmt.Printf("Timed out after %s without reaching a target (ignored)\n", result.Elapsed.Round(time.Millisecond))
			return nil
		}
		return err
	}

	fmt.Printf("Reached %q after %d reads in %s\n", result.Matched, result.Attempts, result.Elapsed.Round(time.Millisecond))
	return nil
}

// openSource prepares the status accessor for sc. The returned close
// function releases the browser or HTTP connections.
func openSource(ctx context.Context, sc config.SourceConfig, logger *slog.Logger) (statuspoll.Accessor, func(), error) {
	switch sc.Type {
	case config.SourceHTTP:
		src, err := config.BuildHTTPSource(sc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create http source: %w", err)
		}
		return src.Accessor(), src.Close, nil

	case config.SourcePage:
		session, err := browser.Launch(config.BuildLaunchOptions(sc))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		closeSession := func() {
			if err := session.Close(); err != nil {
				logger.Warn("browser close failed", "error", err)
			}
		}

		if err := browser.RunSteps(ctx, session, config.BuildSteps(sc), logger); err != nil {
			closeSession()
			return nil, nil, err
		}
		return browser.StatusAccessor(session, sc.Selector), closeSession, nil

	default:
		return nil, nil, fmt.Errorf("unsupported source type %q", sc.Type)
	}
}
