// Command kickoff-notifier watches the matches table and pushes a "match is
// live" notification to every registered device when a match kicks off.
//
// Usage:
//
//	kickoff-notifier                  # same as `run`
//	kickoff-notifier run
//	kickoff-notifier tick
//	kickoff-notifier migrate up
//	kickoff-notifier send-test --token <fcm-token>
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/albapepper/kickoff-notifier/docs" // swagger docs
	"github.com/albapepper/kickoff-notifier/internal/api"
	"github.com/albapepper/kickoff-notifier/internal/config"
	"github.com/albapepper/kickoff-notifier/internal/db"
	"github.com/albapepper/kickoff-notifier/internal/notifications"
	"github.com/albapepper/kickoff-notifier/internal/scheduler"
)

var (
	logLevel = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
)

func main() {
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "kickoff-notifier",
		Short:        "Live-match push notification scheduler",
		SilenceUsage: true,
		RunE:         runLoop,
	}

	root.AddCommand(runCmd())
	root.AddCommand(tickCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(sendTestCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the detector and status updater every CHECK_INTERVAL",
		RunE:  runLoop,
	}
}

func runLoop(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return withServices(ctx, func(ctx context.Context, cfg *config.Config, pool *db.Pool, n *notifications.Notifier) error {
		loop := scheduler.New(n, cfg.CheckInterval, logger)

		if cfg.HTTPAddr != "" {
			router := api.NewRouter(pool, loop, cfg)
			go api.Serve(ctx, cfg.HTTPAddr, router, logger)
		}

		logger.Info("Football notification server started",
			"interval", cfg.CheckInterval,
			"live_window", cfg.LiveWindow,
			"ended_after", cfg.EndedAfter)
		go func() { _ = loop.Run(ctx) }()

		// In-flight work is abandoned on purpose: every check is driven by a
		// store predicate, so the next process start picks up where this one left off.
		<-ctx.Done()
		logger.Info("Server shutting down...")
		os.Exit(0)
		return nil
	})
}

// --------------------------------------------------------------------------
// tick command
// --------------------------------------------------------------------------

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run the detector and status updater once, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return withServices(ctx, func(ctx context.Context, cfg *config.Config, pool *db.Pool, n *notifications.Notifier) error {
				snap := scheduler.New(n, cfg.CheckInterval, logger).Tick(ctx)
				logger.Info("Tick finished",
					"detect", snap.Detect.Summary(),
					"ended", snap.Status.Ended,
					"duration", snap.Duration)
				if snap.Detect.Err != nil || snap.Status.Err != nil {
					return fmt.Errorf("tick completed with errors")
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status]",
		Short:     "Apply the development schema (matches, users, notifications_log)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "reset", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logLevel.Set(cfg.LogLevel)

			if err := db.Migrate(cmd.Context(), cfg.DatabaseURL, command); err != nil {
				return fmt.Errorf("migrate %s: %w", command, err)
			}
			logger.Info("Migrations finished", "command", command)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// send-test command
// --------------------------------------------------------------------------

func sendTestCmd() *cobra.Command {
	var token, opponent1, opponent2, url string
	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Push a sample live notification to a single device token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("--token is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logLevel.Set(cfg.LogLevel)

			sender, err := notifications.NewFCMSender(cmd.Context(), cfg.FCMCredentialsFile, cfg.FCMCredentialsJSON, logger)
			if err != nil {
				return err
			}

			msg := notifications.BuildMessage(notifications.Match{
				ID:        "test",
				Opponent1: opponent1,
				Opponent2: opponent2,
				LiveURL:   url,
			}, cfg.NotifyTitle, cfg.NotifyBody)

			if err := sender.SendToken(cmd.Context(), token, msg); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			logger.Info("Test notification sent", "title", msg.Title, "body", msg.Body)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "FCM device token")
	cmd.Flags().StringVar(&opponent1, "opponent1", "Home", "First opponent name")
	cmd.Flags().StringVar(&opponent2, "opponent2", "Away", "Second opponent name")
	cmd.Flags().StringVar(&url, "url", "", "Live stream URL for the data payload")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withServices loads config and builds the process-wide store and FCM client,
// then hands them to fn.
func withServices(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, pool *db.Pool, n *notifications.Notifier) error) error {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load config: %w", err)
	}
	logLevel.Set(cfg.LogLevel)

	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	sender, err := notifications.NewFCMSender(ctx, cfg.FCMCredentialsFile, cfg.FCMCredentialsJSON, logger)
	if err != nil {
		logger.Error("Failed to initialize FCM", "error", err)
		return fmt.Errorf("init fcm: %w", err)
	}

	n := notifications.New(notifications.NewPGStore(pool.Pool), sender, settingsFrom(cfg), logger)
	return fn(ctx, cfg, pool, n)
}

func settingsFrom(cfg *config.Config) notifications.Settings {
	return notifications.Settings{
		LiveWindow:    cfg.LiveWindow,
		EndedAfter:    cfg.EndedAfter,
		LiveStatus:    cfg.LiveStatus,
		EndedStatus:   cfg.EndedStatus,
		TitleTemplate: cfg.NotifyTitle,
		BodyTemplate:  cfg.NotifyBody,
	}
}
