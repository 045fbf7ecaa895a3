package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/memoryengine"
	"github.com/shelfwise/circulation-go/circulation/postgresengine"
	"github.com/shelfwise/circulation-go/features/task/expirereservations"
	"github.com/shelfwise/circulation-go/features/task/notifydueloans"
	"github.com/shelfwise/circulation-go/features/task/processreservations"
	"github.com/shelfwise/circulation-go/features/task/sweepoverdueloans"
	"github.com/shelfwise/circulation-go/shell"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// rootFlags holds the flags shared by every subcommand.
type rootFlags struct {
	engine      string
	dsn         string
	tablePrefix string
	snapshot    string
	logLevel    string
}

// serveFlags holds the scheduler intervals. The defaults mirror a typical
// library's batch cadence: daily overdue and reminder sweeps, reservation
// processing every few minutes, expiry checks hourly.
type serveFlags struct {
	overdueSweepEvery time.Duration
	reminderEvery     time.Duration
	reservationEvery  time.Duration
	expiryEvery       time.Duration
}

func main() {
	var flags rootFlags

	root := &cobra.Command{
		Use:     "circulationd",
		Short:   "Library circulation daemon",
		Long:    "circulationd runs the loan, reservation and fine lifecycle sweeps against a circulation ledger.",
		Version: version,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.engine, "engine", "postgres", "Ledger engine: postgres or memory")
	pf.StringVar(&flags.dsn, "dsn", envOr("CIRCULATION_DSN", "postgres://localhost:5432/circulation?sslmode=disable"), "PostgreSQL DSN")
	pf.StringVar(&flags.tablePrefix, "table-prefix", "", "Prefix for all ledger tables")
	pf.StringVar(&flags.snapshot, "snapshot", "", "Snapshot file for the memory engine")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	root.AddCommand(newMigrateCmd(&flags))
	root.AddCommand(newServeCmd(&flags))
	root.AddCommand(newSweepCmd(&flags))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ledger schema in PostgreSQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(flags.logLevel)

			pool, err := pgxpool.New(cmd.Context(), flags.dsn)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			store, err := postgresengine.NewStoreFromPGXPool(pool,
				postgresengine.WithTablePrefix(flags.tablePrefix),
				postgresengine.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			if err := store.CreateSchema(cmd.Context()); err != nil {
				return fmt.Errorf("create schema: %w", err)
			}

			logger.Info("schema created")

			return nil
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var serve serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run all lifecycle sweeps on their schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(flags.logLevel)

			store, cleanup, err := openStore(cmd.Context(), flags, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			policy := circulation.DefaultPolicy()
			clock := shell.SystemClock{}
			notifier := shell.NewLoggingNotificationChannel(logger)

			overdue := sweepoverdueloans.NewTask(store, policy, clock,
				sweepoverdueloans.WithLogger(logger),
				sweepoverdueloans.WithNotifier(notifier),
			)
			reservations := processreservations.NewTask(store, clock,
				processreservations.WithLogger(logger),
				processreservations.WithNotifier(notifier),
			)
			expiry := expirereservations.NewTask(store, policy, clock,
				expirereservations.WithLogger(logger),
				expirereservations.WithNotifier(notifier),
			)
			reminders := notifydueloans.NewTask(store, policy, clock, serve.reminderEvery,
				notifydueloans.WithLogger(logger),
				notifydueloans.WithNotifier(notifier),
			)

			scheduler := shell.NewScheduler(logger)
			scheduler.Register(shell.Task{Name: overdue.Name(), Interval: serve.overdueSweepEvery, Run: overdue.Run})
			scheduler.Register(shell.Task{Name: reservations.Name(), Interval: serve.reservationEvery, Run: reservations.Run})
			scheduler.Register(shell.Task{Name: expiry.Name(), Interval: serve.expiryEvery, Run: expiry.Run})
			scheduler.Register(shell.Task{Name: reminders.Name(), Interval: serve.reminderEvery, Run: reminders.Run})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("circulationd started", "engine", flags.engine)
			scheduler.Start(ctx)
			logger.Info("circulationd stopped")

			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVar(&serve.overdueSweepEvery, "overdue-sweep-every", 24*time.Hour, "Interval between overdue sweeps")
	f.DurationVar(&serve.reminderEvery, "reminders-every", 24*time.Hour, "Interval between due-soon reminder runs")
	f.DurationVar(&serve.reservationEvery, "reservations-every", 15*time.Minute, "Interval between reservation processing runs")
	f.DurationVar(&serve.expiryEvery, "expiry-every", time.Hour, "Interval between reservation expiry runs")

	return cmd
}

func newSweepCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep <overdue|reservations|expiry|reminders>",
		Short: "Run one lifecycle sweep once and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(flags.logLevel)

			store, cleanup, err := openStore(cmd.Context(), flags, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			policy := circulation.DefaultPolicy()
			clock := shell.SystemClock{}
			notifier := shell.NewLoggingNotificationChannel(logger)

			switch args[0] {
			case "overdue":
				task := sweepoverdueloans.NewTask(store, policy, clock,
					sweepoverdueloans.WithLogger(logger),
					sweepoverdueloans.WithNotifier(notifier),
				)
				return task.Run(cmd.Context())
			case "reservations":
				task := processreservations.NewTask(store, clock,
					processreservations.WithLogger(logger),
					processreservations.WithNotifier(notifier),
				)
				return task.Run(cmd.Context())
			case "expiry":
				task := expirereservations.NewTask(store, policy, clock,
					expirereservations.WithLogger(logger),
					expirereservations.WithNotifier(notifier),
				)
				return task.Run(cmd.Context())
			case "reminders":
				task := notifydueloans.NewTask(store, policy, clock, 24*time.Hour,
					notifydueloans.WithLogger(logger),
					notifydueloans.WithNotifier(notifier),
				)
				return task.Run(cmd.Context())
			default:
				return fmt.Errorf("unknown sweep %q", args[0])
			}
		},
	}

	return cmd
}

// openStore builds the ledger store the flags select. The cleanup func
// releases the underlying connection pool, if any.
func openStore(ctx context.Context, flags *rootFlags, logger circulation.Logger) (circulation.LedgerStore, func(), error) {
	switch flags.engine {
	case "postgres":
		pool, err := pgxpool.New(ctx, flags.dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}

		store, err := postgresengine.NewStoreFromPGXPool(pool,
			postgresengine.WithTablePrefix(flags.tablePrefix),
			postgresengine.WithLogger(logger),
		)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		return store, pool.Close, nil

	case "memory":
		var options []memoryengine.Option
		options = append(options, memoryengine.WithLogger(logger))

		if flags.snapshot != "" {
			options = append(options, memoryengine.WithSnapshotPath(flags.snapshot))
		}

		store, err := memoryengine.NewStore(options...)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown engine %q", flags.engine)
	}
}

func newLogger(level string) circulation.Logger {
	var slogLevel slog.Level

	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})

	return shell.NewSlogLogger(slog.New(handler))
}

func envOr(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}
