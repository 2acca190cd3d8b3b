package commands

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dyluth/easel/internal/config"
	"github.com/dyluth/easel/internal/printer"
	"github.com/dyluth/easel/pkg/document"
)

var watchConfigPath string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail a session's document change events",
	Long: `Subscribe to a session's replicated document and print every change
event as it is committed: the keys touched and the origin tag of the
participant that produced the transaction.

Examples:
  # Watch the session described by ./easel.yml
  easel watch

  # Explicit config path
  easel watch --config /etc/easel/easel.yml`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchConfigPath, "config", "easel.yml", "Path to easel.yml")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(watchConfigPath)
	if err != nil {
		return printer.Error("Cannot load configuration", err.Error(), []string{
			"Check that the file exists and is valid YAML",
			"Run with --config pointing at your easel.yml",
		})
	}

	store, err := document.NewRedisStore(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Session)
	if err != nil {
		return printer.Error("Cannot create document store", err.Error(), nil)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := store.Ping(ctx); err != nil {
		return printer.Error("Cannot reach Redis", err.Error(), []string{
			"Check redis.addr in easel.yml",
		})
	}

	sub, err := store.Subscribe(ctx)
	if err != nil {
		return printer.Error("Cannot subscribe to change events", err.Error(), nil)
	}
	defer sub.Close()

	printer.Success("Watching session '%s'\n", cfg.Session)
	printer.Info("Press Ctrl+C to stop.\n\n")

	errs := sub.Errors()
	for {
		select {
		case <-ctx.Done():
			printer.Info("\nStopped.\n")
			return nil

		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			printer.Event("%s  origin=%s  keys=[%s]\n",
				time.Now().Format("15:04:05.000"),
				shortOrigin(ev.Origin),
				strings.Join(ev.ChangedKeys, ", "))

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			printer.Warning("subscription error: %v\n", err)
		}
	}
}

// shortOrigin trims a UUID origin tag down to its first group for display.
func shortOrigin(origin string) string {
	if i := strings.IndexByte(origin, '-'); i > 0 {
		return origin[:i]
	}
	return origin
}
