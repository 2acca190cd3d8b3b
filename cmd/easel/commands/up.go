package commands

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dyluth/easel/internal/config"
	"github.com/dyluth/easel/internal/engine"
	"github.com/dyluth/easel/internal/pattern"
	"github.com/dyluth/easel/internal/printer"
	"github.com/dyluth/easel/pkg/document"
	"github.com/dyluth/easel/pkg/scene"
)

var upConfigPath string

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Run a headless sync replica",
	Long: `Join an editing session as a headless replica: attach a local
in-memory scene to the session's replicated document and keep the two in
sync until interrupted.

A headless replica is useful as a session anchor (it keeps materialized
state warm) and for observing sync behavior without a rendering front end.

Examples:
  # Join the session described by ./easel.yml
  easel up

  # Explicit config path
  easel up --config /etc/easel/easel.yml`,
	RunE: runUp,
}

func init() {
	upCmd.Flags().StringVar(&upConfigPath, "config", "easel.yml", "Path to easel.yml")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(upConfigPath)
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
			"Start a local Redis: docker run -p 6379:6379 redis",
		})
	}

	var resolver pattern.Resolver
	if cfg.Texture.Dir != "" {
		resolver = &pattern.DirResolver{Dir: cfg.Texture.Dir}
	}

	sess, err := engine.New(engine.Options{
		Scene:    scene.NewMemory(),
		Store:    store,
		Resolver: resolver,
		Debounce: cfg.Debounce(),
		Defaults: engine.Settings{
			Width:  cfg.Canvas.Width,
			Height: cfg.Canvas.Height,
			Preset: cfg.Canvas.Preset,
		},
		OnSettings: func(s engine.Settings) {
			log.Printf("[Replica] Settings now %dx%d preset=%q", s.Width, s.Height, s.Preset)
		},
	})
	if err != nil {
		return printer.Error("Cannot create sync session", err.Error(), nil)
	}

	if err := sess.Attach(ctx); err != nil {
		return printer.Error("Cannot attach to session", err.Error(), nil)
	}
	defer sess.Close()

	printer.Success("Replica attached to session '%s'\n", cfg.Session)
	printer.Info("Press Ctrl+C to detach.\n")

	<-ctx.Done()
	printer.Info("\nDetaching...\n")
	return nil
}
