package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/cometbft/cometbft/abci/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/subhasisjena1643/tapnad/internal/app"
	"github.com/subhasisjena1643/tapnad/internal/config"
	"github.com/subhasisjena1643/tapnad/internal/feed"
	"github.com/subhasisjena1643/tapnad/internal/notify"
	"github.com/subhasisjena1643/tapnad/internal/state"
)

func newStartCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the ABCI application and the event feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cmd, cfg)
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	logger, err := newLogger(cmd.OutOrStdout(), cfg)
	if err != nil {
		return err
	}

	store, err := state.OpenStore(cfg.Home, cfg.DB.Backend)
	if err != nil {
		return err
	}
	logger.Info("opened state store", "home", cfg.Home, "backend", cfg.DB.Backend)

	broker := notify.NewBroker(logger)
	a, err := app.New(app.Options{
		Store:             store,
		Logger:            logger,
		Organizer:         cfg.Organizer,
		TapCooldown:       cfg.Tap.Cooldown,
		ThrottleCacheSize: cfg.Tap.CacheSize,
		Publisher:         broker,
	})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("init app: %w", err)
	}
	defer func() { _ = a.Close() }()

	srv, err := server.NewServer(cfg.ABCI.Addr, cfg.ABCI.Transport, a)
	if err != nil {
		return fmt.Errorf("create abci server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("abci server start: %w", err)
	}
	defer func() { _ = srv.Stop() }()
	logger.Info("abci server listening", "addr", cfg.ABCI.Addr, "transport", cfg.ABCI.Transport)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Feed.Addr != "" {
		feedSrv := feed.New(cfg.Feed.Addr, logger, a, broker)
		g.Go(func() error {
			return feedSrv.Run(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("shutting down feed server")
			return feedSrv.Shutdown(context.Background())
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return nil
	})

	return g.Wait()
}
