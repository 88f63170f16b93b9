package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/coinlens/config"
	"github.com/vadiminshakov/coinlens/internal/analysis"
	"github.com/vadiminshakov/coinlens/internal/services/collector"
	"github.com/vadiminshakov/coinlens/internal/services/ingestor"
	"github.com/vadiminshakov/coinlens/internal/setup"
	seriesstore "github.com/vadiminshakov/coinlens/internal/storage/series"
	usersstore "github.com/vadiminshakov/coinlens/internal/storage/users"
	"github.com/vadiminshakov/coinlens/internal/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			os.Exit(1)
		}
		return
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	provider := newProvider(cfg)

	seriesWAL, err := seriesstore.NewWALStore(cfg.SeriesDir)
	if err != nil {
		logger.Fatal("failed to open series store", zap.Error(err))
	}
	defer seriesWAL.Close()

	usersWAL, err := usersstore.NewWALStore(cfg.UsersDir)
	if err != nil {
		logger.Fatal("failed to open users store", zap.Error(err))
	}
	defer usersWAL.Close()

	if err := usersWAL.SeedDemo(); err != nil {
		logger.Fatal("failed to seed demo users", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coll := collector.NewCollector(provider, cfg.Interval, cfg.LookbackPeriods)
	ing := ingestor.New(coll, seriesWAL, cfg.Pairs, cfg.RefreshInterval, logger)

	engine := analysis.NewEngine(analysis.Config{})
	server := web.NewServer(cfg.ListenAddr, engine, seriesWAL, usersWAL, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ing.Run(gctx)
	})
	g.Go(func() error {
		return server.Start(gctx)
	})

	logger.Info("started",
		zap.String("platform", cfg.Platform),
		zap.String("listen", cfg.ListenAddr),
		zap.Int("pairs", len(cfg.Pairs)))

	if err := g.Wait(); err != nil && !isShutdown(err) {
		logger.Error(err.Error())
	}
}

func newProvider(cfg config.Config) collector.KlineProvider {
	switch cfg.Platform {
	case "bybit":
		return collector.NewBybitKlineProvider(bybit.NewClient().WithAuth(cfg.APIKey, cfg.APISecret))
	default:
		return collector.NewBinanceKlineProvider(binance.NewClient(cfg.APIKey, cfg.APISecret))
	}
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled)
}
