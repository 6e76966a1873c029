package app

import (
	"context"
	"fmt"
	"log/slog"

	redisbus "github.com/alanyoungcy/dexmon/internal/bus/redis"
	"github.com/alanyoungcy/dexmon/internal/cache"
	"github.com/alanyoungcy/dexmon/internal/config"
	"github.com/alanyoungcy/dexmon/internal/costs"
	"github.com/alanyoungcy/dexmon/internal/detector"
	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/emit"
	"github.com/alanyoungcy/dexmon/internal/metrics"
	"github.com/alanyoungcy/dexmon/internal/notify"
	"github.com/alanyoungcy/dexmon/internal/scanner"
)

// Dependencies holds every wired collaborator the modes compose from.
type Dependencies struct {
	Cache     *cache.PriceCache
	Registry  *detector.Registry
	Scanner   *scanner.Scanner
	Publisher *emit.Publisher
	Metrics   *metrics.Metrics
	Redis     *redisbus.Client // nil when redis.enabled is false
}

// Wire builds the full dependency graph from configuration. The returned
// cleanup closes external connections and must be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	met := metrics.New()

	priceCache := cache.New(cache.Config{
		TTL:     cfg.Cache.TTL(),
		Logger:  logger,
		OnEvict: func(n int) { met.CacheEvictions.Add(float64(n)) },
	})

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Redis signal bus (optional).
	var client *redisbus.Client
	var bus *redisbus.SignalBus
	if cfg.Redis.Enabled {
		c, err := redisbus.New(ctx, redisbus.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		client = c
		bus = redisbus.NewSignalBus(c)
		closers = append(closers, func() { _ = c.Close() })
		logger.Info("redis signal bus connected", slog.String("addr", cfg.Redis.Addr))
	}

	// Notification channels.
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	var notifier *notify.Notifier
	if len(senders) > 0 {
		notifier = notify.NewNotifier(senders, cfg.Notify.Events, cfg.Notify.MinConfidence, logger)
	}

	var sinkBus domain.SignalBus
	if bus != nil {
		sinkBus = bus
	}
	sink := emit.NewPublisher(sinkBus, notifier, emit.Config{}, logger)

	registry := buildRegistry(cfg, priceCache, logger)

	scan := scanner.New(priceCache, registry, sink, scanner.Config{
		MinLiquidityUsd: cfg.Scanner.MinLiquidityUsd,
		ScanInterval:    cfg.Scanner.ScanInterval(),
		DedupWindow:     cfg.Scanner.DedupWindow(),
		Concurrency:     cfg.Scanner.Concurrency,
	}, met, logger)

	return &Dependencies{
		Cache:     priceCache,
		Registry:  registry,
		Scanner:   scan,
		Publisher: sink,
		Metrics:   met,
		Redis:     client,
	}, cleanup, nil
}

// buildRegistry registers each enabled detection strategy.
func buildRegistry(cfg *config.Config, priceCache *cache.PriceCache, logger *slog.Logger) *detector.Registry {
	registry := detector.NewRegistry()

	costCfg := costs.Config{
		EstimatedSlippagePct: cfg.Fees.EstimatedSlippagePercent,
		GasCostPct:           cfg.Fees.GasCostPercent,
		TipCostPct:           cfg.Fees.TipCostPercent,
		MaxSlippagePct:       cfg.Fees.MaxSlippagePercent,
	}

	if cfg.Spatial.Enabled {
		registry.Register(detector.NewSpatial(priceCache, detector.SpatialConfig{
			MinProfitPct:   cfg.Spatial.MinProfitPercent,
			SlotTolerance:  cfg.Spatial.SlotTolerance,
			StaleThreshold: cfg.Cache.StaleThreshold(),
			SizeFraction:   cfg.Spatial.MaxTradeSizeFraction,
			Costs:          costCfg,
		}, logger))
	}

	if cfg.Statistical.Enabled {
		stat := detector.NewStatistical(priceCache, detector.StatisticalConfig{
			EntryZScore:    cfg.Statistical.EntryZScore,
			ExitZScore:     cfg.Statistical.ExitZScore,
			StopZScore:     cfg.Statistical.StopZScore,
			WindowSize:     cfg.Statistical.WindowSize,
			MinSamples:     cfg.Statistical.MinSamples,
			StaleThreshold: cfg.Cache.StaleThreshold(),
			SizeFraction:   cfg.Spatial.MaxTradeSizeFraction,
		}, logger)
		for _, c := range cfg.Statistical.Couples {
			beta := c.Beta
			if beta == 0 {
				beta = 1
			}
			stat.SetCalibration(detector.Couple{
				PairA: c.PairA,
				PairB: c.PairB,
				Venue: c.Venue,
			}, beta, c.HalfLife)
		}
		registry.Register(stat)
	}

	if cfg.Triangular.Enabled {
		tri := detector.NewTriangular(priceCache, detector.TriangularConfig{
			ProfitThresholdPct: cfg.Triangular.ProfitThreshold,
			SlotTolerance:      cfg.Triangular.SlotTolerance,
			StaleThreshold:     cfg.Cache.StaleThreshold(),
			SizeFraction:       cfg.Triangular.SizeFraction,
			SlippagePct:        cfg.Fees.EstimatedSlippagePercent,
			GasPct:             cfg.Fees.GasCostPercent,
			TipPct:             cfg.Fees.TipCostPercent,
		}, logger)
		for _, cy := range cfg.Triangular.Cycles {
			var pairs [3]string
			copy(pairs[:], cy.Pairs)
			label := cy.Label
			if label == "" {
				label = pairs[0] + ">" + pairs[1] + ">" + pairs[2]
			}
			tri.AddCycle(detector.Cycle{Venue: cy.Venue, Pairs: pairs, Label: label})
		}
		registry.Register(tri)
	}

	return registry
}
