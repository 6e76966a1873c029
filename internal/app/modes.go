package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/dexmon/internal/domain"
	"github.com/alanyoungcy/dexmon/internal/feed"
	"github.com/alanyoungcy/dexmon/internal/server"
	"github.com/alanyoungcy/dexmon/internal/server/handler"
)

// subsystems describes which parts of the monitor an operating mode runs.
type subsystems struct {
	Ingest          bool // feed listener filling the cache
	ScanAfterUpdate bool // event-driven scan of a pair right after its update
	Sweeper         bool // cache TTL cleanup loop
	ScanLoop        bool // periodic full detection sweep
	Server          bool // HTTP API (still gated by server.enabled)
}

// subsystemsFor maps a mode name to its subsystem set:
//   - "monitor": feed + cache + API, no detection — a passive price surface.
//   - "scan": feed + detection, headless.
//   - "serve": API only, over whatever state exists.
//   - "full": everything.
func subsystemsFor(mode string) (subsystems, error) {
	switch strings.ToLower(mode) {
	case "monitor":
		return subsystems{Ingest: true, Sweeper: true, Server: true}, nil
	case "scan":
		return subsystems{Ingest: true, ScanAfterUpdate: true, Sweeper: true, ScanLoop: true}, nil
	case "serve":
		return subsystems{Server: true}, nil
	case "full":
		return subsystems{Ingest: true, ScanAfterUpdate: true, Sweeper: true, ScanLoop: true, Server: true}, nil
	default:
		return subsystems{}, fmt.Errorf("unsupported mode %q", mode)
	}
}

// runSubsystems starts the planned goroutines under one errgroup and blocks
// until the context is cancelled or a subsystem fails.
func (a *App) runSubsystems(ctx context.Context, deps *Dependencies, plan subsystems) error {
	g, ctx := errgroup.WithContext(ctx)

	if plan.Ingest && a.cfg.Feed.Enabled {
		a.startIngest(ctx, g, deps, plan.ScanAfterUpdate)
	}
	if plan.Sweeper {
		a.startSweeper(ctx, g, deps)
	}
	if plan.ScanLoop {
		g.Go(func() error {
			return deps.Scanner.Run(ctx)
		})
	}
	if plan.Server && a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}
	return g.Wait()
}

// startIngest adds the feed listener goroutine. Each record is validated into
// the cache; when scanAfterUpdate is set, a cache hit immediately triggers an
// event-driven scan of the updated pair.
func (a *App) startIngest(ctx context.Context, g *errgroup.Group, deps *Dependencies, scanAfterUpdate bool) {
	defaultFee := a.cfg.Fees.DefaultFeePercent / 100

	handlerFn := func(ctx context.Context, rec domain.PriceRecord) {
		if rec.FeeRate == 0 {
			rec.FeeRate = defaultFee
		}
		if err := deps.Cache.Update(rec); err != nil {
			deps.Metrics.RecordsRejected.Inc()
			a.logger.WarnContext(ctx, "record rejected",
				slog.String("pair", rec.Pair),
				slog.String("venue", rec.Venue),
				slog.Any("error", err),
			)
			return
		}
		deps.Metrics.RecordsIngested.Inc()
		if scanAfterUpdate {
			deps.Scanner.OnUpdate(ctx, rec.Pair)
		}
	}

	listener := feed.NewListener(a.cfg.Feed.URL, handlerFn, a.logger)
	g.Go(func() error {
		return listener.Run(ctx)
	})
}

// startSweeper adds the cache TTL sweeper goroutine.
func (a *App) startSweeper(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	g.Go(func() error {
		return deps.Cache.RunSweeper(ctx, a.cfg.Cache.CleanupInterval())
	})
}

// startHTTPServer adds the HTTP server goroutine plus a shutdown watcher.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, server.Handlers{
		Health:        handler.NewHealthHandler(deps.Cache, a.cfg.Cache.StaleThreshold(), a.logger),
		Prices:        handler.NewPriceHandler(deps.Cache, a.logger),
		Opportunities: handler.NewOpportunityHandler(deps.Publisher, a.logger),
	}, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
