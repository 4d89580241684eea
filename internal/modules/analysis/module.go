package analysis

import (
	"context"

	"cryptosim/internal/modules/analysis/service"
	"cryptosim/internal/modules/config"
	marketsvc "cryptosim/internal/modules/market/service"

	"go.uber.org/fx"
)

type watcherParams struct {
	fx.In

	Cfg      *config.Config
	Analyzer *service.Analyzer
	Feed     *service.Feed
	Notifier service.ServiceNotifier `optional:"true"`
}

// Module анализатор пар, лента сигналов и периодический обход watchlist.
func Module() fx.Option {
	return fx.Module("analysis",
		fx.Provide(
			func(cfg *config.Config) service.Random {
				return service.NewRandom(cfg.Analysis.Seed)
			},
			service.NewEngine,
			func(c *marketsvc.Client, e *service.Engine) *service.Analyzer {
				return service.NewAnalyzer(c, e)
			},
			func(cfg *config.Config) *service.Feed {
				return service.NewFeed(cfg.Analysis.FeedSize, cfg.Analysis.SignalTTL)
			},
			func(p watcherParams) *service.Watcher {
				var n service.ServiceNotifier
				if p.Cfg.Analysis.Notify {
					n = p.Notifier
				}
				return service.NewWatcher(p.Analyzer, p.Feed, p.Cfg.Analysis.Pairs, p.Cfg.Analysis.RequestDelay, n)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, w *service.Watcher) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go w.Run(ctx, cfg.Analysis.Interval)
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
