package market

import (
	"context"

	"cryptosim/internal/modules/config"
	healthsvc "cryptosim/internal/modules/health/service"
	"cryptosim/internal/modules/market/service"

	"go.uber.org/fx"
)

// Module поднимает кэш рынка, поллер REST и (опционально) WS-поток.
func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			service.NewCache,
			service.NewFallback,
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg.Market.CoinGeckoURL, cfg.Market.BinanceURL, cfg.Market.HTTPTimeout)
			},
			func(cfg *config.Config, c *service.Client, fb *service.Fallback, cache *service.Cache, st *healthsvc.State) *service.Source {
				return service.NewSource(c, fb, cache, cfg.Market.Assets, st)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, src *service.Source, cache *service.Cache, st *healthsvc.State) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go src.Poller(ctx, cfg.Market.RefreshInterval)
					if cfg.Market.StreamEnabled {
						stream := service.NewStream(cfg.Market.StreamURL, cfg.Market.Assets, cache, st)
						go stream.Run(ctx)
					}
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
