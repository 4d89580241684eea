package simulator

import (
	"context"

	"cryptosim/internal/modules/config"
	marketsvc "cryptosim/internal/modules/market/service"
	"cryptosim/internal/modules/simulator/service"
	storage "cryptosim/internal/modules/storage/service"

	"go.uber.org/fx"
)

func NewSession(cfg *config.Config, cache *marketsvc.Cache, store storage.Store) *service.Session {
	return service.NewSession(cache, store, service.Settings{
		StartingCredits: cfg.Simulator.StartingCredits,
		TradeXP:         cfg.Simulator.TradeXP,
		LessonXP:        cfg.Simulator.LessonXP,
	})
}

// Module профиль симулятора: загрузка на старте, периодический и финальный сброс.
func Module() fx.Option {
	return fx.Module("simulator",
		fx.Provide(NewSession),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, s *service.Session) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(startCtx context.Context) error {
					if err := s.Load(startCtx); err != nil {
						cancel()
						return err
					}
					go func() {
						defer close(done)
						s.Flusher(ctx, cfg.Simulator.FlushInterval)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
					case <-stopCtx.Done():
					}
					return nil
				},
			})
		}),
	)
}
