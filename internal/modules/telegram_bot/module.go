package telegram

import (
	"context"

	analysissvc "cryptosim/internal/modules/analysis/service"
	"cryptosim/internal/modules/telegram_bot/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram,
		),

		// Адаптер: *service.Telegram -> analysissvc.ServiceNotifier
		fx.Provide(
			func(t *service.Telegram) analysissvc.ServiceNotifier {
				return t
			},
		),

		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(context.Context) error {
						go t.Start(ctx)
						return nil
					},
					OnStop: func(context.Context) error {
						cancel()
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
