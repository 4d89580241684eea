package bootstrap

import (
	"context"

	"cryptosim/internal/modules/config"
	"cryptosim/pkg/logger"
	"cryptosim/pkg/tracing"

	"go.uber.org/fx"
)

// Init поднимает трейсер и закрывает его вместе с логгером на остановке.
func Init(lc fx.Lifecycle, cfg *config.Config) error {
	tracing.SetServiceName(cfg.Service.Name)
	_, closeTracer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	if cfg.Tracing.Enabled {
		logger.Info("[BOOT] tracing to %s:%d", cfg.Tracing.Host, cfg.Tracing.Port)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closeTracer()
			logger.Sync()
			return nil
		},
	})
	return nil
}

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Invoke(Init),
	)
}
