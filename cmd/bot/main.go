package main

import (
	"fmt"
	"os"

	"cryptosim/internal/modules/analysis"
	"cryptosim/internal/modules/bootstrap"
	"cryptosim/internal/modules/config"
	"cryptosim/internal/modules/health"
	"cryptosim/internal/modules/market"
	"cryptosim/internal/modules/simulator"
	"cryptosim/internal/modules/storage"
	telegram "cryptosim/internal/modules/telegram_bot"
	"cryptosim/internal/modules/webapp"
	"cryptosim/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.SetServiceName(cfg.Service.Name)
	if err := logger.Init(cfg.Service.LogLevel, cfg.Service.Development); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := []fx.Option{
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.InfoLogger}
		}),
		config.Module(cfg),
		bootstrap.Module(),
		health.Module(),
		storage.Module(),
		market.Module(),
		analysis.Module(),
		simulator.Module(),
	}
	switch {
	case cfg.Telegram.Enabled && cfg.Telegram.Token == "":
		logger.Warn("telegram enabled but TELEGRAM_TOKEN is empty, bot is off")
	case cfg.Telegram.Enabled:
		opts = append(opts, telegram.Module())
	}
	if cfg.HTTP.Enabled {
		opts = append(opts, webapp.Module())
	}

	fx.New(opts...).Run()
}
