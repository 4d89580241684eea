package config

import "go.uber.org/fx"

// Module отдаёт уже загруженный *Config в граф fx.
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
	)
}
