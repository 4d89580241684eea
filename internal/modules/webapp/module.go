package webapp

import (
	"context"
	"net"
	"net/http"
	"time"

	analysissvc "cryptosim/internal/modules/analysis/service"
	"cryptosim/internal/modules/config"
	marketsvc "cryptosim/internal/modules/market/service"
	simsvc "cryptosim/internal/modules/simulator/service"
	"cryptosim/internal/modules/webapp/service"
	"cryptosim/pkg/logger"

	"go.uber.org/fx"
)

func NewHandler(session *simsvc.Session, cache *marketsvc.Cache, analyzer *analysissvc.Analyzer, feed *analysissvc.Feed) *service.Handler {
	return service.NewHandler(session, cache, analyzer, feed)
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, h *service.Handler) {
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           service.NewRouter(h, cfg.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return err
			}
			logger.Info("webapp: listening on %s", cfg.HTTP.Addr)
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("webapp server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// Module JSON API для веб-клиента.
func Module() fx.Option {
	return fx.Module("webapp",
		fx.Provide(NewHandler),
		fx.Invoke(RunHTTP),
	)
}
