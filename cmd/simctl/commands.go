package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cryptosim/internal/models"
	analysissvc "cryptosim/internal/modules/analysis/service"
	"cryptosim/internal/modules/config"
	marketsvc "cryptosim/internal/modules/market/service"
	simsvc "cryptosim/internal/modules/simulator/service"
	"cryptosim/internal/modules/storage"
	"cryptosim/internal/reporting"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// env всё, что нужно офлайн-командам.
type env struct {
	cfg    *config.Config
	client *marketsvc.Client
	cache  *marketsvc.Cache
}

func newEnv(ctx context.Context) (*env, bool, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, false, err
	}
	fb, err := marketsvc.NewFallback()
	if err != nil {
		return nil, false, err
	}
	e := &env{
		cfg:    cfg,
		client: marketsvc.NewClient(cfg.Market.CoinGeckoURL, cfg.Market.BinanceURL, cfg.Market.HTTPTimeout),
		cache:  marketsvc.NewCache(),
	}
	_, fallback := marketsvc.NewSource(e.client, fb, e.cache, cfg.Market.Assets, nil).Refresh(ctx)
	return e, fallback, nil
}

// session профиль из настроенного хранилища. close надо вызвать после Flush.
func (e *env) session(ctx context.Context) (*simsvc.Session, func() error, error) {
	store, closeFn, err := storage.Open(ctx, e.cfg)
	if err != nil {
		return nil, nil, err
	}
	s := simsvc.NewSession(e.cache, store, simsvc.Settings{
		StartingCredits: e.cfg.Simulator.StartingCredits,
		TradeXP:         e.cfg.Simulator.TradeXP,
		LessonXP:        e.cfg.Simulator.LessonXP,
	})
	if err := s.Load(ctx); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}

func prices(cache *marketsvc.Cache, positions []models.Position) map[string]float64 {
	out := make(map[string]float64, len(positions))
	for _, p := range positions {
		if v, ok := cache.Price(p.AssetID); ok {
			out[p.AssetID] = v
		}
	}
	return out
}

func marketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Fetch and print current market snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, fallback, err := newEnv(cmd.Context())
			if err != nil {
				return err
			}
			reporting.RenderMarket(cmd.OutOrStdout(), e.cache.Snapshots(), e.cache.Stats(), fallback)
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "analyze [PAIR...]",
		Short: "Run signal analysis for pairs (defaults to the configured watchlist)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}
			pairs := cfg.Analysis.Pairs
			if len(args) > 0 {
				pairs = make([]string, 0, len(args))
				for _, a := range args {
					pairs = append(pairs, strings.ToUpper(a))
				}
			}
			if seed == 0 {
				seed = cfg.Analysis.Seed
			}

			client := marketsvc.NewClient(cfg.Market.CoinGeckoURL, cfg.Market.BinanceURL, cfg.Market.HTTPTimeout)
			analyzer := analysissvc.NewAnalyzer(client, analysissvc.NewEngine(analysissvc.NewRandom(seed)))
			feed := analysissvc.NewFeed(len(pairs), cfg.Analysis.SignalTTL)
			w := analysissvc.NewWatcher(analyzer, feed, pairs, cfg.Analysis.RequestDelay, nil)

			reporting.RenderSignals(cmd.OutOrStdout(), w.RunOnce(cmd.Context()))
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for the RSI estimate (0 uses config or time)")
	return cmd
}

func portfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Print the stored profile valued at current prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, _, err := newEnv(ctx)
			if err != nil {
				return err
			}
			s, closeFn, err := e.session(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			positions := s.Positions()
			reporting.RenderPortfolio(cmd.OutOrStdout(), s.Valuation(), positions, prices(e.cache, positions))
			p := s.Profile()
			fmt.Fprintf(cmd.OutOrStdout(), "Rank: %s, XP: %d, achievements: %d\n", p.Rank, p.Experience, p.Unlocked)
			return nil
		},
	}
}

func tradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trade buy|sell ASSET AMOUNT",
		Short: "Execute a simulated trade against the stored profile",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			tt := models.TradeType(strings.ToLower(args[0]))
			if !tt.Valid() {
				return errors.Errorf("trade type must be buy or sell, got %q", args[0])
			}
			amount, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return errors.Wrap(err, "amount")
			}

			ctx := cmd.Context()
			e, _, err := newEnv(ctx)
			if err != nil {
				return err
			}
			s, closeFn, err := e.session(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			res := s.ExecuteTrade(ctx, tt, args[1], amount)
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.Flush(flushCtx)

			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			if !res.OK {
				return res.Err
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export trade history and positions to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, _, err := newEnv(ctx)
			if err != nil {
				return err
			}
			s, closeFn, err := e.session(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := reporting.ExportTrades(out, s.TradeHistory(0), s.Valuation(), s.Positions()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "trades.xlsx", "Output file")
	return cmd
}
