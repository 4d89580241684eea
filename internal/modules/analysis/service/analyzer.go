package service

import (
	"context"
	"strings"
	"time"

	"cryptosim/internal/models"
	"cryptosim/pkg/logger"
	"cryptosim/pkg/metrics"
)

type TickerFetcher interface {
	FetchTicker(ctx context.Context, pair string) (models.AssetSnapshot, error)
}

// Analyzer fetch -> индикаторы -> сигнал для одной пары.
type Analyzer struct {
	fetcher TickerFetcher
	engine  *Engine
	now     func() time.Time
}

func NewAnalyzer(fetcher TickerFetcher, engine *Engine) *Analyzer {
	return &Analyzer{fetcher: fetcher, engine: engine, now: time.Now}
}

// Analyze никогда не возвращает ошибку: при сбое отдаёт DefaultSignal.
func (a *Analyzer) Analyze(ctx context.Context, pair string) models.Signal {
	pair = strings.ToUpper(strings.TrimSpace(pair))

	snap, err := a.fetcher.FetchTicker(ctx, pair)
	if err != nil {
		logger.Warn("analysis: %s: %v", pair, err)
		return DefaultSignal(pair, a.now())
	}

	sig := GenerateSignal(pair, a.engine.Compute(snap), a.now())
	metrics.RecordSignal(string(sig.Action))
	return sig
}
