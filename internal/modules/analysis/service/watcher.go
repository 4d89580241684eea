package service

import (
	"context"
	"time"

	"cryptosim/internal/models"
	"cryptosim/pkg/logger"

	"golang.org/x/time/rate"
)

type ServiceNotifier interface {
	SendService(ctx context.Context, format string, args ...any)
}

// Watcher по очереди анализирует список пар с паузой между запросами.
type Watcher struct {
	analyzer *Analyzer
	feed     *Feed
	pairs    []string
	limiter  *rate.Limiter
	notifier ServiceNotifier
}

func NewWatcher(analyzer *Analyzer, feed *Feed, pairs []string, delay time.Duration, notifier ServiceNotifier) *Watcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Watcher{
		analyzer: analyzer,
		feed:     feed,
		pairs:    pairs,
		limiter:  rate.NewLimiter(limit, 1),
		notifier: notifier,
	}
}

// RunOnce один проход по списку. Возвращает сигналы в порядке пар.
func (w *Watcher) RunOnce(ctx context.Context) []models.Signal {
	out := make([]models.Signal, 0, len(w.pairs))
	for _, pair := range w.pairs {
		if err := w.limiter.Wait(ctx); err != nil {
			return out
		}

		sig := w.analyzer.Analyze(ctx, pair)
		w.feed.Push(sig)
		out = append(out, sig)

		if sig.ShouldTrade {
			logger.Info("analysis: %s signal for %s, confidence %d%%", sig.Action, sig.Symbol, sig.Confidence)
			if w.notifier != nil {
				w.notifier.SendService(ctx, "🎯 Сигнал %s для %s (уверенность %d%%)\nЦена: %.2f, TP %.2f, SL %.2f",
					sig.Action, sig.Symbol, sig.Confidence, sig.Price, sig.Targets.TakeProfit, sig.Targets.StopLoss)
			}
		}
	}
	return out
}

// Run сразу первый проход, дальше по тикеру.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}
