package service

import (
	"context"
	"strings"
	"time"

	"cryptosim/internal/models"
	"cryptosim/internal/modules/config"
	"cryptosim/pkg/logger"
	"cryptosim/pkg/metrics"
	"cryptosim/pkg/tracing"
)

type MarketsFetcher interface {
	FetchMarkets(ctx context.Context, ids []string) ([]models.AssetSnapshot, error)
}

// StatusSink куда отчитываться о состоянии рынка (health).
type StatusSink interface {
	SetReady(v bool)
	SetWSConnected(v bool)
	SetUsingFallback(v bool)
	TouchRefresh(t time.Time)
}

type nopStatus struct{}

func (nopStatus) SetReady(bool)          {}
func (nopStatus) SetWSConnected(bool)    {}
func (nopStatus) SetUsingFallback(bool)  {}
func (nopStatus) TouchRefresh(time.Time) {}

// Source одна попытка за цикл, при ошибке статичный каталог.
type Source struct {
	fetcher  MarketsFetcher
	fallback *Fallback
	cache    *Cache
	assets   []config.Asset
	status   StatusSink
	now      func() time.Time
}

func NewSource(fetcher MarketsFetcher, fallback *Fallback, cache *Cache, assets []config.Asset, status StatusSink) *Source {
	if status == nil {
		status = nopStatus{}
	}
	return &Source{
		fetcher:  fetcher,
		fallback: fallback,
		cache:    cache,
		assets:   assets,
		status:   status,
		now:      time.Now,
	}
}

// Refresh тянет снимки и кладёт их в кэш. Ошибку не отдаёт: логирует и возвращает fallback.
func (s *Source) Refresh(ctx context.Context) ([]models.AssetSnapshot, bool) {
	span, ctx := tracing.Start(ctx, "market.Refresh")
	defer span.Finish()

	ids := make([]string, 0, len(s.assets))
	for _, a := range s.assets {
		ids = append(ids, a.ID)
	}

	set, err := s.fetcher.FetchMarkets(ctx, ids)
	usedFallback := false
	switch {
	case err != nil:
		logger.Warn("market: fetch failure, using fallback: %v", err)
		metrics.RecordFetchFailure("coingecko")
		usedFallback = true
	case len(set) == 0:
		logger.Warn("market: empty market list, using fallback")
		metrics.RecordFetchFailure("coingecko")
		usedFallback = true
	}
	if usedFallback {
		set = s.fallback.Snapshots(s.now())
	} else {
		set = s.enrich(set)
	}
	span.SetTag("fallback", usedFallback)

	s.cache.Replace(set, usedFallback)
	s.status.SetUsingFallback(usedFallback)
	s.status.TouchRefresh(s.now())
	s.status.SetReady(true)

	return s.cache.Snapshots(), usedFallback
}

// enrich дописывает биржевую пару и имя из каталога.
func (s *Source) enrich(set []models.AssetSnapshot) []models.AssetSnapshot {
	byID := make(map[string]config.Asset, len(s.assets))
	for _, a := range s.assets {
		byID[a.ID] = a
	}
	out := make([]models.AssetSnapshot, 0, len(set))
	for _, snap := range set {
		if a, ok := byID[snap.ID]; ok {
			if snap.Pair == "" {
				snap.Pair = strings.ToUpper(a.Pair)
			}
			if snap.Name == "" {
				snap.Name = a.Name
			}
		}
		out = append(out, snap)
	}
	return out
}

// Poller обновляет кэш сразу и далее по тикеру.
func (s *Source) Poller(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}
