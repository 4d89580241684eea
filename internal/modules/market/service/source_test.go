package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptosim/internal/models"
	"cryptosim/internal/modules/config"
	healthsvc "cryptosim/internal/modules/health/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	set []models.AssetSnapshot
	err error
}

func (s stubFetcher) FetchMarkets(context.Context, []string) ([]models.AssetSnapshot, error) {
	return s.set, s.err
}

func newTestSource(t *testing.T, f MarketsFetcher) (*Source, *Cache, *healthsvc.State) {
	t.Helper()
	fb, err := NewFallback()
	require.NoError(t, err)
	cache := NewCache()
	st := healthsvc.NewState()
	return NewSource(f, fb, cache, config.DefaultAssets(), st), cache, st
}

func TestRefresh_FallbackOnFailure(t *testing.T) {
	src, cache, st := newTestSource(t, stubFetcher{err: errors.New("boom")})

	set, fallback := src.Refresh(context.Background())
	assert.True(t, fallback)
	require.GreaterOrEqual(t, len(set), 2)
	assert.Equal(t, "bitcoin", set[0].ID)
	assert.InDelta(t, 45000.0, set[0].CurrentPrice, 1e-9)
	assert.InDelta(t, 2.5, set[0].PriceChangePercent24h, 1e-9)
	assert.Equal(t, "ethereum", set[1].ID)
	assert.InDelta(t, -1.2, set[1].PriceChangePercent24h, 1e-9)

	assert.True(t, cache.UsingFallback())
	assert.True(t, st.Ready())
	assert.True(t, st.UsingFallback())
	assert.False(t, set[0].FetchedAt.IsZero())
}

func TestRefresh_FallbackOnEmptyList(t *testing.T) {
	src, _, _ := newTestSource(t, stubFetcher{})
	_, fallback := src.Refresh(context.Background())
	assert.True(t, fallback)
}

func TestRefresh_LiveDataEnrichedWithPair(t *testing.T) {
	live := []models.AssetSnapshot{{
		ID: "solana", Symbol: "SOL", CurrentPrice: 150, PriceChangePercent24h: 4, Volume: 10, FetchedAt: time.Now(),
	}}
	src, cache, st := newTestSource(t, stubFetcher{set: live})

	set, fallback := src.Refresh(context.Background())
	assert.False(t, fallback)
	require.Len(t, set, 1)
	assert.Equal(t, "SOLUSDT", set[0].Pair)
	assert.Equal(t, "Solana", set[0].Name)
	assert.False(t, st.UsingFallback())

	p, ok := cache.Price("solana")
	assert.True(t, ok)
	assert.InDelta(t, 150.0, p, 1e-9)
}

func TestFallbackNeedsTwoAssets(t *testing.T) {
	_, err := parseFallback([]byte("- {id: bitcoin, symbol: BTC, price: 1}\n"))
	assert.Error(t, err)
}
