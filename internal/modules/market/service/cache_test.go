package service

import (
	"testing"
	"time"

	"cryptosim/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(id, sym string, price float64) models.AssetSnapshot {
	return models.AssetSnapshot{
		ID: id, Symbol: sym, Pair: sym + "USDT", CurrentPrice: price, Volume: 100, MarketCap: price * 1000, FetchedAt: time.Now(),
	}
}

func TestCache_ReplaceDropsInvalid(t *testing.T) {
	c := NewCache()
	bad := snap("bad", "BAD", 0)
	c.Replace([]models.AssetSnapshot{snap("bitcoin", "BTC", 100), bad}, false)

	assert.Len(t, c.Snapshots(), 1)
	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestCache_UpsertReplacesWholeSnapshot(t *testing.T) {
	c := NewCache()
	c.Replace([]models.AssetSnapshot{snap("bitcoin", "BTC", 100)}, false)

	next := snap("bitcoin", "BTC", 120)
	next.PriceChangePercent24h = 20
	require.True(t, c.Upsert(next))

	got, ok := c.Get("bitcoin")
	require.True(t, ok)
	assert.Equal(t, next, got)
	assert.Len(t, c.Snapshots(), 1)
}

func TestCache_FindBySymbol(t *testing.T) {
	c := NewCache()
	c.Replace([]models.AssetSnapshot{snap("bitcoin", "BTC", 100), snap("ethereum", "ETH", 10)}, false)

	for _, q := range []string{"eth", "ETH", "ethusdt", "ethereum"} {
		s, ok := c.FindBySymbol(q)
		require.True(t, ok, q)
		assert.Equal(t, "ethereum", s.ID)
	}
	_, ok := c.FindBySymbol("doge")
	assert.False(t, ok)
}

func TestCache_Stats(t *testing.T) {
	c := NewCache()
	c.Replace([]models.AssetSnapshot{snap("bitcoin", "BTC", 100), snap("ethereum", "ETH", 10)}, false)

	st := c.Stats()
	assert.Equal(t, 2, st.Assets)
	assert.InDelta(t, 110000.0, st.TotalMarketCap, 1e-9)
	assert.InDelta(t, 200.0, st.TotalVolume, 1e-9)
}

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		1.23e12: "$1.23T",
		4.56e9:  "$4.56B",
		7.89e6:  "$7.89M",
		12.346:  "$12.35",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCurrency(in))
	}
	assert.Equal(t, "$0.4500", FormatPrice(0.45))
	assert.Equal(t, "↓1.20%", FormatChange(-1.2))
}
