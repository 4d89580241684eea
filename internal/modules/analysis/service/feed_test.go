package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cryptosim/internal/models"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_KeepsNewestAndLimits(t *testing.T) {
	f := NewFeed(3, time.Hour)
	f.now = func() time.Time { return t0 }

	for i := 0; i < 5; i++ {
		f.Push(models.Signal{Symbol: fmt.Sprintf("S%d", i), ShouldTrade: true, Timestamp: t0})
	}

	all := f.Signals(10)
	require.Len(t, all, 3)
	assert.Equal(t, "S4", all[0].Symbol)
	assert.Equal(t, "S2", all[2].Symbol)

	assert.Len(t, f.Signals(0), 3)
	assert.Len(t, f.Signals(2), 2)
}

func TestFeed_FiltersExpired(t *testing.T) {
	f := NewFeed(20, 24*time.Hour)
	now := t0
	f.now = func() time.Time { return now }

	f.Push(models.Signal{Symbol: "OLD", ShouldTrade: true, Timestamp: t0.Add(-25 * time.Hour)})
	f.Push(models.Signal{Symbol: "BTCUSDT", ShouldTrade: true, Timestamp: t0.Add(-time.Hour)})

	got := f.Signals(5)
	require.Len(t, got, 1)
	assert.Equal(t, "BTCUSDT", got[0].Symbol)
	assert.Equal(t, t0.Add(23*time.Hour), got[0].ExpiresAt)

	_, ok := f.ForSymbol("old")
	assert.False(t, ok)
	s, ok := f.ForSymbol("btcusdt")
	assert.True(t, ok)
	assert.Equal(t, "BTCUSDT", s.Symbol)

	now = t0.Add(23 * time.Hour)
	assert.Empty(t, f.Signals(5))
}

func TestFeed_SkipsSignalsNotWorthTrading(t *testing.T) {
	f := NewFeed(20, time.Hour)
	f.now = func() time.Time { return t0 }

	assert.False(t, f.Push(models.Signal{Symbol: "ETHUSDT", Action: models.ActionHold, Timestamp: t0}))
	assert.False(t, f.Push(DefaultSignal("SOLUSDT", t0)))
	assert.True(t, f.Push(models.Signal{Symbol: "BTCUSDT", Action: models.ActionBuy, Confidence: 80, ShouldTrade: true, Timestamp: t0}))

	got := f.Signals(10)
	require.Len(t, got, 1)
	assert.Equal(t, "BTCUSDT", got[0].Symbol)
	_, ok := f.ForSymbol("ETHUSDT")
	assert.False(t, ok)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingNotifier) SendService(_ context.Context, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func TestWatcher_RunOnceFillsFeedAndNotifies(t *testing.T) {
	a := NewAnalyzer(stubTicker{snap: models.AssetSnapshot{
		Pair: "BTCUSDT", CurrentPrice: 100, PriceChangePercent24h: 3, Volume: 1,
	}}, NewEngine(fixedRand(0.5)))
	feed := NewFeed(20, time.Hour)
	n := &recordingNotifier{}
	w := NewWatcher(a, feed, []string{"BTCUSDT", "ETHUSDT"}, 0, n)

	out := w.RunOnce(context.Background())

	require.Len(t, out, 2)
	assert.Equal(t, "BTCUSDT", out[0].Symbol)
	assert.Equal(t, "ETHUSDT", out[1].Symbol)
	assert.Len(t, feed.Signals(10), 2)
	assert.Len(t, n.calls, 2)
	assert.Contains(t, n.calls[0], "BUY")
}

func TestWatcher_FailedFetchesStayOutOfFeed(t *testing.T) {
	a := NewAnalyzer(stubTicker{err: errors.New("network down")}, NewEngine(fixedRand(0.5)))
	feed := NewFeed(20, time.Hour)
	n := &recordingNotifier{}
	w := NewWatcher(a, feed, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, 0, n)

	out := w.RunOnce(context.Background())

	require.Len(t, out, 3)
	for _, s := range out {
		assert.False(t, s.ShouldTrade)
	}
	assert.Empty(t, feed.Signals(10))
	assert.Empty(t, n.calls)
}

func TestWatcher_StopsOnCancelledContext(t *testing.T) {
	a := NewAnalyzer(stubTicker{snap: models.AssetSnapshot{Pair: "X", CurrentPrice: 1}}, NewEngine(fixedRand(0.5)))
	w := NewWatcher(a, NewFeed(5, time.Hour), []string{"A", "B", "C"}, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, w.RunOnce(ctx))
}
