package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cryptosim/internal/models"
	marketsvc "cryptosim/internal/modules/market/service"
	storage "cryptosim/internal/modules/storage/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSettings = Settings{StartingCredits: 10000, TradeXP: 10, LessonXP: 50}

func testMarket() *marketsvc.Cache {
	c := marketsvc.NewCache()
	c.Replace([]models.AssetSnapshot{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Pair: "BTCUSDT", CurrentPrice: 100, PriceChangePercent24h: 2},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Pair: "ETHUSDT", CurrentPrice: 10, PriceChangePercent24h: -1},
	}, false)
	return c
}

// flakyStore падает на Save, пока fail=true, и на Load, пока loadFail=true.
type flakyStore struct {
	*storage.Memory
	mu       sync.Mutex
	fail     bool
	loadFail bool
}

func (f *flakyStore) Load(ctx context.Context, bucket string) ([]byte, error) {
	f.mu.Lock()
	fail := f.loadFail
	f.mu.Unlock()
	if fail {
		return nil, errors.New("store is unreachable")
	}
	return f.Memory.Load(ctx, bucket)
}

func (f *flakyStore) setLoadFail(v bool) {
	f.mu.Lock()
	f.loadFail = v
	f.mu.Unlock()
}

func (f *flakyStore) Save(ctx context.Context, bucket string, payload []byte) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("store is down")
	}
	return f.Memory.Save(ctx, bucket, payload)
}

func (f *flakyStore) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func TestSession_BuyAppliesRewards(t *testing.T) {
	s := NewSession(testMarket(), storage.NewMemory(), testSettings)

	res := s.ExecuteTrade(context.Background(), models.TradeBuy, "BTC", 2)
	require.True(t, res.OK, res.Message)
	require.NotNil(t, res.Trade)
	assert.Equal(t, "bitcoin", res.Trade.AssetID)
	assert.InDelta(t, 200.0, res.Trade.Total, 1e-9)
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, "first_trade", res.Unlocked[0].ID)
	assert.Contains(t, res.Message, "Куплено")

	p := s.Profile()
	// 10000 - 200 + 50 (квест на покупку) + 100 (первая сделка)
	assert.InDelta(t, 9950.0, p.Credits, 1e-9)
	assert.Equal(t, 10+10+50, p.Experience)
	assert.Equal(t, "Кадет", p.Rank)
	assert.Equal(t, "Пилот", p.NextRank)
	assert.Equal(t, 300-70, p.XPToNext)

	assert.ElementsMatch(t, []string{BucketPortfolio, BucketTrades, BucketUserStats, BucketAchievements, BucketQuests}, s.Dirty())
}

func TestSession_Rejections(t *testing.T) {
	s := NewSession(testMarket(), storage.NewMemory(), testSettings)

	res := s.ExecuteTrade(context.Background(), models.TradeBuy, "dogecoin", 1)
	assert.False(t, res.OK)
	assert.True(t, errors.Is(res.Err, ErrUnknownAsset))
	assert.NotEmpty(t, res.Message)

	res = s.ExecuteTrade(context.Background(), models.TradeBuy, "bitcoin", 1000)
	assert.False(t, res.OK)
	assert.True(t, errors.Is(res.Err, ErrInsufficientFunds))

	res = s.ExecuteTrade(context.Background(), models.TradeSell, "ethereum", 1)
	assert.True(t, errors.Is(res.Err, ErrNoPosition))

	assert.Equal(t, 10000.0, s.Profile().Credits)
	assert.Empty(t, s.TradeHistory(0))
	assert.Empty(t, s.Positions())
	assert.Empty(t, s.Dirty())
}

func TestSession_ManualHoldings(t *testing.T) {
	s := NewSession(testMarket(), storage.NewMemory(), testSettings)

	res := s.AddToPortfolio(context.Background(), "ethereum", 5, 8)
	require.True(t, res.OK)
	v := s.Valuation()
	assert.InDelta(t, 50.0, v.TotalValue, 1e-9)
	assert.InDelta(t, 40.0, v.InvestedCost, 1e-9)
	assert.InDelta(t, 25.0, v.ProfitPercent, 1e-9)
	assert.Equal(t, 10000.0, v.Credits)

	assert.True(t, s.RemoveFromPortfolio(context.Background(), "ethereum").OK)
	res = s.RemoveFromPortfolio(context.Background(), "ethereum")
	assert.False(t, res.OK)
	assert.True(t, errors.Is(res.Err, ErrNoPosition))
}

func TestSession_RemoveFromPortfolioBySymbol(t *testing.T) {
	s := NewSession(testMarket(), storage.NewMemory(), testSettings)
	ctx := context.Background()

	require.True(t, s.AddToPortfolio(ctx, "BTC", 1, 90).OK)
	require.True(t, s.AddToPortfolio(ctx, "ETH", 2, 9).OK)

	assert.True(t, s.RemoveFromPortfolio(ctx, "BTC").OK)
	assert.True(t, s.RemoveFromPortfolio(ctx, "ETHUSDT").OK)
	assert.Empty(t, s.Positions())

	res := s.RemoveFromPortfolio(ctx, "dogecoin")
	assert.True(t, errors.Is(res.Err, ErrNoPosition))
}

func TestSession_LessonCompletion(t *testing.T) {
	s := NewSession(testMarket(), storage.NewMemory(), testSettings)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := s.AdvanceLesson(ctx, 2, 25)
		require.True(t, res.OK)
	}
	res := s.AdvanceLesson(ctx, 2, 25)
	require.True(t, res.OK)
	assert.Contains(t, res.Message, "пройден")
	// урок +50, квест на урок +20
	assert.Equal(t, 70, s.Profile().Experience)
	assert.InDelta(t, 10100.0, s.Profile().Credits, 1e-9)

	res = s.UpdateLessonProgress(ctx, 2, 100)
	require.True(t, res.OK)
	assert.NotContains(t, res.Message, "пройден")
	assert.Equal(t, 70, s.Profile().Experience)

	res = s.UpdateLessonProgress(ctx, 42, 10)
	assert.True(t, errors.Is(res.Err, ErrUnknownLesson))
}

func TestSession_QuestsResetNextDay(t *testing.T) {
	s := NewSession(testMarket(), storage.NewMemory(), testSettings)
	day := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)
	now := day
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		s.MarkSignalViewed()
	}
	q := s.Quests()
	var signals models.Quest
	for _, quest := range q.Quests {
		if quest.Kind == models.QuestCheckSignals {
			signals = quest
		}
	}
	assert.True(t, signals.Completed)
	assert.InDelta(t, 10050.0, s.Profile().Credits, 1e-9)

	now = day.Add(24 * time.Hour)
	q = s.Quests()
	assert.Equal(t, "2024-05-11", q.Date)
	for _, quest := range q.Quests {
		assert.False(t, quest.Completed)
	}
}

func TestSession_LoadMissingAndCorruptBuckets(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Save(ctx, BucketPortfolio, []byte("{not json")))
	require.NoError(t, store.Save(ctx, BucketUserStats, []byte(`{"experience":400}`)))

	s := NewSession(testMarket(), store, testSettings)
	require.NoError(t, s.Load(ctx))

	p := s.Profile()
	assert.Equal(t, 10000.0, p.Credits)
	assert.Equal(t, 400, p.Experience)
	assert.Equal(t, "Пилот", p.Rank)
	assert.Empty(t, s.TradeHistory(0))
}

func TestSession_FlushLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	s := NewSession(testMarket(), store, testSettings)

	require.True(t, s.ExecuteTrade(ctx, models.TradeBuy, "bitcoin", 3).OK)
	require.True(t, s.ExecuteTrade(ctx, models.TradeBuy, "ETH", 10).OK)
	require.True(t, s.ExecuteTrade(ctx, models.TradeSell, "bitcoin", 1).OK)
	require.True(t, s.UpdateLessonProgress(ctx, 1, 60).OK)

	assert.Equal(t, len(allBuckets), s.Flush(ctx))
	assert.Empty(t, s.Dirty())

	restored := NewSession(testMarket(), store, testSettings)
	require.NoError(t, restored.Load(ctx))

	assert.Equal(t, s.Profile(), restored.Profile())
	wantPos, gotPos := s.Positions(), restored.Positions()
	require.Len(t, gotPos, len(wantPos))
	for i := range wantPos {
		assert.Equal(t, wantPos[i].AssetID, gotPos[i].AssetID)
		assert.InDelta(t, wantPos[i].Amount, gotPos[i].Amount, 1e-12)
		assert.InDelta(t, wantPos[i].AverageBuyPrice, gotPos[i].AverageBuyPrice, 1e-12)
	}
	assert.Equal(t, s.Stats(), restored.Stats())
	assert.Equal(t, 60, restored.Lessons()[0].Progress)

	orig, got := s.TradeHistory(0), restored.TradeHistory(0)
	require.Len(t, got, len(orig))
	for i := range orig {
		assert.Equal(t, orig[i].ID, got[i].ID)
		assert.True(t, orig[i].Timestamp.Equal(got[i].Timestamp))
	}

	var unlocked []string
	for _, a := range restored.Achievements() {
		if a.Unlocked {
			unlocked = append(unlocked, a.ID)
		}
	}
	assert.Equal(t, []string{"first_trade"}, unlocked)
}

func TestSession_FlushRetriesAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: storage.NewMemory(), fail: true}
	s := NewSession(testMarket(), store, testSettings)

	require.True(t, s.AddToPortfolio(ctx, "bitcoin", 1, 90).OK)
	assert.Equal(t, 0, s.Flush(ctx))
	assert.Equal(t, []string{BucketPortfolio}, s.Dirty())

	store.setFail(false)
	assert.Equal(t, 1, s.Flush(ctx))
	assert.Empty(t, s.Dirty())

	raw, err := store.Load(ctx, BucketPortfolio)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "bitcoin")
}

func TestSession_FlushKeepsBucketsThatFailedToLoad(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: storage.NewMemory()}

	first := NewSession(testMarket(), store, testSettings)
	for i := 0; i < 3; i++ {
		require.True(t, first.ExecuteTrade(ctx, models.TradeBuy, "bitcoin", 1).OK)
	}
	require.Equal(t, len(allBuckets), first.Flush(ctx))
	savedTrades, err := store.Load(ctx, BucketTrades)
	require.NoError(t, err)
	savedPortfolio, err := store.Load(ctx, BucketPortfolio)
	require.NoError(t, err)

	store.setLoadFail(true)
	s := NewSession(testMarket(), store, testSettings)
	require.NoError(t, s.Load(ctx))
	store.setLoadFail(false)

	require.True(t, s.ExecuteTrade(ctx, models.TradeBuy, "ethereum", 1).OK)
	assert.Equal(t, 0, s.Flush(ctx))
	assert.Contains(t, s.Dirty(), BucketTrades)

	raw, err := store.Load(ctx, BucketTrades)
	require.NoError(t, err)
	assert.Equal(t, savedTrades, raw)
	raw, err = store.Load(ctx, BucketPortfolio)
	require.NoError(t, err)
	assert.Equal(t, savedPortfolio, raw)

	// после удачной перезагрузки сохранение снова работает
	require.NoError(t, s.Load(ctx))
	assert.Len(t, s.TradeHistory(0), 3)
	require.True(t, s.ExecuteTrade(ctx, models.TradeBuy, "ethereum", 1).OK)
	assert.Positive(t, s.Flush(ctx))
	assert.Empty(t, s.Dirty())

	restored := NewSession(testMarket(), store, testSettings)
	require.NoError(t, restored.Load(ctx))
	assert.Len(t, restored.TradeHistory(0), 4)
	_, ok := restored.ledger.Position("bitcoin")
	assert.True(t, ok)
}
