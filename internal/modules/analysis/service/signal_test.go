package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptosim/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestGenerateSignal_Votes(t *testing.T) {
	cases := []struct {
		name        string
		ind         models.Indicators
		action      models.Action
		confidence  int
		shouldTrade bool
		reasons     int
	}{
		{
			name:   "oversold only",
			ind:    models.Indicators{RSI: 25, Trend: models.TrendBull, PriceChangePercent: 1, Volatility: 1, CurrentPrice: 10},
			action: models.ActionBuy, confidence: 100, shouldTrade: true, reasons: 1,
		},
		{
			name:   "overbought and strong bear",
			ind:    models.Indicators{RSI: 80, Trend: models.TrendStrongBear, PriceChangePercent: -3, Volatility: 3, CurrentPrice: 10},
			action: models.ActionSell, confidence: 100, shouldTrade: true, reasons: 2,
		},
		{
			name:   "tie is hold",
			ind:    models.Indicators{RSI: 27.5, Trend: models.TrendStrongBear, PriceChangePercent: -25, Volatility: 25, CurrentPrice: 10},
			action: models.ActionHold, confidence: 0, shouldTrade: false, reasons: 3,
		},
		{
			name:   "no votes",
			ind:    models.Indicators{RSI: 50, Trend: models.TrendNeutral, CurrentPrice: 10},
			action: models.ActionHold, confidence: 0, shouldTrade: false, reasons: 0,
		},
		{
			name:   "high volatility is informational",
			ind:    models.Indicators{RSI: 50, Trend: models.TrendBear, PriceChangePercent: -1, Volatility: 6, CurrentPrice: 10},
			action: models.ActionHold, confidence: 0, shouldTrade: false, reasons: 1,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := GenerateSignal("X", c.ind, t0)
			assert.Equal(t, c.action, s.Action)
			assert.Equal(t, c.confidence, s.Confidence)
			assert.Equal(t, c.shouldTrade, s.ShouldTrade)
			assert.Len(t, s.Reasons, c.reasons)
			if s.Action == models.ActionHold {
				assert.Equal(t, models.Targets{}, s.Targets)
			}
		})
	}
}

func TestGenerateSignal_ReasonFormatting(t *testing.T) {
	s := GenerateSignal("BTCUSDT", models.Indicators{
		RSI: 25.04, Trend: models.TrendStrongBull, PriceChangePercent: 6.456, Volatility: 6.456, CurrentPrice: 100,
	}, t0)

	require.Len(t, s.Reasons, 3)
	assert.Equal(t, "RSI (25.0) показывает перепроданность - хорошая точка для входа", s.Reasons[0])
	assert.Equal(t, "Сильный бычий тренд (+6.46%) - движение вверх", s.Reasons[1])
	assert.Equal(t, "Высокая волатильность (6.46%) - осторожность с позициями", s.Reasons[2])
}

func TestTargets(t *testing.T) {
	assert.Equal(t, models.Targets{TakeProfit: 103, StopLoss: 97}, Targets(100, models.ActionBuy))
	assert.Equal(t, models.Targets{TakeProfit: 97, StopLoss: 103}, Targets(100, models.ActionSell))
	assert.Equal(t, models.Targets{}, Targets(100, models.ActionHold))
}

type stubTicker struct {
	snap models.AssetSnapshot
	err  error
}

func (s stubTicker) FetchTicker(context.Context, string) (models.AssetSnapshot, error) {
	return s.snap, s.err
}

func TestAnalyze_StrongBullBTC(t *testing.T) {
	a := NewAnalyzer(stubTicker{snap: models.AssetSnapshot{
		Pair: "BTCUSDT", CurrentPrice: 50000, PriceChangePercent24h: 3.5, Volume: 1000,
	}}, NewEngine(fixedRand(0.5)))
	a.now = func() time.Time { return t0 }

	s := a.Analyze(context.Background(), "btcusdt")

	assert.Equal(t, "BTCUSDT", s.Symbol)
	assert.Equal(t, models.TrendStrongBull, s.Indicators.Trend)
	assert.Equal(t, models.ActionBuy, s.Action)
	assert.Equal(t, 100, s.Confidence)
	assert.True(t, s.ShouldTrade)
	assert.Equal(t, 51500.0, s.Targets.TakeProfit)
	assert.Equal(t, 48500.0, s.Targets.StopLoss)
	assert.Contains(t, s.Reasons, "Сильный бычий тренд (+3.50%) - движение вверх")
	assert.Equal(t, t0, s.Timestamp)
}

func TestAnalyze_FetchErrorGivesDefault(t *testing.T) {
	a := NewAnalyzer(stubTicker{err: errors.New("network down")}, NewEngine(fixedRand(0.5)))

	s := a.Analyze(context.Background(), "ETHUSDT")

	assert.Equal(t, models.ActionHold, s.Action)
	assert.Equal(t, 0, s.Confidence)
	assert.False(t, s.ShouldTrade)
	assert.Equal(t, 0.0, s.Price)
	assert.Equal(t, []string{"Ошибка получения данных"}, s.Reasons)
}
