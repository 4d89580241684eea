package service

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"cryptosim/internal/models"
)

// Random источник случайности для RSI. Подменяется в тестах.
type Random interface {
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom seed 0 значит сид от текущего времени.
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Engine игрушечные индикаторы по одному снимку. Это не настоящий теханализ.
type Engine struct {
	rnd Random
}

func NewEngine(rnd Random) *Engine {
	return &Engine{rnd: rnd}
}

func (e *Engine) Compute(s models.AssetSnapshot) models.Indicators {
	pct := s.PriceChangePercent24h
	return models.Indicators{
		RSI:                e.rsi(pct),
		Trend:              ClassifyTrend(pct),
		Volatility:         math.Abs(pct),
		PriceChangePercent: pct,
		Volume:             s.Volume,
		CurrentPrice:       s.CurrentPrice,
	}
}

// rsi = 50 + U(-10,10) + pct*0.5, зажатый в [0,100].
func (e *Engine) rsi(pct float64) float64 {
	base := 50 + (e.rnd.Float64()*20 - 10)
	return math.Min(100, math.Max(0, base+pct*0.5))
}

// ClassifyTrend границы строгие: ровно 2.0 это BULL, ровно 0 это NEUTRAL.
func ClassifyTrend(pct float64) models.Trend {
	switch {
	case pct > 2:
		return models.TrendStrongBull
	case pct > 0:
		return models.TrendBull
	case pct < -2:
		return models.TrendStrongBear
	case pct < 0:
		return models.TrendBear
	default:
		return models.TrendNeutral
	}
}
