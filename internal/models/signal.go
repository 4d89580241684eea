package models

import "time"

type Trend string

const (
	TrendStrongBull Trend = "STRONG_BULL"
	TrendBull       Trend = "BULL"
	TrendNeutral    Trend = "NEUTRAL"
	TrendBear       Trend = "BEAR"
	TrendStrongBear Trend = "STRONG_BEAR"
)

type Indicators struct {
	RSI                float64 `json:"rsi"`
	Trend              Trend   `json:"trend"`
	Volatility         float64 `json:"volatility"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	Volume             float64 `json:"volume"`
	CurrentPrice       float64 `json:"currentPrice"`
}

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

type Targets struct {
	TakeProfit float64 `json:"takeProfit"`
	StopLoss   float64 `json:"stopLoss"`
}

type Signal struct {
	Symbol      string     `json:"symbol"`
	Action      Action     `json:"action"`
	Confidence  int        `json:"confidence"`
	ShouldTrade bool       `json:"shouldTrade"`
	Price       float64    `json:"price"`
	Reasons     []string   `json:"reasons"`
	Indicators  Indicators `json:"indicators"`
	Targets     Targets    `json:"targets"`
	Timestamp   time.Time  `json:"timestamp"`
	ExpiresAt   time.Time  `json:"expiresAt,omitempty"`
}

// Expired true если у сигнала задан срок и он прошёл.
func (s Signal) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
