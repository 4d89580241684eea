package models

import "time"

type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

func (t TradeType) Valid() bool {
	return t == TradeBuy || t == TradeSell
}

type Position struct {
	AssetID         string    `json:"assetId"`
	Symbol          string    `json:"symbol"`
	Amount          float64   `json:"amount"`
	AverageBuyPrice float64   `json:"averageBuyPrice"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

type Trade struct {
	ID        string    `json:"id"`
	Type      TradeType `json:"type"`
	AssetID   string    `json:"assetId"`
	Symbol    string    `json:"symbol"`
	Amount    float64   `json:"amount"`
	Price     float64   `json:"price"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

type Valuation struct {
	Credits             float64  `json:"credits"`
	TotalValue          float64  `json:"totalValue"`
	InvestedCost        float64  `json:"investedCost"`
	UnrealizedProfit    float64  `json:"unrealizedProfit"`
	ProfitPercent       float64  `json:"profitPercent"`
	DailyProfitEstimate float64  `json:"dailyProfitEstimate"`
	Missing             []string `json:"missing,omitempty"`
}

type TradeStats struct {
	TotalTrades     int `json:"totalTrades"`
	Buys            int `json:"buys"`
	Sells           int `json:"sells"`
	DistinctAssets  int `json:"distinctAssets"`
	ProfitableSells int `json:"profitableSells"`
}

// Result ответ мутирующих операций. Message пригоден для показа пользователю.
type Result struct {
	OK       bool          `json:"ok"`
	Message  string        `json:"message"`
	Trade    *Trade        `json:"trade,omitempty"`
	RankUp   string        `json:"rankUp,omitempty"`
	Unlocked []Achievement `json:"unlocked,omitempty"`
	Err      error         `json:"-"`
}
