package models

import (
	"math"
	"time"
)

// AssetSnapshot точка рыночных данных. После создания не меняется.
type AssetSnapshot struct {
	ID                    string    `json:"id"`
	Symbol                string    `json:"symbol"`
	Name                  string    `json:"name"`
	Pair                  string    `json:"pair,omitempty"`
	CurrentPrice          float64   `json:"currentPrice"`
	PriceChangePercent24h float64   `json:"priceChangePercent24h"`
	Volume                float64   `json:"volume"`
	High                  float64   `json:"high,omitempty"`
	Low                   float64   `json:"low,omitempty"`
	Open                  float64   `json:"open,omitempty"`
	MarketCap             float64   `json:"marketCap,omitempty"`
	FetchedAt             time.Time `json:"fetchedAt"`
}

func (a AssetSnapshot) Valid() bool {
	if a.ID == "" && a.Pair == "" {
		return false
	}
	if math.IsNaN(a.CurrentPrice) || math.IsInf(a.CurrentPrice, 0) || a.CurrentPrice <= 0 {
		return false
	}
	if math.IsNaN(a.PriceChangePercent24h) || math.IsInf(a.PriceChangePercent24h, 0) {
		return false
	}
	return !math.IsNaN(a.Volume) && a.Volume >= 0
}

type MarketStats struct {
	TotalMarketCap float64 `json:"totalMarketCap"`
	TotalVolume    float64 `json:"totalVolume"`
	Assets         int     `json:"assets"`
}
