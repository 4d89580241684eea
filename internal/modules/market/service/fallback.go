package service

import (
	_ "embed"
	"time"

	"cryptosim/internal/models"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type fallbackAsset struct {
	ID        string  `yaml:"id"`
	Symbol    string  `yaml:"symbol"`
	Name      string  `yaml:"name"`
	Pair      string  `yaml:"pair"`
	Price     float64 `yaml:"price"`
	Change24h float64 `yaml:"change_24h"`
	MarketCap float64 `yaml:"market_cap"`
	Volume    float64 `yaml:"volume"`
}

// Fallback статичный набор снимков, FetchedAt = now.
type Fallback struct {
	assets []fallbackAsset
}

func NewFallback() (*Fallback, error) {
	return parseFallback(fallbackYAML)
}

func parseFallback(raw []byte) (*Fallback, error) {
	var assets []fallbackAsset
	if err := yaml.Unmarshal(raw, &assets); err != nil {
		return nil, errors.Wrap(err, "decode fallback catalogue")
	}
	if len(assets) < 2 {
		return nil, errors.Errorf("fallback catalogue has %d assets, need at least 2", len(assets))
	}
	return &Fallback{assets: assets}, nil
}

func (f *Fallback) Snapshots(now time.Time) []models.AssetSnapshot {
	out := make([]models.AssetSnapshot, 0, len(f.assets))
	for _, a := range f.assets {
		out = append(out, models.AssetSnapshot{
			ID:                    a.ID,
			Symbol:                a.Symbol,
			Name:                  a.Name,
			Pair:                  a.Pair,
			CurrentPrice:          a.Price,
			PriceChangePercent24h: a.Change24h,
			Volume:                a.Volume,
			MarketCap:             a.MarketCap,
			Open:                  openFromChange(a.Price, a.Change24h),
			FetchedAt:             now,
		})
	}
	return out
}
