package service

import (
	"fmt"
	"math"
	"time"

	"cryptosim/internal/models"
)

const (
	rsiOversold        = 30
	rsiOverbought      = 70
	highVolatility     = 5
	tradeConfidenceMin = 40
	targetPct          = 0.03
)

const dataErrorReason = "Ошибка получения данных"

// GenerateSignal голосование RSI и тренда. Ничья даёт HOLD с нулевой уверенностью.
func GenerateSignal(symbol string, ind models.Indicators, now time.Time) models.Signal {
	var buy, sell int
	reasons := make([]string, 0, 3)

	switch {
	case ind.RSI < rsiOversold:
		buy++
		reasons = append(reasons, fmt.Sprintf("RSI (%.1f) показывает перепроданность - хорошая точка для входа", ind.RSI))
	case ind.RSI > rsiOverbought:
		sell++
		reasons = append(reasons, fmt.Sprintf("RSI (%.1f) показывает перекупленность - возможна коррекция", ind.RSI))
	}

	switch ind.Trend {
	case models.TrendStrongBull:
		buy++
		reasons = append(reasons, fmt.Sprintf("Сильный бычий тренд (+%.2f%%) - движение вверх", ind.PriceChangePercent))
	case models.TrendStrongBear:
		sell++
		reasons = append(reasons, fmt.Sprintf("Сильный медвежий тренд (%.2f%%) - давление продавцов", ind.PriceChangePercent))
	}

	if ind.Volatility > highVolatility {
		reasons = append(reasons, fmt.Sprintf("Высокая волатильность (%.2f%%) - осторожность с позициями", ind.Volatility))
	}

	action := models.ActionHold
	confidence := 0.0
	switch {
	case buy > sell:
		action = models.ActionBuy
		confidence = float64(buy) / float64(buy+sell) * 100
	case sell > buy:
		action = models.ActionSell
		confidence = float64(sell) / float64(buy+sell) * 100
	}
	conf := int(math.Round(confidence))

	return models.Signal{
		Symbol:      symbol,
		Action:      action,
		Confidence:  conf,
		ShouldTrade: conf > tradeConfidenceMin && action != models.ActionHold,
		Price:       ind.CurrentPrice,
		Reasons:     reasons,
		Indicators:  ind,
		Targets:     Targets(ind.CurrentPrice, action),
		Timestamp:   now,
	}
}

// Targets +-3% от цены в сторону сделки, округлено до центов.
func Targets(price float64, action models.Action) models.Targets {
	switch action {
	case models.ActionBuy:
		return models.Targets{TakeProfit: round2(price * (1 + targetPct)), StopLoss: round2(price * (1 - targetPct))}
	case models.ActionSell:
		return models.Targets{TakeProfit: round2(price * (1 - targetPct)), StopLoss: round2(price * (1 + targetPct))}
	default:
		return models.Targets{}
	}
}

// DefaultSignal ответ при любой ошибке получения данных.
func DefaultSignal(symbol string, now time.Time) models.Signal {
	return models.Signal{
		Symbol:     symbol,
		Action:     models.ActionHold,
		Confidence: 0,
		Reasons:    []string{dataErrorReason},
		Timestamp:  now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
