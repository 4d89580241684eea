package service

import (
	"math"
	"sort"
	"time"

	"cryptosim/internal/models"

	"github.com/google/uuid"
)

// amountEpsilon остаток позиции, который считаем нулём.
const amountEpsilon = 1e-9

// PriceLookup текущий снимок актива по id.
type PriceLookup interface {
	Get(assetID string) (models.AssetSnapshot, bool)
}

// Ledger кредиты, позиции и журнал сделок. Не потокобезопасен, защищается Session.
type Ledger struct {
	credits   float64
	positions map[string]*models.Position
	trades    []models.Trade // новые первыми

	stats        models.TradeStats
	assetsTraded map[string]struct{}

	newID func() string
	now   func() time.Time
}

func NewLedger(startingCredits float64) *Ledger {
	return &Ledger{
		credits:      startingCredits,
		positions:    make(map[string]*models.Position),
		assetsTraded: make(map[string]struct{}),
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

func validQty(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ExecuteTrade сначала всё проверяет, потом меняет состояние. При ошибке ничего не меняется.
func (l *Ledger) ExecuteTrade(tt models.TradeType, assetID, symbol string, amount, price float64) (models.Trade, error) {
	if !tt.Valid() || assetID == "" {
		return models.Trade{}, ErrInvalidAmount
	}
	if !validQty(amount) || !validQty(price) {
		return models.Trade{}, ErrInvalidAmount
	}
	total := amount * price
	pos := l.positions[assetID]

	switch tt {
	case models.TradeBuy:
		if total > l.credits {
			return models.Trade{}, tradeErrorf(KindInsufficientFunds,
				"Недостаточно средств: нужно $%.2f, доступно $%.2f", total, l.credits)
		}
	case models.TradeSell:
		if pos == nil {
			return models.Trade{}, ErrNoPosition
		}
		if amount > pos.Amount+amountEpsilon {
			return models.Trade{}, tradeErrorf(KindInsufficientHoldings,
				"Недостаточно %s: есть %.8g, продаётся %.8g", pos.Symbol, pos.Amount, amount)
		}
	}

	now := l.now()
	trade := models.Trade{
		ID:        l.newID(),
		Type:      tt,
		AssetID:   assetID,
		Symbol:    symbol,
		Amount:    amount,
		Price:     price,
		Total:     total,
		Timestamp: now,
	}

	switch tt {
	case models.TradeBuy:
		l.credits -= total
		l.mergePosition(assetID, symbol, amount, price, now)
		l.stats.Buys++
	case models.TradeSell:
		if price > pos.AverageBuyPrice {
			l.stats.ProfitableSells++
		}
		l.credits += total
		pos.Amount -= amount
		pos.LastUpdated = now
		if pos.Amount <= amountEpsilon {
			delete(l.positions, assetID)
		}
		l.stats.Sells++
	}

	l.trades = append([]models.Trade{trade}, l.trades...)
	l.stats.TotalTrades++
	l.assetsTraded[assetID] = struct{}{}
	l.stats.DistinctAssets = len(l.assetsTraded)

	return trade, nil
}

// AddHolding ручное добавление актива: без списания кредитов и без записи в журнал.
func (l *Ledger) AddHolding(assetID, symbol string, amount, buyPrice float64) error {
	if assetID == "" || !validQty(amount) || !validQty(buyPrice) {
		return ErrInvalidAmount
	}
	l.mergePosition(assetID, symbol, amount, buyPrice, l.now())
	return nil
}

// mergePosition средняя цена взвешивается по количеству.
func (l *Ledger) mergePosition(assetID, symbol string, amount, price float64, now time.Time) {
	pos, ok := l.positions[assetID]
	if !ok {
		l.positions[assetID] = &models.Position{
			AssetID:         assetID,
			Symbol:          symbol,
			Amount:          amount,
			AverageBuyPrice: price,
			LastUpdated:     now,
		}
		return
	}
	newAmount := pos.Amount + amount
	pos.AverageBuyPrice = (pos.Amount*pos.AverageBuyPrice + amount*price) / newAmount
	pos.Amount = newAmount
	pos.LastUpdated = now
}

func (l *Ledger) RemovePosition(assetID string) bool {
	if _, ok := l.positions[assetID]; !ok {
		return false
	}
	delete(l.positions, assetID)
	return true
}

// Deposit начисление наград. Неположительные суммы игнорируются.
func (l *Ledger) Deposit(amount float64) {
	if validQty(amount) {
		l.credits += amount
	}
}

func (l *Ledger) Credits() float64 { return l.credits }

func (l *Ledger) Stats() models.TradeStats { return l.stats }

func (l *Ledger) Position(assetID string) (models.Position, bool) {
	p, ok := l.positions[assetID]
	if !ok {
		return models.Position{}, false
	}
	return *p, true
}

// Positions копии, отсортированы по id актива.
func (l *Ledger) Positions() []models.Position {
	out := make([]models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out
}

// TradeHistory новые первыми. limit <= 0 значит все.
func (l *Ledger) TradeHistory(limit int) []models.Trade {
	n := len(l.trades)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Trade, n)
	copy(out, l.trades[:n])
	return out
}

// Valuation позиции без снимка пропускаются и попадают в Missing.
func (l *Ledger) Valuation(prices PriceLookup) models.Valuation {
	v := models.Valuation{Credits: l.credits}
	for _, p := range l.Positions() {
		snap, ok := prices.Get(p.AssetID)
		if !ok {
			v.Missing = append(v.Missing, p.AssetID)
			continue
		}
		value := p.Amount * snap.CurrentPrice
		v.TotalValue += value
		v.InvestedCost += p.Amount * p.AverageBuyPrice
		if pct := snap.PriceChangePercent24h; pct > -100 {
			v.DailyProfitEstimate += value * pct / (100 + pct)
		}
	}
	v.UnrealizedProfit = v.TotalValue - v.InvestedCost
	if v.InvestedCost > 0 {
		v.ProfitPercent = v.UnrealizedProfit / v.InvestedCost * 100
	}
	return v
}
