package reporting

import (
	"fmt"
	"io"

	"cryptosim/internal/models"
	marketsvc "cryptosim/internal/modules/market/service"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func RenderMarket(w io.Writer, snaps []models.AssetSnapshot, stats models.MarketStats, fallback bool) {
	title := "MARKET"
	if fallback {
		title += " (fallback data)"
	}
	t := newTable(w, title)
	t.AppendHeader(table.Row{"Symbol", "Name", "Price", "24h", "Volume", "Market cap"})
	for _, s := range snaps {
		t.AppendRow(table.Row{
			s.Symbol,
			s.Name,
			marketsvc.FormatPrice(s.CurrentPrice),
			marketsvc.FormatChange(s.PriceChangePercent24h),
			marketsvc.FormatCurrency(s.Volume),
			marketsvc.FormatCurrency(s.MarketCap),
		})
	}
	t.AppendFooter(table.Row{"", "Total", "", "", marketsvc.FormatCurrency(stats.TotalVolume), marketsvc.FormatCurrency(stats.TotalMarketCap)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()
}

func RenderSignals(w io.Writer, signals []models.Signal) {
	t := newTable(w, "SIGNALS")
	t.AppendHeader(table.Row{"Pair", "Action", "Confidence", "Price", "RSI", "Trend", "TP", "SL"})
	for _, s := range signals {
		tp, sl := "-", "-"
		if s.Action != models.ActionHold && s.Targets.TakeProfit > 0 {
			tp = marketsvc.FormatPrice(s.Targets.TakeProfit)
			sl = marketsvc.FormatPrice(s.Targets.StopLoss)
		}
		t.AppendRow(table.Row{
			s.Symbol,
			s.Action,
			fmt.Sprintf("%d%%", s.Confidence),
			marketsvc.FormatPrice(s.Price),
			fmt.Sprintf("%.1f", s.Indicators.RSI),
			s.Indicators.Trend,
			tp,
			sl,
		})
	}
	t.Render()
}

// RenderPortfolio позиции без цены помечаются "n/a".
func RenderPortfolio(w io.Writer, v models.Valuation, positions []models.Position, prices map[string]float64) {
	t := newTable(w, "PORTFOLIO")
	t.AppendHeader(table.Row{"Asset", "Amount", "Avg price", "Price", "Value", "P&L"})
	for _, p := range positions {
		price, ok := prices[p.AssetID]
		if !ok {
			t.AppendRow(table.Row{p.Symbol, fmt.Sprintf("%.8g", p.Amount), marketsvc.FormatPrice(p.AverageBuyPrice), "n/a", "n/a", "n/a"})
			continue
		}
		value := p.Amount * price
		t.AppendRow(table.Row{
			p.Symbol,
			fmt.Sprintf("%.8g", p.Amount),
			marketsvc.FormatPrice(p.AverageBuyPrice),
			marketsvc.FormatPrice(price),
			fmt.Sprintf("$%.2f", value),
			fmt.Sprintf("$%.2f", value-p.Amount*p.AverageBuyPrice),
		})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Credits", "", "", "", fmt.Sprintf("$%.2f", v.Credits), ""},
		{"Holdings", "", "", "", fmt.Sprintf("$%.2f", v.TotalValue), fmt.Sprintf("$%.2f (%.2f%%)", v.UnrealizedProfit, v.ProfitPercent)},
		{"24h est.", "", "", "", "", fmt.Sprintf("$%.2f", v.DailyProfitEstimate)},
	})
	t.Render()
}
