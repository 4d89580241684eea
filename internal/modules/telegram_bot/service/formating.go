package service

import (
	"fmt"
	"strings"

	"cryptosim/internal/models"
	marketsvc "cryptosim/internal/modules/market/service"
)

const startText = "🚀 Добро пожаловать в космический крипто-симулятор!\n\n" +
	"Торгуйте виртуальными кредитами по реальным ценам, получайте опыт и достижения.\n\n" +
	"/market - обзор рынка\n" +
	"/signal BTCUSDT - анализ пары\n" +
	"/signals - последние сигналы\n" +
	"/buy BTC 0.01 - купить\n" +
	"/sell BTC 0.01 - продать\n" +
	"/add BTC 0.5 42000 - добавить актив вручную\n" +
	"/remove BTC - убрать позицию\n" +
	"/portfolio - портфель\n" +
	"/history 10 - история сделок\n" +
	"/achievements - достижения\n" +
	"/quests - ежедневные задания\n" +
	"/lessons - уроки\n" +
	"/profile - профиль"

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatMarket(snaps []models.AssetSnapshot, stats models.MarketStats, fallback bool) string {
	if len(snaps) == 0 {
		return "📭 Данных рынка пока нет, попробуйте позже"
	}
	var b strings.Builder
	b.WriteString("📈 Рынок\n\n")
	for _, s := range snaps {
		fmt.Fprintf(&b, "%s %s: %s %s\n", s.Symbol, s.Name,
			marketsvc.FormatPrice(s.CurrentPrice), marketsvc.FormatChange(s.PriceChangePercent24h))
	}
	fmt.Fprintf(&b, "\nКапитализация: %s\nОбъём 24ч: %s",
		marketsvc.FormatCurrency(stats.TotalMarketCap), marketsvc.FormatCurrency(stats.TotalVolume))
	if fallback {
		b.WriteString("\n\n⚠️ Источник недоступен, показаны резервные данные")
	}
	return b.String()
}

func actionIcon(a models.Action) string {
	switch a {
	case models.ActionBuy:
		return "🟢"
	case models.ActionSell:
		return "🔴"
	default:
		return "⚪️"
	}
}

func formatSignal(s models.Signal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s (уверенность %d%%)\n", actionIcon(s.Action), s.Symbol, s.Action, s.Confidence)
	if s.Price > 0 {
		fmt.Fprintf(&b, "Цена: %s\n", marketsvc.FormatPrice(s.Price))
		fmt.Fprintf(&b, "RSI: %.1f, тренд: %s\n", s.Indicators.RSI, s.Indicators.Trend)
	}
	if s.Action != models.ActionHold && s.Targets.TakeProfit > 0 {
		fmt.Fprintf(&b, "TP: %s, SL: %s\n",
			marketsvc.FormatPrice(s.Targets.TakeProfit), marketsvc.FormatPrice(s.Targets.StopLoss))
	}
	for _, r := range s.Reasons {
		fmt.Fprintf(&b, "• %s\n", r)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSignals(signals []models.Signal) string {
	if len(signals) == 0 {
		return "📭 Свежих сигналов нет"
	}
	parts := make([]string, 0, len(signals))
	for _, s := range signals {
		parts = append(parts, formatSignal(s))
	}
	return "🎯 Последние сигналы\n\n" + strings.Join(parts, "\n\n")
}

func formatPortfolio(v models.Valuation, positions []models.Position, prices map[string]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💼 Портфель\n\nКредиты: $%s\n", f2(v.Credits))
	if len(positions) == 0 {
		b.WriteString("Позиций нет")
		return b.String()
	}
	for _, p := range positions {
		line := fmt.Sprintf("%s: %.8g по $%s", p.Symbol, p.Amount, f2(p.AverageBuyPrice))
		if price, ok := prices[p.AssetID]; ok {
			line += fmt.Sprintf(" → %s", marketsvc.FormatPrice(price))
		} else {
			line += " (нет цены)"
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "\nСтоимость: $%s\nВложено: $%s\nP&L: $%s (%s%%)\nЗа 24ч: $%s",
		f2(v.TotalValue), f2(v.InvestedCost), f2(v.UnrealizedProfit), f2(v.ProfitPercent), f2(v.DailyProfitEstimate))
	return b.String()
}

func formatHistory(trades []models.Trade) string {
	if len(trades) == 0 {
		return "📭 Сделок пока нет"
	}
	var b strings.Builder
	b.WriteString("📜 История сделок\n\n")
	for _, tr := range trades {
		verb := "Покупка"
		if tr.Type == models.TradeSell {
			verb = "Продажа"
		}
		fmt.Fprintf(&b, "%s %s %.8g %s по $%s = $%s\n",
			tr.Timestamp.Format("02.01 15:04"), verb, tr.Amount, tr.Symbol, f2(tr.Price), f2(tr.Total))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAchievements(list []models.Achievement) string {
	var b strings.Builder
	b.WriteString("🏆 Достижения\n\n")
	for _, a := range list {
		mark := "🔒"
		if a.Unlocked {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s %s: %s (+$%s, +%d XP)\n", mark, a.Icon, a.Title, a.Description, f2(a.RewardCredits), a.RewardXP)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatQuests(q models.DailyQuests) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🗓 Задания на %s\n\n", q.Date)
	for _, quest := range q.Quests {
		mark := "▫️"
		if quest.Completed {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s %d/%d (+$%s)\n", mark, quest.Title, quest.Progress, quest.Target, f2(quest.RewardCredits))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatLessons(list []models.Lesson) string {
	var b strings.Builder
	b.WriteString("📚 Уроки\n\n")
	for _, l := range list {
		mark := "📖"
		if l.Progress >= 100 {
			mark = "🎓"
		}
		fmt.Fprintf(&b, "%s %d. %s: %d%%\n", mark, l.ID, l.Title, l.Progress)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatProfile(p models.Profile) string {
	s := fmt.Sprintf("👤 Профиль\n\nРанг: %s\nОпыт: %d XP\nКредиты: $%s\nДостижений: %d",
		p.Rank, p.Experience, f2(p.Credits), p.Unlocked)
	if p.NextRank != "" {
		s += fmt.Sprintf("\nДо ранга «%s»: %d XP", p.NextRank, p.XPToNext)
	}
	return s
}

// formatResult сообщение операции плюс новый ранг и открытые достижения.
func formatResult(r models.Result) string {
	if !r.OK {
		return "❌ " + r.Message
	}
	var b strings.Builder
	b.WriteString(r.Message)
	if r.RankUp != "" {
		fmt.Fprintf(&b, "\n🎖 Новый ранг: %s", r.RankUp)
	}
	for _, a := range r.Unlocked {
		fmt.Fprintf(&b, "\n🏆 Достижение: %s %s (+$%s)", a.Icon, a.Title, f2(a.RewardCredits))
	}
	return b.String()
}
