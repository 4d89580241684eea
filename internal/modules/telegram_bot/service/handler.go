package service

import (
	"context"
	"strings"

	"cryptosim/internal/models"
	"cryptosim/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultHistory = 10

// Кнопки главного меню.
const (
	btnMarket       = "📈 Рынок"
	btnSignals      = "🎯 Сигналы"
	btnPortfolio    = "💼 Портфель"
	btnHistory      = "📜 История"
	btnAchievements = "🏆 Достижения"
	btnQuests       = "🗓 Задания"
	btnLessons      = "📚 Уроки"
	btnProfile      = "👤 Профиль"
)

var buttonCommands = map[string]string{
	btnMarket:       "market",
	btnSignals:      "signals",
	btnPortfolio:    "portfolio",
	btnHistory:      "history",
	btnAchievements: "achievements",
	btnQuests:       "quests",
	btnLessons:      "lessons",
	btnProfile:      "profile",
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMarket),
			tgbotapi.NewKeyboardButton(btnSignals),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnPortfolio),
			tgbotapi.NewKeyboardButton(btnHistory),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAchievements),
			tgbotapi.NewKeyboardButton(btnQuests),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnLessons),
			tgbotapi.NewKeyboardButton(btnProfile),
		),
	)
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// 1) Обычные сообщения
	if msg := update.Message; msg != nil {
		if msg.Chat == nil {
			return
		}
		chatID := msg.Chat.ID
		if !t.allowed(chatID) {
			_, _ = t.Send(ctx, chatID, "⛔️ Этот бот привязан к другому профилю")
			return
		}

		if msg.IsCommand() {
			t.handleCommand(ctx, chatID, msg.Command(), strings.Fields(msg.CommandArguments()))
			return
		}

		// кнопки клавиатуры
		if cmd, ok := buttonCommands[strings.TrimSpace(msg.Text)]; ok {
			t.handleCommand(ctx, chatID, cmd, nil)
			return
		}
		_, _ = t.Send(ctx, chatID, "Не понял команду, список команд: /start")
		return
	}

	// 2) Inline-кнопки
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		chatID := cb.Message.Chat.ID
		if !t.allowed(chatID) {
			return
		}
		t.handleCallback(ctx, chatID, cb)
	}
}

func (t *Telegram) handleCommand(ctx context.Context, chatID int64, cmd string, args []string) {
	var err error
	switch cmd {
	case "start", "help":
		msg := tgbotapi.NewMessage(chatID, startText)
		msg.ReplyMarkup = mainKeyboard()
		_, err = t.SendMessage(ctx, msg)
	case "market":
		_, err = t.Send(ctx, chatID, formatMarket(t.market.Snapshots(), t.market.Stats(), t.market.UsingFallback()))
	case "signal":
		err = t.handleSignal(ctx, chatID, args)
	case "signals":
		_, err = t.Send(ctx, chatID, formatSignals(t.feed.Signals(0)))
	case "buy":
		err = t.handleTrade(ctx, chatID, models.TradeBuy, args)
	case "sell":
		err = t.handleTrade(ctx, chatID, models.TradeSell, args)
	case "add":
		err = t.handleAdd(ctx, chatID, args)
	case "remove":
		if len(args) != 1 {
			_, err = t.Send(ctx, chatID, "Формат: /remove BTC")
			break
		}
		_, err = t.Send(ctx, chatID, formatResult(t.session.RemoveFromPortfolio(ctx, args[0])))
	case "portfolio":
		_, err = t.Send(ctx, chatID, t.portfolioText())
	case "history":
		n := defaultHistory
		if len(args) > 0 {
			if v := mustInt(args[0]); v > 0 {
				n = v
			}
		}
		_, err = t.Send(ctx, chatID, formatHistory(t.session.TradeHistory(n)))
	case "achievements":
		_, err = t.Send(ctx, chatID, formatAchievements(t.session.Achievements()))
	case "quests":
		_, err = t.Send(ctx, chatID, formatQuests(t.session.Quests()))
	case "lessons":
		err = t.handleLessons(ctx, chatID)
	case "lesson":
		if len(args) != 2 {
			_, err = t.Send(ctx, chatID, "Формат: /lesson 1 50")
			break
		}
		res := t.session.UpdateLessonProgress(ctx, mustInt(args[0]), mustInt(args[1]))
		_, err = t.Send(ctx, chatID, formatResult(res))
	case "profile":
		_, err = t.Send(ctx, chatID, formatProfile(t.session.Profile()))
	default:
		_, err = t.Send(ctx, chatID, "Неизвестная команда, список команд: /start")
	}
	if err != nil {
		logger.Error("telegram: /%s: %v", cmd, err)
	}
}

func (t *Telegram) handleSignal(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 1 {
		_, err := t.Send(ctx, chatID, "Формат: /signal BTCUSDT")
		return err
	}
	sig := t.analyzer.Analyze(ctx, args[0])
	t.feed.Push(sig)
	t.session.MarkSignalViewed()

	msg := tgbotapi.NewMessage(chatID, formatSignal(sig))
	if snap, ok := t.market.FindBySymbol(sig.Symbol); ok {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🟢 Купить на $"+f2(t.cfg.Simulator.QuickTradeCredits), callbackData(cbTrade, string(models.TradeBuy), snap.ID)),
				tgbotapi.NewInlineKeyboardButtonData("🔴 Продать на $"+f2(t.cfg.Simulator.QuickTradeCredits), callbackData(cbTrade, string(models.TradeSell), snap.ID)),
			),
		)
	}
	_, err := t.SendMessage(ctx, msg)
	return err
}

func (t *Telegram) handleTrade(ctx context.Context, chatID int64, tt models.TradeType, args []string) error {
	if len(args) != 2 {
		_, err := t.SendF(ctx, chatID, "Формат: /%s BTC 0.01", tt)
		return err
	}
	amount, err := parseFloat(args[1])
	if err != nil {
		_, err = t.Send(ctx, chatID, "❌ Количество должно быть числом")
		return err
	}
	_, err = t.Send(ctx, chatID, formatResult(t.session.ExecuteTrade(ctx, tt, args[0], amount)))
	return err
}

func (t *Telegram) handleAdd(ctx context.Context, chatID int64, args []string) error {
	if len(args) != 3 {
		_, err := t.Send(ctx, chatID, "Формат: /add BTC 0.5 42000")
		return err
	}
	amount, err := parseFloat(args[1])
	if err != nil {
		_, err = t.Send(ctx, chatID, "❌ Количество должно быть числом")
		return err
	}
	price, err := parseFloat(args[2])
	if err != nil {
		_, err = t.Send(ctx, chatID, "❌ Цена должна быть числом")
		return err
	}
	_, err = t.Send(ctx, chatID, formatResult(t.session.AddToPortfolio(ctx, args[0], amount, price)))
	return err
}

func (t *Telegram) portfolioText() string {
	positions := t.session.Positions()
	prices := make(map[string]float64, len(positions))
	for _, p := range positions {
		if price, ok := t.market.Price(p.AssetID); ok {
			prices[p.AssetID] = price
		}
	}
	return formatPortfolio(t.session.Valuation(), positions, prices)
}

func (t *Telegram) handleLessons(ctx context.Context, chatID int64) error {
	lessons := t.session.Lessons()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(lessons))
	for _, l := range lessons {
		if l.Progress >= 100 {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 "+l.Title+" +25%", callbackData(cbLesson, itoa(l.ID))),
		))
	}
	msg := tgbotapi.NewMessage(chatID, formatLessons(lessons))
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err := t.SendMessage(ctx, msg)
	return err
}

func (t *Telegram) handleCallback(ctx context.Context, chatID int64, cb *tgbotapi.CallbackQuery) {
	// отвечаем ТГ, чтобы убрать "часики" на кнопке
	_, _ = t.bot.Request(tgbotapi.NewCallback(cb.ID, ""))

	parts := parseCallback(cb.Data)
	if len(parts) == 0 {
		return
	}

	var text string
	switch {
	case parts[0] == cbTrade && len(parts) == 3:
		text = t.quickTrade(ctx, models.TradeType(parts[1]), parts[2])
	case parts[0] == cbLesson && len(parts) == 2:
		text = formatResult(t.session.AdvanceLesson(ctx, mustInt(parts[1]), lessonStep))
	default:
		logger.Warn("telegram: unknown callback %q", cb.Data)
		return
	}

	if _, err := t.Send(ctx, chatID, text); err != nil {
		logger.Error("telegram: callback reply: %v", err)
	}
}

// quickTrade сделка на фиксированную сумму кредитов по текущей цене.
func (t *Telegram) quickTrade(ctx context.Context, tt models.TradeType, assetID string) string {
	price, ok := t.market.Price(assetID)
	if !ok {
		return "❌ Нет текущей цены для " + assetID
	}
	amount := t.cfg.Simulator.QuickTradeCredits / price
	if tt == models.TradeSell {
		if pos, ok := t.sessionPosition(assetID); ok && pos.Amount < amount {
			amount = pos.Amount
		}
	}
	return formatResult(t.session.ExecuteTrade(ctx, tt, assetID, amount))
}

func (t *Telegram) sessionPosition(assetID string) (models.Position, bool) {
	for _, p := range t.session.Positions() {
		if p.AssetID == assetID {
			return p, true
		}
	}
	return models.Position{}, false
}
