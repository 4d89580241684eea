package service

import (
	"context"
	"fmt"

	analysissvc "cryptosim/internal/modules/analysis/service"
	"cryptosim/internal/modules/config"
	marketsvc "cryptosim/internal/modules/market/service"
	simsvc "cryptosim/internal/modules/simulator/service"
	"cryptosim/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI часть *tgbot.BotAPI, которой пользуется бот.
type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	Request(c tgbot.Chattable) (*tgbot.APIResponse, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

// Telegram чат-интерфейс симулятора.
type Telegram struct {
	bot      botAPI
	cfg      *config.Config
	session  *simsvc.Session
	market   *marketsvc.Cache
	analyzer *analysissvc.Analyzer
	feed     *analysissvc.Feed
}

func NewTelegram(
	cfg *config.Config,
	session *simsvc.Session,
	market *marketsvc.Cache,
	analyzer *analysissvc.Analyzer,
	feed *analysissvc.Feed,
) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	logger.Info("telegram: authorized as @%s", b.Self.UserName)

	return newTelegram(b, cfg, session, market, analyzer, feed), nil
}

func newTelegram(
	b botAPI,
	cfg *config.Config,
	session *simsvc.Session,
	market *marketsvc.Cache,
	analyzer *analysissvc.Analyzer,
	feed *analysissvc.Feed,
) *Telegram {
	return &Telegram{
		bot:      b,
		cfg:      cfg,
		session:  session,
		market:   market,
		analyzer: analyzer,
		feed:     feed,
	}
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

func (t *Telegram) SendMessage(_ context.Context, message tgbot.MessageConfig) (tgbot.Message, error) {
	return t.bot.Send(message)
}

// SendService служебное сообщение владельцу профиля.
func (t *Telegram) SendService(ctx context.Context, format string, args ...any) {
	if t.cfg.Telegram.ChatID == 0 {
		logger.Debug("telegram: no owner chat, service message dropped")
		return
	}
	if _, err := t.SendF(ctx, t.cfg.Telegram.ChatID, format, args...); err != nil {
		logger.Error("telegram: service message: %v", err)
	}
}

// allowed бот отвечает только владельцу, если chat_id задан.
func (t *Telegram) allowed(chatID int64) bool {
	return t.cfg.Telegram.ChatID == 0 || t.cfg.Telegram.ChatID == chatID
}

// Start крутит long polling до отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}
