package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cryptosim/internal/models"
	analysissvc "cryptosim/internal/modules/analysis/service"
	"cryptosim/internal/modules/config"
	marketsvc "cryptosim/internal/modules/market/service"
	simsvc "cryptosim/internal/modules/simulator/service"
	storage "cryptosim/internal/modules/storage/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests int
	updates  chan tgbotapi.Update
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	f.requests++
	f.mu.Unlock()
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBot) StopReceivingUpdates() {}

func (f *fakeBot) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

type stubTicker struct{}

func (stubTicker) FetchTicker(_ context.Context, pair string) (models.AssetSnapshot, error) {
	return models.AssetSnapshot{ID: "bitcoin", Symbol: "BTC", Pair: pair, CurrentPrice: 100, PriceChangePercent24h: 8, Volume: 1000}, nil
}

type fixture struct {
	bot     *fakeBot
	tg      *Telegram
	session *simsvc.Session
	feed    *analysissvc.Feed
}

func newFixture(ownerChat int64) *fixture {
	cache := marketsvc.NewCache()
	cache.Replace([]models.AssetSnapshot{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Pair: "BTCUSDT", CurrentPrice: 100, PriceChangePercent24h: 2.5, MarketCap: 2e12, Volume: 3e10},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", Pair: "ETHUSDT", CurrentPrice: 10, PriceChangePercent24h: -1.2},
	}, false)

	cfg := &config.Config{
		Telegram:  config.Telegram{ChatID: ownerChat},
		Simulator: config.Simulator{QuickTradeCredits: 100},
	}
	session := simsvc.NewSession(cache, storage.NewMemory(), simsvc.Settings{StartingCredits: 10000, TradeXP: 10, LessonXP: 50})
	feed := analysissvc.NewFeed(20, time.Hour)
	analyzer := analysissvc.NewAnalyzer(stubTicker{}, analysissvc.NewEngine(constRand(0.5)))

	bot := &fakeBot{updates: make(chan tgbotapi.Update, 4)}
	return &fixture{
		bot:     bot,
		tg:      newTelegram(bot, cfg, session, cache, analyzer, feed),
		session: session,
		feed:    feed,
	}
}

func command(chatID int64, text string) tgbotapi.Update {
	n := len(text)
	for i, r := range text {
		if r == ' ' {
			n = i
			break
		}
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}},
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestHandle_StartSendsKeyboard(t *testing.T) {
	f := newFixture(0)
	f.tg.handleUpdate(context.Background(), command(1, "/start"))

	msg := f.bot.last(t)
	assert.Equal(t, int64(1), msg.ChatID)
	assert.Contains(t, msg.Text, "/buy")
	_, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.True(t, ok)
}

func TestHandle_BuyAndPortfolioButton(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	f.tg.handleUpdate(ctx, command(1, "/buy BTC 2"))
	assert.Contains(t, f.bot.last(t).Text, "Куплено")
	require.Len(t, f.session.Positions(), 1)
	assert.InDelta(t, 2.0, f.session.Positions()[0].Amount, 1e-12)

	f.tg.handleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: btnPortfolio}})
	text := f.bot.last(t).Text
	assert.Contains(t, text, "Портфель")
	assert.Contains(t, text, "BTC")
}

func TestHandle_TradeErrorsAreReported(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	f.tg.handleUpdate(ctx, command(1, "/buy DOGE 1"))
	assert.Contains(t, f.bot.last(t).Text, "❌")

	f.tg.handleUpdate(ctx, command(1, "/sell BTC abc"))
	assert.Contains(t, f.bot.last(t).Text, "числом")

	f.tg.handleUpdate(ctx, command(1, "/buy BTC"))
	assert.Contains(t, f.bot.last(t).Text, "Формат")

	assert.Empty(t, f.session.TradeHistory(0))
}

func TestHandle_OwnerFilter(t *testing.T) {
	f := newFixture(42)
	f.tg.handleUpdate(context.Background(), command(7, "/buy BTC 1"))

	assert.Contains(t, f.bot.last(t).Text, "⛔️")
	assert.Empty(t, f.session.TradeHistory(0))

	f.tg.handleUpdate(context.Background(), callback(7, "trade::buy::bitcoin"))
	assert.Empty(t, f.session.TradeHistory(0))
}

func TestHandle_SignalPushesFeedAndOffersTrade(t *testing.T) {
	f := newFixture(0)
	f.tg.handleUpdate(context.Background(), command(1, "/signal btcusdt"))

	msg := f.bot.last(t)
	assert.Contains(t, msg.Text, "BTCUSDT")
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	require.NotNil(t, kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "trade::buy::bitcoin", *kb.InlineKeyboard[0][0].CallbackData)

	assert.Len(t, f.feed.Signals(0), 1)
}

func TestHandle_QuickTradeCallback(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	f.tg.handleUpdate(ctx, callback(1, "trade::buy::bitcoin"))
	assert.Equal(t, 1, f.bot.requests)
	require.Len(t, f.session.Positions(), 1)
	assert.InDelta(t, 1.0, f.session.Positions()[0].Amount, 1e-12)

	// продажа не больше, чем есть
	f.tg.handleUpdate(ctx, command(1, "/sell BTC 0.5"))
	f.tg.handleUpdate(ctx, callback(1, "trade::sell::bitcoin"))
	assert.Empty(t, f.session.Positions())
	assert.Len(t, f.session.TradeHistory(0), 3)
}

func TestHandle_LessonCommandsAndCallback(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()

	f.tg.handleUpdate(ctx, command(1, "/lesson 1 75"))
	assert.Contains(t, f.bot.last(t).Text, "75%")

	f.tg.handleUpdate(ctx, callback(1, "lesson::1"))
	assert.Contains(t, f.bot.last(t).Text, "пройден")

	f.tg.handleUpdate(ctx, command(1, "/lessons"))
	msg := f.bot.last(t)
	assert.Contains(t, msg.Text, "🎓 1.")
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, kb.InlineKeyboard, 2)
}

func TestSendService(t *testing.T) {
	f := newFixture(0)
	f.tg.SendService(context.Background(), "hello %d", 1)
	assert.Empty(t, f.bot.sent)

	f = newFixture(42)
	f.tg.SendService(context.Background(), "hello %d", 1)
	msg := f.bot.last(t)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "hello 1", msg.Text)
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	f := newFixture(0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.tg.Start(ctx)
		close(done)
	}()

	f.bot.updates <- command(1, "/profile")
	require.Eventually(t, func() bool {
		f.bot.mu.Lock()
		defer f.bot.mu.Unlock()
		return len(f.bot.sent) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return")
	}
}
