package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cryptosim/internal/models"
	storage "cryptosim/internal/modules/storage/service"
	"cryptosim/pkg/logger"
	"cryptosim/pkg/metrics"
	"cryptosim/pkg/tracing"

	"github.com/pkg/errors"
)

// Market то, что сессии нужно от кэша рынка.
type Market interface {
	PriceLookup
	FindBySymbol(sym string) (models.AssetSnapshot, bool)
	Snapshots() []models.AssetSnapshot
}

type Settings struct {
	StartingCredits float64
	TradeXP         int
	LessonXP        int
}

// Session единственный профиль симулятора на процесс.
// Все входы (telegram, http, flusher) идут под одним мьютексом.
type Session struct {
	mu sync.Mutex

	ledger   *Ledger
	progress *Progression
	market   Market
	store    storage.Store
	settings Settings

	signalsViewed int
	dirty         map[string]bool
	// бакеты, которые не удалось прочитать: их нельзя перезаписывать до удачного Load
	unread map[string]bool

	now func() time.Time
}

func NewSession(market Market, store storage.Store, settings Settings) *Session {
	s := &Session{
		market:   market,
		store:    store,
		settings: settings,
		dirty:    make(map[string]bool),
		unread:   make(map[string]bool),
		now:      time.Now,
	}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.ledger = NewLedger(s.settings.StartingCredits)
	s.ledger.now = func() time.Time { return s.now() }
	s.progress = NewProgression(func() time.Time { return s.now() })
	s.signalsViewed = 0
}

func (s *Session) markDirty(buckets ...string) {
	for _, b := range buckets {
		s.dirty[b] = true
	}
}

func (s *Session) resolve(assetID string) (models.AssetSnapshot, error) {
	if snap, ok := s.market.Get(assetID); ok {
		return snap, nil
	}
	if snap, ok := s.market.FindBySymbol(assetID); ok {
		return snap, nil
	}
	return models.AssetSnapshot{}, tradeErrorf(KindUnknownAsset, "Актив %q не найден в текущих данных рынка", assetID)
}

func fail(err error) models.Result {
	var te *TradeError
	kind := "internal"
	if errors.As(err, &te) {
		kind = string(te.Kind)
	}
	metrics.RecordRejection(kind)
	return models.Result{OK: false, Message: err.Error(), Err: err}
}

// ExecuteTrade сделка по текущей цене снимка. Ошибки возвращаются в Result, не паникуют.
func (s *Session) ExecuteTrade(ctx context.Context, tt models.TradeType, assetID string, amount float64) models.Result {
	span, _ := tracing.Start(ctx, "simulator.ExecuteTrade")
	span.SetTag("type", string(tt))
	span.SetTag("asset", assetID)
	defer span.Finish()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !tt.Valid() {
		return fail(tradeErrorf(KindInvalidAmount, "Неизвестный тип сделки %q", tt))
	}
	snap, err := s.resolve(strings.TrimSpace(assetID))
	if err != nil {
		return fail(err)
	}

	trade, err := s.ledger.ExecuteTrade(tt, snap.ID, snap.Symbol, amount, snap.CurrentPrice)
	if err != nil {
		return fail(err)
	}
	metrics.RecordTrade(string(tt))

	res := models.Result{OK: true, Trade: &trade}
	rankBefore := s.progress.Rank()
	s.progress.AddExperience(s.settings.TradeXP, "trade")

	kind := models.QuestBuy
	verb := "Куплено"
	if tt == models.TradeSell {
		kind = models.QuestSell
		verb = "Продано"
	}
	s.applyQuest(models.QuestTrade, 1)
	s.applyQuest(kind, 1)
	res.Unlocked = s.applyAchievements()
	if r := s.progress.Rank(); r != rankBefore {
		res.RankUp = r
	}

	res.Message = fmt.Sprintf("✅ %s %.8g %s по $%.2f на $%.2f", verb, trade.Amount, trade.Symbol, trade.Price, trade.Total)
	s.markDirty(BucketPortfolio, BucketTrades, BucketUserStats, BucketAchievements, BucketQuests)
	s.updateGauges()
	return res
}

// AddToPortfolio ручное добавление позиции по своей цене, баланс не трогает.
func (s *Session) AddToPortfolio(ctx context.Context, assetID string, amount, price float64) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.resolve(strings.TrimSpace(assetID))
	if err != nil {
		return fail(err)
	}
	if err := s.ledger.AddHolding(snap.ID, snap.Symbol, amount, price); err != nil {
		return fail(err)
	}
	s.markDirty(BucketPortfolio)
	s.updateGauges()
	return models.Result{OK: true, Message: fmt.Sprintf("📥 %.8g %s добавлено в портфель по $%.2f", amount, snap.Symbol, price)}
}

// RemoveFromPortfolio убирает позицию целиком без сделки.
func (s *Session) RemoveFromPortfolio(ctx context.Context, assetID string) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(assetID)
	if _, ok := s.ledger.Position(id); !ok {
		if snap, err := s.resolve(id); err == nil {
			id = snap.ID
		}
	}
	if !s.ledger.RemovePosition(id) {
		return fail(ErrNoPosition)
	}
	s.markDirty(BucketPortfolio)
	s.updateGauges()
	return models.Result{OK: true, Message: "🗑 Позиция удалена"}
}

func (s *Session) UpdateLessonProgress(ctx context.Context, lessonID, progress int) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLessonLocked(lessonID, progress)
}

// AdvanceLesson двигает урок на step процентов.
func (s *Session) AdvanceLesson(ctx context.Context, lessonID, step int) models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLessonLocked(lessonID, s.progress.LessonProgress(lessonID)+step)
}

func (s *Session) updateLessonLocked(lessonID, progress int) models.Result {
	completed, err := s.progress.UpdateLessonProgress(lessonID, progress)
	if err != nil {
		return fail(err)
	}
	s.markDirty(BucketLessons)
	res := models.Result{OK: true, Message: fmt.Sprintf("📚 Прогресс урока %d: %d%%", lessonID, s.progress.LessonProgress(lessonID))}
	if !completed {
		return res
	}

	rankBefore := s.progress.Rank()
	s.progress.AddExperience(s.settings.LessonXP, "lesson")
	s.applyQuest(models.QuestLesson, 1)
	res.Unlocked = s.applyAchievements()
	if r := s.progress.Rank(); r != rankBefore {
		res.RankUp = r
	}
	res.Message = fmt.Sprintf("🎓 Урок %d пройден! +%d XP", lessonID, s.settings.LessonXP)
	s.markDirty(BucketUserStats, BucketAchievements, BucketQuests, BucketPortfolio)
	return res
}

// MarkSignalViewed считает просмотр сигнала для квеста.
func (s *Session) MarkSignalViewed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalsViewed++
	s.applyQuest(models.QuestCheckSignals, 1)
	s.markDirty(BucketUserStats, BucketQuests)
}

func (s *Session) applyQuest(kind models.QuestKind, n int) {
	done, reward := s.progress.RecordQuestEvent(kind, n)
	s.ledger.Deposit(reward.Credits)
	for _, q := range done {
		logger.Info("quest completed: %s", q.ID)
	}
	if len(done) > 0 {
		s.markDirty(BucketPortfolio, BucketUserStats)
	}
}

func (s *Session) applyAchievements() []models.Achievement {
	val := s.ledger.Valuation(s.market)
	stats := models.AchievementStats{
		TradeStats:       s.ledger.Stats(),
		PortfolioValue:   val.TotalValue + s.ledger.Credits(),
		LessonsCompleted: s.progress.LessonsCompleted(),
	}
	unlocked, reward := s.progress.CheckAchievements(stats)
	s.ledger.Deposit(reward.Credits)
	for _, a := range unlocked {
		logger.Info("achievement unlocked: %s", a.ID)
	}
	return unlocked
}

func (s *Session) updateGauges() {
	metrics.SetCredits(s.ledger.Credits())
	metrics.SetPortfolioValue(s.ledger.Valuation(s.market).TotalValue)
}

// ---- read accessors ----

func (s *Session) Snapshots() []models.AssetSnapshot {
	return s.market.Snapshots()
}

func (s *Session) Valuation() models.Valuation {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.ledger.Valuation(s.market)
	if len(v.Missing) > 0 {
		logger.Warn("valuation: no market data for %s", strings.Join(v.Missing, ", "))
	}
	return v
}

func (s *Session) Positions() []models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Positions()
}

func (s *Session) TradeHistory(limit int) []models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TradeHistory(limit)
}

func (s *Session) Achievements() []models.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Achievements()
}

func (s *Session) Quests() models.DailyQuests {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.EnsureDailyQuests(s.now()) {
		s.markDirty(BucketQuests)
	}
	return s.progress.Quests()
}

func (s *Session) Lessons() []models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Lessons()
}

func (s *Session) Profile() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	xp := s.progress.Experience()
	p := models.Profile{
		Credits:    s.ledger.Credits(),
		Experience: xp,
		Rank:       s.progress.Rank(),
		Unlocked:   s.progress.UnlockedCount(),
	}
	if next, ok := NextRank(xp); ok {
		p.NextRank = next.Title
		p.XPToNext = next.Threshold - xp
	}
	return p
}

func (s *Session) Stats() models.TradeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Stats()
}
