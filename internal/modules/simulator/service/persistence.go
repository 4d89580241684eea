package service

import (
	"context"
	"sort"
	"time"

	"cryptosim/internal/models"
	storage "cryptosim/internal/modules/storage/service"
	"cryptosim/pkg/logger"
	"cryptosim/pkg/metrics"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const (
	BucketPortfolio    = "portfolio"
	BucketTrades       = "trades"
	BucketAchievements = "achievements"
	BucketLessons      = "lessons"
	BucketQuests       = "quests"
	BucketUserStats    = "user_stats"
)

var allBuckets = []string{
	BucketPortfolio, BucketTrades, BucketAchievements, BucketLessons, BucketQuests, BucketUserStats,
}

type portfolioBucket struct {
	Credits   float64           `json:"credits"`
	Positions []models.Position `json:"positions"`
}

type achievementsBucket struct {
	Unlocked map[string]time.Time `json:"unlocked"`
}

type lessonRecord struct {
	ID        int  `json:"id"`
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

type userStatsBucket struct {
	Experience    int               `json:"experience"`
	Stats         models.TradeStats `json:"stats"`
	AssetsTraded  []string          `json:"assetsTraded"`
	SignalsViewed int               `json:"signalsViewed"`
}

// Load поднимает профиль из хранилища. Отсутствующий или битый бакет даёт значения по умолчанию.
// Бакет, который не прочитался из-за ошибки хранилища, Flush не пишет до следующего удачного Load.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.dirty = make(map[string]bool)
	s.unread = make(map[string]bool)

	var loaded int
	for _, b := range allBuckets {
		raw, err := s.store.Load(ctx, b)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("simulator: load bucket %s: %v, saving disabled until reload", b, err)
			s.unread[b] = true
			continue
		}
		if err := s.decodeBucket(b, raw); err != nil {
			logger.Warn("simulator: corrupt bucket %s ignored: %v", b, err)
			continue
		}
		loaded++
	}
	logger.Info("simulator: profile loaded, %d/%d buckets", loaded, len(allBuckets))
	s.updateGauges()
	return nil
}

func (s *Session) decodeBucket(bucket string, raw []byte) error {
	switch bucket {
	case BucketPortfolio:
		var p portfolioBucket
		if err := sonic.Unmarshal(raw, &p); err != nil {
			return err
		}
		if p.Credits < 0 {
			return errors.Errorf("negative credits %v", p.Credits)
		}
		s.ledger.credits = p.Credits
		for _, pos := range p.Positions {
			if pos.AssetID == "" || !validQty(pos.Amount) || !validQty(pos.AverageBuyPrice) {
				continue
			}
			pos := pos
			s.ledger.positions[pos.AssetID] = &pos
		}

	case BucketTrades:
		var trades []models.Trade
		if err := sonic.Unmarshal(raw, &trades); err != nil {
			return err
		}
		sort.SliceStable(trades, func(i, j int) bool { return trades[i].Timestamp.After(trades[j].Timestamp) })
		s.ledger.trades = trades

	case BucketAchievements:
		var a achievementsBucket
		if err := sonic.Unmarshal(raw, &a); err != nil {
			return err
		}
		for id, at := range a.Unlocked {
			s.progress.unlocked[id] = at
		}

	case BucketLessons:
		var ls []lessonRecord
		if err := sonic.Unmarshal(raw, &ls); err != nil {
			return err
		}
		for _, l := range ls {
			if _, ok := lessonCatalog[l.ID]; !ok {
				continue
			}
			s.progress.lessons[l.ID] = &lessonState{progress: l.Progress, completed: l.Completed}
		}

	case BucketQuests:
		var q models.DailyQuests
		if err := sonic.Unmarshal(raw, &q); err != nil {
			return err
		}
		s.progress.quests = q

	case BucketUserStats:
		var u userStatsBucket
		if err := sonic.Unmarshal(raw, &u); err != nil {
			return err
		}
		s.progress.restoreExperience(u.Experience)
		s.ledger.stats = u.Stats
		for _, id := range u.AssetsTraded {
			s.ledger.assetsTraded[id] = struct{}{}
		}
		s.ledger.stats.DistinctAssets = len(s.ledger.assetsTraded)
		s.signalsViewed = u.SignalsViewed
	}
	return nil
}

func (s *Session) encodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case BucketPortfolio:
		return sonic.Marshal(portfolioBucket{Credits: s.ledger.credits, Positions: s.ledger.Positions()})
	case BucketTrades:
		return sonic.Marshal(s.ledger.trades)
	case BucketAchievements:
		return sonic.Marshal(achievementsBucket{Unlocked: s.progress.unlocked})
	case BucketLessons:
		ls := make([]lessonRecord, 0, len(s.progress.lessons))
		for id, st := range s.progress.lessons {
			ls = append(ls, lessonRecord{ID: id, Progress: st.progress, Completed: st.completed})
		}
		sort.Slice(ls, func(i, j int) bool { return ls[i].ID < ls[j].ID })
		return sonic.Marshal(ls)
	case BucketQuests:
		return sonic.Marshal(s.progress.quests)
	case BucketUserStats:
		assets := make([]string, 0, len(s.ledger.assetsTraded))
		for id := range s.ledger.assetsTraded {
			assets = append(assets, id)
		}
		sort.Strings(assets)
		return sonic.Marshal(userStatsBucket{
			Experience:    s.progress.experience,
			Stats:         s.ledger.stats,
			AssetsTraded:  assets,
			SignalsViewed: s.signalsViewed,
		})
	}
	return nil, errors.Errorf("unknown bucket %s", bucket)
}

// Flush сохраняет изменённые бакеты. Ошибки логируются, бакет остаётся грязным до следующей попытки.
func (s *Session) Flush(ctx context.Context) int {
	s.mu.Lock()
	pending := make(map[string][]byte, len(s.dirty))
	for b := range s.dirty {
		if s.unread[b] {
			logger.Warn("simulator: bucket %s was not loaded, skip save", b)
			continue
		}
		raw, err := s.encodeBucket(b)
		if err != nil {
			logger.Error("simulator: encode bucket %s: %v", b, err)
			continue
		}
		pending[b] = raw
	}
	for b := range pending {
		delete(s.dirty, b)
	}
	s.mu.Unlock()

	saved := 0
	for b, raw := range pending {
		if err := s.store.Save(ctx, b, raw); err != nil {
			logger.Error("simulator: save bucket %s: %v", b, err)
			metrics.RecordPersistenceError(b)
			s.mu.Lock()
			s.dirty[b] = true
			s.mu.Unlock()
			continue
		}
		saved++
	}
	return saved
}

// Dirty список бакетов, ждущих сохранения.
func (s *Session) Dirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.dirty))
	for b := range s.dirty {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// Flusher периодически сбрасывает состояние и делает финальный сброс при остановке.
func (s *Session) Flusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// последний сброс с собственным таймаутом
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.Flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}
