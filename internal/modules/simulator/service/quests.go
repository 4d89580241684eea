package service

import (
	"time"

	"cryptosim/internal/models"
)

const questDateLayout = "2006-01-02"

func dailyBoard(date string) models.DailyQuests {
	return models.DailyQuests{
		Date: date,
		Quests: []models.Quest{
			{ID: "daily_trades", Kind: models.QuestTrade, Title: "Совершить 3 сделки", Target: 3, RewardCredits: 150, RewardXP: 30},
			{ID: "daily_buy", Kind: models.QuestBuy, Title: "Купить любой актив", Target: 1, RewardCredits: 50, RewardXP: 10},
			{ID: "daily_sell", Kind: models.QuestSell, Title: "Продать любой актив", Target: 1, RewardCredits: 50, RewardXP: 10},
			{ID: "daily_signals", Kind: models.QuestCheckSignals, Title: "Проверить 3 сигнала", Target: 3, RewardCredits: 50, RewardXP: 15},
			{ID: "daily_lesson", Kind: models.QuestLesson, Title: "Пройти урок", Target: 1, RewardCredits: 100, RewardXP: 20},
		},
	}
}

// EnsureDailyQuests пересоздаёт доску, если она от другого календарного дня.
func (p *Progression) EnsureDailyQuests(now time.Time) bool {
	today := now.Format(questDateLayout)
	if p.quests.Date == today && len(p.quests.Quests) > 0 {
		return false
	}
	p.quests = dailyBoard(today)
	return true
}

// RecordQuestEvent двигает квесты данного типа. Награда выдаётся только при первом достижении цели.
func (p *Progression) RecordQuestEvent(kind models.QuestKind, n int) ([]models.Quest, Reward) {
	p.EnsureDailyQuests(p.now())

	var (
		done   []models.Quest
		reward Reward
	)
	if n <= 0 {
		return nil, reward
	}
	for i := range p.quests.Quests {
		q := &p.quests.Quests[i]
		if q.Kind != kind || q.Completed {
			continue
		}
		q.Progress += n
		if q.Progress > q.Target {
			q.Progress = q.Target
		}
		if q.Progress < q.Target {
			continue
		}
		q.Completed = true
		done = append(done, *q)
		reward.Credits += q.RewardCredits
		reward.XP += q.RewardXP
		p.AddExperience(q.RewardXP, "quest:"+q.ID)
	}
	return done, reward
}

func (p *Progression) Quests() models.DailyQuests {
	p.EnsureDailyQuests(p.now())
	out := models.DailyQuests{Date: p.quests.Date, Quests: make([]models.Quest, len(p.quests.Quests))}
	copy(out.Quests, p.quests.Quests)
	return out
}
