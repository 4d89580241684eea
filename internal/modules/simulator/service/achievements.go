package service

import (
	"cryptosim/internal/models"
)

type achievementDef struct {
	models.Achievement
	check func(models.AchievementStats) bool
}

var achievementCatalog = []achievementDef{
	{
		Achievement: models.Achievement{ID: "first_trade", Title: "Первая сделка", Description: "Совершите первую сделку", Icon: "🚀", RewardCredits: 100, RewardXP: 50},
		check:       func(s models.AchievementStats) bool { return s.TotalTrades >= 1 },
	},
	{
		Achievement: models.Achievement{ID: "active_trader", Title: "Активный трейдер", Description: "Совершите 10 сделок", Icon: "⚡", RewardCredits: 500, RewardXP: 150},
		check:       func(s models.AchievementStats) bool { return s.TotalTrades >= 10 },
	},
	{
		Achievement: models.Achievement{ID: "trade_master", Title: "Мастер торговли", Description: "Совершите 50 сделок", Icon: "👑", RewardCredits: 2000, RewardXP: 500},
		check:       func(s models.AchievementStats) bool { return s.TotalTrades >= 50 },
	},
	{
		Achievement: models.Achievement{ID: "diversified", Title: "Диверсификация", Description: "Торгуйте тремя разными активами", Icon: "🌌", RewardCredits: 300, RewardXP: 100},
		check:       func(s models.AchievementStats) bool { return s.DistinctAssets >= 3 },
	},
	{
		Achievement: models.Achievement{ID: "first_profit", Title: "Первая прибыль", Description: "Продайте актив дороже средней цены покупки", Icon: "💰", RewardCredits: 200, RewardXP: 100},
		check:       func(s models.AchievementStats) bool { return s.ProfitableSells >= 1 },
	},
	{
		Achievement: models.Achievement{ID: "whale", Title: "Кит", Description: "Капитал от $50 000", Icon: "🐋", RewardCredits: 5000, RewardXP: 1000},
		check:       func(s models.AchievementStats) bool { return s.PortfolioValue >= 50000 },
	},
	{
		Achievement: models.Achievement{ID: "scholar", Title: "Отличник", Description: "Пройдите три урока", Icon: "🎓", RewardCredits: 300, RewardXP: 200},
		check:       func(s models.AchievementStats) bool { return s.LessonsCompleted >= 3 },
	},
}

// CheckAchievements открывает каждое достижение не больше одного раза.
// Опыт начисляется здесь, кредиты возвращаются в Reward.
func (p *Progression) CheckAchievements(stats models.AchievementStats) ([]models.Achievement, Reward) {
	var (
		out    []models.Achievement
		reward Reward
	)
	for _, def := range achievementCatalog {
		if _, done := p.unlocked[def.ID]; done {
			continue
		}
		if !def.check(stats) {
			continue
		}
		at := p.now()
		p.unlocked[def.ID] = at

		a := def.Achievement
		a.Unlocked = true
		a.UnlockedAt = &at
		out = append(out, a)

		reward.Credits += a.RewardCredits
		reward.XP += a.RewardXP
		p.AddExperience(a.RewardXP, "achievement:"+a.ID)
	}
	return out, reward
}

// Achievements весь каталог с отметками об открытии.
func (p *Progression) Achievements() []models.Achievement {
	out := make([]models.Achievement, 0, len(achievementCatalog))
	for _, def := range achievementCatalog {
		a := def.Achievement
		if at, ok := p.unlocked[def.ID]; ok {
			t := at
			a.Unlocked = true
			a.UnlockedAt = &t
		}
		out = append(out, a)
	}
	return out
}

func (p *Progression) UnlockedCount() int { return len(p.unlocked) }
