package service

import (
	"time"

	"cryptosim/internal/models"
	"cryptosim/pkg/logger"
)

// ranks по убыванию порога, первый подходящий и есть текущий.
var ranks = []models.Rank{
	{Title: "Легенда галактики", Threshold: 10000},
	{Title: "Адмирал флота", Threshold: 5000},
	{Title: "Капитан", Threshold: 2000},
	{Title: "Навигатор", Threshold: 800},
	{Title: "Пилот", Threshold: 300},
	{Title: "Кадет", Threshold: 0},
}

func RankFor(xp int) models.Rank {
	for _, r := range ranks {
		if xp >= r.Threshold {
			return r
		}
	}
	return ranks[len(ranks)-1]
}

// NextRank следующий ранг после текущего. false на максимальном.
func NextRank(xp int) (models.Rank, bool) {
	for i, r := range ranks {
		if xp >= r.Threshold {
			if i == 0 {
				return models.Rank{}, false
			}
			return ranks[i-1], true
		}
	}
	return models.Rank{}, false
}

// Reward награда, которую надо зачислить на баланс.
type Reward struct {
	Credits float64
	XP      int
}

// Progression опыт, ранг, достижения, ежедневные квесты и уроки.
type Progression struct {
	experience int
	rank       string

	unlocked map[string]time.Time
	quests   models.DailyQuests
	lessons  map[int]*lessonState

	now func() time.Time
}

func NewProgression(now func() time.Time) *Progression {
	if now == nil {
		now = time.Now
	}
	return &Progression{
		rank:     RankFor(0).Title,
		unlocked: make(map[string]time.Time),
		lessons:  make(map[int]*lessonState),
		now:      now,
	}
}

// AddExperience возвращает true, если сменился ранг.
func (p *Progression) AddExperience(amount int, source string) bool {
	if amount <= 0 {
		return false
	}
	p.experience += amount
	logger.Debug("xp +%d (%s), total %d", amount, source, p.experience)
	next := RankFor(p.experience).Title
	if next == p.rank {
		return false
	}
	p.rank = next
	return true
}

func (p *Progression) Experience() int { return p.experience }
func (p *Progression) Rank() string    { return p.rank }

func (p *Progression) restoreExperience(xp int) {
	if xp < 0 {
		xp = 0
	}
	p.experience = xp
	p.rank = RankFor(xp).Title
}
