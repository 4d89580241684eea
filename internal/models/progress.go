package models

import "time"

type Rank struct {
	Title     string `json:"title"`
	Threshold int    `json:"threshold"`
}

type Achievement struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon"`
	RewardCredits float64    `json:"rewardCredits"`
	RewardXP      int        `json:"rewardXp"`
	Unlocked      bool       `json:"unlocked"`
	UnlockedAt    *time.Time `json:"unlockedAt,omitempty"`
}

type QuestKind string

const (
	QuestTrade        QuestKind = "trade"
	QuestBuy          QuestKind = "buy"
	QuestSell         QuestKind = "sell"
	QuestCheckSignals QuestKind = "check_signals"
	QuestLesson       QuestKind = "lesson"
)

type Quest struct {
	ID            string    `json:"id"`
	Kind          QuestKind `json:"kind"`
	Title         string    `json:"title"`
	Target        int       `json:"target"`
	Progress      int       `json:"progress"`
	RewardCredits float64   `json:"rewardCredits"`
	RewardXP      int       `json:"rewardXp"`
	Completed     bool      `json:"completed"`
}

type DailyQuests struct {
	Date   string  `json:"date"`
	Quests []Quest `json:"quests"`
}

type Lesson struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Progress int    `json:"progress"`
}

// Profile сводка прогресса для экранов профиля.
type Profile struct {
	Credits    float64 `json:"credits"`
	Experience int     `json:"experience"`
	Rank       string  `json:"rank"`
	NextRank   string  `json:"nextRank,omitempty"`
	XPToNext   int     `json:"xpToNext"`
	Unlocked   int     `json:"achievementsUnlocked"`
}

// AchievementStats вход для проверки достижений.
type AchievementStats struct {
	TradeStats
	PortfolioValue   float64
	LessonsCompleted int
}
