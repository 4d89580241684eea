package service

import (
	"strings"
	"sync"
	"time"

	"cryptosim/internal/models"
)

const defaultFeedLimit = 5

// Feed последние N сигналов, новые первыми. У каждого есть срок жизни.
type Feed struct {
	mu      sync.RWMutex
	signals []models.Signal
	size    int
	ttl     time.Duration
	now     func() time.Time
}

func NewFeed(size int, ttl time.Duration) *Feed {
	if size <= 0 {
		size = 20
	}
	return &Feed{size: size, ttl: ttl, now: time.Now}
}

// Push кладёт в ленту только сигналы с ShouldTrade. HOLD и ошибки анализа отбрасываются.
func (f *Feed) Push(s models.Signal) bool {
	if !s.ShouldTrade {
		return false
	}
	if f.ttl > 0 && s.ExpiresAt.IsZero() {
		s.ExpiresAt = s.Timestamp.Add(f.ttl)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append([]models.Signal{s}, f.signals...)
	if len(f.signals) > f.size {
		f.signals = f.signals[:f.size]
	}
	return true
}

// Signals непросроченные, не больше limit. limit <= 0 значит 5.
func (f *Feed) Signals(limit int) []models.Signal {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	now := f.now()

	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]models.Signal, 0, limit)
	for _, s := range f.signals {
		if s.Expired(now) {
			continue
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (f *Feed) ForSymbol(symbol string) (models.Signal, bool) {
	now := f.now()

	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.signals {
		if strings.EqualFold(s.Symbol, symbol) && !s.Expired(now) {
			return s, true
		}
	}
	return models.Signal{}, false
}
