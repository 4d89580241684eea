package service

import (
	"strings"
	"sync"
	"time"

	"cryptosim/internal/models"
)

// Cache последний набор снимков. Читается из telegram, http и симулятора параллельно.
type Cache struct {
	mu        sync.RWMutex
	items     []models.AssetSnapshot
	byID      map[string]int
	fallback  bool
	updatedAt time.Time
}

func NewCache() *Cache {
	return &Cache{byID: make(map[string]int)}
}

// Replace подменяет весь набор целиком.
func (c *Cache) Replace(set []models.AssetSnapshot, fallback bool) {
	items := make([]models.AssetSnapshot, 0, len(set))
	byID := make(map[string]int, len(set))
	for _, s := range set {
		if !s.Valid() {
			continue
		}
		if i, ok := byID[s.ID]; ok {
			items[i] = s
			continue
		}
		byID[s.ID] = len(items)
		items = append(items, s)
	}

	c.mu.Lock()
	c.items = items
	c.byID = byID
	c.fallback = fallback
	c.updatedAt = time.Now()
	c.mu.Unlock()
}

// Upsert заменяет один снимок (поток тикеров).
func (c *Cache) Upsert(s models.AssetSnapshot) bool {
	if !s.Valid() || s.ID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.byID[s.ID]; ok {
		c.items[i] = s
	} else {
		c.byID[s.ID] = len(c.items)
		c.items = append(c.items, s)
	}
	c.updatedAt = time.Now()
	return true
}

func (c *Cache) Snapshots() []models.AssetSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.AssetSnapshot, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cache) Get(assetID string) (models.AssetSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[assetID]
	if !ok {
		return models.AssetSnapshot{}, false
	}
	return c.items[i], true
}

// FindBySymbol ищет по id, тикеру или паре без учёта регистра.
func (c *Cache) FindBySymbol(sym string) (models.AssetSnapshot, bool) {
	sym = strings.TrimSpace(sym)
	if s, ok := c.Get(strings.ToLower(sym)); ok {
		return s, true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.items {
		if strings.EqualFold(s.Symbol, sym) || strings.EqualFold(s.Pair, sym) {
			return s, true
		}
	}
	return models.AssetSnapshot{}, false
}

func (c *Cache) Price(assetID string) (float64, bool) {
	s, ok := c.Get(assetID)
	if !ok {
		return 0, false
	}
	return s.CurrentPrice, true
}

func (c *Cache) Stats() models.MarketStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var st models.MarketStats
	for _, s := range c.items {
		st.TotalMarketCap += s.MarketCap
		st.TotalVolume += s.Volume
	}
	st.Assets = len(c.items)
	return st
}

func (c *Cache) UsingFallback() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallback
}

func (c *Cache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
