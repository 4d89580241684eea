package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"cryptosim/internal/models"
	"cryptosim/internal/modules/config"
	"cryptosim/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Stream combined-поток 24h тикеров Binance, каждый кадр обновляет кэш.
type Stream struct {
	baseURL string
	assets  []config.Asset
	cache   *Cache
	status  StatusSink
	dialer  *websocket.Dialer
}

func NewStream(baseURL string, assets []config.Asset, cache *Cache, status StatusSink) *Stream {
	if status == nil {
		status = nopStatus{}
	}
	return &Stream{
		baseURL: baseURL,
		assets:  assets,
		cache:   cache,
		status:  status,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

type tickerFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		Event     string `json:"e"`
		EventTime int64  `json:"E"`
		Symbol    string `json:"s"`
		ChangePct string `json:"P"`
		Last      string `json:"c"`
		Open      string `json:"o"`
		High      string `json:"h"`
		Low       string `json:"l"`
		// объём в котируемой валюте (USDT), как total_volume у CoinGecko
		QuoteVol  string `json:"q"`
	} `json:"data"`
}

func (s *Stream) streamURL() string {
	streams := make([]string, 0, len(s.assets))
	for _, a := range s.assets {
		if a.Pair == "" {
			continue
		}
		streams = append(streams, strings.ToLower(a.Pair)+"@ticker")
	}
	return s.baseURL + "?streams=" + strings.Join(streams, "/")
}

// Run держит соединение до отмены ctx, переподключаясь раз в секунду.
func (s *Stream) Run(ctx context.Context) {
	u := s.streamURL()
	for {
		if ctx.Err() != nil {
			return
		}

		logger.Info("[WS] connect %s", u)
		conn, _, err := s.dialer.DialContext(ctx, u, nil)
		if err != nil {
			logger.Warn("[WS] dial error: %v", err)
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}
		s.status.SetWSConnected(true)

		// закрываем сокет по отмене, чтобы разблокировать ReadMessage
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = conn.Close()
			case <-done:
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("[WS] read error: %v", err)
				}
				break
			}
			s.handle(msg)
		}

		close(done)
		_ = conn.Close()
		s.status.SetWSConnected(false)

		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func (s *Stream) handle(msg []byte) {
	var f tickerFrame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return
	}
	if f.Data.Event != "24hrTicker" {
		return
	}
	snap, ok := s.toSnapshot(f)
	if !ok {
		return
	}
	s.cache.Upsert(snap)
}

func (s *Stream) toSnapshot(f tickerFrame) (models.AssetSnapshot, bool) {
	pair := strings.ToUpper(f.Data.Symbol)

	// базу берём из текущего кэша, иначе из каталога
	base, ok := s.cache.FindBySymbol(pair)
	if !ok {
		for _, a := range s.assets {
			if strings.EqualFold(a.Pair, pair) {
				base = models.AssetSnapshot{ID: a.ID, Symbol: a.Symbol, Name: a.Name, Pair: pair}
				ok = true
				break
			}
		}
	}
	if !ok {
		return models.AssetSnapshot{}, false
	}

	price, err := strconv.ParseFloat(f.Data.Last, 64)
	if err != nil {
		return models.AssetSnapshot{}, false
	}
	pct, err := strconv.ParseFloat(f.Data.ChangePct, 64)
	if err != nil {
		return models.AssetSnapshot{}, false
	}

	ts := time.Now()
	if f.Data.EventTime > 0 {
		ts = time.UnixMilli(f.Data.EventTime)
	}

	snap := models.AssetSnapshot{
		ID:                    base.ID,
		Symbol:                base.Symbol,
		Name:                  base.Name,
		Pair:                  pair,
		CurrentPrice:          price,
		PriceChangePercent24h: pct,
		Volume:                parseOr(f.Data.QuoteVol, base.Volume),
		High:                  parseOr(f.Data.High, 0),
		Low:                   parseOr(f.Data.Low, 0),
		Open:                  parseOr(f.Data.Open, 0),
		MarketCap:             base.MarketCap,
		FetchedAt:             ts,
	}
	return snap, snap.Valid()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
