package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cryptosim/internal/models"
	"cryptosim/pkg/tracing"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// ErrFetchFailure любая ошибка внешнего API: сеть, статус, формат.
var ErrFetchFailure = errors.New("market data fetch failure")

// Client REST-клиент CoinGecko и Binance. Ключи не нужны.
type Client struct {
	http         *http.Client
	coingeckoURL string
	binanceURL   string
}

func NewClient(coingeckoURL, binanceURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		coingeckoURL: strings.TrimRight(coingeckoURL, "/"),
		binanceURL:   strings.TrimRight(binanceURL, "/"),
	}
}

type geckoMarket struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	MarketCap                *float64 `json:"market_cap"`
	TotalVolume              *float64 `json:"total_volume"`
	High24h                  *float64 `json:"high_24h"`
	Low24h                   *float64 `json:"low_24h"`
}

// FetchMarkets снимок по списку id CoinGecko. Битые записи пропускаются.
func (c *Client) FetchMarkets(ctx context.Context, ids []string) (out []models.AssetSnapshot, err error) {
	span, ctx := tracing.Start(ctx, "market.FetchMarkets")
	defer func() { tracing.Finish(span, err) }()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	if len(ids) > 0 {
		q.Set("ids", strings.Join(ids, ","))
	}
	q.Set("order", "market_cap_desc")
	perPage := len(ids)
	if perPage == 0 {
		perPage = 10
	}
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", "1")
	q.Set("sparkline", "false")
	q.Set("price_change_percentage", "24h")

	body, err := c.get(ctx, c.coingeckoURL+"/coins/markets?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var rows []geckoMarket
	if err := sonic.Unmarshal(body, &rows); err != nil {
		return nil, errors.Wrapf(ErrFetchFailure, "decode markets: %v", err)
	}

	now := time.Now()
	out = make([]models.AssetSnapshot, 0, len(rows))
	for _, r := range rows {
		if r.CurrentPrice == nil {
			continue
		}
		s := models.AssetSnapshot{
			ID:                    r.ID,
			Symbol:                strings.ToUpper(r.Symbol),
			Name:                  r.Name,
			CurrentPrice:          *r.CurrentPrice,
			PriceChangePercent24h: deref(r.PriceChangePercentage24h),
			Volume:                deref(r.TotalVolume),
			MarketCap:             deref(r.MarketCap),
			High:                  deref(r.High24h),
			Low:                   deref(r.Low24h),
			FetchedAt:             now,
		}
		s.Open = openFromChange(s.CurrentPrice, s.PriceChangePercent24h)
		if !s.Valid() {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	OpenPrice          string `json:"openPrice"`
}

// FetchTicker 24h-тикер Binance по паре (BTCUSDT).
func (c *Client) FetchTicker(ctx context.Context, pair string) (snap models.AssetSnapshot, err error) {
	span, ctx := tracing.Start(ctx, "market.FetchTicker")
	span.SetTag("pair", pair)
	defer func() { tracing.Finish(span, err) }()

	pair = strings.ToUpper(strings.TrimSpace(pair))
	if pair == "" {
		return snap, errors.Wrap(ErrFetchFailure, "empty pair")
	}

	body, err := c.get(ctx, c.binanceURL+"/api/v3/ticker/24hr?symbol="+url.QueryEscape(pair))
	if err != nil {
		return snap, err
	}

	var t binanceTicker
	if err := sonic.Unmarshal(body, &t); err != nil {
		return snap, errors.Wrapf(ErrFetchFailure, "decode ticker: %v", err)
	}
	return tickerToSnapshot(t, time.Now())
}

func tickerToSnapshot(t binanceTicker, now time.Time) (models.AssetSnapshot, error) {
	price, err := strconv.ParseFloat(t.LastPrice, 64)
	if err != nil {
		return models.AssetSnapshot{}, errors.Wrapf(ErrFetchFailure, "lastPrice %q", t.LastPrice)
	}
	pct, err := strconv.ParseFloat(t.PriceChangePercent, 64)
	if err != nil {
		return models.AssetSnapshot{}, errors.Wrapf(ErrFetchFailure, "priceChangePercent %q", t.PriceChangePercent)
	}

	s := models.AssetSnapshot{
		Symbol:                t.Symbol,
		Pair:                  t.Symbol,
		CurrentPrice:          price,
		PriceChangePercent24h: pct,
		Volume:                parseOr(t.Volume, 0),
		High:                  parseOr(t.HighPrice, 0),
		Low:                   parseOr(t.LowPrice, 0),
		Open:                  parseOr(t.OpenPrice, 0),
		FetchedAt:             now,
	}
	if !s.Valid() {
		return models.AssetSnapshot{}, errors.Wrapf(ErrFetchFailure, "invalid ticker for %s", t.Symbol)
	}
	return s, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailure, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailure, "GET: %v", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailure, "read body: %v", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.Wrap(ErrFetchFailure, fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(string(b), 200)))
	}
	return b, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func parseOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// openFromChange цена 24ч назад из текущей цены и процента изменения.
func openFromChange(price, pct float64) float64 {
	if pct <= -100 {
		return 0
	}
	return price / (1 + pct/100)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
