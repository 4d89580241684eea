package service

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"cryptosim/internal/models"
	marketsvc "cryptosim/internal/modules/market/service"
	simsvc "cryptosim/internal/modules/simulator/service"
	"cryptosim/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 16

// Analyst то, что API берёт из модуля анализа.
type Analyst interface {
	Analyze(ctx context.Context, pair string) models.Signal
}

type SignalFeed interface {
	Push(s models.Signal) bool
	Signals(limit int) []models.Signal
}

// Handler JSON API веб-приложения поверх сессии симулятора.
type Handler struct {
	session *simsvc.Session
	market  *marketsvc.Cache
	analyst Analyst
	feed    SignalFeed
}

func NewHandler(session *simsvc.Session, market *marketsvc.Cache, analyst Analyst, feed SignalFeed) *Handler {
	return &Handler{session: session, market: market, analyst: analyst, feed: feed}
}

type marketResponse struct {
	Assets        []models.AssetSnapshot `json:"assets"`
	Stats         models.MarketStats     `json:"stats"`
	UsingFallback bool                   `json:"usingFallback"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

type portfolioResponse struct {
	Valuation models.Valuation  `json:"valuation"`
	Positions []models.Position `json:"positions"`
}

type tradeRequest struct {
	Type    models.TradeType `json:"type"`
	AssetID string           `json:"assetId"`
	Amount  float64          `json:"amount"`
}

type holdingRequest struct {
	AssetID string  `json:"assetId"`
	Amount  float64 `json:"amount"`
	Price   float64 `json:"price"`
}

type lessonRequest struct {
	Progress int `json:"progress"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := sonic.Marshal(v)
	if err != nil {
		logger.Error("webapp: encode response: %v", err)
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeResult 200 для успеха, 422 для отказа симулятора.
func writeResult(w http.ResponseWriter, res models.Result) {
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if err := sonic.Unmarshal(raw, v); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

// limitParam ?limit=N, def если не задан или кривой.
func limitParam(r *http.Request, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func (h *Handler) Market(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, marketResponse{
		Assets:        h.market.Snapshots(),
		Stats:         h.market.Stats(),
		UsingFallback: h.market.UsingFallback(),
		UpdatedAt:     h.market.UpdatedAt(),
	})
}

func (h *Handler) Signals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.feed.Signals(limitParam(r, 0)))
}

// Signal свежий анализ пары, засчитывается как просмотр сигнала.
func (h *Handler) Signal(w http.ResponseWriter, r *http.Request) {
	sig := h.analyst.Analyze(r.Context(), mux.Vars(r)["pair"])
	h.feed.Push(sig)
	h.session.MarkSignalViewed()
	writeJSON(w, http.StatusOK, sig)
}

func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, portfolioResponse{
		Valuation: h.session.Valuation(),
		Positions: h.session.Positions(),
	})
}

func (h *Handler) Trades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.TradeHistory(limitParam(r, 0)))
}

func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeResult(w, h.session.ExecuteTrade(r.Context(), req.Type, req.AssetID, req.Amount))
}

func (h *Handler) AddHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeResult(w, h.session.AddToPortfolio(r.Context(), req.AssetID, req.Amount, req.Price))
}

func (h *Handler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.session.RemoveFromPortfolio(r.Context(), mux.Vars(r)["asset"]))
}

func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Achievements())
}

func (h *Handler) Quests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Quests())
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Profile())
}

func (h *Handler) Lessons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Lessons())
}

func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "lesson id must be a number")
		return
	}
	var req lessonRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeResult(w, h.session.UpdateLessonProgress(r.Context(), id, req.Progress))
}
