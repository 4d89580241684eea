package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosim_trades_total",
			Help: "Executed virtual trades",
		},
		[]string{"type"},
	)

	tradeRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosim_trade_rejections_total",
			Help: "Rejected trade attempts by error kind",
		},
		[]string{"kind"},
	)

	fetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosim_market_fetch_failures_total",
			Help: "Market data fetch failures",
		},
		[]string{"source"},
	)

	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosim_signals_total",
			Help: "Generated signals by action",
		},
		[]string{"action"},
	)

	persistenceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptosim_persistence_errors_total",
			Help: "Failed bucket saves",
		},
		[]string{"bucket"},
	)

	credits = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cryptosim_credits",
		Help: "Virtual credits balance",
	})

	portfolioValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cryptosim_portfolio_value",
		Help: "Market value of held positions",
	})
)

func init() {
	prometheus.MustRegister(
		tradesTotal,
		tradeRejections,
		fetchFailures,
		signalsTotal,
		persistenceErrors,
		credits,
		portfolioValue,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func RecordTrade(tradeType string) { tradesTotal.WithLabelValues(tradeType).Inc() }
func RecordRejection(kind string) { tradeRejections.WithLabelValues(kind).Inc() }
func RecordFetchFailure(source string) { fetchFailures.WithLabelValues(source).Inc() }
func RecordSignal(action string) { signalsTotal.WithLabelValues(action).Inc() }
func RecordPersistenceError(bucket string) { persistenceErrors.WithLabelValues(bucket).Inc() }
func SetCredits(v float64) { credits.Set(v) }
func SetPortfolioValue(v float64) { portfolioValue.Set(v) }
