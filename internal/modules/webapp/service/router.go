package service

import (
	"net/http"
	"time"

	"cryptosim/pkg/logger"
	"cryptosim/pkg/tracing"

	"github.com/gorilla/mux"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/rs/cors"
)

func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(recovery)
	router.Use(traced)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/market", h.Market).Methods(http.MethodGet)
	api.HandleFunc("/signals", h.Signals).Methods(http.MethodGet)
	api.HandleFunc("/signals/{pair}", h.Signal).Methods(http.MethodGet)

	api.HandleFunc("/portfolio", h.Portfolio).Methods(http.MethodGet)
	api.HandleFunc("/trades", h.Trades).Methods(http.MethodGet)
	api.HandleFunc("/trades", h.CreateTrade).Methods(http.MethodPost)
	api.HandleFunc("/holdings", h.AddHolding).Methods(http.MethodPost)
	api.HandleFunc("/holdings/{asset}", h.RemoveHolding).Methods(http.MethodDelete)

	api.HandleFunc("/achievements", h.Achievements).Methods(http.MethodGet)
	api.HandleFunc("/quests", h.Quests).Methods(http.MethodGet)
	api.HandleFunc("/profile", h.Profile).Methods(http.MethodGet)
	api.HandleFunc("/lessons", h.Lessons).Methods(http.MethodGet)
	api.HandleFunc("/lessons/{id:[0-9]+}", h.UpdateLesson).Methods(http.MethodPut)

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// traced спан на запрос, имя по шаблону маршрута.
func traced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				op = tpl
			}
		}
		span, ctx := tracing.Start(r.Context(), r.Method+" "+op)
		ext.HTTPMethod.Set(span, r.Method)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		ext.HTTPStatusCode.Set(span, uint16(rec.status))
		span.Finish()
		logger.Debug("webapp: %s %s %d in %s", r.Method, op, rec.status, time.Since(start))
	})
}

func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("webapp: panic on %s %s: %v", r.Method, r.URL.Path, v)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
