// Package metrics — счётчики Prometheus и HTTP-эндпоинт /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	// CheckinsTotal — новые отметки (повторные за день не считаются).
	CheckinsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewards_checkins_total",
		Help: "Total number of new daily check-ins",
	})

	// ClaimsTotal — попытки забрать награду по исходу.
	ClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewards_claims_total",
		Help: "Total number of reward claim attempts by outcome",
	}, []string{"outcome"})

	// OrdersCreatedTotal — заявки на ручную выплату.
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewards_orders_created_total",
		Help: "Total number of pending orders created by type",
	}, []string{"type"})

	OperatorNotifyFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewards_operator_notify_failures_total",
		Help: "Total number of failed operator notifications",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewards_rate_limited_total",
		Help: "Total number of updates dropped by the rate limiter",
	})

	HandlerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewards_handler_panics_total",
		Help: "Total number of recovered handler panics",
	})
)

// Serve поднимает /metrics на addr и гасит сервер при отмене ctx.
// Пустой addr — ничего не делает.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Ошибка остановки сервера метрик")
		}
	}()

	log.Infof("Метрики доступны на %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
