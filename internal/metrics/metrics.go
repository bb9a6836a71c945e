// Package metrics exposes Prometheus collectors for the RPC surface and the
// debt simplifier.
package metrics

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "settleup"

// Metrics holds the service collectors. Create one per registry with New.
type Metrics struct {
	rpcRequests      *prometheus.CounterVec
	rpcDuration      *prometheus.HistogramVec
	simplifications  prometheus.Counter
	suggestedTxs     prometheus.Histogram
	residueBalances  prometheus.Counter
	settledAmount    *prometheus.CounterVec
	idempotentReplay prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPCs handled, by procedure and Connect code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		simplifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simplifications_total",
			Help:      "Settlement plans computed.",
		}),
		suggestedTxs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggested_transactions",
			Help:      "Number of transactions in each computed settlement plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
		residueBalances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "residue_balances_total",
			Help:      "Balances left unsettled after applying a settlement plan.",
		}),
		settledAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settled_amount_total",
			Help:      "Sum of recorded settlements, in major currency units.",
		}, []string{"currency"}),
		idempotentReplay: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotent_replays_total",
			Help:      "Requests answered from the idempotency cache.",
		}),
	}

	reg.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.simplifications,
		m.suggestedTxs,
		m.residueBalances,
		m.settledAmount,
		m.idempotentReplay,
	)
	return m
}

// ObservePlan records one computed settlement plan.
func (m *Metrics) ObservePlan(transactions, residue int) {
	m.simplifications.Inc()
	m.suggestedTxs.Observe(float64(transactions))
	if residue > 0 {
		m.residueBalances.Add(float64(residue))
	}
}

// ObserveSettlement records a settlement amount in major units.
func (m *Metrics) ObserveSettlement(currency string, amount float64) {
	m.settledAmount.WithLabelValues(currency).Add(amount)
}

// ObserveReplay counts a response served from the idempotency cache.
func (m *Metrics) ObserveReplay() {
	m.idempotentReplay.Inc()
}

// Interceptor returns a Connect interceptor counting RPCs and their latency.
func (m *Metrics) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			m.rpcDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			m.rpcRequests.WithLabelValues(procedure, codeOf(err)).Inc()
			return resp, err
		}
	}
}

func codeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Code().String()
	}
	return connect.CodeUnknown.String()
}
