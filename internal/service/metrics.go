package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	SessionsOpened    prometheus.Counter
	SessionsClosed    prometheus.Counter
	ExchangesTotal    *prometheus.CounterVec
	TradesTotal       *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SessionsOpened: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bank_sessions_opened_total",
				Help: "Total sessions opened.",
			},
		),
		SessionsClosed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bank_sessions_closed_total",
				Help: "Total sessions closed.",
			},
		),
		ExchangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_exchanges_total",
				Help: "Total fiat exchange operations.",
			},
			[]string{"status"},
		),
		TradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bank_crypto_trades_total",
				Help: "Total crypto trade operations.",
			},
			[]string{"side", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bank_operation_duration_seconds",
				Help:    "Ledger operation duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.SessionsOpened,
		m.SessionsClosed,
		m.ExchangesTotal,
		m.TradesTotal,
		m.OperationDuration,
	)
	return m
}
