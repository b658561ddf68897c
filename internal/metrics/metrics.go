// Package metrics exposes prometheus collectors for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportsTotal counts snapshot uploads by data type.
	ImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_imports_total",
		Help: "Number of snapshot imports accepted, by data type.",
	}, []string{"type"})

	// ImportRowsTotal counts raw rows persisted from uploads.
	ImportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_import_rows_total",
		Help: "Number of raw snapshot rows persisted, by data type.",
	}, []string{"type"})

	// ParseFailuresTotal counts uploads whose XML payload could not be parsed.
	ParseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_import_parse_failures_total",
		Help: "Number of uploads with unparseable XML, by data type.",
	}, []string{"type"})

	// DerivationFailuresTotal counts phase-two rollbacks.
	DerivationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_derivation_failures_total",
		Help: "Number of entity derivation transactions rolled back, by data type.",
	}, []string{"type"})

	// TransactionsCreatedTotal counts income transactions derived from uploads.
	TransactionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "insight_income_transactions_created_total",
		Help: "Number of income transactions derived from snapshot uploads.",
	})
)
