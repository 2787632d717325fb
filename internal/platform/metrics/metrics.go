package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RulesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_rules_created_total",
		Help: "Pricing rules persisted.",
	})

	MatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_match_duration_seconds",
		Help:    "Time spent matching a product batch against a rule set.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	})

	MatchedRules = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_matched_rules",
		Help:    "Number of rules matched per product.",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
	})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_requests_total",
		Help: "Catalog page cache lookups by result (hit, miss, error).",
	}, []string{"result"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_upstream_requests_total",
		Help: "Shopify Admin API calls by operation and outcome.",
	}, []string{"operation", "outcome"})
)
