package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tierHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_tier_hits_total",
		Help: "Cache hits, by cache name and tier (memory/store).",
	}, []string{"cache", "tier"})

	tierMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_tier_misses_total",
		Help: "Cache misses, by cache name and tier (memory/store).",
	}, []string{"cache", "tier"})

	staleServes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_stale_serves_total",
		Help: "Responses served from an expired entry.",
	}, []string{"cache"})

	revalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_revalidations_total",
		Help: "Background revalidations, by outcome (ok/error).",
	}, []string{"cache", "outcome"})
)
