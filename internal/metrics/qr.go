package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(qrRendersTotal, qrCacheLookupsTotal) }

var qrRendersTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qr_renders_total",
		Help: "Provisioning image renders by outcome.",
	},
	[]string{"result"}, // ok | error
)

var qrCacheLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "qr_cache_lookups_total",
		Help: "Render cache lookups by outcome.",
	},
	[]string{"result"}, // hit | miss | error
)

// IncRender counts a render attempt.
func IncRender(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	qrRendersTotal.WithLabelValues(result).Inc()
}

// IncCacheLookup counts a render cache lookup.
func IncCacheLookup(result string) {
	qrCacheLookupsTotal.WithLabelValues(norm(result)).Inc()
}
