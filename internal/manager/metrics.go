package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mlxd",
		Subsystem: "model",
		Name:      "loads_total",
		Help:      "Total successful model loads",
	})

	loadFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mlxd",
		Subsystem: "model",
		Name:      "load_failures_total",
		Help:      "Model load failures by class",
	}, []string{"class"})

	tokensGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mlxd",
		Subsystem: "generate",
		Name:      "tokens_total",
		Help:      "Total generated tokens",
	})

	generationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mlxd",
		Subsystem: "generate",
		Name:      "duration_seconds",
		Help:      "Duration of completed generations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	runawayTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mlxd",
		Subsystem: "generate",
		Name:      "runaway_trips_total",
		Help:      "Generations cut short by the runaway liveness guard",
	})

	embeddingsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mlxd",
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Total embedded texts",
	})
)

func init() {
	prometheus.MustRegister(
		loadsTotal,
		loadFailuresTotal,
		tokensGeneratedTotal,
		generationDuration,
		runawayTripsTotal,
		embeddingsTotal,
	)
}
