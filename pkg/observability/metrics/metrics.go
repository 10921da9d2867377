package metrics

import (
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus"
)

// Seed request outcomes used as the "result" label.
const (
    ResultOK        = "ok"
    ResultTransport = "transport"
    ResultInvalid   = "invalid"
    ResultTimeout   = "timeout"
    ResultCancelled = "cancelled"
)

var (
    once sync.Once

    SeedRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "seedcache",
        Name:      "seed_requests_total",
        Help:      "Seed get_service_nodes requests by outcome",
    }, []string{"seed", "result"})

    SeedLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
        Namespace: "seedcache",
        Name:      "seed_request_duration_seconds",
        Help:      "Latency of seed requests that completed, successful or not",
        Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
    }, []string{"seed"})

    RaceWins = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "seedcache",
        Name:      "race_wins_total",
        Help:      "Number of refreshes won by each seed",
    }, []string{"seed"})

    CachedNodes = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "seedcache",
        Name:      "cached_nodes",
        Help:      "Service nodes written to the cache file by the last refresh",
    })

    SnapshotHeight = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "seedcache",
        Name:      "snapshot_height",
        Help:      "Blockchain height of the last cached snapshot",
    })

    LastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
        Namespace: "seedcache",
        Name:      "last_success_timestamp_seconds",
        Help:      "Unix time of the last refresh that met the minimum node count",
    })

    RefreshFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
        Namespace: "seedcache",
        Name:      "refresh_failures_total",
        Help:      "Failed refresh runs by error category",
    }, []string{"category"})
)

// Register registers metrics into the default Prometheus registry (idempotent).
func Register() {
    once.Do(func() {
        prometheus.MustRegister(SeedRequests)
        prometheus.MustRegister(SeedLatency)
        prometheus.MustRegister(RaceWins)
        prometheus.MustRegister(CachedNodes)
        prometheus.MustRegister(SnapshotHeight)
        prometheus.MustRegister(LastSuccess)
        prometheus.MustRegister(RefreshFailures)
    })
}

// ObserveSeed records one completed seed request.
func ObserveSeed(seed, result string, took time.Duration) {
    SeedRequests.WithLabelValues(seed, result).Inc()
    if result != ResultCancelled {
        SeedLatency.WithLabelValues(seed).Observe(took.Seconds())
    }
}

// WriteTextfile dumps the default registry in the text exposition format,
// for node_exporter's textfile collector. The write is atomic.
func WriteTextfile(path string) error {
    Register()
    return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
