package refresh

import (
    "context"
    "time"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"
    "go.opentelemetry.io/otel/attribute"

    "github.com/amirimatin/go-seedcache/pkg/fetcher"
    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
    "github.com/amirimatin/go-seedcache/pkg/observability/metrics"
    "github.com/amirimatin/go-seedcache/pkg/observability/tracing"
    "github.com/amirimatin/go-seedcache/pkg/snode"
)

// DefaultMinNodes is the smallest pool downstream consumers accept.
const DefaultMinNodes = 20

// Fetcher produces a validated snapshot from the seeds.
type Fetcher interface {
    Fetch(ctx context.Context) (fetcher.Result, error)
}

// Writer persists a snapshot.
type Writer interface {
    Write(s snode.Snapshot) (int, error)
    Path() string
}

// Options wires a Refresher.
type Options struct {
    Fetcher  Fetcher
    Writer   Writer
    MinNodes int
    Logger   logrus.FieldLogger
}

// Refresher runs fetch, write and the minimum-count check once.
type Refresher struct {
    fetcher  Fetcher
    writer   Writer
    minNodes int
    log      logrus.FieldLogger
}

// New returns a Refresher; MinNodes <= 0 means DefaultMinNodes.
func New(opts Options) *Refresher {
    if opts.MinNodes <= 0 { opts.MinNodes = DefaultMinNodes }
    return &Refresher{fetcher: opts.Fetcher, writer: opts.Writer, minNodes: opts.MinNodes, log: logutil.OrDefault(opts.Logger)}
}

// MinNodes returns the configured minimum node count.
func (r *Refresher) MinNodes() int { return r.minNodes }

// Run refreshes the cache. The cache file is written before the count check,
// so an *InsufficientNodeCountError still leaves the new snapshot on disk.
// The returned Summary is filled as far as the run got.
func (r *Refresher) Run(ctx context.Context) (sum Summary, err error) {
    sum = Summary{RunID: uuid.NewString(), MinNodes: r.minNodes, Path: r.writer.Path()}
    log := r.log.WithField("run", sum.RunID)
    ctx, end := tracing.Start(ctx, "refresh.run", attribute.String("run", sum.RunID))
    start := time.Now()
    defer func() {
        sum.Took = time.Since(start)
        if err != nil { metrics.RefreshFailures.WithLabelValues(Category(err)).Inc() }
        end(err)
    }()

    log.Info("fetching fresh service node data")
    res, err := r.fetcher.Fetch(ctx)
    if err != nil { return sum, err }
    sum.Seed = res.Seed
    sum.Height = res.Snapshot.Height

    n, err := r.writer.Write(res.Snapshot)
    if err != nil { return sum, err }
    sum.Count = n
    if len(res.Snapshot.Nodes) > 0 {
        sample := res.Snapshot.Nodes[0]
        sum.Sample = &sample
    }
    metrics.CachedNodes.Set(float64(n))
    metrics.SnapshotHeight.Set(float64(res.Snapshot.Height))

    if n < r.minNodes {
        return sum, &InsufficientNodeCountError{Count: n, Min: r.minNodes, Path: sum.Path}
    }
    metrics.LastSuccess.SetToCurrentTime()
    log.WithField("seed", sum.Seed).Infof("refreshed %d nodes at height %d", n, sum.Height)
    return sum, nil
}
