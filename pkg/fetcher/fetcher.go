package fetcher

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/sirupsen/logrus"
    "go.opentelemetry.io/otel/attribute"

    "github.com/amirimatin/go-seedcache/pkg/discovery"
    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
    "github.com/amirimatin/go-seedcache/pkg/observability/metrics"
    "github.com/amirimatin/go-seedcache/pkg/observability/tracing"
    "github.com/amirimatin/go-seedcache/pkg/snode"
    "github.com/amirimatin/go-seedcache/pkg/transport"
)

// DefaultTimeout bounds each seed request.
const DefaultTimeout = 30 * time.Second

// Options configures a Fetcher.
type Options struct {
    // Discovery supplies the seed URLs to race (required).
    Discovery discovery.Discovery
    // Client performs the JSON-RPC call (required).
    Client transport.SeedClient
    // Timeout per seed request; zero means DefaultTimeout.
    Timeout time.Duration
    Logger  logrus.FieldLogger
}

// Result is the outcome of a won race.
type Result struct {
    Seed     string
    Snapshot snode.Snapshot
    Took     time.Duration
}

// Fetcher races the configured seeds for the first valid snapshot.
type Fetcher struct {
    disc    discovery.Discovery
    client  transport.SeedClient
    timeout time.Duration
    log     logrus.FieldLogger
}

// New returns a Fetcher. It panics if Discovery or Client is nil.
func New(opts Options) *Fetcher {
    if opts.Discovery == nil || opts.Client == nil {
        panic("fetcher: Discovery and Client are required")
    }
    if opts.Timeout <= 0 { opts.Timeout = DefaultTimeout }
    return &Fetcher{disc: opts.Discovery, client: opts.Client, timeout: opts.Timeout, log: logutil.OrDefault(opts.Logger)}
}

type outcome struct {
    seed string
    snap snode.Snapshot
    took time.Duration
    err  error
}

// Fetch requests every seed concurrently and returns the first response that
// is transport-successful and passes validation. Remaining requests are
// cancelled once a seed wins. A winner with no usable nodes yields
// *EmptyResultError; if no seed wins, *AllSeedsFailedError.
func (f *Fetcher) Fetch(ctx context.Context) (Result, error) {
    seeds := f.disc.Seeds()
    if len(seeds) == 0 { return Result{}, ErrNoSeeds }

    ctx, end := tracing.Start(ctx, "seed.race", attribute.Int("seeds", len(seeds)))
    raceCtx, cancel := context.WithCancel(ctx)
    defer cancel()

    // buffered so losers never block once the race is decided
    results := make(chan outcome, len(seeds))
    for _, seed := range seeds {
        f.log.WithField("seed", seed).Infof("trying %s", seed)
        go func(seed string) { results <- f.attempt(raceCtx, seed) }(seed)
    }

    failures := make([]error, 0, len(seeds))
    for range seeds {
        o := <-results
        if o.err != nil {
            f.log.WithField("seed", o.seed).Warnf("seed failed: %v", o.err)
            failures = append(failures, o.err)
            continue
        }
        cancel()
        f.log.WithField("seed", o.seed).Infof("successfully fetched from %s in %s", o.seed, o.took.Round(time.Millisecond))
        metrics.RaceWins.WithLabelValues(o.seed).Inc()
        if o.snap.Count() == 0 {
            err := &EmptyResultError{Seed: o.seed, Height: o.snap.Height}
            end(err)
            return Result{}, err
        }
        end(nil)
        return Result{Seed: o.seed, Snapshot: o.snap, Took: o.took}, nil
    }
    err := &AllSeedsFailedError{Failures: failures}
    end(err)
    return Result{}, err
}

func (f *Fetcher) attempt(raceCtx context.Context, seed string) outcome {
    ctx, cancel := context.WithTimeout(raceCtx, f.timeout)
    defer cancel()
    ctx, end := tracing.Start(ctx, "seed.fetch", attribute.String("seed", seed))

    start := time.Now()
    snap, err := f.call(ctx, seed)
    took := time.Since(start)

    result := metrics.ResultOK
    if err != nil {
        switch {
        case raceCtx.Err() != nil:
            // lost the race or the run was aborted
            result = metrics.ResultCancelled
            err = fmt.Errorf("seed %s: %w", seed, raceCtx.Err())
        case errors.Is(ctx.Err(), context.DeadlineExceeded):
            result = metrics.ResultTimeout
            err = &TimeoutError{Seed: seed, After: f.timeout}
        default:
            var verr *snode.ValidationError
            if errors.As(err, &verr) {
                result = metrics.ResultInvalid
                err = fmt.Errorf("seed %s: %w", seed, err)
            } else {
                result = metrics.ResultTransport
                terr := &TransportError{Seed: seed, Err: err}
                var serr *transport.StatusError
                if errors.As(err, &serr) { terr.StatusCode = serr.Code }
                err = terr
            }
        }
    }
    metrics.ObserveSeed(seed, result, took)
    end(err)
    return outcome{seed: seed, snap: snap, took: took, err: err}
}

func (f *Fetcher) call(ctx context.Context, seed string) (snode.Snapshot, error) {
    body, err := f.client.GetServiceNodes(ctx, seed)
    if err != nil { return snode.Snapshot{}, err }
    return snode.ValidateResponse(body)
}
