package fetcher

import (
    "errors"
    "fmt"
    "time"

    "github.com/hashicorp/go-multierror"
)

// ErrNoSeeds is returned when discovery yields no seed endpoints.
var ErrNoSeeds = errors.New("fetcher: no seed endpoints configured")

// TransportError is a network, TLS, HTTP status or body decoding failure for
// one seed.
type TransportError struct {
    Seed       string
    StatusCode int
    Err        error
}

func (e *TransportError) Error() string { return fmt.Sprintf("seed %s: %v", e.Seed, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError means a seed did not answer within its deadline.
type TimeoutError struct {
    Seed  string
    After time.Duration
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("seed %s: timed out after %s", e.Seed, e.After) }

// AllSeedsFailedError aggregates the failure of every seed in a race.
type AllSeedsFailedError struct {
    Failures []error
}

func (e *AllSeedsFailedError) Error() string {
    merr := &multierror.Error{Errors: e.Failures, ErrorFormat: multierror.ListFormatFunc}
    return "all seeds failed: " + merr.Error()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AllSeedsFailedError) Unwrap() []error { return e.Failures }

// EmptyResultError means the winning seed had no usable nodes after the
// sentinel-IP filter.
type EmptyResultError struct {
    Seed   string
    Height int64
}

func (e *EmptyResultError) Error() string {
    return fmt.Sprintf("no valid nodes found (seed %s, height %d)", e.Seed, e.Height)
}
