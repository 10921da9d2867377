package refresh

import (
    "context"
    "errors"
    "fmt"

    "github.com/amirimatin/go-seedcache/pkg/cache"
    "github.com/amirimatin/go-seedcache/pkg/fetcher"
    "github.com/amirimatin/go-seedcache/pkg/snode"
)

// InsufficientNodeCountError means the snapshot was cached but holds fewer
// nodes than downstream consumers need.
type InsufficientNodeCountError struct {
    Count int
    Min   int
    Path  string
}

func (e *InsufficientNodeCountError) Error() string {
    return fmt.Sprintf("only %d nodes found (minimum: %d)", e.Count, e.Min)
}

// Error categories reported by Category.
const (
    CategoryCancelled    = "cancelled"
    CategoryInsufficient = "insufficient node count"
    CategoryEmpty        = "empty result"
    CategoryAllFailed    = "all seeds failed"
    CategoryFileSystem   = "file system error"
    CategoryValidation   = "validation error"
    CategoryNoSeeds      = "no seeds"
    CategoryOther        = "error"
)

// Category maps a run error onto the label used in the failure report and
// the refresh_failures_total metric.
func Category(err error) string {
    var (
        insufficient *InsufficientNodeCountError
        empty        *fetcher.EmptyResultError
        all          *fetcher.AllSeedsFailedError
        fserr        *cache.FileSystemError
        verr         *snode.ValidationError
    )
    switch {
    case err == nil:
        return ""
    case errors.Is(err, context.Canceled):
        return CategoryCancelled
    case errors.As(err, &insufficient):
        return CategoryInsufficient
    case errors.As(err, &empty):
        return CategoryEmpty
    case errors.As(err, &all):
        return CategoryAllFailed
    case errors.As(err, &fserr):
        return CategoryFileSystem
    case errors.As(err, &verr):
        return CategoryValidation
    case errors.Is(err, fetcher.ErrNoSeeds):
        return CategoryNoSeeds
    default:
        return CategoryOther
    }
}
