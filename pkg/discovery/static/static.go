package static

import (
    "strings"

    "github.com/amirimatin/go-seedcache/pkg/discovery"
)

type staticSeeds struct {
    seeds []string
}

func (s *staticSeeds) Seeds() []string { return append([]string(nil), s.seeds...) }

// New returns a Discovery that always returns the given seed URLs. Entries
// that are not absolute http(s) URLs are dropped, as are repeats. Only an
// empty list selects the package defaults; a list whose entries are all
// invalid yields no seeds.
func New(seeds ...string) discovery.Discovery {
    if len(seeds) == 0 {
        return &staticSeeds{seeds: append([]string(nil), discovery.DefaultSeeds...)}
    }
    usable, _ := Clean(seeds)
    return &staticSeeds{seeds: usable}
}

// Clean splits seeds into normalized, deduplicated URLs and the entries that
// are not absolute http(s) URLs.
func Clean(seeds []string) (usable, rejected []string) {
    usable = make([]string, 0, len(seeds))
    for _, v := range seeds {
        if u, ok := discovery.NormalizeURL(v); ok {
            usable = append(usable, u)
        } else {
            rejected = append(rejected, v)
        }
    }
    return discovery.Dedupe(usable), rejected
}

// Parse converts a comma-separated list into seed strings.
func Parse(csv string) []string {
    if csv == "" {
        return nil
    }
    parts := strings.Split(csv, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}
