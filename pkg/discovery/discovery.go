package discovery

import (
    "net/url"
    "strings"
)

// Discovery abstracts where the seed endpoint list comes from. Seeds returns
// absolute http(s) URLs in the order they should be tried.
type Discovery interface {
    Seeds() []string
}

// DefaultSeeds are the well-known public seed JSON-RPC endpoints.
var DefaultSeeds = []string{
    "https://seed1.getsession.org/json_rpc",
    "https://seed2.getsession.org/json_rpc",
    "https://seed3.getsession.org/json_rpc",
}

// NormalizeURL trims s and reports whether it is an absolute http or https
// URL with a host.
func NormalizeURL(s string) (string, bool) {
    s = strings.TrimSpace(s)
    if s == "" { return "", false }
    u, err := url.Parse(s)
    if err != nil || u.Host == "" { return "", false }
    switch strings.ToLower(u.Scheme) {
    case "http", "https":
        return u.String(), true
    default:
        return "", false
    }
}

// Dedupe drops repeated entries, keeping the first occurrence.
func Dedupe(seeds []string) []string {
    seen := make(map[string]struct{}, len(seeds))
    out := make([]string, 0, len(seeds))
    for _, s := range seeds {
        if _, ok := seen[s]; ok { continue }
        seen[s] = struct{}{}
        out = append(out, s)
    }
    return out
}
