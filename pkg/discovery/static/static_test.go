package static

import (
    "testing"

    "github.com/amirimatin/go-seedcache/pkg/discovery"
)

func TestParse(t *testing.T) {
    cases := []struct{
        in   string
        want []string
    }{
        {"", nil},
        {"https://a/json_rpc", []string{"https://a/json_rpc"}},
        {" https://a/x , https://b/x ", []string{"https://a/x","https://b/x"}},
        {",,https://a/x, ,https://b/x,", []string{"https://a/x","https://b/x"}},
    }
    for _, c := range cases {
        got := Parse(c.in)
        if len(got) != len(c.want) {
            t.Fatalf("len mismatch for %q: got %d want %d", c.in, len(got), len(c.want))
        }
        for i := range got {
            if got[i] != c.want[i] {
                t.Fatalf("[%q] item %d: got %q want %q", c.in, i, got[i], c.want[i])
            }
        }
    }
}

func TestNew(t *testing.T) {
    d := New(" https://s2/json_rpc ", "", "not a url", "https://s1/json_rpc", "https://s2/json_rpc")
    got := d.Seeds()
    if len(got) != 2 || got[0] != "https://s2/json_rpc" || got[1] != "https://s1/json_rpc" {
        t.Fatalf("unexpected seeds: %#v", got)
    }
    // Ensure returned slice is a copy
    got[0] = "x"
    got2 := d.Seeds()
    if got2[0] != "https://s2/json_rpc" {
        t.Fatalf("expected defensive copy, got %#v", got2)
    }
}

func TestNewRejectsAllInvalid(t *testing.T) {
    if got := New("seed.internal:22023", "ftp://seed/json_rpc").Seeds(); len(got) != 0 {
        t.Fatalf("invalid entries must not fall back to defaults, got %#v", got)
    }
    usable, rejected := Clean([]string{"seed.internal:22023", "https://a/json_rpc", "https://a/json_rpc"})
    if len(usable) != 1 || usable[0] != "https://a/json_rpc" {
        t.Fatalf("unexpected usable: %#v", usable)
    }
    if len(rejected) != 1 || rejected[0] != "seed.internal:22023" {
        t.Fatalf("unexpected rejected: %#v", rejected)
    }
}

func TestNewEmptyUsesDefaults(t *testing.T) {
    got := New().Seeds()
    if len(got) != len(discovery.DefaultSeeds) {
        t.Fatalf("expected defaults, got %#v", got)
    }
    for i := range got {
        if got[i] != discovery.DefaultSeeds[i] {
            t.Fatalf("item %d: got %q want %q", i, got[i], discovery.DefaultSeeds[i])
        }
    }
}
