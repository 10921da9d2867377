package file

import (
    "bufio"
    "os"
    "path/filepath"
    "sort"
    "strings"

    "github.com/sirupsen/logrus"

    "github.com/amirimatin/go-seedcache/pkg/discovery"
    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
)

// Options configures file/ENV-based discovery.
type Options struct {
    // Path to a file (or glob) containing one seed URL per line or a
    // comma-separated list. Lines starting with '#' are comments.
    Path string
    // Env names an environment variable holding a CSV of seed URLs. It
    // overrides the file when set and non-empty.
    Env string
    // Logger receives warnings for skipped entries.
    Logger logrus.FieldLogger
}

type impl struct {
    opts Options
    log  logrus.FieldLogger
}

// New returns a Discovery reading seed URLs from an env var or file on each
// call. Order is preserved; repeats and non-http(s) entries are dropped.
func New(opts Options) discovery.Discovery {
    return &impl{opts: opts, log: logutil.OrDefault(opts.Logger).WithField("discovery", "file")}
}

func (i *impl) Seeds() []string {
    if i.opts.Env != "" {
        if v := strings.TrimSpace(os.Getenv(i.opts.Env)); v != "" {
            return i.clean(splitLine(v))
        }
    }
    if i.opts.Path == "" {
        return nil
    }
    if _, err := os.Stat(i.opts.Path); err == nil {
        return i.clean(i.loadFile(i.opts.Path))
    }
    // try glob; files are read in lexical order
    matches, _ := filepath.Glob(i.opts.Path)
    sort.Strings(matches)
    var raw []string
    for _, m := range matches {
        raw = append(raw, i.loadFile(m)...)
    }
    return i.clean(raw)
}

func (i *impl) clean(raw []string) []string {
    out := make([]string, 0, len(raw))
    for _, s := range raw {
        u, ok := discovery.NormalizeURL(s)
        if !ok {
            i.log.Warnf("skipping seed %q: not an http(s) URL", s)
            continue
        }
        out = append(out, u)
    }
    return discovery.Dedupe(out)
}

func (i *impl) loadFile(path string) []string {
    f, err := os.Open(path)
    if err != nil {
        i.log.Warnf("open seed file %s: %v", path, err)
        return nil
    }
    defer f.Close()
    var seeds []string
    s := bufio.NewScanner(f)
    for s.Scan() {
        line := strings.TrimSpace(s.Text())
        if line == "" || strings.HasPrefix(line, "#") { continue }
        seeds = append(seeds, splitLine(line)...)
    }
    if err := s.Err(); err != nil {
        i.log.Warnf("read seed file %s: %v", path, err)
        return nil
    }
    return seeds
}

func splitLine(line string) []string {
    var out []string
    for _, p := range strings.Split(line, ",") {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
