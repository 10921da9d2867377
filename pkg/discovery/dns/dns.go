package dns

import (
    "context"
    "net"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/amirimatin/go-seedcache/pkg/discovery"
    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
)

// Options configures DNS-based discovery.
type Options struct {
    // Names are SRV records or hostnames to resolve.
    // Examples: "_seed._tcp.example.org" (SRV) or "seed.example.org" (A/AAAA).
    // Entries that already are http(s) URLs are passed through.
    Names []string

    // Port used when resolving A/AAAA records (no port info in DNS answer).
    Port int

    // Scheme and Path complete each resolved host:port into a seed URL.
    Scheme string
    Path   string

    // Timeout bounds the total resolution time; defaults to 5s.
    Timeout time.Duration

    // Resolver optionally overrides the DNS resolver used.
    Resolver *net.Resolver

    Logger logrus.FieldLogger
}

type impl struct {
    opts Options
    log  logrus.FieldLogger
}

// New returns a DNS-backed discovery that resolves SRV and A/AAAA names into
// seed URLs.
func New(opts Options) discovery.Discovery {
    if opts.Port == 0 { opts.Port = 443 }
    if opts.Scheme == "" { opts.Scheme = "https" }
    if opts.Path == "" { opts.Path = "/json_rpc" }
    if opts.Timeout <= 0 { opts.Timeout = 5 * time.Second }
    return &impl{opts: opts, log: logutil.OrDefault(opts.Logger).WithField("discovery", "dns")}
}

func (d *impl) Seeds() []string {
    ctx, cancel := context.WithTimeout(context.Background(), d.opts.Timeout)
    defer cancel()
    return d.resolveAll(ctx)
}

func (d *impl) resolveAll(ctx context.Context) []string {
    var out []string
    for _, name := range d.opts.Names {
        name = strings.TrimSpace(name)
        if name == "" { continue }
        if u, ok := discovery.NormalizeURL(name); ok {
            out = append(out, u)
            continue
        }
        // If already host:port, only the scheme and path are missing
        if strings.Contains(name, ":") && !strings.HasPrefix(name, "_") {
            out = append(out, d.seedURL(name))
            continue
        }
        if strings.HasPrefix(name, "_") && strings.Contains(name, "._") {
            if recs := d.lookupSRV(ctx, name); len(recs) > 0 {
                for _, hp := range recs { out = append(out, d.seedURL(hp)) }
                continue
            }
        }
        // Fallback to A/AAAA
        for _, hp := range d.lookupHost(ctx, name, d.opts.Port) {
            out = append(out, d.seedURL(hp))
        }
    }
    return discovery.Dedupe(out)
}

func (d *impl) seedURL(hostport string) string {
    u := url.URL{Scheme: d.opts.Scheme, Host: hostport, Path: d.opts.Path}
    return u.String()
}

func (d *impl) lookupSRV(ctx context.Context, fqdn string) []string {
    svc, proto, domain := parseSRVName(fqdn)
    if svc == "" || proto == "" || domain == "" { return nil }
    res := d.opts.Resolver
    if res == nil { res = net.DefaultResolver }
    _, addrs, err := res.LookupSRV(ctx, svc, proto, domain)
    if err != nil {
        d.log.Warnf("srv lookup %s: %v", fqdn, err)
        return nil
    }
    var out []string
    for _, a := range addrs {
        host := strings.TrimSuffix(a.Target, ".")
        out = append(out, net.JoinHostPort(host, strconv.Itoa(int(a.Port))))
    }
    return out
}

func (d *impl) lookupHost(ctx context.Context, host string, port int) []string {
    res := d.opts.Resolver
    if res == nil { res = net.DefaultResolver }
    ips, err := res.LookupHost(ctx, host)
    if err != nil {
        d.log.Warnf("host lookup %s: %v", host, err)
        return nil
    }
    out := make([]string, 0, len(ips))
    for _, ip := range ips {
        out = append(out, net.JoinHostPort(ip, strconv.Itoa(port)))
    }
    return out
}

func parseSRVName(fqdn string) (service, proto, name string) {
    // Expect pattern: _service._proto.name
    parts := strings.SplitN(fqdn, ".", 3)
    if len(parts) < 3 { return "", "", "" }
    s := strings.TrimPrefix(parts[0], "_")
    p := strings.TrimPrefix(parts[1], "_")
    n := parts[2]
    return s, p, n
}
