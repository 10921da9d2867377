package bootstrap

import (
    "context"
    "errors"
    "fmt"
    "os"
    "time"

    "github.com/sirupsen/logrus"
    "gopkg.in/yaml.v3"

    "github.com/amirimatin/go-seedcache/pkg/cache"
    "github.com/amirimatin/go-seedcache/pkg/discovery"
    dDNS "github.com/amirimatin/go-seedcache/pkg/discovery/dns"
    dFile "github.com/amirimatin/go-seedcache/pkg/discovery/file"
    dStatic "github.com/amirimatin/go-seedcache/pkg/discovery/static"
    "github.com/amirimatin/go-seedcache/pkg/fetcher"
    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
    "github.com/amirimatin/go-seedcache/pkg/refresh"
    tlsx "github.com/amirimatin/go-seedcache/pkg/security/tlsconfig"
    "github.com/amirimatin/go-seedcache/pkg/transport/httpjson"
)

// Config defines every input of a refresh run. DefaultConfig carries the
// production constants; a YAML file and CLI flags overlay it.
type Config struct {
    // Discovery settings
    DiscoveryKind string   `yaml:"discovery"` // "static" (default), "file" or "dns"
    Seeds         []string `yaml:"seeds"`     // used when DiscoveryKind=static
    SeedsFile     string   `yaml:"seeds_file"`
    SeedsEnv      string   `yaml:"seeds_env"`
    DNSNames      []string `yaml:"dns_names"`
    DNSPort       int      `yaml:"dns_port"`

    // Fetch and cache
    Timeout   time.Duration `yaml:"timeout"`
    MinNodes  int           `yaml:"min_nodes"`
    CachePath string        `yaml:"cache_path"`

    // TLS for seed requests. Verification is off unless TLSVerify is set or
    // a CA is pinned.
    TLSVerify     bool   `yaml:"tls_verify"`
    TLSCA         string `yaml:"tls_ca"`
    TLSServerName string `yaml:"tls_server_name"`

    // Process-level outputs, applied by the CLI
    MetricsFile string          `yaml:"metrics_file"`
    Trace       bool            `yaml:"trace"`
    Log         logutil.Options `yaml:"log"`

    // Logger (optional). If nil, the logrus standard logger is used.
    Logger logrus.FieldLogger `yaml:"-"`
}

// DefaultConfig returns the built-in seeds, a 30s per-request timeout, a
// minimum of 20 nodes and ./service-nodes-cache.json.
func DefaultConfig() Config {
    return Config{
        DiscoveryKind: "static",
        Seeds:         append([]string(nil), discovery.DefaultSeeds...),
        DNSPort:       443,
        Timeout:       fetcher.DefaultTimeout,
        MinNodes:      refresh.DefaultMinNodes,
        CachePath:     cache.DefaultPath,
    }
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
    data, err := os.ReadFile(path)
    if err != nil { return fmt.Errorf("config: %w", err) }
    if err := yaml.Unmarshal(data, cfg); err != nil {
        return fmt.Errorf("config %s: %w", path, err)
    }
    return nil
}

// Validate checks cfg before any network activity.
func (c Config) Validate() error {
    switch c.DiscoveryKind {
    case "", "static":
        if len(c.Seeds) > 0 {
            if usable, rejected := dStatic.Clean(c.Seeds); len(usable) == 0 {
                return fmt.Errorf("config: no usable seed URLs (rejected %q)", rejected)
            }
        }
    case "file":
        if c.SeedsFile == "" && c.SeedsEnv == "" { return errors.New("config: discovery=file needs seeds_file or seeds_env") }
    case "dns":
        if len(c.DNSNames) == 0 { return errors.New("config: discovery=dns needs dns_names") }
    default:
        return fmt.Errorf("config: unknown discovery %q", c.DiscoveryKind)
    }
    if c.Timeout < 0 { return errors.New("config: negative timeout") }
    if c.MinNodes < 1 { return errors.New("config: min_nodes must be at least 1") }
    return nil
}

// Discovery builds the configured seed source.
func Discovery(cfg Config) discovery.Discovery {
    switch cfg.DiscoveryKind {
    case "dns":
        return dDNS.New(dDNS.Options{Names: cfg.DNSNames, Port: cfg.DNSPort, Logger: cfg.Logger})
    case "file":
        return dFile.New(dFile.Options{Path: cfg.SeedsFile, Env: cfg.SeedsEnv, Logger: cfg.Logger})
    default:
        if _, rejected := dStatic.Clean(cfg.Seeds); len(rejected) > 0 {
            logutil.OrDefault(cfg.Logger).Warnf("discovery/static: skipping invalid seed URLs %q", rejected)
        }
        return dStatic.New(cfg.Seeds...)
    }
}

// TLS returns the seed client TLS options for cfg.
func TLS(cfg Config) tlsx.Options {
    opts := tlsx.Seeds()
    if cfg.TLSVerify || cfg.TLSCA != "" { opts.InsecureSkipVerify = false }
    opts.CAFile = cfg.TLSCA
    opts.ServerName = cfg.TLSServerName
    return opts
}

// NewLogger builds the logrus logger described by cfg.Log, with env overrides.
func NewLogger(cfg Config) (*logrus.Logger, error) {
    return logutil.New(cfg.Log.FromEnv())
}

// Build assembles a refresh.Refresher from cfg without doing any I/O beyond
// reading TLS material.
func Build(cfg Config) (*refresh.Refresher, error) {
    if err := cfg.Validate(); err != nil { return nil, err }
    cfg.Logger = logutil.OrDefault(cfg.Logger)

    tlsCfg, err := TLS(cfg).Client()
    if err != nil { return nil, fmt.Errorf("tls client config: %w", err) }
    client := httpjson.NewClient(0).UseTLS(tlsCfg)

    f := fetcher.New(fetcher.Options{
        Discovery: Discovery(cfg),
        Client:    client,
        Timeout:   cfg.Timeout,
        Logger:    cfg.Logger,
    })
    w := cache.NewWriter(cfg.CachePath, cfg.Logger)
    return refresh.New(refresh.Options{Fetcher: f, Writer: w, MinNodes: cfg.MinNodes, Logger: cfg.Logger}), nil
}

// Run builds and runs a single refresh.
func Run(ctx context.Context, cfg Config) (refresh.Summary, error) {
    r, err := Build(cfg)
    if err != nil { return refresh.Summary{}, err }
    return r.Run(ctx)
}
