package cli

import (
    "context"
    "errors"
    "fmt"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"

    "github.com/sirupsen/logrus"
    "github.com/spf13/cobra"

    "github.com/amirimatin/go-seedcache/pkg/bootstrap"
    "github.com/amirimatin/go-seedcache/pkg/cache"
    dStatic "github.com/amirimatin/go-seedcache/pkg/discovery/static"
    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
    "github.com/amirimatin/go-seedcache/pkg/observability/metrics"
    "github.com/amirimatin/go-seedcache/pkg/observability/tracing"
    "github.com/amirimatin/go-seedcache/pkg/refresh"
    tlsx "github.com/amirimatin/go-seedcache/pkg/security/tlsconfig"
    "github.com/amirimatin/go-seedcache/pkg/snode"
    "github.com/amirimatin/go-seedcache/pkg/transport/httpjson"
)

// NewRootCmd returns a root command that refreshes the cache when run
// without a subcommand and carries inspect/seeds/serve as subcommands.
func NewRootCmd(name string) *cobra.Command {
    root := NewRefreshCmd()
    root.Use = name
    root.Short = "Refresh the local service node cache from seed endpoints"
    root.SilenceUsage = true
    root.SilenceErrors = true
    AddAll(root)
    return root
}

// AddAll attaches the seedcache subcommands to the provided root command.
func AddAll(root *cobra.Command) {
    root.AddCommand(NewRefreshCmd())
    root.AddCommand(NewInspectCmd())
    root.AddCommand(NewSeedsCmd())
    root.AddCommand(NewServeCmd())
}

// reportedError marks an error already logged by the failure funnel.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already logged by a command.
func Reported(err error) bool {
    var r reportedError
    return errors.As(err, &r)
}

// fail is the single failure funnel: one categorised line, then the error
// goes back to main for the exit code.
func fail(log logrus.FieldLogger, err error) error {
    log.WithField("category", refresh.Category(err)).Errorf("%s: %v", refresh.Category(err), err)
    return reportedError{err: err}
}

// configFlags binds the bootstrap.Config fields shared by refresh and seeds.
type configFlags struct {
    path                                           string
    seedsCSV, discoveryKind, seedsFile, seedsEnv   string
    dnsNames                                       string
    dnsPort, minNodes                              int
    timeout                                        time.Duration
    cachePath, tlsCA, tlsServerName, metricsFile   string
    tlsVerify, trace, logJSON                      bool
    logLevel, logFile                              string
}

func (f *configFlags) bind(cmd *cobra.Command) {
    fs := cmd.Flags()
    fs.StringVar(&f.path, "config", "", "YAML config file; flags override its values")
    fs.StringVar(&f.seedsCSV, "seeds", "", "comma-separated seed URLs (discovery=static)")
    fs.StringVar(&f.discoveryKind, "discovery", "static", "seed source: static|file|dns")
    fs.StringVar(&f.seedsFile, "seeds-file", "", "path or glob to a file with seed URLs (discovery=file)")
    fs.StringVar(&f.seedsEnv, "seeds-env", "", "ENV var name containing CSV seed URLs; overrides the file")
    fs.StringVar(&f.dnsNames, "dns-names", "", "comma-separated SRV records or hostnames (discovery=dns)")
    fs.IntVar(&f.dnsPort, "dns-port", 443, "port used for A/AAAA lookups")
    fs.DurationVar(&f.timeout, "timeout", 30*time.Second, "per-seed request timeout")
    fs.IntVar(&f.minNodes, "min-nodes", refresh.DefaultMinNodes, "minimum node count for success")
    fs.StringVar(&f.cachePath, "cache", cache.DefaultPath, "cache file path")
    fs.BoolVar(&f.tlsVerify, "tls-verify", false, "verify seed certificates (seeds use non-public roots)")
    fs.StringVar(&f.tlsCA, "tls-ca", "", "CA bundle (PEM) to verify seed certificates against")
    fs.StringVar(&f.tlsServerName, "tls-server-name", "", "expected server name (for TLS validation)")
    fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
    fs.BoolVar(&f.trace, "trace", false, "enable OpenTelemetry stdout tracing (written to stderr)")
    fs.StringVar(&f.logLevel, "log-level", "", "log level: debug|info|warn|error")
    fs.BoolVar(&f.logJSON, "log-json", false, "emit JSON logs")
    fs.StringVar(&f.logFile, "log-file", "", "also write logs to this file (rotated)")
}

// config resolves defaults, then the config file, then explicitly set flags.
func (f *configFlags) config(cmd *cobra.Command) (bootstrap.Config, error) {
    cfg := bootstrap.DefaultConfig()
    if f.path != "" {
        if err := bootstrap.LoadFile(f.path, &cfg); err != nil { return cfg, err }
    }
    set := cmd.Flags().Changed
    if set("seeds") { cfg.Seeds = dStatic.Parse(f.seedsCSV) }
    if set("discovery") { cfg.DiscoveryKind = f.discoveryKind }
    if set("seeds-file") { cfg.SeedsFile = f.seedsFile }
    if set("seeds-env") { cfg.SeedsEnv = f.seedsEnv }
    if set("dns-names") { cfg.DNSNames = dStatic.Parse(f.dnsNames) }
    if set("dns-port") { cfg.DNSPort = f.dnsPort }
    if set("timeout") { cfg.Timeout = f.timeout }
    if set("min-nodes") { cfg.MinNodes = f.minNodes }
    if set("cache") { cfg.CachePath = f.cachePath }
    if set("tls-verify") { cfg.TLSVerify = f.tlsVerify }
    if set("tls-ca") { cfg.TLSCA = f.tlsCA }
    if set("tls-server-name") { cfg.TLSServerName = f.tlsServerName }
    if set("metrics-file") { cfg.MetricsFile = f.metricsFile }
    if set("trace") { cfg.Trace = f.trace }
    if set("log-level") { cfg.Log.Level = f.logLevel }
    if set("log-json") { cfg.Log.JSON = f.logJSON }
    if set("log-file") { cfg.Log.File = f.logFile }
    cfg.Log.Stdout = cmd.OutOrStdout()
    cfg.Log.Stderr = cmd.ErrOrStderr()
    return cfg, nil
}

func (f *configFlags) setup(cmd *cobra.Command) (bootstrap.Config, *logrus.Logger, error) {
    cfg, err := f.config(cmd)
    if err != nil { return cfg, nil, err }
    logger, err := bootstrap.NewLogger(cfg)
    if err != nil { return cfg, nil, fmt.Errorf("logger: %w", err) }
    cfg.Logger = logger
    return cfg, logger, nil
}

// NewRefreshCmd returns the "refresh" command: fetch, cache, check.
func NewRefreshCmd() *cobra.Command {
    var flags configFlags
    cmd := &cobra.Command{
        Use:   "refresh",
        Short: "Fetch service nodes from the seeds and rewrite the cache file",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, log, err := flags.setup(cmd)
            if err != nil { return err }

            if cfg.Trace {
                shutdown, err := tracing.Setup(true, cmd.ErrOrStderr())
                if err != nil {
                    log.Warnf("tracing setup error: %v", err)
                } else {
                    defer func() { _ = shutdown(context.Background()) }()
                }
            }
            metrics.Register()
            if cfg.MetricsFile != "" {
                defer func() {
                    if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
                        log.Warnf("metrics textfile: %v", err)
                    }
                }()
            }

            sum, err := bootstrap.Run(cmd.Context(), cfg)
            if err != nil { return fail(log, err) }
            return sum.Print(cmd.OutOrStdout())
        },
    }
    flags.bind(cmd)
    return cmd
}

// NewInspectCmd returns the "inspect" command, which validates an existing
// cache file the way downstream consumers read it.
func NewInspectCmd() *cobra.Command {
    var (
        path     string
        minNodes int
    )
    cmd := &cobra.Command{
        Use:   "inspect",
        Short: "Validate the cache file and report its size and age",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            log, err := logutil.New(logutil.Options{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}.FromEnv())
            if err != nil { return err }
            if minNodes < 1 { return errors.New("inspect: --min-nodes must be at least 1") }
            snap, mtime, err := cache.Load(path)
            if err != nil { return fail(log, err) }
            age := time.Since(mtime).Round(time.Second)
            fmt.Fprintf(cmd.OutOrStdout(), "%s: %d service nodes at height %d, written %s ago\n", path, snap.Count(), snap.Height, age)
            if snap.Count() < minNodes {
                return fail(log, &refresh.InsufficientNodeCountError{Count: snap.Count(), Min: minNodes, Path: path})
            }
            return nil
        },
    }
    cmd.Flags().StringVar(&path, "cache", cache.DefaultPath, "cache file path")
    cmd.Flags().IntVar(&minNodes, "min-nodes", refresh.DefaultMinNodes, "minimum node count for success")
    return cmd
}

// NewSeedsCmd returns the "seeds" command listing the resolved seed URLs.
func NewSeedsCmd() *cobra.Command {
    var flags configFlags
    cmd := &cobra.Command{
        Use:   "seeds",
        Short: "Print the seed URLs the configured discovery resolves to",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            cfg, log, err := flags.setup(cmd)
            if err != nil { return err }
            if err := cfg.Validate(); err != nil { return fail(log, err) }
            seeds := bootstrap.Discovery(cfg).Seeds()
            if len(seeds) == 0 {
                log.Warn("no seeds resolved")
                return nil
            }
            _, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(seeds, "\n"))
            return err
        },
    }
    flags.bind(cmd)
    return cmd
}

// NewServeCmd returns the "serve" command: a seed mirror answering
// get_service_nodes from the local cache file.
func NewServeCmd() *cobra.Command {
    var addr, path, tlsCert, tlsKey string
    cmd := &cobra.Command{
        Use:   "serve",
        Short: "Serve the cache file as a get_service_nodes seed mirror",
        Args:  cobra.NoArgs,
        RunE: func(cmd *cobra.Command, args []string) error {
            log, err := logutil.New(logutil.Options{Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}.FromEnv())
            if err != nil { return err }
            srvTLS, err := tlsx.Options{CertFile: tlsCert, KeyFile: tlsKey}.Server()
            if err != nil { return fmt.Errorf("tls server config: %w", err) }

            metrics.Register()
            ctx := cmd.Context()
            srv := httpjson.NewServer(addr, log)
            if srvTLS != nil { srv.UseTLS(srvTLS) }
            err = srv.Start(ctx, func(context.Context) (snode.Snapshot, error) {
                snap, _, err := cache.Load(path)
                return snap, err
            })
            if err != nil { return fail(log, err) }
            log.Infof("serving %s on %s", path, srv.Addr())
            <-ctx.Done()
            return srv.Stop(context.Background())
        },
    }
    cmd.Flags().StringVar(&addr, "addr", ":22023", "listen address (host:port)")
    cmd.Flags().StringVar(&path, "cache", cache.DefaultPath, "cache file path")
    cmd.Flags().StringVar(&tlsCert, "tls-cert", "", "server certificate (PEM)")
    cmd.Flags().StringVar(&tlsKey, "tls-key", "", "server private key (PEM)")
    return cmd
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
    return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
