package httpjson

import (
    "context"
    "crypto/tls"
    "encoding/json"
    "net"
    "net/http"
    "sync"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/sirupsen/logrus"

    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
    "github.com/amirimatin/go-seedcache/pkg/observability/tracing"
    "github.com/amirimatin/go-seedcache/pkg/snode"
    "github.com/amirimatin/go-seedcache/pkg/transport"
)

// SnapshotFunc returns the snapshot a mirror serves for get_service_nodes.
type SnapshotFunc func(ctx context.Context) (snode.Snapshot, error)

// Server is a minimal seed mirror: it answers get_service_nodes on /json_rpc
// from a local snapshot and exposes /healthz and /metrics.
type Server struct {
    bind   string
    mu     sync.Mutex
    srv    *http.Server
    ln     net.Listener
    log    logrus.FieldLogger
    tlsCfg *tls.Config
}

// NewServer binds to the given TCP address (e.g., ":22023").
func NewServer(bind string, logger logrus.FieldLogger) *Server {
    return &Server{bind: bind, log: logutil.OrDefault(logger)}
}

// UseTLS enables TLS for the HTTP server using the provided config.
func (s *Server) UseTLS(cfg *tls.Config) *Server { s.tlsCfg = cfg; return s }

// Handler returns the mirror's HTTP handler.
func Handler(snapshot SnapshotFunc, logger logrus.FieldLogger) http.Handler {
    log := logutil.OrDefault(logger)
    mux := http.NewServeMux()
    mux.HandleFunc("/json_rpc", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost { http.Error(w, "method not allowed", http.StatusMethodNotAllowed); return }
        var req transport.Request
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            writeRPC(w, http.StatusBadRequest, transport.Response{Error: &transport.RPCError{Code: transport.CodeParseError, Message: "parse error"}})
            return
        }
        if req.Method != transport.MethodGetServiceNodes {
            writeRPC(w, http.StatusOK, transport.Response{Error: &transport.RPCError{Code: transport.CodeMethodNotFound, Message: "method not found"}})
            return
        }
        ctx, end := tracing.StartSpan(r.Context(), "http.get_service_nodes")
        defer end()
        snap, err := snapshot(ctx)
        if err != nil {
            log.Warnf("httpjson: snapshot unavailable: %v", err)
            writeRPC(w, http.StatusInternalServerError, transport.Response{Error: &transport.RPCError{Code: transport.CodeInternalError, Message: err.Error()}})
            return
        }
        if snap.Nodes == nil { snap.Nodes = []snode.Node{} }
        writeRPC(w, http.StatusOK, transport.Response{Result: snap})
    })
    mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodGet { http.Error(w, "method not allowed", http.StatusMethodNotAllowed); return }
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
    })
    mux.Handle("/metrics", promhttp.Handler())
    return mux
}

func writeRPC(w http.ResponseWriter, code int, resp transport.Response) {
    resp.JSONRPC = "2.0"
    resp.ID = "0"
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(resp)
}

// Start listens and serves in the background until ctx is canceled.
func (s *Server) Start(ctx context.Context, snapshot SnapshotFunc) error {
    srv := &http.Server{Addr: s.bind, Handler: Handler(snapshot, s.log), ReadHeaderTimeout: 10 * time.Second}

    ln, err := net.Listen("tcp", s.bind)
    if err != nil { return err }
    if s.tlsCfg != nil {
        ln = tls.NewListener(ln, s.tlsCfg)
    }
    s.mu.Lock()
    s.srv, s.ln = srv, ln
    s.mu.Unlock()
    go func() {
        <-ctx.Done()
        _ = s.Stop(context.Background())
    }()
    go func() {
        if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
            s.log.Errorf("httpjson: server error: %v", err)
        }
    }()
    return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.ln != nil { return s.ln.Addr().String() }
    return s.bind
}

// Stop attempts a graceful shutdown with a short timeout.
func (s *Server) Stop(ctx context.Context) error {
    s.mu.Lock()
    srv := s.srv
    s.srv = nil
    s.mu.Unlock()
    if srv == nil { return nil }
    c, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    return srv.Shutdown(c)
}
