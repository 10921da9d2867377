package refresh

import (
    "bytes"
    "context"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/require"

    "github.com/amirimatin/go-seedcache/pkg/cache"
    "github.com/amirimatin/go-seedcache/pkg/discovery/static"
    "github.com/amirimatin/go-seedcache/pkg/fetcher"
    "github.com/amirimatin/go-seedcache/pkg/security/tlsconfig"
    "github.com/amirimatin/go-seedcache/pkg/snode"
    "github.com/amirimatin/go-seedcache/pkg/transport/httpjson"
)

func quiet() logrus.FieldLogger {
    l := logrus.New()
    l.SetOutput(io.Discard)
    return l
}

func nodesJSON(valid int, height int64) string {
    parts := make([]string, 0, valid)
    for i := 0; i < valid; i++ {
        parts = append(parts, fmt.Sprintf(`{"public_ip":"10.2.%d.%d","storage_port":22021,"pubkey_ed25519":"ed%02d","pubkey_x25519":"x%02d","requested_unlock_height":0}`, i/250, i%250+1, i, i))
    }
    return fmt.Sprintf(`{"result":{"service_node_states":[%s],"height":%d}}`, strings.Join(parts, ","), height)
}

// respond answers immediately with body.
func respond(body string) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        _, _ = io.WriteString(w, body)
    }
}

// respondAfter answers with body after d unless the client gives up first.
func respondAfter(d time.Duration, body string) http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        select {
        case <-time.After(d):
            respond(body)(w, r)
        case <-r.Context().Done():
        }
    }
}

// hang never answers; it returns once the client disconnects.
func hang(w http.ResponseWriter, r *http.Request) { <-r.Context().Done() }

type harness struct {
    servers []*httptest.Server
    path    string
}

func newHarness(t *testing.T, handlers ...http.HandlerFunc) *harness {
    t.Helper()
    h := &harness{path: filepath.Join(t.TempDir(), "service-nodes-cache.json")}
    for _, hf := range handlers {
        srv := httptest.NewTLSServer(hf)
        t.Cleanup(srv.Close)
        h.servers = append(h.servers, srv)
    }
    return h
}

func (h *harness) refresher(t *testing.T, timeout time.Duration) *Refresher {
    t.Helper()
    var urls []string
    for _, s := range h.servers { urls = append(urls, s.URL+"/json_rpc") }
    tlsCfg, err := tlsconfig.Seeds().Client()
    require.NoError(t, err)
    f := fetcher.New(fetcher.Options{
        Discovery: static.New(urls...),
        Client:    httpjson.NewClient(0).UseTLS(tlsCfg),
        Timeout:   timeout,
        Logger:    quiet(),
    })
    return New(Options{Fetcher: f, Writer: cache.NewWriter(h.path, quiet()), MinNodes: 20, Logger: quiet()})
}

func TestRun_ScenarioA_SecondSeedWins(t *testing.T) {
    h := newHarness(t, hang, respond(nodesJSON(25, 12345)), hang)

    sum, err := h.refresher(t, 5*time.Second).Run(context.Background())
    require.NoError(t, err)
    require.Equal(t, 25, sum.Count)
    require.Equal(t, int64(12345), sum.Height)
    require.Equal(t, h.servers[1].URL+"/json_rpc", sum.Seed)
    require.NotEmpty(t, sum.RunID)

    snap, _, err := cache.Load(h.path)
    require.NoError(t, err)
    require.Equal(t, 25, snap.Count())

    var out bytes.Buffer
    require.NoError(t, sum.Print(&out))
    require.True(t, strings.HasPrefix(out.String(), "Found 25 service nodes (minimum: 20)\n"), out.String())
    require.Contains(t, out.String(), "Sample node:")
    require.Contains(t, out.String(), `"public_ip": "10.2.0.1"`)
}

func TestRun_ScenarioB_AllSeedsTimeOut(t *testing.T) {
    h := newHarness(t, hang, hang, hang)
    require.NoError(t, os.WriteFile(h.path, []byte("previous"), 0o644))

    _, err := h.refresher(t, 50*time.Millisecond).Run(context.Background())
    var all *fetcher.AllSeedsFailedError
    require.ErrorAs(t, err, &all)
    require.Len(t, all.Failures, 3)
    for _, f := range all.Failures {
        var terr *fetcher.TimeoutError
        require.ErrorAs(t, f, &terr)
    }
    require.Equal(t, CategoryAllFailed, Category(err))

    b, err := os.ReadFile(h.path)
    require.NoError(t, err)
    require.Equal(t, "previous", string(b), "prior cache must be untouched")
}

func TestRun_ScenarioC_BelowMinimumStillWrites(t *testing.T) {
    h := newHarness(t, respond(nodesJSON(15, 77)))

    sum, err := h.refresher(t, time.Second).Run(context.Background())
    var short *InsufficientNodeCountError
    require.ErrorAs(t, err, &short)
    require.Equal(t, "only 15 nodes found (minimum: 20)", err.Error())
    require.Equal(t, CategoryInsufficient, Category(err))
    require.Equal(t, 15, sum.Count)

    snap, _, err := cache.Load(h.path)
    require.NoError(t, err)
    require.Equal(t, 15, snap.Count())
}

func TestRun_ScenarioD_InvalidSeedExcluded(t *testing.T) {
    bad := `{"result":{"service_node_states":[{"public_ip":"1.1.1.1","storage_port":1,"pubkey_x25519":"x","requested_unlock_height":0}],"height":5}}`
    h := newHarness(t, respond(bad), respondAfter(30*time.Millisecond, nodesJSON(21, 5)))

    sum, err := h.refresher(t, 2*time.Second).Run(context.Background())
    require.NoError(t, err)
    require.Equal(t, h.servers[1].URL+"/json_rpc", sum.Seed)
    require.Equal(t, 21, sum.Count)
}

func TestRun_TransportFailuresAllSeeds(t *testing.T) {
    fail := func(w http.ResponseWriter, r *http.Request) { http.Error(w, "down", http.StatusServiceUnavailable) }
    h := newHarness(t, fail, fail)
    _, err := h.refresher(t, time.Second).Run(context.Background())
    require.Equal(t, CategoryAllFailed, Category(err))
    _, statErr := os.Stat(h.path)
    require.True(t, errors.Is(statErr, os.ErrNotExist), "no cache file may be written")
}

type stubFetcher struct {
    res fetcher.Result
    err error
}

func (s stubFetcher) Fetch(context.Context) (fetcher.Result, error) { return s.res, s.err }

type failingWriter struct{}

func (failingWriter) Write(snode.Snapshot) (int, error) {
    return 0, &cache.FileSystemError{Op: "write", Path: "/ro/cache.json", Err: os.ErrPermission}
}
func (failingWriter) Path() string { return "/ro/cache.json" }

func TestRun_WriteFailure(t *testing.T) {
    r := New(Options{
        Fetcher: stubFetcher{res: fetcher.Result{Seed: "s", Snapshot: snode.Snapshot{Nodes: []snode.Node{{PublicIP: "1.1.1.1"}}, Height: 1}}},
        Writer:  failingWriter{},
        Logger:  quiet(),
    })
    require.Equal(t, DefaultMinNodes, r.MinNodes())
    _, err := r.Run(context.Background())
    require.Equal(t, CategoryFileSystem, Category(err))
    require.ErrorIs(t, err, os.ErrPermission)
}

func TestCategory(t *testing.T) {
    cases := []struct {
        err  error
        want string
    }{
        {nil, ""},
        {&fetcher.EmptyResultError{Seed: "s"}, CategoryEmpty},
        {fmt.Errorf("wrapped: %w", &fetcher.AllSeedsFailedError{Failures: []error{errors.New("x")}}), CategoryAllFailed},
        {&fetcher.AllSeedsFailedError{Failures: []error{fmt.Errorf("seed s: %w", context.Canceled)}}, CategoryCancelled},
        {&InsufficientNodeCountError{Count: 1, Min: 20}, CategoryInsufficient},
        {&snode.ValidationError{Path: "height", Reason: "missing"}, CategoryValidation},
        {fetcher.ErrNoSeeds, CategoryNoSeeds},
        {errors.New("boom"), CategoryOther},
    }
    for _, c := range cases {
        require.Equal(t, c.want, Category(c.err), "%v", c.err)
    }
}

func TestSummaryPrintWithoutSample(t *testing.T) {
    var out bytes.Buffer
    require.NoError(t, Summary{Count: 0, MinNodes: 20}.Print(&out))
    require.Equal(t, "Found 0 service nodes (minimum: 20)\n", out.String())
}
