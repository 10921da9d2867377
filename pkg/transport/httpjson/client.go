package httpjson

import (
    "bytes"
    "context"
    "crypto/tls"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/amirimatin/go-seedcache/pkg/snode"
    "github.com/amirimatin/go-seedcache/pkg/transport"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 512

// Client is a thin HTTP client for seed JSON-RPC endpoints. It makes exactly
// one attempt per call; the caller's context carries the deadline.
type Client struct {
    httpc     *http.Client
    transport *http.Transport
}

// NewClient constructs a new Client. timeout is an outer bound on each HTTP
// exchange; zero leaves it to the context.
func NewClient(timeout time.Duration) *Client {
    tr := http.DefaultTransport.(*http.Transport).Clone()
    return &Client{httpc: &http.Client{Timeout: timeout, Transport: tr}, transport: tr}
}

// UseTLS sets the TLS config for https seed URLs.
func (c *Client) UseTLS(cfg *tls.Config) *Client {
    if c.transport != nil { c.transport.TLSClientConfig = cfg }
    return c
}

// GetServiceNodes posts the get_service_nodes request to seedURL and decodes
// the JSON body. Non-2xx responses yield *transport.StatusError.
func (c *Client) GetServiceNodes(ctx context.Context, seedURL string) (any, error) {
    body, err := json.Marshal(transport.GetServiceNodesRequest())
    if err != nil { return nil, err }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, seedURL, bytes.NewReader(body))
    if err != nil { return nil, err }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Accept", "application/json")

    resp, err := c.httpc.Do(req)
    if err != nil { return nil, err }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
        return nil, &transport.StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
    }
    v, err := snode.Decode(resp.Body)
    if err != nil { return nil, fmt.Errorf("decode response: %w", err) }
    return v, nil
}

var _ transport.SeedClient = (*Client)(nil)
