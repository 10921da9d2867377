package transport

import "fmt"

// MethodGetServiceNodes is the seed JSON-RPC method listing service nodes.
const MethodGetServiceNodes = "get_service_nodes"

// Request is a JSON-RPC call as accepted by seed endpoints.
type Request struct {
    Method string `json:"method"`
    Params any    `json:"params"`
}

// ServiceNodeFields selects which node fields the seed returns.
type ServiceNodeFields struct {
    PublicIP              bool `json:"public_ip"`
    StoragePort           bool `json:"storage_port"`
    PubkeyEd25519         bool `json:"pubkey_ed25519"`
    PubkeyX25519          bool `json:"pubkey_x25519"`
    RequestedUnlockHeight bool `json:"requested_unlock_height"`
    Height                bool `json:"height"`
}

// GetServiceNodesParams are the params of a get_service_nodes call.
type GetServiceNodesParams struct {
    ActiveOnly bool              `json:"active_only"`
    Fields     ServiceNodeFields `json:"fields"`
}

// GetServiceNodesRequest returns the request body sent to every seed: active
// nodes only, projected onto the fields the cache keeps.
func GetServiceNodesRequest() Request {
    return Request{
        Method: MethodGetServiceNodes,
        Params: GetServiceNodesParams{
            ActiveOnly: true,
            Fields: ServiceNodeFields{
                PublicIP:              true,
                StoragePort:           true,
                PubkeyEd25519:         true,
                PubkeyX25519:          true,
                RequestedUnlockHeight: true,
                Height:                true,
            },
        },
    }
}

// StatusError reports a non-2xx HTTP response from a seed.
type StatusError struct {
    Code int
    Body string
}

func (e *StatusError) Error() string {
    if e.Body == "" { return fmt.Sprintf("http status %d", e.Code) }
    return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Response is a JSON-RPC reply. Exactly one of Result and Error is set.
type Response struct {
    JSONRPC string    `json:"jsonrpc"`
    ID      string    `json:"id"`
    Result  any       `json:"result,omitempty"`
    Error   *RPCError `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
    Code    int    `json:"code"`
    Message string `json:"message"`
}

// JSON-RPC error codes used by the mirror server.
const (
    CodeParseError     = -32700
    CodeMethodNotFound = -32601
    CodeInternalError  = -32603
)
