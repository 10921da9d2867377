package snode

import (
    "encoding/json"
    "errors"
    "math"
    "strings"
    "testing"

    "github.com/stretchr/testify/require"
)

func decodeString(t *testing.T, s string) any {
    t.Helper()
    v, err := Decode(strings.NewReader(s))
    require.NoError(t, err)
    return v
}

const validResponse = `{
  "result": {
    "service_node_states": [
      {"public_ip": "10.0.0.1", "storage_port": 22021, "pubkey_ed25519": "ed1", "pubkey_x25519": "x1", "requested_unlock_height": 0},
      {"public_ip": "0.0.0.0", "storage_port": 22021, "pubkey_ed25519": "ed2", "pubkey_x25519": "x2", "requested_unlock_height": 0},
      {"public_ip": "", "storage_port": 22021, "pubkey_ed25519": "ed3", "pubkey_x25519": "x3", "requested_unlock_height": 0},
      {"public_ip": "10.0.0.4", "storage_port": 22100, "pubkey_ed25519": "ed4", "pubkey_x25519": "x4", "requested_unlock_height": 1234567, "extra": true}
    ],
    "height": 12345
  },
  "id": "0",
  "jsonrpc": "2.0"
}`

func TestValidateResponse_FiltersSentinelAndEmptyIP(t *testing.T) {
    snap, err := ValidateResponse(decodeString(t, validResponse))
    require.NoError(t, err)
    require.Equal(t, int64(12345), snap.Height)
    require.Len(t, snap.Nodes, 2)
    require.Equal(t, "10.0.0.1", snap.Nodes[0].PublicIP)
    require.Equal(t, Node{PublicIP: "10.0.0.4", StoragePort: 22100, PubkeyEd25519: "ed4", PubkeyX25519: "x4", RequestedUnlockHeight: 1234567}, snap.Nodes[1])
}

func TestValidateResponse_AcceptsPlainUnmarshal(t *testing.T) {
    var v any
    require.NoError(t, json.Unmarshal([]byte(validResponse), &v))
    snap, err := ValidateResponse(v)
    require.NoError(t, err)
    require.Equal(t, 2, snap.Count())
}

func TestValidateResponse_Errors(t *testing.T) {
    node := func(drop string, override string) string {
        fields := map[string]string{
            "public_ip":               `"1.2.3.4"`,
            "storage_port":            `1`,
            "pubkey_ed25519":          `"ed"`,
            "pubkey_x25519":           `"x"`,
            "requested_unlock_height": `0`,
        }
        parts := []string{}
        for _, k := range []string{"public_ip", "storage_port", "pubkey_ed25519", "pubkey_x25519", "requested_unlock_height"} {
            if k == drop { continue }
            v := fields[k]
            if override != "" && strings.HasPrefix(override, k+"=") { v = strings.TrimPrefix(override, k+"=") }
            parts = append(parts, `"`+k+`":`+v)
        }
        return "{" + strings.Join(parts, ",") + "}"
    }
    wrap := func(states string) string {
        return `{"result":{"service_node_states":[` + states + `],"height":1}}`
    }

    cases := []struct {
        name string
        in   string
        path string
    }{
        {"not an object", `[]`, ""},
        {"missing result", `{"error":"boom"}`, "result"},
        {"result not object", `{"result":"x"}`, "result"},
        {"missing states", `{"result":{"height":1}}`, "result.service_node_states"},
        {"states not array", `{"result":{"service_node_states":{},"height":1}}`, "result.service_node_states"},
        {"missing height", `{"result":{"service_node_states":[]}}`, "result.height"},
        {"fractional height", `{"result":{"service_node_states":[],"height":1.5}}`, "result.height"},
        {"height above int64", `{"result":{"service_node_states":[],"height":10000000000000000000}}`, "result.height"},
        {"port below int64", wrap(node("", `storage_port=-1e19`)), "result.service_node_states[0].storage_port"},
        {"string height", `{"result":{"service_node_states":[],"height":"1"}}`, "result.height"},
        {"node not object", wrap(`1`), "result.service_node_states[0]"},
        {"missing ed25519", wrap(node("pubkey_ed25519", "")), "result.service_node_states[0].pubkey_ed25519"},
        {"missing x25519 on second", wrap(node("", "") + "," + node("pubkey_x25519", "")), "result.service_node_states[1].pubkey_x25519"},
        {"port as string", wrap(node("", `storage_port="22021"`)), "result.service_node_states[0].storage_port"},
        {"ip as number", wrap(node("", `public_ip=7`)), "result.service_node_states[0].public_ip"},
        {"null unlock height", wrap(node("", `requested_unlock_height=null`)), "result.service_node_states[0].requested_unlock_height"},
    }
    for _, c := range cases {
        t.Run(c.name, func(t *testing.T) {
            _, err := ValidateResponse(decodeString(t, c.in))
            require.Error(t, err)
            var verr *ValidationError
            require.True(t, errors.As(err, &verr), "got %T", err)
            require.Equal(t, c.path, verr.Path)
        })
    }
}

func TestValidateResponse_MalformedSentinelNodeStillFails(t *testing.T) {
    // structural checks run before filtering
    in := `{"result":{"service_node_states":[{"public_ip":"0.0.0.0","storage_port":1,"pubkey_ed25519":"e","requested_unlock_height":0}],"height":1}}`
    _, err := ValidateResponse(decodeString(t, in))
    var verr *ValidationError
    require.ErrorAs(t, err, &verr)
    require.Equal(t, "result.service_node_states[0].pubkey_x25519", verr.Path)
}

func TestValidateResult_CountNeverGrows(t *testing.T) {
    for _, in := range []string{
        `{"service_node_states":[],"height":0}`,
        `{"service_node_states":[{"public_ip":"0.0.0.0","storage_port":1,"pubkey_ed25519":"e","pubkey_x25519":"x","requested_unlock_height":0}],"height":7}`,
        `{"service_node_states":[{"public_ip":"1.1.1.1","storage_port":1,"pubkey_ed25519":"e","pubkey_x25519":"x","requested_unlock_height":0},{"public_ip":"1.1.1.1","storage_port":1,"pubkey_ed25519":"e","pubkey_x25519":"x","requested_unlock_height":0}],"height":7}`,
    } {
        v := decodeString(t, in)
        raw := v.(map[string]any)["service_node_states"].([]any)
        snap, err := ValidateResult(v)
        require.NoError(t, err)
        require.LessOrEqual(t, snap.Count(), len(raw))
    }
}

func TestFilterUsable_Idempotent(t *testing.T) {
    nodes := []Node{
        {PublicIP: "1.1.1.1"},
        {PublicIP: SentinelIP},
        {PublicIP: ""},
        {PublicIP: "2.2.2.2"},
        {PublicIP: "1.1.1.1"},
    }
    once := FilterUsable(nodes)
    twice := FilterUsable(once)
    require.Equal(t, once, twice)
    require.Equal(t, []Node{{PublicIP: "1.1.1.1"}, {PublicIP: "2.2.2.2"}, {PublicIP: "1.1.1.1"}}, once)
    require.Len(t, nodes, 5, "input must not be modified")
}

func TestValidationError_Message(t *testing.T) {
    err := &ValidationError{Path: "result.height", Reason: "missing"}
    require.Equal(t, "validation: result.height: missing", err.Error())
    err = &ValidationError{Reason: "expected object, got array"}
    require.Equal(t, "validation: expected object, got array", err.Error())
}

func TestValidateResult_IntegerOutOfRange(t *testing.T) {
    // float64 input, as produced by a plain json.Unmarshal into any
    _, err := ValidateResult(map[string]any{"service_node_states": []any{}, "height": 1e19})
    var verr *ValidationError
    require.ErrorAs(t, err, &verr)
    require.Equal(t, "height", verr.Path)
    require.Contains(t, verr.Reason, "integer out of range")

    snap, err := ValidateResult(decodeString(t, `{"service_node_states":[],"height":9223372036854775807}`))
    require.NoError(t, err)
    require.Equal(t, int64(math.MaxInt64), snap.Height)
}
