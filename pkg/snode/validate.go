package snode

import (
    "encoding/json"
    "fmt"
    "io"
    "math"
)

// ValidationError names the first structural mismatch found in a payload.
type ValidationError struct {
    Path   string
    Reason string
}

func (e *ValidationError) Error() string {
    if e.Path == "" { return "validation: " + e.Reason }
    return fmt.Sprintf("validation: %s: %s", e.Path, e.Reason)
}

func invalid(path, format string, args ...any) error {
    return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Decode reads a single JSON value from r. Numbers are kept as json.Number so
// large integers are not rounded through float64.
func Decode(r io.Reader) (any, error) {
    dec := json.NewDecoder(r)
    dec.UseNumber()
    var v any
    if err := dec.Decode(&v); err != nil {
        return nil, err
    }
    return v, nil
}

// ValidateResponse checks a decoded get_service_nodes response of the form
// {"result": {"service_node_states": [...], "height": n}} and returns the
// snapshot with unusable nodes filtered out.
func ValidateResponse(v any) (Snapshot, error) {
    obj, ok := v.(map[string]any)
    if !ok { return Snapshot{}, invalid("", "expected object, got %s", kind(v)) }
    res, ok := obj["result"]
    if !ok { return Snapshot{}, invalid("result", "missing") }
    return validateResult(res, "result")
}

// ValidateResult checks the inner envelope {"service_node_states": [...],
// "height": n}. This is also the shape of the cache file.
func ValidateResult(v any) (Snapshot, error) {
    return validateResult(v, "")
}

func validateResult(v any, path string) (Snapshot, error) {
    obj, ok := v.(map[string]any)
    if !ok { return Snapshot{}, invalid(path, "expected object, got %s", kind(v)) }

    statesPath := join(path, "service_node_states")
    rawStates, ok := obj["service_node_states"]
    if !ok { return Snapshot{}, invalid(statesPath, "missing") }
    states, ok := rawStates.([]any)
    if !ok { return Snapshot{}, invalid(statesPath, "expected array, got %s", kind(rawStates)) }

    heightPath := join(path, "height")
    rawHeight, ok := obj["height"]
    if !ok { return Snapshot{}, invalid(heightPath, "missing") }
    height, err := integer(rawHeight, heightPath)
    if err != nil { return Snapshot{}, err }

    nodes := make([]Node, 0, len(states))
    for i, raw := range states {
        n, err := validateNode(raw, fmt.Sprintf("%s[%d]", statesPath, i))
        if err != nil { return Snapshot{}, err }
        nodes = append(nodes, n)
    }
    return Snapshot{Nodes: FilterUsable(nodes), Height: height}, nil
}

func validateNode(v any, path string) (Node, error) {
    obj, ok := v.(map[string]any)
    if !ok { return Node{}, invalid(path, "expected object, got %s", kind(v)) }
    var (
        n   Node
        err error
    )
    if n.PublicIP, err = stringField(obj, path, "public_ip"); err != nil { return Node{}, err }
    if n.StoragePort, err = intField(obj, path, "storage_port"); err != nil { return Node{}, err }
    if n.PubkeyEd25519, err = stringField(obj, path, "pubkey_ed25519"); err != nil { return Node{}, err }
    if n.PubkeyX25519, err = stringField(obj, path, "pubkey_x25519"); err != nil { return Node{}, err }
    if n.RequestedUnlockHeight, err = intField(obj, path, "requested_unlock_height"); err != nil { return Node{}, err }
    return n, nil
}

func stringField(obj map[string]any, path, name string) (string, error) {
    p := join(path, name)
    raw, ok := obj[name]
    if !ok { return "", invalid(p, "missing") }
    s, ok := raw.(string)
    if !ok { return "", invalid(p, "expected string, got %s", kind(raw)) }
    return s, nil
}

func intField(obj map[string]any, path, name string) (int64, error) {
    p := join(path, name)
    raw, ok := obj[name]
    if !ok { return 0, invalid(p, "missing") }
    return integer(raw, p)
}

// integer accepts json.Number (from Decode) and float64 (from a plain
// json.Unmarshal into any) as long as the value is integral.
func integer(v any, path string) (int64, error) {
    switch x := v.(type) {
    case json.Number:
        if i, err := x.Int64(); err == nil { return i, nil }
        f, err := x.Float64()
        if err != nil || f != math.Trunc(f) { return 0, invalid(path, "expected integer, got %s", x.String()) }
        if !inInt64Range(f) { return 0, invalid(path, "integer out of range: %s", x.String()) }
        return int64(f), nil
    case float64:
        if x != math.Trunc(x) || math.IsInf(x, 0) { return 0, invalid(path, "expected integer, got %v", x) }
        if !inInt64Range(x) { return 0, invalid(path, "integer out of range: %v", x) }
        return int64(x), nil
    case int:
        return int64(x), nil
    case int64:
        return x, nil
    default:
        return 0, invalid(path, "expected integer, got %s", kind(v))
    }
}

// inInt64Range reports whether f converts to int64 without wrapping.
// float64(math.MaxInt64) rounds up to 2^63, hence the strict bound.
func inInt64Range(f float64) bool { return f >= math.MinInt64 && f < math.MaxInt64 }

func kind(v any) string {
    switch v.(type) {
    case nil:
        return "null"
    case map[string]any:
        return "object"
    case []any:
        return "array"
    case string:
        return "string"
    case bool:
        return "boolean"
    case json.Number, float64, int, int64:
        return "number"
    default:
        return fmt.Sprintf("%T", v)
    }
}

func join(path, name string) string {
    if path == "" { return name }
    return path + "." + name
}
