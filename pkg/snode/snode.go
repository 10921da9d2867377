package snode

// SentinelIP is the placeholder address seeds report for a node without a
// routable public IP.
const SentinelIP = "0.0.0.0"

// Node is a single service node entry as returned by a seed and persisted in
// the cache file.
type Node struct {
    PublicIP              string `json:"public_ip"`
    StoragePort           int64  `json:"storage_port"`
    PubkeyEd25519         string `json:"pubkey_ed25519"`
    PubkeyX25519          string `json:"pubkey_x25519"`
    RequestedUnlockHeight int64  `json:"requested_unlock_height"`
}

// Usable reports whether the node has a routable public IP.
func (n Node) Usable() bool { return n.PublicIP != "" && n.PublicIP != SentinelIP }

// Snapshot is the set of active nodes observed at a blockchain height. Field
// order matches the cache file layout.
type Snapshot struct {
    Nodes  []Node `json:"service_node_states"`
    Height int64  `json:"height"`
}

// Count returns the number of nodes in the snapshot.
func (s Snapshot) Count() int { return len(s.Nodes) }

// FilterUsable returns the nodes with a usable public IP, preserving order.
// The input slice is not modified.
func FilterUsable(nodes []Node) []Node {
    out := make([]Node, 0, len(nodes))
    for _, n := range nodes {
        if n.Usable() {
            out = append(out, n)
        }
    }
    return out
}
