package refresh

import (
    "encoding/json"
    "fmt"
    "io"
    "time"

    "github.com/amirimatin/go-seedcache/pkg/snode"
)

// Summary describes one refresh run for operators.
type Summary struct {
    RunID    string        `json:"run_id"`
    Seed     string        `json:"seed,omitempty"`
    Count    int           `json:"count"`
    MinNodes int           `json:"min_nodes"`
    Height   int64         `json:"height"`
    Path     string        `json:"path"`
    Sample   *snode.Node   `json:"sample,omitempty"`
    Took     time.Duration `json:"took"`
}

// Print writes the human-readable report of a successful run.
func (s Summary) Print(w io.Writer) error {
    if _, err := fmt.Fprintf(w, "Found %d service nodes (minimum: %d)\n", s.Count, s.MinNodes); err != nil {
        return err
    }
    if s.Sample == nil { return nil }
    b, err := json.MarshalIndent(s.Sample, "", "  ")
    if err != nil { return err }
    _, err = fmt.Fprintf(w, "\nSample node:\n%s\n", b)
    return err
}
