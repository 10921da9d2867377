package cache

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/amirimatin/go-seedcache/pkg/internal/logutil"
    "github.com/amirimatin/go-seedcache/pkg/snode"
)

// DefaultPath is where the cache is written when no path is configured.
const DefaultPath = "./service-nodes-cache.json"

// FileSystemError wraps a failed file operation on the cache.
type FileSystemError struct {
    Op   string
    Path string
    Err  error
}

func (e *FileSystemError) Error() string { return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err) }
func (e *FileSystemError) Unwrap() error { return e.Err }

// Writer replaces the cache file with a snapshot.
type Writer struct {
    path string
    log  logrus.FieldLogger
}

// NewWriter returns a Writer for path (DefaultPath when empty).
func NewWriter(path string, logger logrus.FieldLogger) *Writer {
    if path == "" { path = DefaultPath }
    return &Writer{path: path, log: logutil.OrDefault(logger)}
}

// Path returns the cache file location.
func (w *Writer) Path() string { return w.path }

// Write removes the existing cache file, so its modification time reflects
// this snapshot, then writes s as indented JSON. It returns the number of
// nodes written. The write is not atomic: a crash mid-write can leave a
// truncated file.
func (w *Writer) Write(s snode.Snapshot) (int, error) {
    if s.Nodes == nil { s.Nodes = []snode.Node{} }
    data, err := json.MarshalIndent(s, "", "  ")
    if err != nil { return 0, &FileSystemError{Op: "encode", Path: w.path, Err: err} }

    if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
        return 0, &FileSystemError{Op: "remove", Path: w.path, Err: err}
    }
    if err := os.WriteFile(w.path, data, 0o644); err != nil {
        return 0, &FileSystemError{Op: "write", Path: w.path, Err: err}
    }
    w.log.WithField("path", w.path).Infof("cached %d nodes to %s", s.Count(), w.path)
    return s.Count(), nil
}

// Load reads a cache file back through the snapshot validator and returns it
// with the file's modification time, which tells how old the snapshot is.
func Load(path string) (snode.Snapshot, time.Time, error) {
    if path == "" { path = DefaultPath }
    f, err := os.Open(path)
    if err != nil { return snode.Snapshot{}, time.Time{}, &FileSystemError{Op: "read", Path: path, Err: err} }
    defer f.Close()
    st, err := f.Stat()
    if err != nil { return snode.Snapshot{}, time.Time{}, &FileSystemError{Op: "read", Path: path, Err: err} }
    v, err := snode.Decode(f)
    if err != nil {
        // truncated or corrupt content, not an I/O failure
        return snode.Snapshot{}, time.Time{}, fmt.Errorf("cache %s: %w", path, &snode.ValidationError{Reason: "invalid JSON: " + err.Error()})
    }
    snap, err := snode.ValidateResult(v)
    if err != nil { return snode.Snapshot{}, time.Time{}, fmt.Errorf("cache %s: %w", path, err) }
    return snap, st.ModTime(), nil
}
