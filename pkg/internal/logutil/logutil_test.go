package logutil

import (
    "bytes"
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestLevelsSplitAcrossStreams(t *testing.T) {
    var out, errb bytes.Buffer
    l, err := New(Options{Stdout: &out, Stderr: &errb})
    if err != nil { t.Fatal(err) }
    l.Info("trying seed")
    l.Warn("seed failed")
    l.Debug("hidden at info level")

    if !strings.Contains(out.String(), "trying seed") || strings.Contains(out.String(), "seed failed") {
        t.Fatalf("stdout: %q", out.String())
    }
    if !strings.Contains(errb.String(), "seed failed") || strings.Contains(errb.String(), "trying seed") {
        t.Fatalf("stderr: %q", errb.String())
    }
    if strings.Contains(out.String(), "hidden") { t.Fatalf("debug leaked: %q", out.String()) }
}

func TestJSONModeFromEnv(t *testing.T) {
    t.Setenv("SEEDCACHE_LOG_FORMAT", "json")
    var out bytes.Buffer
    l, err := New(Options{Stdout: &out, Stderr: &out}.FromEnv())
    if err != nil { t.Fatal(err) }
    l.WithField("seed", "https://s1/json_rpc").Info("ok")

    var evt map[string]any
    if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &evt); err != nil {
        t.Fatalf("expected json line, got %q: %v", out.String(), err)
    }
    if evt["msg"] != "ok" || evt["seed"] != "https://s1/json_rpc" || evt["level"] != "info" {
        t.Fatalf("unexpected event: %#v", evt)
    }
}

func TestFileReceivesAllLevels(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "seedcache.log")
    var sink bytes.Buffer
    l, err := New(Options{File: path, Stdout: &sink, Stderr: &sink})
    if err != nil { t.Fatal(err) }
    l.Info("first")
    l.Error("second")

    b, err := os.ReadFile(path)
    if err != nil { t.Fatal(err) }
    if !strings.Contains(string(b), "first") || !strings.Contains(string(b), "second") {
        t.Fatalf("log file content: %q", string(b))
    }
}

func TestBadLevel(t *testing.T) {
    if _, err := New(Options{Level: "loud"}); err == nil {
        t.Fatalf("expected error for unknown level")
    }
}

func TestOrDefault(t *testing.T) {
    if OrDefault(nil) == nil { t.Fatalf("expected standard logger") }
}
