package tlsconfig

import (
    "crypto/tls"
    "crypto/x509"
    "errors"
    "fmt"
    "os"
)

// Options defines TLS inputs for seed requests and the mirror server.
type Options struct {
    // InsecureSkipVerify disables server certificate verification. Seed
    // endpoints present certificates that do not chain to a public root, so
    // seed clients run with this set unless a CA is pinned.
    InsecureSkipVerify bool
    CAFile             string
    CertFile           string
    KeyFile            string
    ServerName         string
}

// Seeds returns the options used for seed requests by default.
func Seeds() Options { return Options{InsecureSkipVerify: true} }

// Client returns a tls.Config for seed requests.
func (o Options) Client() (*tls.Config, error) {
    cfg := &tls.Config{InsecureSkipVerify: o.InsecureSkipVerify, MinVersion: tls.VersionTLS12} //nolint:gosec
    if o.ServerName != "" { cfg.ServerName = o.ServerName }
    if o.CAFile != "" {
        pool, err := loadPool(o.CAFile)
        if err != nil { return nil, err }
        cfg.RootCAs = pool
    }
    if o.CertFile != "" && o.KeyFile != "" {
        cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
        if err != nil { return nil, err }
        cfg.Certificates = []tls.Certificate{cert}
    }
    return cfg, nil
}

// Server returns a tls.Config for the mirror server, or nil when no
// certificate is configured.
func (o Options) Server() (*tls.Config, error) {
    if o.CertFile == "" && o.KeyFile == "" {
        return nil, nil
    }
    if o.CertFile == "" || o.KeyFile == "" {
        return nil, errors.New("tls: server cert and key must be set together")
    }
    cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
    if err != nil { return nil, err }
    return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

func loadPool(path string) (*x509.CertPool, error) {
    ca, err := os.ReadFile(path)
    if err != nil { return nil, err }
    pool := x509.NewCertPool()
    if !pool.AppendCertsFromPEM(ca) {
        return nil, fmt.Errorf("tls: no certificates in %s", path)
    }
    return pool, nil
}
