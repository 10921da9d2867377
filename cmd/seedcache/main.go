package main

import (
    "fmt"
    "os"

    seedcli "github.com/amirimatin/go-seedcache/pkg/cli"
)

func main() {
    ctx, stop := seedcli.SignalContext()
    err := seedcli.NewRootCmd("seedcache").ExecuteContext(ctx)
    stop()
    if err != nil {
        if !seedcli.Reported(err) {
            fmt.Fprintln(os.Stderr, "Error:", err)
        }
        os.Exit(1)
    }
}
