package sagarun

import (
	"os"
	"sync/atomic"
	"testing"
)

var devMode atomic.Bool

func init() {
	if os.Getenv("SAGARUN_DEV") == "1" || testing.Testing() {
		devMode.Store(true)
	}
}

// DevMode reports whether programmer-error assertions (a full fixed
// buffer, middleware that never forwards) panic loudly instead of
// failing quietly. It defaults to true under `go test` and whenever
// SAGARUN_DEV=1 is set, and can be overridden explicitly — e.g. so a host
// binary can opt in without the environment variable.
func DevMode() bool { return devMode.Load() }

// SetDevMode overrides the dev-mode flag.
func SetDevMode(on bool) { devMode.Store(on) }
