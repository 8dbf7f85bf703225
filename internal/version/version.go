// Package version carries build metadata stamped in via -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the version line printed by `trustpay version`.
func String() string {
	return fmt.Sprintf("trustpay %s (commit=%s, date=%s, go=%s)", Version, Commit, Date, runtime.Version())
}
