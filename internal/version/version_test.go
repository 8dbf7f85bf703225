package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	saved := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = saved[0], saved[1], saved[2] })

	require.Equal(t, "trustpay dev (commit=none, date=unknown, go="+runtime.Version()+")", String())

	Version, Commit, Date = "1.2.3", "abc123", "2026-02-18"
	require.Equal(t, "trustpay 1.2.3 (commit=abc123, date=2026-02-18, go="+runtime.Version()+")", String())
}
