package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	orig := [3]string{Version, CommitHash, BuildDate}
	t.Cleanup(func() { Version, CommitHash, BuildDate = orig[0], orig[1], orig[2] })

	Version, CommitHash, BuildDate = "v1.2.0", "abc123", "2026-10-01"
	assert.Equal(t, "zephyr-bridge v1.2.0 (commit abc123, built 2026-10-01)", String())
	assert.Equal(t, "zephyr-bridge/v1.2.0", UserAgent())
}
