package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.0"

	info := Get()
	assert.Equal(t, Info{Version: "v1.2.0", Commit: "none", Date: "unknown"}, info)
	assert.Equal(t, "v1.2.0 (commit: none, built: unknown)", info.String())
}
