package sysinfo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_PopulatesMemoryAndRuntimeFields(t *testing.T) {
	snap, err := Collect(context.Background(), t.TempDir(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Greater(t, snap.MemoryTotalBytes, uint64(0))
	assert.NotEmpty(t, snap.GoVersion)
	assert.Greater(t, snap.Goroutines, 0)
	assert.Greater(t, snap.DiskTotalBytes, uint64(0))
}

func TestCollect_SkipsDiskUsageWhenNoOutputDir(t *testing.T) {
	snap, err := Collect(context.Background(), "", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Zero(t, snap.DiskTotalBytes)
}
