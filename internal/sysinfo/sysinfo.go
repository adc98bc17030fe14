// Package sysinfo collects lightweight process/host resource stats for the
// HTTP health check and the get_statistics tool (SPEC_FULL.md domain-stack
// wiring), grounded on techjusticelab-Motion-Index's
// pkg/api/health.go getSystemInfo, ported from gopsutil/v3 to the v4 series
// already pulled in by the teacher's go.mod.
package sysinfo

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot is a point-in-time resource reading.
type Snapshot struct {
	CPUUsagePercent   float64 `json:"cpu_usage_percent"`
	MemoryUsedBytes   uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes  uint64  `json:"memory_total_bytes"`
	DiskUsedBytes     uint64  `json:"disk_used_bytes,omitempty"`
	DiskTotalBytes    uint64  `json:"disk_total_bytes,omitempty"`
	Goroutines        int     `json:"goroutines"`
	GoVersion         string  `json:"go_version"`
}

// Collect samples CPU/memory and, when outputDir is non-empty, disk usage
// of the filesystem backing the persisted state layout (spec §6). CPU
// sampling blocks for up to the given interval; callers on a request path
// should pass a short interval (e.g. 200ms) rather than gopsutil's
// common 1s default.
func Collect(ctx context.Context, outputDir string, interval time.Duration) (*Snapshot, error) {
	cpuPercent, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return nil, err
	}
	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		MemoryUsedBytes:  memInfo.Used,
		MemoryTotalBytes: memInfo.Total,
		Goroutines:       runtime.NumGoroutine(),
		GoVersion:        runtime.Version(),
	}
	if len(cpuPercent) > 0 {
		snap.CPUUsagePercent = cpuPercent[0]
	}

	if outputDir != "" {
		if diskInfo, err := disk.UsageWithContext(ctx, outputDir); err == nil {
			snap.DiskUsedBytes = diskInfo.Used
			snap.DiskTotalBytes = diskInfo.Total
		}
	}

	return snap, nil
}
