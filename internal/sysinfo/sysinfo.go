// Package sysinfo collects the host facts shown on the settings panel.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Summary is a one-shot view of the host. Fields that fail to collect stay
// zero; Collect only fails when nothing could be read.
type Summary struct {
	Hostname        string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Uptime          time.Duration
	CPUModel        string
	CPUCount        int
	MemoryTotal     uint64
	MemoryUsed      uint64
	MemoryPercent   float64
}

func Collect(ctx context.Context) (Summary, error) {
	var summary Summary
	collected := false

	if info, err := host.InfoWithContext(ctx); err == nil {
		summary.Hostname = info.Hostname
		summary.Platform = info.Platform
		summary.PlatformVersion = info.PlatformVersion
		summary.KernelVersion = info.KernelVersion
		summary.Uptime = time.Duration(info.Uptime) * time.Second
		collected = true
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		summary.MemoryTotal = vm.Total
		summary.MemoryUsed = vm.Used
		summary.MemoryPercent = vm.UsedPercent
		collected = true
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		summary.CPUModel = infos[0].ModelName
		collected = true
	}
	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		summary.CPUCount = count
		collected = true
	}

	if !collected {
		return Summary{}, fmt.Errorf("no host information available")
	}

	return summary, nil
}

// PlatformLine formats the OS identity for display.
func (s Summary) PlatformLine() string {
	if s.Platform == "" {
		return "unknown"
	}
	if s.PlatformVersion == "" {
		return s.Platform
	}

	return fmt.Sprintf("%s %s", s.Platform, s.PlatformVersion)
}

// MemoryLine formats memory usage for display.
func (s Summary) MemoryLine() string {
	if s.MemoryTotal == 0 {
		return "unknown"
	}

	return fmt.Sprintf("%s / %s (%.0f%%)", formatBytes(s.MemoryUsed), formatBytes(s.MemoryTotal), s.MemoryPercent)
}

// UptimeLine formats uptime as days, hours and minutes.
func (s Summary) UptimeLine() string {
	if s.Uptime <= 0 {
		return "unknown"
	}

	total := int64(s.Uptime / time.Minute)
	days := total / (24 * 60)
	hours := (total / 60) % 24
	minutes := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return fmt.Sprintf("%dm", minutes)
}

func formatBytes(v uint64) string {
	const unit = 1024

	if v < unit {
		return fmt.Sprintf("%d B", v)
	}

	div, exp := uint64(unit), 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(v)/float64(div), "KMGTPE"[exp])
}
