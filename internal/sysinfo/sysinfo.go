// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sysinfo

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// gpuProbeTimeout bounds the vendor tool invocations.
// CANCELLATION: Context enables timeout and cancellation
const gpuProbeTimeout = 10 * time.Second

const placeholder = "---"

// =============================================================================
// RESULT SHAPES
// =============================================================================

// GPUInfo describes the primary graphics adapter.
type GPUInfo struct {
	Name          string `json:"name"`
	Memory        string `json:"memory"`
	Compatibility string `json:"compatibility"`
	Status        string `json:"status"`
}

// MemoryInfo describes physical RAM usage.
type MemoryInfo struct {
	Total          string `json:"total"`
	Used           string `json:"used"`
	Available      string `json:"available"`
	UsedPercentage int    `json:"usedPercentage"`
}

// StorageInfo describes filesystem capacity for the data volume.
type StorageInfo struct {
	Total          string `json:"total"`
	Used           string `json:"used"`
	Available      string `json:"available"`
	UsedPercentage int    `json:"usedPercentage"`
}

// =============================================================================
// GPU PROBE
// =============================================================================

var (
	gpuCache         *GPUInfo
	gpuCacheTime     time.Time
	gpuCacheMu       sync.Mutex
	gpuCacheDuration = 5 * time.Minute
)

// GPU probes the primary graphics adapter.
//
// Vendor tools are tried in order: nvidia-smi, rocm-smi, then
// system_profiler on macOS. When no tool responds the result carries
// placeholder fields and Status "Unknown".
func GPU(ctx context.Context) GPUInfo {
	gpuCacheMu.Lock()
	defer gpuCacheMu.Unlock()

	if gpuCache != nil && time.Since(gpuCacheTime) < gpuCacheDuration {
		return *gpuCache
	}

	info := probeGPU(ctx)
	gpuCache = &info
	gpuCacheTime = time.Now()
	return info
}

// ClearGPUCache forces a fresh probe on the next GPU call.
func ClearGPUCache() {
	gpuCacheMu.Lock()
	defer gpuCacheMu.Unlock()
	gpuCache = nil
	gpuCacheTime = time.Time{}
}

func probeGPU(ctx context.Context) GPUInfo {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gpuProbeTimeout)
		defer cancel()
	}

	if info := probeNvidia(ctx); info != nil {
		return *info
	}
	if info := probeAMD(ctx); info != nil {
		return *info
	}
	if runtime.GOOS == "darwin" {
		if info := probeAppleSilicon(ctx); info != nil {
			return *info
		}
	}

	return GPUInfo{
		Name:          placeholder,
		Memory:        placeholder,
		Compatibility: placeholder,
		Status:        "Unknown",
	}
}

// probeNvidia queries nvidia-smi for the adapter name and VRAM.
func probeNvidia(ctx context.Context) *GPUInfo {
	var output []byte
	var err error
	for _, path := range nvidiaSmiPaths() {
		cmd := exec.CommandContext(ctx, path,
			"--query-gpu=name,memory.total",
			"--format=csv,noheader,nounits")
		output, err = cmd.Output()
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
	if err != nil || len(output) == 0 {
		return nil
	}

	line := strings.TrimSpace(strings.Split(strings.TrimSpace(string(output)), "\n")[0])

	// nvidia-smi outputs CSV with ", " as delimiter
	parts := strings.Split(line, ", ")
	if len(parts) < 2 {
		return nil
	}

	memory := placeholder
	if mb, parseErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); parseErr == nil {
		memory = fmt.Sprintf("%.0fMB", mb)
	}

	return &GPUInfo{
		Name:          strings.TrimSpace(parts[0]),
		Memory:        memory,
		Compatibility: "NVIDIA",
		Status:        "Compatible",
	}
}

// nvidiaSmiPaths returns possible paths for nvidia-smi based on OS.
func nvidiaSmiPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{
			"nvidia-smi",
			`C:\Windows\System32\nvidia-smi.exe`,
			`C:\Program Files\NVIDIA Corporation\NVSMI\nvidia-smi.exe`,
		}
	}
	return []string{"nvidia-smi"}
}

// probeAMD queries rocm-smi for the adapter name and VRAM.
func probeAMD(ctx context.Context) *GPUInfo {
	cmd := exec.CommandContext(ctx, "rocm-smi", "--showproductname", "--showmeminfo", "vram")
	output, err := cmd.Output()
	if err != nil {
		return nil
	}
	stdout := string(output)

	name := "AMD GPU"
	for _, line := range strings.Split(stdout, "\n") {
		if strings.Contains(line, "Card series:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) > 1 {
				name = strings.TrimSpace(parts[1])
				break
			}
		}
	}

	memory := placeholder
	for _, line := range strings.Split(stdout, "\n") {
		if strings.Contains(line, "Total Memory") || strings.Contains(line, "VRAM Total") {
			fields := strings.Fields(line)
			for _, f := range fields {
				if bytes, parseErr := strconv.ParseUint(f, 10, 64); parseErr == nil && bytes > 1_000_000 {
					memory = fmt.Sprintf("%dMB", bytes/1_048_576)
					break
				}
			}
		}
	}

	return &GPUInfo{
		Name:          name,
		Memory:        memory,
		Compatibility: "AMD",
		Status:        "Compatible",
	}
}

// probeAppleSilicon reads the integrated GPU model via system_profiler.
func probeAppleSilicon(ctx context.Context) *GPUInfo {
	cmd := exec.CommandContext(ctx, "system_profiler", "SPDisplaysDataType")
	output, err := cmd.Output()
	if err != nil {
		return nil
	}

	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Chipset Model:") {
			name := strings.TrimSpace(strings.TrimPrefix(line, "Chipset Model:"))
			return &GPUInfo{
				Name: name,
				// Unified memory, no dedicated VRAM figure to report.
				Memory:        placeholder,
				Compatibility: "Apple",
				Status:        "Compatible",
			}
		}
	}
	return nil
}

// =============================================================================
// MEMORY PROBE
// =============================================================================

// Memory reports physical RAM usage.
func Memory() MemoryInfo {
	total, available, err := readMemory()
	if err != nil || total == 0 {
		return MemoryInfo{
			Total:     placeholder,
			Used:      placeholder,
			Available: placeholder,
		}
	}
	used := total - available
	return MemoryInfo{
		Total:          formatGB(total),
		Used:           formatGB(used),
		Available:      formatGB(available),
		UsedPercentage: percentage(used, total),
	}
}

// =============================================================================
// STORAGE PROBE
// =============================================================================

// Storage reports filesystem capacity for the volume holding path.
func Storage(path string) StorageInfo {
	total, available, err := readDiskUsage(path)
	if err != nil || total == 0 {
		return StorageInfo{
			Total:     placeholder,
			Used:      placeholder,
			Available: placeholder,
		}
	}
	used := total - available
	return StorageInfo{
		Total:          formatGB(total),
		Used:           formatGB(used),
		Available:      formatGB(available),
		UsedPercentage: percentage(used, total),
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

// formatGB renders a byte count as gigabytes with one decimal place.
func formatGB(bytes uint64) string {
	return fmt.Sprintf("%.1fGB", float64(bytes)/(1<<30))
}

func percentage(part, total uint64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
