// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sysinfo

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestFormatGB(t *testing.T) {
	tests := []struct {
		name  string
		bytes uint64
		want  string
	}{
		{"zero", 0, "0.0GB"},
		{"one GiB", 1 << 30, "1.0GB"},
		{"half GiB", 1 << 29, "0.5GB"},
		{"sixteen GiB", 16 << 30, "16.0GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatGB(tt.bytes); got != tt.want {
				t.Errorf("formatGB(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name        string
		part, total uint64
		want        int
	}{
		{"zero total", 1, 0, 0},
		{"half", 50, 100, 50},
		{"rounds up", 2, 3, 67},
		{"full", 100, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentage(tt.part, tt.total); got != tt.want {
				t.Errorf("percentage(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
			}
		})
	}
}

func TestMemory(t *testing.T) {
	info := Memory()

	if info.Total == "" || info.Used == "" || info.Available == "" {
		t.Fatalf("Memory() returned empty fields: %+v", info)
	}
	if info.Total == placeholder {
		t.Skip("memory probe unavailable on this host")
	}
	if !strings.HasSuffix(info.Total, "GB") {
		t.Errorf("Total = %q, want GB suffix", info.Total)
	}
	if info.UsedPercentage < 0 || info.UsedPercentage > 100 {
		t.Errorf("UsedPercentage = %d, out of range", info.UsedPercentage)
	}
}

func TestStorage(t *testing.T) {
	info := Storage(t.TempDir())

	if info.Total == placeholder {
		t.Skip("storage probe unavailable on this host")
	}
	if !strings.HasSuffix(info.Total, "GB") || !strings.HasSuffix(info.Available, "GB") {
		t.Errorf("Storage() fields lack GB suffix: %+v", info)
	}
	if info.UsedPercentage < 0 || info.UsedPercentage > 100 {
		t.Errorf("UsedPercentage = %d, out of range", info.UsedPercentage)
	}
}

func TestStorage_BadPath(t *testing.T) {
	info := Storage("/definitely/not/a/real/path")

	if info.Total != placeholder || info.Used != placeholder || info.Available != placeholder {
		t.Errorf("Storage() on bad path = %+v, want placeholders", info)
	}
}

func TestGPU_NeverFails(t *testing.T) {
	ClearGPUCache()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	info := GPU(ctx)
	if info.Name == "" || info.Status == "" {
		t.Errorf("GPU() returned empty fields: %+v", info)
	}
	if info.Status != "Compatible" && info.Status != "Unknown" {
		t.Errorf("Status = %q, want Compatible or Unknown", info.Status)
	}
}

func TestGPU_CachesResult(t *testing.T) {
	ClearGPUCache()

	first := GPU(context.Background())
	second := GPU(context.Background())
	if first != second {
		t.Errorf("cached GPU result differs: %+v vs %+v", first, second)
	}
}
