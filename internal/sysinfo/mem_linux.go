// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build linux

package sysinfo

import "golang.org/x/sys/unix"

// readMemory returns total and available physical memory in bytes.
func readMemory() (total, available uint64, err error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, 0, err
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	total = uint64(info.Totalram) * unit
	// Buffers are reclaimable, count them as available.
	available = (uint64(info.Freeram) + uint64(info.Bufferram)) * unit
	return total, available, nil
}
