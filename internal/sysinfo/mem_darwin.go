// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build darwin

package sysinfo

import "golang.org/x/sys/unix"

// readMemory returns total and available physical memory in bytes.
func readMemory() (total, available uint64, err error) {
	total, err = unix.SysctlUint64("hw.memsize")
	if err != nil {
		return 0, 0, err
	}

	pageSize, err := unix.SysctlUint64("hw.pagesize")
	if err != nil {
		return 0, 0, err
	}
	freePages, err := unix.SysctlUint32("vm.page_free_count")
	if err != nil {
		return 0, 0, err
	}

	available = uint64(freePages) * pageSize
	return total, available, nil
}
