// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package sysinfo

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// readMemory returns total and available physical memory in bytes.
func readMemory() (total, available uint64, err error) {
	var status windows.MemoryStatusEx
	status.Length = uint32(unsafe.Sizeof(status))
	if err := windows.GlobalMemoryStatusEx(&status); err != nil {
		return 0, 0, err
	}
	return status.TotalPhys, status.AvailPhys, nil
}
