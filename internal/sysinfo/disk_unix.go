// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package sysinfo

import "golang.org/x/sys/unix"

// readDiskUsage returns total and available bytes for the filesystem at path.
// Uses Bavail (available to non-root users) rather than Bfree (total free).
func readDiskUsage(path string) (total, available uint64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	bsize := uint64(stat.Bsize)
	return uint64(stat.Blocks) * bsize, uint64(stat.Bavail) * bsize, nil
}
