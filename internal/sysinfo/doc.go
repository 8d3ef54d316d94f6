// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sysinfo reports host hardware information for the bridge.
//
// Three probes back the system info channels: GPU (via vendor tools),
// memory, and storage. All results use display-ready string fields so the
// UI renders them without further formatting. Probes never fail hard; a
// probe that cannot read the hardware returns placeholder values.
package sysinfo
