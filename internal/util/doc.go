// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the chatdesk core: atomic
// document writes, string coercion for untrusted bridge inputs, and
// rune-safe truncation.
package util
