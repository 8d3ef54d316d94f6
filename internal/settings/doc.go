// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides durable storage for the application settings
// document: one nested JSON document with default-filling semantics.
//
// The on-disk file is pretty-printed JSON (settings.json in the data
// directory). Loading is self-healing: an absent, empty, or corrupt file is
// replaced by the default document, and any keys missing from the stored
// document are filled in from defaults and written back. Stored values
// always win over defaults; unknown extra keys are preserved untouched.
package settings
