// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the local Ollama runtime.
//
// The bridge routes two channels through this client: listing locally
// installed models (/api/tags) and single-shot text generation
// (/api/generate, non-streaming).
//
// Errors are categorized via ClientError so callers can distinguish a
// stopped runtime from a malformed response.
package ollama
