// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge implements the allow-listed gateway between the UI and the
// privileged host process.
//
// Three channel classes exist, each backed by a static allow-list:
//
//   - send: fire-and-forget UI-to-host commands (window controls)
//   - invoke: request/response operations (chats, settings, files, models)
//   - notify: host-to-UI push events delivered over SSE
//
// Transport is a loopback HTTP server:
//
//	POST /v1/invoke/{channel}  body = JSON params, response = handler result
//	POST /v1/send/{channel}    always 202; invalid channels logged and dropped
//	GET  /v1/events            Server-Sent Events stream of notify channels
//
// A channel outside its allow-list never reaches a handler. Handler errors
// are rendered as {success:false, error} result envelopes; nothing escapes
// unshaped.
package bridge
