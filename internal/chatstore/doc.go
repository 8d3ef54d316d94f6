// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatstore provides durable storage for chat conversations.
//
// All chats live in a single pretty-printed JSON document
// (chats-database.json) mapping chat id to chat record; each record embeds
// its ordered message list. Every operation is a full read-modify-write
// cycle against that file, serialized by a store-internal mutex, so two
// bridge calls never interleave mid-write. There is no cross-process
// locking: if two independent processes open the same file, the last writer
// wins. That is an accepted single-instance-app limitation, surfaced to the
// UI through the bridge's storage-changed notification rather than fixed
// with file locks.
package chatstore
