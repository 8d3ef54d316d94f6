// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Message type values.
const (
	MessageTypeUser      = "user"
	MessageTypeAssistant = "assistant"
	MessageTypeError     = "error"
)

// Message is one entry in a chat's ordered message list. Messages are
// append-only: they are created in pairs by AddMessage and never updated or
// deleted individually.
type Message struct {
	// ID is unique within the chat, format "msg-<epoch-ms>-<role>".
	ID string `json:"id"`

	// Type is one of user, assistant, or error.
	Type string `json:"type"`

	// Content is the message text. Inputs are coerced to string at the
	// bridge boundary regardless of what the UI sent.
	Content string `json:"content"`

	// Timestamp is an ISO-8601 string set at creation, immutable.
	Timestamp string `json:"timestamp"`

	// Attachments are opaque descriptors of files attached to the message.
	Attachments []Attachment `json:"attachments"`

	// Code is an optional snippet attached to a user message.
	Code string `json:"code,omitempty"`
}

// Attachment describes a file attached to a message. The store does not
// interpret these beyond persisting them.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// =============================================================================
// CHAT RECORD
// =============================================================================

// ChatRecord is one conversation's metadata plus its ordered message list.
//
// Invariant: MessageCount == len(Messages) and LastMessage reflects the
// most recent user-authored content, after every mutation.
type ChatRecord struct {
	// ID is globally unique, format "chat-<creation-epoch-ms>". Immutable.
	ID string `json:"id"`

	// Title is user-editable; defaults to "Untitled Chat".
	Title string `json:"title"`

	// Messages is append-only, index 0 = oldest.
	Messages []Message `json:"messages"`

	// LastMessage caches the most recent user message content.
	LastMessage string `json:"lastMessage"`

	// Timestamp is the ISO-8601 last-modified time, updated on create,
	// append, and rename.
	Timestamp string `json:"timestamp"`

	// MessageCount caches len(Messages).
	MessageCount int `json:"messageCount"`
}

// database is the root of the persisted chat document.
type database struct {
	Chats map[string]*ChatRecord `json:"chats"`
}

// =============================================================================
// ADD MESSAGE REQUEST / RESULT
// =============================================================================

// AddMessageRequest carries the inputs for one paired append: the user
// message fields plus the assistant response (or enough context to
// synthesize a placeholder when the UI provided none).
type AddMessageRequest struct {
	ChatID      string
	Content     string
	Attachments []Attachment
	Code        string

	// AssistantContent is the assistant response supplied by the caller.
	// Nil means none was provided and a placeholder is synthesized based
	// on ModelID.
	AssistantContent *string

	// ModelID selects the backing model; ids with the local model prefix
	// denote an Ollama-served model with no cloud call available.
	ModelID string
}

// AddMessageResult returns both messages created by a successful append.
type AddMessageResult struct {
	UserMessage       Message
	AssistantResponse Message
}
