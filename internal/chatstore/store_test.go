// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "chats-database.json"))
}

func strPtr(s string) *string { return &s }

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestCreateChat(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.CreateChat("Hello")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}

	if !strings.HasPrefix(rec.ID, "chat-") {
		t.Errorf("ID = %q, want chat-<epoch-ms> format", rec.ID)
	}
	if rec.Title != "Hello" {
		t.Errorf("Title = %q, want Hello", rec.Title)
	}
	if len(rec.Messages) != 0 || rec.MessageCount != 0 {
		t.Errorf("new chat should have no messages, got %d/%d", len(rec.Messages), rec.MessageCount)
	}
	if rec.LastMessage != "No messages yet." {
		t.Errorf("LastMessage = %q", rec.LastMessage)
	}
	if rec.Timestamp == "" {
		t.Error("Timestamp should be set")
	}
}

func TestCreateChat_EmptyTitleDefaults(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.CreateChat("   ")
	if err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
	if rec.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", rec.Title, DefaultTitle)
	}
}

func TestCreateChat_RapidCallsYieldDistinctIDs(t *testing.T) {
	s := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec, err := s.CreateChat("burst")
		if err != nil {
			t.Fatalf("CreateChat() error = %v", err)
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate chat id %q on iteration %d", rec.ID, i)
		}
		seen[rec.ID] = true
	}
}

// =============================================================================
// LIST / MESSAGES TESTS
// =============================================================================

func TestListChats(t *testing.T) {
	s := newTestStore(t)

	if got := s.ListChats(); len(got) != 0 {
		t.Errorf("ListChats() on empty store = %d records, want 0", len(got))
	}

	s.CreateChat("one")
	s.CreateChat("two")

	chats := s.ListChats()
	if len(chats) != 2 {
		t.Fatalf("ListChats() = %d records, want 2", len(chats))
	}
}

func TestMessages_UnknownChatReturnsEmpty(t *testing.T) {
	s := newTestStore(t)

	msgs := s.Messages("chat-does-not-exist")
	if msgs == nil {
		t.Fatal("Messages() must return an empty slice, not nil")
	}
	if len(msgs) != 0 {
		t.Errorf("Messages() = %d, want 0", len(msgs))
	}
}

// =============================================================================
// APPEND TESTS
// =============================================================================

func TestAddMessage(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.CreateChat("conv")

	res, err := s.AddMessage(AddMessageRequest{
		ChatID:           rec.ID,
		Content:          "what is Go?",
		AssistantContent: strPtr("A programming language."),
		ModelID:          "ollama-qwen",
	})
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}

	if res.UserMessage.Type != MessageTypeUser {
		t.Errorf("user message type = %q", res.UserMessage.Type)
	}
	if res.UserMessage.Content != "what is Go?" {
		t.Errorf("user content = %q", res.UserMessage.Content)
	}
	if res.AssistantResponse.Type != MessageTypeAssistant {
		t.Errorf("assistant message type = %q", res.AssistantResponse.Type)
	}
	if res.AssistantResponse.Content != "A programming language." {
		t.Errorf("assistant content = %q", res.AssistantResponse.Content)
	}
	if !strings.HasSuffix(res.UserMessage.ID, "-user") {
		t.Errorf("user message id = %q, want -user suffix", res.UserMessage.ID)
	}
	if !strings.HasSuffix(res.AssistantResponse.ID, "-assistant") {
		t.Errorf("assistant message id = %q, want -assistant suffix", res.AssistantResponse.ID)
	}
}

func TestAddMessage_AppendInvariant(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.CreateChat("conv")

	const n = 5
	var lastContent string
	for i := 0; i < n; i++ {
		lastContent = strings.Repeat("x", i+1)
		if _, err := s.AddMessage(AddMessageRequest{
			ChatID:           rec.ID,
			Content:          lastContent,
			AssistantContent: strPtr("ok"),
		}); err != nil {
			t.Fatalf("AddMessage() #%d error = %v", i, err)
		}
	}

	chats := s.ListChats()
	if len(chats) != 1 {
		t.Fatalf("ListChats() = %d, want 1", len(chats))
	}
	got := chats[0]
	if got.MessageCount != 2*n {
		t.Errorf("MessageCount = %d, want %d", got.MessageCount, 2*n)
	}
	if len(got.Messages) != got.MessageCount {
		t.Errorf("len(Messages) = %d, MessageCount = %d: cache out of sync", len(got.Messages), got.MessageCount)
	}
	if got.LastMessage != lastContent {
		t.Errorf("LastMessage = %q, want %q", got.LastMessage, lastContent)
	}
}

func TestAddMessage_MessageIDsUniqueWithinChat(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.CreateChat("conv")

	for i := 0; i < 20; i++ {
		if _, err := s.AddMessage(AddMessageRequest{
			ChatID:           rec.ID,
			Content:          "m",
			AssistantContent: strPtr("r"),
		}); err != nil {
			t.Fatalf("AddMessage() error = %v", err)
		}
	}

	seen := make(map[string]bool)
	for _, msg := range s.Messages(rec.ID) {
		if seen[msg.ID] {
			t.Fatalf("duplicate message id %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestAddMessage_ChatNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddMessage(AddMessageRequest{ChatID: "chat-0", Content: "hi"})
	if !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("AddMessage() error = %v, want ErrChatNotFound", err)
	}

	// No file write may occur on the not-found path. The store initializes
	// the file on load, so it contains the empty document - but no chats.
	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var db struct {
		Chats map[string]json.RawMessage `json:"chats"`
	}
	if err := json.Unmarshal(data, &db); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(db.Chats) != 0 {
		t.Errorf("chats on disk = %d, want 0", len(db.Chats))
	}
}

func TestAddMessage_PlaceholderForCloudModel(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.CreateChat("conv")

	res, err := s.AddMessage(AddMessageRequest{
		ChatID:  rec.ID,
		Content: "summarize this",
		ModelID: "gpt-4o",
	})
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if !strings.Contains(res.AssistantResponse.Content, "gpt-4o") {
		t.Errorf("placeholder = %q, want it to name the model", res.AssistantResponse.Content)
	}
	if !strings.Contains(res.AssistantResponse.Content, "Cloud API not yet implemented") {
		t.Errorf("placeholder = %q, want cloud placeholder", res.AssistantResponse.Content)
	}
}

func TestAddMessage_PlaceholderForLocalModel(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.CreateChat("conv")

	res, err := s.AddMessage(AddMessageRequest{
		ChatID:  rec.ID,
		Content: "hello",
		ModelID: "ollama-llama3",
	})
	if err != nil {
		t.Fatalf("AddMessage() error = %v", err)
	}
	if !strings.HasPrefix(res.AssistantResponse.Content, "[No assistant response") {
		t.Errorf("placeholder = %q, want local-model placeholder", res.AssistantResponse.Content)
	}
}

// =============================================================================
// DELETE / RENAME TESTS
// =============================================================================

func TestDeleteChat_Terminality(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.CreateChat("doomed")
	s.AddMessage(AddMessageRequest{ChatID: rec.ID, Content: "hi", AssistantContent: strPtr("yo")})

	if err := s.DeleteChat(rec.ID); err != nil {
		t.Fatalf("DeleteChat() error = %v", err)
	}

	if msgs := s.Messages(rec.ID); len(msgs) != 0 {
		t.Errorf("Messages() after delete = %d, want 0", len(msgs))
	}
	if _, err := s.RenameChat(rec.ID, "zombie"); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("RenameChat() after delete error = %v, want ErrChatNotFound", err)
	}
	if err := s.DeleteChat(rec.ID); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("second DeleteChat() error = %v, want ErrChatNotFound", err)
	}
}

func TestRenameChat(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.CreateChat("old name")

	updated, err := s.RenameChat(rec.ID, "new name")
	if err != nil {
		t.Fatalf("RenameChat() error = %v", err)
	}
	if updated.Title != "new name" {
		t.Errorf("Title = %q, want new name", updated.Title)
	}
	if updated.ID != rec.ID {
		t.Errorf("ID changed on rename: %q -> %q", rec.ID, updated.ID)
	}

	chats := s.ListChats()
	if chats[0].Title != "new name" {
		t.Errorf("persisted title = %q, want new name", chats[0].Title)
	}
}

func TestRenameChat_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.RenameChat("chat-0", "x"); !errors.Is(err, ErrChatNotFound) {
		t.Errorf("RenameChat() error = %v, want ErrChatNotFound", err)
	}
}

// =============================================================================
// PERSISTENCE TESTS
// =============================================================================

func TestRoundTrip_Lossless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats-database.json")
	s := Open(path)

	rec, _ := s.CreateChat("round trip")
	s.AddMessage(AddMessageRequest{
		ChatID:  rec.ID,
		Content: "payload",
		Attachments: []Attachment{
			{Name: "a.png", Size: 1234, Type: "image/png"},
		},
		Code:             "fmt.Println(42)",
		AssistantContent: strPtr("done"),
	})

	// A second store over the same file must observe identical state.
	reopened := Open(path)
	chats := reopened.ListChats()
	if len(chats) != 1 {
		t.Fatalf("reopened store sees %d chats, want 1", len(chats))
	}
	got := chats[0]
	if got.Title != "round trip" || got.MessageCount != 2 || got.LastMessage != "payload" {
		t.Errorf("record fields lost in round trip: %+v", got)
	}

	msgs := reopened.Messages(rec.ID)
	if len(msgs) != 2 {
		t.Fatalf("reopened store sees %d messages, want 2", len(msgs))
	}
	user := msgs[0]
	if user.Code != "fmt.Println(42)" {
		t.Errorf("Code = %q, lost in round trip", user.Code)
	}
	if len(user.Attachments) != 1 || user.Attachments[0].Name != "a.png" ||
		user.Attachments[0].Size != 1234 || user.Attachments[0].Type != "image/png" {
		t.Errorf("Attachments lost in round trip: %+v", user.Attachments)
	}
	if user.Timestamp == "" || msgs[1].Timestamp == "" {
		t.Error("timestamps lost in round trip")
	}
}

func TestLoad_CorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats-database.json")
	if err := os.WriteFile(path, []byte("{{{"), 0644); err != nil {
		t.Fatal(err)
	}
	s := Open(path)

	if got := s.ListChats(); len(got) != 0 {
		t.Errorf("ListChats() over corrupt file = %d, want 0", len(got))
	}

	// The store stays usable: the next mutation heals the file.
	if _, err := s.CreateChat("fresh"); err != nil {
		t.Fatalf("CreateChat() after corruption error = %v", err)
	}
	if got := s.ListChats(); len(got) != 1 {
		t.Errorf("ListChats() after heal = %d, want 1", len(got))
	}
}

func TestLoad_MissingChatsKeyAutoInitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chats-database.json")
	if err := os.WriteFile(path, []byte(`{"other": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	s := Open(path)

	if got := s.ListChats(); len(got) != 0 {
		t.Errorf("ListChats() = %d, want 0", len(got))
	}
	if _, err := s.CreateChat("ok"); err != nil {
		t.Fatalf("CreateChat() error = %v", err)
	}
}
