// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/chatdesk/internal/util"
)

// LocalModelPrefix marks model ids served by the local Ollama runtime.
const LocalModelPrefix = "ollama-"

// DefaultTitle is used when no usable title could be extracted from the
// caller's input.
const DefaultTitle = "Untitled Chat"

// emptyLastMessage is the LastMessage cache value for a chat with no
// messages yet.
const emptyLastMessage = "No messages yet."

// isoLayout renders timestamps the way the persisted document has always
// carried them: ISO-8601 with millisecond precision in UTC.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// =============================================================================
// CHAT STORE
// =============================================================================

// Store persists the chat document to a single JSON file. The bridge
// gateway owns one Store for its process lifetime. Operations are
// serialized by an internal mutex; each one is a complete
// load-from-disk / mutate / write-to-disk cycle.
type Store struct {
	mu   sync.Mutex
	path string

	// lastStampMS guards id generation: two creates inside the same
	// millisecond still yield distinct ids regardless of clock resolution.
	lastStampMS int64
}

// Open returns a Store backed by the given file path. The file is created
// on first use.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// ListChats returns all chat records. Order is undefined; presentation
// layers re-sort by timestamp.
func (s *Store) ListChats() []ChatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.load()
	chats := make([]ChatRecord, 0, len(db.Chats))
	for _, rec := range db.Chats {
		chats = append(chats, *rec)
	}
	return chats
}

// Messages returns the ordered message list for a chat, or an empty slice
// when the chat does not exist.
func (s *Store) Messages(chatID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.load()
	rec, ok := db.Chats[chatID]
	if !ok {
		return []Message{}
	}
	return rec.Messages
}

// =============================================================================
// CREATE
// =============================================================================

// CreateChat creates a new chat record with the given title and persists
// it. An empty or whitespace-only title falls back to DefaultTitle.
func (s *Store) CreateChat(title string) (*ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = util.NormalizeTitle(title)
	if title == "" {
		title = DefaultTitle
	}

	db := s.load()

	stamp := s.nextStampMS()
	id := fmt.Sprintf("chat-%d", stamp)
	for _, exists := db.Chats[id]; exists; _, exists = db.Chats[id] {
		stamp = s.nextStampMS()
		id = fmt.Sprintf("chat-%d", stamp)
	}

	rec := &ChatRecord{
		ID:           id,
		Title:        title,
		Messages:     []Message{},
		LastMessage:  emptyLastMessage,
		Timestamp:    isoNow(),
		MessageCount: 0,
	}
	db.Chats[id] = rec

	if err := s.persist(db); err != nil {
		return nil, err
	}
	log.Printf("CHAT_CREATE | id=%s title=%q", id, title)

	out := *rec
	return &out, nil
}

// =============================================================================
// APPEND
// =============================================================================

// AddMessage appends a paired user message and assistant response to an
// existing chat, updating the record's denormalized caches and timestamp.
// Returns ErrChatNotFound - with no file write - when the chat id does not
// resolve.
func (s *Store) AddMessage(req AddMessageRequest) (*AddMessageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.load()
	rec, ok := db.Chats[req.ChatID]
	if !ok {
		return nil, ErrChatNotFound
	}

	stamp := s.nextStampMS()
	now := isoNow()

	attachments := req.Attachments
	if attachments == nil {
		attachments = []Attachment{}
	}

	userMsg := Message{
		ID:          fmt.Sprintf("msg-%d-%s", stamp, MessageTypeUser),
		Type:        MessageTypeUser,
		Content:     req.Content,
		Timestamp:   now,
		Attachments: attachments,
		Code:        req.Code,
	}
	rec.Messages = append(rec.Messages, userMsg)

	assistantMsg := Message{
		ID:          fmt.Sprintf("msg-%d-%s", stamp, MessageTypeAssistant),
		Type:        MessageTypeAssistant,
		Content:     assistantContent(req),
		Timestamp:   now,
		Attachments: []Attachment{},
	}
	rec.Messages = append(rec.Messages, assistantMsg)

	rec.LastMessage = req.Content
	rec.MessageCount = len(rec.Messages)
	rec.Timestamp = now

	if err := s.persist(db); err != nil {
		return nil, err
	}

	return &AddMessageResult{
		UserMessage:       userMsg,
		AssistantResponse: assistantMsg,
	}, nil
}

// assistantContent picks the assistant message body: the caller-supplied
// response when present, otherwise a placeholder that differs depending on
// whether the model is served locally (no cloud call available).
func assistantContent(req AddMessageRequest) string {
	if req.AssistantContent != nil {
		return *req.AssistantContent
	}
	if req.ModelID != "" && !strings.HasPrefix(req.ModelID, LocalModelPrefix) {
		return fmt.Sprintf(
			"Processing your request for %q with model: %s... (Cloud API not yet implemented)",
			util.TruncateRunes(req.Content, 33), req.ModelID)
	}
	log.Printf("CHAT_APPEND | no assistant response provided, using placeholder chat=%s", req.ChatID)
	return "[No assistant response provided and no cloud model specified or handled.]"
}

// =============================================================================
// DELETE / RENAME
// =============================================================================

// DeleteChat removes a chat record entirely. Delete is terminal: the id
// becomes unresolvable to every other operation.
func (s *Store) DeleteChat(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.load()
	if _, ok := db.Chats[chatID]; !ok {
		return ErrChatNotFound
	}
	delete(db.Chats, chatID)

	if err := s.persist(db); err != nil {
		return err
	}
	log.Printf("CHAT_DELETE | id=%s", chatID)
	return nil
}

// RenameChat updates a chat's title and last-modified timestamp and
// returns the updated record.
func (s *Store) RenameChat(chatID, newTitle string) (*ChatRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.load()
	rec, ok := db.Chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}

	newTitle = util.NormalizeTitle(newTitle)
	if newTitle == "" {
		newTitle = DefaultTitle
	}
	rec.Title = newTitle
	rec.Timestamp = isoNow()

	if err := s.persist(db); err != nil {
		return nil, err
	}

	out := *rec
	return &out, nil
}

// =============================================================================
// LOAD / PERSIST
// =============================================================================

// load reads the chat document from disk. An absent file is initialized to
// the empty document and written out; an unreadable or corrupt file is
// treated as empty without rewriting, so the old bytes survive until the
// next successful mutation. A missing chats key after parse is
// auto-initialized.
// Caller must hold s.mu.
func (s *Store) load() *database {
	empty := func() *database {
		return &database{Chats: make(map[string]*ChatRecord)}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			db := empty()
			if werr := s.persist(db); werr != nil {
				log.Printf("CHATS_INIT_ERROR | path=%s error=%v", s.path, werr)
			}
			return db
		}
		log.Printf("CHATS_READ_ERROR | path=%s error=%v", s.path, err)
		return empty()
	}
	if strings.TrimSpace(string(data)) == "" {
		return empty()
	}

	var db database
	if err := json.Unmarshal(data, &db); err != nil {
		log.Printf("CHATS_PARSE_ERROR | path=%s error=%v", s.path, err)
		return empty()
	}
	if db.Chats == nil {
		db.Chats = make(map[string]*ChatRecord)
	}
	return &db
}

// persist writes the chat document atomically.
// Caller must hold s.mu.
func (s *Store) persist(db *database) error {
	if err := util.WriteJSONFile(s.path, db); err != nil {
		log.Printf("CHATS_WRITE_ERROR | path=%s error=%v", s.path, err)
		return fmt.Errorf("failed to persist chat database: %w", err)
	}
	return nil
}

// =============================================================================
// ID GENERATION
// =============================================================================

// nextStampMS returns the current epoch milliseconds, bumped past the last
// value handed out so ids never collide even when the clock has not
// advanced between calls.
// Caller must hold s.mu.
func (s *Store) nextStampMS() int64 {
	now := time.Now().UnixMilli()
	if now <= s.lastStampMS {
		now = s.lastStampMS + 1
	}
	s.lastStampMS = now
	return now
}

// isoNow returns the current UTC time as an ISO-8601 string with
// millisecond precision.
func isoNow() string {
	return time.Now().UTC().Format(isoLayout)
}
