// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"

	"github.com/jeranaias/chatdesk/internal/chatstore"
	"github.com/jeranaias/chatdesk/internal/files"
	"github.com/jeranaias/chatdesk/internal/settings"
	"github.com/jeranaias/chatdesk/internal/sysinfo"
	"github.com/jeranaias/chatdesk/internal/util"
)

// invokeHandler executes one invoke channel. A returned error is rendered
// as a {success:false, error} envelope; it never escapes as a transport
// error.
type invokeHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Result is the plain success/failure envelope.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DataResult wraps list-style responses.
type DataResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AddMessageEnvelope is the messages:add success response.
type AddMessageEnvelope struct {
	Success           bool              `json:"success"`
	UserMessage       chatstore.Message `json:"userMessage"`
	AssistantResponse chatstore.Message `json:"assistantResponse"`
}

// RenameEnvelope is the chats:rename success response.
type RenameEnvelope struct {
	Success     bool                 `json:"success"`
	UpdatedChat chatstore.ChatRecord `json:"updatedChat"`
}

// ============================================================================
// INVOKE DISPATCH
// ============================================================================

// handleInvoke routes POST /v1/invoke/{channel}.
//
// An unknown channel is the "no handler registered" rejection: 404 with an
// error envelope. A handler error becomes a 200 with {success:false}; the
// operation was received, it just didn't succeed.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")

	handler, ok := s.invokeHandlers[channel]
	if !ok || !ValidInvokeChannel(channel) {
		log.Printf("INVOKE_REJECTED | invalid channel=%s", channel)
		s.writeJSON(w, http.StatusNotFound, Result{
			Success: false,
			Error:   fmt.Sprintf("No handler registered for channel '%s'", channel),
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, Result{Success: false, Error: "unreadable request body"})
		return
	}
	// An empty body is a parameterless invoke.
	var params json.RawMessage
	if len(body) > 0 {
		if !json.Valid(body) {
			s.writeJSON(w, http.StatusBadRequest, Result{Success: false, Error: "invalid JSON body"})
			return
		}
		params = json.RawMessage(body)
	}

	result, err := handler(r.Context(), params)
	if err != nil {
		s.writeJSON(w, http.StatusOK, Result{Success: false, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// buildInvokeHandlers wires every invoke channel to its handler.
func (s *Server) buildInvokeHandlers() map[string]invokeHandler {
	return map[string]invokeHandler{
		ChannelGPUInfo:     s.invokeGPUInfo,
		ChannelRAMInfo:     s.invokeRAMInfo,
		ChannelStorageInfo: s.invokeStorageInfo,

		ChannelUserFilesPath: s.invokeUserFilesPath,
		ChannelPathDirname:   s.invokePathDirname,
		ChannelPathBasename:  s.invokePathBasename,

		ChannelFilesGetAll:       s.invokeFilesGetAll,
		ChannelFilesReadAsBase64: s.invokeFilesReadAsBase64,
		ChannelFilesUpload:       s.invokeFilesUpload,
		ChannelFilesCreateFolder: s.invokeFilesCreateFolder,
		ChannelFilesMove:         s.invokeFilesMove,

		ChannelChatsGetAll:      s.invokeChatsGetAll,
		ChannelMessagesByChatID: s.invokeMessagesByChatID,
		ChannelChatsCreate:      s.invokeChatsCreate,
		ChannelMessagesAdd:      s.invokeMessagesAdd,
		ChannelChatsDelete:      s.invokeChatsDelete,
		ChannelChatsRename:      s.invokeChatsRename,

		ChannelSettingsGet: s.invokeSettingsGet,
		ChannelSettingsSet: s.invokeSettingsSet,

		ChannelModelsFetchOnline: s.invokeModelsFetchOnline,
		ChannelOllamaListLocal:   s.invokeOllamaListLocal,
		ChannelOllamaGenerate:    s.invokeOllamaGenerate,
	}
}

// ============================================================================
// SYSTEM INFO
// ============================================================================

func (s *Server) invokeGPUInfo(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return sysinfo.GPU(ctx), nil
}

func (s *Server) invokeRAMInfo(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return sysinfo.Memory(), nil
}

func (s *Server) invokeStorageInfo(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return sysinfo.Storage(s.userFiles), nil
}

// ============================================================================
// PATHS
// ============================================================================

func (s *Server) invokeUserFilesPath(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return s.userFiles, nil
}

func (s *Server) invokePathDirname(_ context.Context, params json.RawMessage) (interface{}, error) {
	p, err := decodeString(params)
	if err != nil {
		return nil, err
	}
	return filepath.Dir(p), nil
}

func (s *Server) invokePathBasename(_ context.Context, params json.RawMessage) (interface{}, error) {
	p, err := decodeString(params)
	if err != nil {
		return nil, err
	}
	return filepath.Base(p), nil
}

// ============================================================================
// FILES
// ============================================================================

func (s *Server) invokeFilesGetAll(_ context.Context, params json.RawMessage) (interface{}, error) {
	dir, err := decodeString(params)
	if err != nil {
		return nil, err
	}
	// Listing always answers with an array; unreadable dirs come back empty.
	return files.List(dir), nil
}

func (s *Server) invokeFilesReadAsBase64(_ context.Context, params json.RawMessage) (interface{}, error) {
	path, err := decodeString(params)
	if err != nil {
		return nil, err
	}
	uri, err := files.ReadAsDataURI(path)
	if err != nil {
		// Null, not an error envelope: the UI treats a missing preview as
		// "nothing to show".
		log.Printf("FILES_READ_ERROR | path=%s error=%v", path, err)
		return nil, nil
	}
	return uri, nil
}

func (s *Server) invokeFilesUpload(_ context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name       string `json:"name"`
		Data       string `json:"data"`
		ParentPath string `json:"parentPath"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	payload, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid upload payload: %w", err)
	}
	if err := files.Upload(req.Name, payload, req.ParentPath); err != nil {
		return nil, err
	}
	return Result{Success: true}, nil
}

func (s *Server) invokeFilesCreateFolder(_ context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		FolderName string `json:"folderName"`
		ParentPath string `json:"parentPath"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	if err := files.CreateFolder(req.FolderName, req.ParentPath); err != nil {
		return nil, err
	}
	return Result{Success: true}, nil
}

func (s *Server) invokeFilesMove(_ context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		SourcePath       string `json:"sourcePath"`
		TargetFolderPath string `json:"targetFolderPath"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	if err := files.Move(req.SourcePath, req.TargetFolderPath); err != nil {
		return nil, err
	}
	return Result{Success: true}, nil
}

// ============================================================================
// CHATS
// ============================================================================

func (s *Server) invokeChatsGetAll(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return s.chats.ListChats(), nil
}

func (s *Server) invokeMessagesByChatID(_ context.Context, params json.RawMessage) (interface{}, error) {
	chatID, err := decodeString(params)
	if err != nil {
		return nil, err
	}
	return s.chats.Messages(chatID), nil
}

// invokeChatsCreate accepts the duck-typed title shapes the UI emits:
// {title: "x"}, {title: {title: "x"}}, or anything else, which falls back
// to the default title.
func (s *Server) invokeChatsCreate(_ context.Context, params json.RawMessage) (interface{}, error) {
	title := extractTitle(params)
	rec, err := s.chats.CreateChat(title)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// extractTitle unwraps title from the create payload. The UI emits either a
// bare string, {title: "x"}, or a double-wrapped {title: {title: "x"}}.
// Unresolvable shapes yield "" so the store applies its default.
func extractTitle(params json.RawMessage) string {
	var plain string
	if err := json.Unmarshal(params, &plain); err == nil {
		return plain
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(params, &payload); err != nil {
		return ""
	}
	switch v := payload["title"].(type) {
	case string:
		return v
	case map[string]interface{}:
		if inner, ok := v["title"].(string); ok {
			return inner
		}
	}
	log.Printf("CHAT_CREATE | could not extract title from payload, using default")
	return ""
}

func (s *Server) invokeMessagesAdd(_ context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		ChatID                   string                 `json:"chatId"`
		Content                  interface{}            `json:"content"`
		Attachments              []chatstore.Attachment `json:"attachments"`
		Code                     string                 `json:"code"`
		AssistantResponseContent *string                `json:"assistantResponseContent"`
		ModelID                  string                 `json:"modelId"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}

	res, err := s.chats.AddMessage(chatstore.AddMessageRequest{
		ChatID:           req.ChatID,
		Content:          util.ToString(req.Content),
		Attachments:      req.Attachments,
		Code:             req.Code,
		AssistantContent: req.AssistantResponseContent,
		ModelID:          req.ModelID,
	})
	if err != nil {
		if errors.Is(err, chatstore.ErrChatNotFound) {
			return nil, errors.New("Chat not found or database not initialized correctly.")
		}
		return nil, err
	}

	return AddMessageEnvelope{
		Success:           true,
		UserMessage:       res.UserMessage,
		AssistantResponse: res.AssistantResponse,
	}, nil
}

func (s *Server) invokeChatsDelete(_ context.Context, params json.RawMessage) (interface{}, error) {
	chatID, err := decodeString(params)
	if err != nil {
		return nil, err
	}
	if err := s.chats.DeleteChat(chatID); err != nil {
		if errors.Is(err, chatstore.ErrChatNotFound) {
			return nil, errors.New("Chat not found")
		}
		return nil, err
	}
	return Result{Success: true}, nil
}

func (s *Server) invokeChatsRename(_ context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		ChatID   string      `json:"chatId"`
		NewTitle interface{} `json:"newTitle"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	rec, err := s.chats.RenameChat(req.ChatID, util.ToString(req.NewTitle))
	if err != nil {
		if errors.Is(err, chatstore.ErrChatNotFound) {
			return nil, errors.New("Chat not found")
		}
		return nil, err
	}
	return RenameEnvelope{Success: true, UpdatedChat: *rec}, nil
}

// ============================================================================
// SETTINGS
// ============================================================================

func (s *Server) invokeSettingsGet(_ context.Context, _ json.RawMessage) (interface{}, error) {
	doc, err := s.settings.Get()
	if err != nil {
		// The merged document is still usable when only the heal write
		// failed; answer with it and log.
		log.Printf("SETTINGS_GET | heal write failed: %v", err)
	}
	return doc, nil
}

func (s *Server) invokeSettingsSet(_ context.Context, params json.RawMessage) (interface{}, error) {
	var partial settings.Document
	if err := json.Unmarshal(params, &partial); err != nil {
		return nil, err
	}
	if err := s.settings.Set(partial); err != nil {
		return nil, err
	}
	return Result{Success: true}, nil
}

// ============================================================================
// MODELS
// ============================================================================

func (s *Server) invokeModelsFetchOnline(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	models, err := s.catalog.Fetch(ctx)
	if err != nil {
		log.Printf("CATALOG_ERROR | error=%v", err)
		return nil, err
	}
	return DataResult{Success: true, Data: models}, nil
}

func (s *Server) invokeOllamaListLocal(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	models, err := s.ollama.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	return DataResult{Success: true, Data: models}, nil
}

func (s *Server) invokeOllamaGenerate(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, err
	}
	resp, err := s.ollama.Generate(ctx, req.Model, req.Prompt)
	if err != nil {
		return nil, err
	}
	return DataResult{Success: true, Data: resp}, nil
}

// ============================================================================
// PARAM HELPERS
// ============================================================================

// decodeString decodes a bare JSON string parameter.
func decodeString(params json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(params, &s); err != nil {
		return "", fmt.Errorf("expected a string parameter: %w", err)
	}
	return s, nil
}
