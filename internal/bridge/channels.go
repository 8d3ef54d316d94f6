// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

// =============================================================================
// CHANNEL ALLOW-LISTS
// =============================================================================

// Channel name constants. Handlers and tests reference these instead of
// string literals so a typo fails to compile.
const (
	// Send channels (fire-and-forget window controls).
	ChannelMinimizeApp = "minimize-app"
	ChannelMaximizeApp = "maximize-app"
	ChannelCloseApp    = "close-app"

	// System info.
	ChannelGPUInfo     = "get-gpu-info"
	ChannelRAMInfo     = "get-ram-info"
	ChannelStorageInfo = "get-storage-info"

	// App paths.
	ChannelUserFilesPath = "app:get-user-files-path"
	ChannelPathDirname   = "path:dirname"
	ChannelPathBasename  = "path:basename"

	// File management.
	ChannelFilesGetAll       = "files:get-all"
	ChannelFilesReadAsBase64 = "files:read-as-base64"
	ChannelFilesUpload       = "files:upload"
	ChannelFilesCreateFolder = "files:create-folder"
	ChannelFilesMove         = "files:move"

	// Chat management.
	ChannelChatsGetAll      = "chats:get-all"
	ChannelMessagesByChatID = "messages:get-by-chat-id"
	ChannelChatsCreate      = "chats:create"
	ChannelMessagesAdd      = "messages:add"
	ChannelChatsDelete      = "chats:delete"
	ChannelChatsRename      = "chats:rename"

	// Settings.
	ChannelSettingsGet = "settings:get"
	ChannelSettingsSet = "settings:set"

	// Models.
	ChannelModelsFetchOnline = "models:fetch-online-ollama"
	ChannelOllamaListLocal   = "ollama:list-local"
	ChannelOllamaGenerate    = "ollama:generate"

	// Notify channels (host to UI).
	ChannelFromMainTest     = "from-main-test"
	ChannelUpdateAvailable  = "update-available"
	ChannelDownloadProgress = "download-progress"
	ChannelStorageChanged   = "storage-changed"
)

// validSendChannels lists the fire-and-forget channels the UI may emit.
var validSendChannels = map[string]bool{
	ChannelMinimizeApp: true,
	ChannelMaximizeApp: true,
	ChannelCloseApp:    true,
}

// validInvokeChannels lists the request/response channels the UI may call.
var validInvokeChannels = map[string]bool{
	ChannelGPUInfo:           true,
	ChannelRAMInfo:           true,
	ChannelStorageInfo:       true,
	ChannelUserFilesPath:     true,
	ChannelPathDirname:       true,
	ChannelPathBasename:      true,
	ChannelFilesGetAll:       true,
	ChannelFilesReadAsBase64: true,
	ChannelFilesUpload:       true,
	ChannelFilesCreateFolder: true,
	ChannelFilesMove:         true,
	ChannelChatsGetAll:       true,
	ChannelMessagesByChatID:  true,
	ChannelChatsCreate:       true,
	ChannelMessagesAdd:       true,
	ChannelChatsDelete:       true,
	ChannelChatsRename:       true,
	ChannelSettingsGet:       true,
	ChannelSettingsSet:       true,
	ChannelModelsFetchOnline: true,
	ChannelOllamaListLocal:   true,
	ChannelOllamaGenerate:    true,
}

// validNotifyChannels lists the push channels the host may publish.
var validNotifyChannels = map[string]bool{
	ChannelFromMainTest:     true,
	ChannelUpdateAvailable:  true,
	ChannelDownloadProgress: true,
	ChannelStorageChanged:   true,
}

// ValidSendChannel reports whether name is an allow-listed send channel.
func ValidSendChannel(name string) bool { return validSendChannels[name] }

// ValidInvokeChannel reports whether name is an allow-listed invoke channel.
func ValidInvokeChannel(name string) bool { return validInvokeChannels[name] }

// ValidNotifyChannel reports whether name is an allow-listed notify channel.
func ValidNotifyChannel(name string) bool { return validNotifyChannels[name] }
