// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

// Document is the application settings document: a nested JSON object with
// five top-level sections. It is kept as a generic map rather than a struct
// so that deep merging works over arbitrary nesting and unknown extra keys
// written by older or newer versions survive a load/save cycle.
type Document = map[string]interface{}

// DefaultDocument returns the authoritative schema-with-defaults. Every key
// present here is guaranteed to exist in the document returned by Get.
func DefaultDocument() Document {
	return Document{
		"general": Document{
			"language": "en",
			"notifications": Document{
				"desktop": true,
				"sound":   false,
				"email":   true,
			},
			"autoSave":        true,
			"startupBehavior": "last-session",
		},
		"ai-models": Document{
			"temperature":      0.7,
			"maxTokens":        2048,
			"topP":             0.9,
			"frequencyPenalty": 0.0,
			"presencePenalty":  0.0,
			"responseFormat":   "markdown",
			"streamResponse":   true,
			"contextWindow":    4096,
			"systemPrompt": "You are a helpful AI assistant. Provide accurate, concise, " +
				"and helpful responses to user queries. When writing code, use proper " +
				"syntax highlighting and explain complex concepts clearly.",
			"fallbackModel": "gpt-3.5-turbo",
			"retryAttempts": 3,
		},
		"interface": Document{
			"fontSize":        "medium",
			"fontFamily":      "inter",
			"lineHeight":      "normal",
			"chatDensity":     "comfortable",
			"sidebarWidth":    "medium",
			"showLineNumbers": true,
			"wordWrap":        true,
			"minimap":         false,
			"animations":      true,
			"reducedMotion":   false,
			"highContrast":    false,
			"focusMode":       false,
			"compactMode":     false,
			"showTimestamps":  true,
			"showAvatars":     true,
			"messageGrouping": true,
		},
		"connections": Document{
			"apiKeys": Document{
				"openai":      "",
				"anthropic":   "",
				"google":      "",
				"huggingface": "",
			},
			"webhooks": Document{
				"enabled": false,
				"url":     "",
				"secret":  "",
			},
			"proxy": Document{
				"enabled":  false,
				"host":     "",
				"port":     "",
				"username": "",
				"password": "",
			},
			"timeout":               30,
			"retryDelay":            1000,
			"maxConcurrentRequests": 5,
		},
		"advanced": Document{
			"debug": Document{
				"enabled":                false,
				"logLevel":               "info",
				"showNetworkRequests":    false,
				"showPerformanceMetrics": false,
			},
			"performance": Document{
				"enableCaching":         true,
				"cacheSize":             100,
				"preloadModels":         false,
				"optimizeMemory":        true,
				"enableGPUAcceleration": false,
			},
			"experimental": Document{
				"betaFeatures":      false,
				"advancedPrompting": false,
				"multiModalSupport": false,
				"voiceInteraction":  false,
			},
			"security": Document{
				"enableTelemetry":        true,
				"allowRemoteConnections": false,
				"requireAuthentication":  false,
				"encryptLocalData":       true,
			},
		},
	}
}
