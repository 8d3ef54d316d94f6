// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"context"
	"errors"

	"github.com/jeranaias/chatdesk/internal/bridge"
	"github.com/jeranaias/chatdesk/internal/settings"
)

// BridgeSettings adapts the bridge client to the SettingsClient interface.
type BridgeSettings struct {
	client *bridge.Client
}

// NewBridgeSettings wraps an existing bridge client.
func NewBridgeSettings(client *bridge.Client) *BridgeSettings {
	return &BridgeSettings{client: client}
}

// GetSettings fetches the full merged settings document.
func (b *BridgeSettings) GetSettings(ctx context.Context) (settings.Document, error) {
	var doc settings.Document
	if err := b.client.Invoke(ctx, bridge.ChannelSettingsGet, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SetSettings persists a partial document. The bridge answers 200 even when
// the write fails, so the envelope is the source of truth.
func (b *BridgeSettings) SetSettings(ctx context.Context, doc settings.Document) error {
	var res bridge.Result
	if err := b.client.Invoke(ctx, bridge.ChannelSettingsSet, doc, &res); err != nil {
		return err
	}
	if !res.Success {
		if res.Error != "" {
			return errors.New(res.Error)
		}
		return errors.New("settings write failed")
	}
	return nil
}
