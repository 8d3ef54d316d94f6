// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatdesk/internal/settings"
)

// fakeClient mimics the settings store surface: get answers the stored
// document, set merges submitted top-level sections in.
type fakeClient struct {
	mu       sync.Mutex
	doc      settings.Document
	setCalls int
	failSet  bool
}

func newFakeClient(doc settings.Document) *fakeClient {
	if doc == nil {
		doc = settings.Document{}
	}
	return &fakeClient{doc: doc}
}

func (f *fakeClient) GetSettings(_ context.Context) (settings.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return settings.Clone(f.doc), nil
}

func (f *fakeClient) SetSettings(_ context.Context, partial settings.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failSet {
		return errors.New("disk full")
	}
	f.doc = settings.DeepMerge(f.doc, partial)
	return nil
}

func generalDefaults() settings.Document {
	return settings.Document{
		"theme":    "system",
		"fontSize": 14,
		"notifications": settings.Document{
			"enabled": true,
			"sound":   false,
		},
	}
}

func TestSection_LoadDeepFillsDefaults(t *testing.T) {
	client := newFakeClient(settings.Document{
		"general": settings.Document{"theme": "dark"},
	})
	section := NewSection("general", generalDefaults())

	require.NoError(t, section.Load(context.Background(), client))

	current := section.Current()
	assert.Equal(t, "dark", current["theme"], "stored value wins")
	assert.Equal(t, 14, current["fontSize"], "missing keys filled from defaults")
	assert.False(t, section.Dirty(), "freshly loaded section is clean")
}

func TestSection_SetFieldAndDiscard(t *testing.T) {
	client := newFakeClient(nil)
	section := NewSection("general", generalDefaults())
	require.NoError(t, section.Load(context.Background(), client))

	require.NoError(t, section.SetField("theme", "light"))
	require.NoError(t, section.SetField("notifications.sound", true))
	assert.True(t, section.Dirty())

	current := section.Current()
	notifications := current["notifications"].(map[string]interface{})
	assert.Equal(t, true, notifications["sound"])

	// Original never moves on edit.
	original := section.Original()
	assert.Equal(t, "system", original["theme"])

	section.Discard()
	assert.False(t, section.Dirty())
	assert.Equal(t, "system", section.Current()["theme"])
}

func TestSection_SetFieldCreatesIntermediateObjects(t *testing.T) {
	client := newFakeClient(nil)
	section := NewSection("advanced", settings.Document{})
	require.NoError(t, section.Load(context.Background(), client))

	require.NoError(t, section.SetField("debug.logging.level", "verbose"))

	current := section.Current()
	debug := current["debug"].(map[string]interface{})
	logging := debug["logging"].(map[string]interface{})
	assert.Equal(t, "verbose", logging["level"])
}

func TestSection_SetFieldBeforeLoad(t *testing.T) {
	section := NewSection("general", generalDefaults())
	err := section.SetField("theme", "light")
	assert.ErrorIs(t, err, ErrSectionNotLoaded)
}

func TestCoordinator_SaveAllIsGlobalAndPromotes(t *testing.T) {
	client := newFakeClient(nil)
	general := NewSection("general", generalDefaults())
	advanced := NewSection("advanced", settings.Document{"telemetry": false})
	coord := NewCoordinator(client, general, advanced)

	ctx := context.Background()
	require.NoError(t, coord.LoadAll(ctx))

	// One section edited, the other carries an unrelated pending edit.
	require.NoError(t, general.SetField("theme", "light"))
	require.NoError(t, advanced.SetField("telemetry", true))
	assert.True(t, coord.Dirty())

	require.NoError(t, coord.SaveAll(ctx))
	assert.Equal(t, 1, client.setCalls, "one global write for all sections")

	// Both sections persisted and promoted.
	persisted, err := client.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", persisted["general"].(map[string]interface{})["theme"])
	assert.Equal(t, true, persisted["advanced"].(map[string]interface{})["telemetry"])
	assert.False(t, coord.Dirty(), "all sections clean after a successful save")
}

func TestCoordinator_FailedSaveKeepsSectionsDirty(t *testing.T) {
	client := newFakeClient(nil)
	client.failSet = true
	general := NewSection("general", generalDefaults())
	coord := NewCoordinator(client, general)

	ctx := context.Background()
	require.NoError(t, coord.LoadAll(ctx))
	require.NoError(t, general.SetField("theme", "light"))

	err := coord.SaveAll(ctx)
	require.Error(t, err)
	assert.True(t, general.Dirty(), "originals only advance on success")
}

func TestCoordinator_SaveAllSkipsUnloadedSections(t *testing.T) {
	client := newFakeClient(nil)
	general := NewSection("general", generalDefaults())
	advanced := NewSection("advanced", settings.Document{})
	coord := NewCoordinator(client, general, advanced)

	ctx := context.Background()
	require.NoError(t, general.Load(ctx, client))
	require.NoError(t, general.SetField("theme", "light"))

	require.NoError(t, coord.SaveAll(ctx))

	persisted, err := client.GetSettings(ctx)
	require.NoError(t, err)
	_, hasAdvanced := persisted["advanced"]
	assert.False(t, hasAdvanced, "unloaded sections are not collected")
}

func TestCoordinator_DiscardAll(t *testing.T) {
	client := newFakeClient(nil)
	general := NewSection("general", generalDefaults())
	coord := NewCoordinator(client, general)

	ctx := context.Background()
	require.NoError(t, coord.LoadAll(ctx))
	require.NoError(t, general.SetField("theme", "light"))
	require.True(t, coord.Dirty())

	coord.DiscardAll()
	assert.False(t, coord.Dirty())
}

func TestCoordinator_SectionLookup(t *testing.T) {
	general := NewSection("general", generalDefaults())
	coord := NewCoordinator(newFakeClient(nil), general)

	assert.Same(t, general, coord.Section("general"))
	assert.Nil(t, coord.Section("missing"))
}
