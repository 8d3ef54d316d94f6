// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reconcile implements the client-side settings editing protocol.
//
// Each settings section is edited independently: a Section loads its slice
// of the document, deep-filled under the section's local default shape, and
// keeps two snapshots, the working "current" and the last-persisted
// "original". A Coordinator owns all sections, answers the unsaved-changes
// question by comparing snapshots, and performs the global save: it collects
// every section's current state into one partial document, persists it in a
// single settings call, and only then promotes each section's original.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jeranaias/chatdesk/internal/settings"
)

// ErrSectionNotLoaded is returned by operations that need a Load first.
var ErrSectionNotLoaded = errors.New("reconcile: section not loaded")

// SettingsClient is the slice of the bridge surface the protocol needs.
type SettingsClient interface {
	GetSettings(ctx context.Context) (settings.Document, error)
	SetSettings(ctx context.Context, doc settings.Document) error
}

// ============================================================================
// SECTION
// ============================================================================

// Section tracks one top-level settings section through an edit cycle.
type Section struct {
	mu       sync.Mutex
	name     string
	defaults settings.Document
	current  settings.Document
	original settings.Document
	loaded   bool
}

// NewSection creates a section editor for the named top-level key. The
// defaults document is the section's local shape; fetched values are
// deep-filled under it so new fields appear with defaults even when the
// stored document predates them.
func NewSection(name string, defaults settings.Document) *Section {
	return &Section{
		name:     name,
		defaults: settings.Clone(defaults),
	}
}

// Name returns the section's top-level key.
func (s *Section) Name() string {
	return s.name
}

// Load fetches the full document, extracts this section, and resets both
// snapshots to the merged result. Loading again discards pending edits.
func (s *Section) Load(ctx context.Context, client SettingsClient) error {
	doc, err := client.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load section %s: %w", s.name, err)
	}

	fetched := settings.Document{}
	if raw, ok := doc[s.name].(map[string]interface{}); ok {
		fetched = raw
	}
	merged := settings.DeepMerge(s.defaults, fetched)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = settings.Clone(merged)
	s.original = settings.Clone(merged)
	s.loaded = true
	return nil
}

// SetField updates one field in the working snapshot. The path is
// dot-separated ("notifications.sound"); missing intermediate objects are
// created. Only "current" moves, "original" stays at the persisted state.
func (s *Section) SetField(path string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrSectionNotLoaded
	}

	keys := strings.Split(path, ".")
	node := s.current
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]interface{})
		if !ok {
			child = settings.Document{}
			node[key] = child
		}
		node = child
	}
	node[keys[len(keys)-1]] = value
	return nil
}

// Current returns a copy of the working snapshot.
func (s *Section) Current() settings.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return settings.Clone(s.current)
}

// Original returns a copy of the last-persisted snapshot.
func (s *Section) Original() settings.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return settings.Clone(s.original)
}

// Dirty reports whether the working snapshot differs structurally from the
// persisted one.
func (s *Section) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && !reflect.DeepEqual(s.current, s.original)
}

// Discard resets the working snapshot back to the persisted one.
func (s *Section) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return
	}
	s.current = settings.Clone(s.original)
}

// promote records the given state as persisted. Called by the coordinator
// after a successful save with exactly what was sent.
func (s *Section) promote(sent settings.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original = settings.Clone(sent)
}

// ============================================================================
// COORDINATOR
// ============================================================================

// Coordinator owns every section editor and drives the global save cycle.
type Coordinator struct {
	client   SettingsClient
	sections []*Section
}

// NewCoordinator creates a coordinator over the given sections.
func NewCoordinator(client SettingsClient, sections ...*Section) *Coordinator {
	return &Coordinator{client: client, sections: sections}
}

// Section returns the named section, or nil.
func (c *Coordinator) Section(name string) *Section {
	for _, s := range c.sections {
		if s.name == name {
			return s
		}
	}
	return nil
}

// LoadAll activates every section from one fetch each.
func (c *Coordinator) LoadAll(ctx context.Context) error {
	for _, s := range c.sections {
		if err := s.Load(ctx, c.client); err != nil {
			return err
		}
	}
	return nil
}

// Dirty reports whether any section has unsaved edits.
func (c *Coordinator) Dirty() bool {
	for _, s := range c.sections {
		if s.Dirty() {
			return true
		}
	}
	return false
}

// SaveAll collects the working snapshot of every loaded section into one
// partial document and persists it in a single call. Only on success does
// each section's original advance; a failed save leaves every section
// dirty, including ones whose edits were unrelated.
func (c *Coordinator) SaveAll(ctx context.Context) error {
	collected := settings.Document{}
	sent := make(map[string]settings.Document, len(c.sections))
	for _, s := range c.sections {
		s.mu.Lock()
		if !s.loaded {
			s.mu.Unlock()
			continue
		}
		snapshot := settings.Clone(s.current)
		s.mu.Unlock()
		collected[s.name] = snapshot
		sent[s.name] = snapshot
	}
	if len(collected) == 0 {
		return nil
	}

	if err := c.client.SetSettings(ctx, collected); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	for _, s := range c.sections {
		if snapshot, ok := sent[s.name]; ok {
			s.promote(snapshot)
		}
	}
	return nil
}

// DiscardAll resets every section's working snapshot.
func (c *Coordinator) DiscardAll() {
	for _, s := range c.sections {
		s.Discard()
	}
}
