// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/jeranaias/chatdesk/internal/util"
)

// =============================================================================
// SETTINGS STORE
// =============================================================================

// Store persists the application settings document to a single JSON file.
// The bridge gateway owns one Store for its process lifetime; operations are
// serialized internally so concurrent bridge calls never interleave a
// read-modify-write cycle.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a Store backed by the given file path. The file is not
// touched until the first Get or Set.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Get returns the settings document, deep-merged under the default schema
// (stored values win, missing keys inherit defaults). When the merged result
// differs from what was read - first run, corrupt file, or a schema that
// gained keys since the last write - the merged document is written back so
// the file self-heals.
//
// The returned error reports a failed self-heal write only; the merged
// document is valid and returned either way.
func (s *Store) Get() (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMerged()
}

// Set merges a partial document into the current one and persists the
// result. The top-level schema is closed: keys in the partial that do not
// already exist in the current document are silently dropped, so an
// untrusted caller cannot introduce new top-level sections. For keys that do
// exist, nested objects deep-merge (the incoming value wins on leaf
// conflicts, keys absent from the incoming partial are preserved); any other
// value replaces the current one outright.
func (s *Store) Set(partial Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _ := s.loadMerged()

	for key, incoming := range partial {
		existing, ok := current[key]
		if !ok {
			// Closed top-level schema: unknown sections are dropped.
			log.Printf("SETTINGS_SET | dropped unknown top-level key=%s", key)
			continue
		}
		existingObj, existingIsObj := existing.(map[string]interface{})
		incomingObj, incomingIsObj := incoming.(map[string]interface{})
		if existingIsObj && incomingIsObj {
			current[key] = DeepMerge(existingObj, incomingObj)
		} else {
			current[key] = cloneValue(incoming)
		}
	}

	if err := util.WriteJSONFile(s.path, current); err != nil {
		log.Printf("SETTINGS_WRITE_ERROR | path=%s error=%v", s.path, err)
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// =============================================================================
// LOAD / SELF-HEAL
// =============================================================================

// loadMerged reads the stored document, merges it over defaults, and writes
// the merged result back when it differs from what was read.
// Caller must hold s.mu.
func (s *Store) loadMerged() (Document, error) {
	stored := s.readStored()

	merged := DeepMerge(DefaultDocument(), stored)

	if !reflect.DeepEqual(merged, stored) {
		if err := util.WriteJSONFile(s.path, merged); err != nil {
			log.Printf("SETTINGS_HEAL_ERROR | path=%s error=%v", s.path, err)
			return merged, fmt.Errorf("failed to self-heal settings file: %w", err)
		}
		log.Printf("SETTINGS_HEAL | path=%s", s.path)
	}
	return merged, nil
}

// readStored returns the document as persisted on disk, or an empty
// document when the file is absent, empty, or unparseable. An unreadable
// file is deliberately treated the same as a missing one: the caller
// replaces it with defaults rather than failing the load.
func (s *Store) readStored() Document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("SETTINGS_READ_ERROR | path=%s error=%v", s.path, err)
		}
		return Document{}
	}
	if strings.TrimSpace(string(data)) == "" {
		return Document{}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Printf("SETTINGS_PARSE_ERROR | path=%s error=%v", s.path, err)
		return Document{}
	}
	if doc == nil {
		return Document{}
	}
	return doc
}
