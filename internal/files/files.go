// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package files implements the user-file operations behind the bridge file
// channels: directory listing, data-URI reads for inline previews, uploads,
// moves, and folder creation.
//
// Operations take absolute paths supplied by the UI. Failures return plain
// errors; the bridge shapes them into result envelopes.
package files

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Collision errors carry the exact message the UI displays.
var (
	// ErrTargetExists is returned by Move when the destination name is taken.
	ErrTargetExists = errors.New("A file or folder with the same name already exists in the target folder.")
	// ErrFolderExists is returned by CreateFolder for an existing folder.
	ErrFolderExists = errors.New("Folder already exists.")
)

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry describes one directory entry for the file listing channel.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	IsDirectory bool   `json:"isDirectory"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"createdAt"`
	ModifiedAt  string `json:"modifiedAt"`
}

// mimeTypes maps known file extensions for data-URI previews.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
}

// MimeType returns the MIME type for a file path based on its extension.
// Unknown extensions map to application/octet-stream.
func MimeType(path string) string {
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// List returns the entries of a directory.
//
// An unreadable directory yields an empty slice, not an error: the listing
// channel always answers with an array. Entries that cannot be stat'd are
// skipped.
func List(dir string) []Entry {
	items, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("FILES_LIST_ERROR | dir=%s error=%v", dir, err)
		return []Entry{}
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		info, err := item.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:        item.Name(),
			Path:        filepath.Join(dir, item.Name()),
			IsDirectory: item.IsDir(),
			Size:        info.Size(),
			// Birth time is not portable; modification time stands in.
			CreatedAt:  info.ModTime().UTC().Format(isoLayout),
			ModifiedAt: info.ModTime().UTC().Format(isoLayout),
		})
	}
	return entries
}

// ReadAsDataURI reads a file and encodes it as a base64 data URI.
func ReadAsDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", path, err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", MimeType(path), encoded), nil
}

// Upload writes an uploaded payload under parentPath.
func Upload(name string, data []byte, parentPath string) error {
	path := filepath.Join(parentPath, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write upload %s: %w", path, err)
	}
	return nil
}

// Move relocates a file or folder into targetFolder, keeping its base name.
// An occupied destination name returns ErrTargetExists without touching
// either side.
func Move(sourcePath, targetFolder string) error {
	dest := filepath.Join(targetFolder, filepath.Base(sourcePath))
	if _, err := os.Stat(dest); err == nil {
		return ErrTargetExists
	}
	if err := os.Rename(sourcePath, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", sourcePath, err)
	}
	return nil
}

// CreateFolder creates folderName under parentPath.
// An existing folder of the same name returns ErrFolderExists.
func CreateFolder(folderName, parentPath string) error {
	path := filepath.Join(parentPath, folderName)
	if _, err := os.Stat(path); err == nil {
		return ErrFolderExists
	}
	if err := os.Mkdir(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// EnsureUserFilesRoot creates the UserFiles directory under dataDir and
// returns its path. Called once at startup.
func EnsureUserFilesRoot(dataDir string) (string, error) {
	root := filepath.Join(dataDir, "UserFiles")
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create user files root: %w", err)
	}
	return root, nil
}
