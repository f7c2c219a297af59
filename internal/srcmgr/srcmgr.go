// Package srcmgr manages source-file identity: it canonicalizes a file
// path, computes a content hash, and hands back a handle the caller can
// mutate (its file-type classification) and persist back.
package srcmgr

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileHandle is a canonicalized reference to one source file: its resolved
// path, the SHA-1 of its content at the time it was read, and an editable
// Type classification the caller may set before calling UpdateFile.
type FileHandle struct {
	Path string
	SHA1 string
	Type string
}

// Manager is a thread-safe cache of FileHandles keyed by canonical path.
type Manager struct {
	mu    sync.Mutex
	files map[string]*FileHandle
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{files: make(map[string]*FileHandle)}
}

// GetFile canonicalizes path, hashes its content, and returns a cached or
// freshly built FileHandle. Safe for concurrent callers.
func (m *Manager) GetFile(path string) (*FileHandle, error) {
	canonical, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("srcmgr: canonicalize %s: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.files[canonical]; ok {
		return h, nil
	}

	content, err := os.ReadFile(canonical)
	if err != nil {
		return nil, fmt.Errorf("srcmgr: read %s: %w", canonical, err)
	}

	sum := sha1.Sum(content)
	handle := &FileHandle{
		Path: canonical,
		SHA1: hex.EncodeToString(sum[:]),
		Type: "unknown",
	}
	m.files[canonical] = handle
	return handle, nil
}

// UpdateFile persists handle's (possibly mutated) Type classification back
// into the manager's cache.
func (m *Manager) UpdateFile(handle *FileHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[handle.Path] = handle
}
