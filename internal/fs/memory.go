// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package fs

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.bondrewd.org/pegen.go/internal/exc"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

// FileSystemMemory keeps file content in a map keyed by cleaned absolute
// path. Opening a directory path returns every file directly beneath it.
type FileSystemMemory struct {
	lock  sync.RWMutex
	files map[string]string
}

var _ pegen.FileSystem = &FileSystemMemory{}

// NewFileSystemMemory returns a FileSystemMemory seeded with the given
// path to content pairs.
func NewFileSystemMemory(files map[string]string) *FileSystemMemory {
	m := &FileSystemMemory{files: make(map[string]string, len(files))}
	for p, content := range files {
		m.files[memoryPath(p)] = content
	}
	return m
}

func memoryPath(uri string) string {
	return path.Clean("/" + strings.TrimPrefix(uri, "file://"))
}

func (m *FileSystemMemory) Open(ctx context.Context, uri string) ([]pegen.File, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	p := memoryPath(uri)
	if content, ok := m.files[p]; ok {
		return []pegen.File{NewFileString(p, content, KindOf(p))}, nil
	}
	var names []string
	for name := range m.files {
		if path.Dir(name) == p {
			names = append(names, name)
		}
	}
	if len(names) < 1 {
		return nil, exc.Newf(exc.Location{URI: uri}, exc.CodeFileNotFound, "%s does not exist", p)
	}
	sort.Strings(names)
	files := make([]pegen.File, 0, len(names))
	for _, name := range names {
		files = append(files, NewFileString(name, m.files[name], KindOf(name)))
	}
	return files, nil
}

func (m *FileSystemMemory) Write(ctx context.Context, uri string, content string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.files[memoryPath(uri)] = content
	return nil
}

// Content returns the current content of uri.
func (m *FileSystemMemory) Content(uri string) (string, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	content, ok := m.files[memoryPath(uri)]
	return content, ok
}
