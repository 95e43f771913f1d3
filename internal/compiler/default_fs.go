// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"os"
	"path/filepath"

	"gopkg.bondrewd.org/pegen.go/internal/fs"
	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

// NewDefaultFS searches the shared grammar directories of the platform,
// such as $XDG_DATA_DIRS/pegen/grammars, for grammars and listings. Roots that do
// not exist are skipped.
func NewDefaultFS(lookup func(string) (string, bool)) (pegen.FileSystem, error) {
	roots := getDefaultRoots(lookup)
	f := make(fs.FileSystemMulti, 0, len(roots))
	for _, root := range roots {
		absRoot, errAbs := filepath.Abs(root)
		if errAbs != nil {
			return nil, errAbs
		}
		if _, err := os.Stat(absRoot); err != nil {
			continue
		}
		rf, err := fs.NewFileSystemLocal(absRoot)
		if err != nil {
			return nil, err
		}
		f = append(f, rf)
	}
	return f, nil
}
