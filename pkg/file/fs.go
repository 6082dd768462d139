// ABOUTME: Loader over an fs.FS such as an embedded asset bundle
// ABOUTME: Strips location prefixes so a//, s// and p// all map into the same tree
package file

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FSLoader reads logical names from an fs.FS. Every location prefix maps
// to the root of the file system.
type FSLoader struct {
	FS fs.FS
}

// NewFSLoader wraps fsys
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{FS: fsys}
}

func (l *FSLoader) resolve(name string) string {
	_, rest := Split(name)
	rest = strings.TrimPrefix(path.Clean("/"+rest), "/")
	if rest == "" {
		return "."
	}
	return rest
}

// ReadFile reads an entire file
func (l *FSLoader) ReadFile(name string) ([]byte, error) {
	data, err := fs.ReadFile(l.FS, l.resolve(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// Ls lists a directory with the same pattern rules as Loader.Ls
func (l *FSLoader) Ls(pattern string) ([]string, error) {
	_, rest := Split(pattern)
	dir, filter := splitPattern(rest)

	entries, err := fs.ReadDir(l.FS, l.resolve(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	return listEntries(entries, filter)
}
