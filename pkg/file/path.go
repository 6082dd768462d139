// ABOUTME: Logical path parsing helpers
// ABOUTME: Splits a//, s// and p// prefixes and extracts file names and extensions
package file

import (
	"errors"
	"fmt"
	fp "path/filepath"
	"strings"
)

// ErrNotAsset is returned for names that are not inside the asset directory
var ErrNotAsset = errors.New("not an asset path")

// Location prefixes
const (
	AssetPrefix   = "a//"
	SavePrefix    = "s//"
	ProjectPrefix = "p//"
)

// Location is where a logical name points
type Location int

const (
	Plain Location = iota
	Asset
	Save
	Project
)

// Split separates a logical name into its location and the remaining path
func Split(name string) (Location, string) {
	if len(name) >= 3 && name[1:3] == "//" {
		switch name[0] {
		case 'a':
			return Asset, name[3:]
		case 's':
			return Save, name[3:]
		case 'p':
			return Project, name[3:]
		}
	}
	return Plain, name
}

// Dir returns the location part of a path: everything up to the last
// slash, or the prefix for prefixed names ("a//x/y.bin" gives "a//x/")
func Dir(filepath string) string {
	i := strings.LastIndex(filepath, "/")
	if i < 0 {
		return ""
	}
	return filepath[:i+1]
}

// Name returns the file name after the last slash
func Name(filepath string) string {
	return filepath[len(Dir(filepath)):]
}

// NameWithoutExtension returns Name without everything from the first dot.
// A leading dot does not start an extension.
func NameWithoutExtension(filepath string) string {
	name := Name(filepath)
	if i := strings.Index(name[min(1, len(name)):], "."); i >= 0 {
		return name[:i+1]
	}
	return name
}

// Extension returns the text after the last dot of the file name, without the dot
func Extension(filepath string) string {
	name := Name(filepath)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// AssetPath returns the path of an a// name relative to the asset
// directory. Other locations, plain paths and names that climb out of the
// asset directory with ".." are rejected with ErrNotAsset.
func AssetPath(name string) (string, error) {
	loc, rest := Split(name)
	if loc != Asset {
		return "", fmt.Errorf("%w: %q", ErrNotAsset, name)
	}
	rel := fp.FromSlash(rest)
	if !fp.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q leaves the asset directory", ErrNotAsset, name)
	}
	return fp.Clean(rel), nil
}
