// ABOUTME: Tests for logical path helpers
// ABOUTME: Checks prefix splitting, asset containment and file name and extension extraction
package file

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		rest string
	}{
		{"a//laser.ogg", Asset, "laser.ogg"},
		{"s//save1.bin", Save, "save1.bin"},
		{"p//level/map.json", Project, "level/map.json"},
		{"x//other.bin", Plain, "x//other.bin"},
		{"music.ogg", Plain, "music.ogg"},
		{"a//", Asset, ""},
	}

	for _, tt := range tests {
		loc, rest := Split(tt.name)
		if loc != tt.loc || rest != tt.rest {
			t.Errorf("%s: expected (%v, %q), got (%v, %q)", tt.name, tt.loc, tt.rest, loc, rest)
		}
	}
}

func TestNameHelpers(t *testing.T) {
	tests := []struct {
		path  string
		dir   string
		name  string
		noExt string
		ext   string
	}{
		{"file1.bin", "", "file1.bin", "file1", "bin"},
		{"a//file2.bin", "a//", "file2.bin", "file2", "bin"},
		{"/home/user/file3.bin", "/home/user/", "file3.bin", "file3", "bin"},
		{"file4", "", "file4", "file4", ""},
		{".file5", "", ".file5", ".file5", "file5"},
		{"a//file6.tar.gz", "a//", "file6.tar.gz", "file6", "gz"},
		{"/home/user.a/file8.txt", "/home/user.a/", "file8.txt", "file8", "txt"},
		{"Makefile", "", "Makefile", "Makefile", ""},
	}

	for _, tt := range tests {
		if got := Dir(tt.path); got != tt.dir {
			t.Errorf("Dir(%q): expected %q, got %q", tt.path, tt.dir, got)
		}
		if got := Name(tt.path); got != tt.name {
			t.Errorf("Name(%q): expected %q, got %q", tt.path, tt.name, got)
		}
		if got := NameWithoutExtension(tt.path); got != tt.noExt {
			t.Errorf("NameWithoutExtension(%q): expected %q, got %q", tt.path, tt.noExt, got)
		}
		if got := Extension(tt.path); got != tt.ext {
			t.Errorf("Extension(%q): expected %q, got %q", tt.path, tt.ext, got)
		}
	}
}

func TestAssetPath(t *testing.T) {
	tests := []struct {
		name string
		rel  string
		ok   bool
	}{
		{"a//laser.ogg", "laser.ogg", true},
		{"a//sfx/./shot.ogg", filepath.Join("sfx", "shot.ogg"), true},
		{"a//sfx/../laser.ogg", "laser.ogg", true},
		{"a//../secret.txt", "", false},
		{"a//sfx/../../secret.txt", "", false},
		{"a///etc/passwd", "", false},
		{"a//", "", false},
		{"s//save1.bin", "", false},
		{"/etc/passwd", "", false},
		{"laser.ogg", "", false},
	}

	for _, tt := range tests {
		rel, err := AssetPath(tt.name)
		if !tt.ok {
			if !errors.Is(err, ErrNotAsset) {
				t.Errorf("%s: expected ErrNotAsset, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: expected no error, got %v", tt.name, err)
			continue
		}
		if rel != tt.rel {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.rel, rel)
		}
	}
}
