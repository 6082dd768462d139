// ABOUTME: Disk-backed loader for logical game file names
// ABOUTME: Discovers the asset directory next to the executable and reads, writes and lists files
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var ErrInvalidPattern = errors.New("invalid ls pattern")

// assetDirCandidates are probed relative to the executable directory
var assetDirCandidates = []string{"assets", "../assets", "../../assets"}

// Options configures a Loader. Empty fields are derived from the executable location.
type Options struct {
	AssetDir   string
	SaveDir    string
	ProjectDir string
}

// Loader resolves logical names against directories on disk
type Loader struct {
	mu         sync.RWMutex
	assetDir   string
	saveDir    string
	projectDir string
}

// NewLoader creates a Loader. Without an AssetDir it probes assets/,
// ../assets/ and ../../assets/ next to the executable. Save files default to
// savefiles/ next to the executable, and the project directory to the save
// directory.
func NewLoader(opts Options) *Loader {
	exeDir := executableDir()

	if opts.AssetDir == "" {
		opts.AssetDir = DiscoverAssetDir(exeDir)
	}
	if opts.SaveDir == "" {
		opts.SaveDir = filepath.Join(exeDir, "savefiles")
	}
	if opts.ProjectDir == "" {
		opts.ProjectDir = opts.SaveDir
	}

	return &Loader{
		assetDir:   opts.AssetDir,
		saveDir:    opts.SaveDir,
		projectDir: opts.ProjectDir,
	}
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		log.Printf("Warning: cannot locate executable, using working directory: %v", err)
		return "."
	}
	return filepath.Dir(exe)
}

// DiscoverAssetDir returns the first existing asset directory candidate
// below exeDir. If none exists it returns the first candidate.
func DiscoverAssetDir(exeDir string) string {
	for _, candidate := range assetDirCandidates {
		dir := filepath.Join(exeDir, candidate)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return filepath.Join(exeDir, assetDirCandidates[0])
}

// AssetDir returns the asset directory
func (l *Loader) AssetDir() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.assetDir
}

// SaveDir returns the save file directory
func (l *Loader) SaveDir() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.saveDir
}

// ProjectDir returns the project directory
func (l *Loader) ProjectDir() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.projectDir
}

// SetProjectDir changes the directory p// names resolve against
func (l *Loader) SetProjectDir(dir string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.projectDir = dir
}

// Resolve maps a logical name to a filesystem path
func (l *Loader) Resolve(name string) string {
	loc, rest := Split(name)

	l.mu.RLock()
	defer l.mu.RUnlock()

	switch loc {
	case Asset:
		return joinKeepSlash(l.assetDir, rest)
	case Save:
		return joinKeepSlash(l.saveDir, rest)
	case Project:
		return joinKeepSlash(l.projectDir, rest)
	default:
		return rest
	}
}

// joinKeepSlash joins like filepath.Join but keeps a trailing slash,
// which marks a directory in ls patterns
func joinKeepSlash(dir, rest string) string {
	joined := filepath.Join(dir, rest)
	if rest == "" || strings.HasSuffix(rest, "/") {
		joined += string(filepath.Separator)
	}
	return joined
}

// ReadFile reads an entire file
func (l *Loader) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(l.Resolve(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// WriteFile writes data to a file, creating missing parent directories
// and overwriting an existing file
func (l *Loader) WriteFile(name string, data []byte) error {
	path := l.Resolve(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Ls lists a directory. The last path element may contain * wildcards to
// filter entries ("a//sfx/*.ogg"). Directories get a "/" suffix, symlinks
// "@", and other non-regular files "*". The result is sorted.
func (l *Loader) Ls(pattern string) ([]string, error) {
	dir, filter := splitPattern(l.Resolve(pattern))
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	return listEntries(entries, filter)
}

// splitPattern separates a trailing wildcard element from its directory.
// Without a wildcard the whole path is the directory.
func splitPattern(path string) (dir, filter string) {
	slash := strings.LastIndexAny(path, `/\`)
	last := path[slash+1:]
	if !strings.Contains(last, "*") {
		return path, ""
	}
	return path[:slash+1], last
}

func listEntries(entries []fs.DirEntry, filter string) ([]string, error) {
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if filter != "" {
			ok, err := filepath.Match(filter, entry.Name())
			if err != nil {
				return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, filter, err)
			}
			if !ok {
				continue
			}
		}
		names = append(names, entry.Name()+typeSuffix(entry.Type()))
	}
	sort.Strings(names)
	return names, nil
}

func typeSuffix(mode fs.FileMode) string {
	switch {
	case mode.IsRegular():
		return ""
	case mode.IsDir():
		return "/"
	case mode&fs.ModeSymlink != 0:
		return "@"
	default:
		return "*"
	}
}
