// Package fsprobe implements the case-correct filesystem existence checks
// the resolver relies on (spec §4.1). On case-insensitive filesystems,
// os.Stat returning success does not mean the path was spelled correctly,
// so every check is routed through a cached, exact-case directory listing.
package fsprobe

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// dirCacheSize bounds the directory-listing cache. Entries are cheap
// (a slice of basenames) but a whole-program typecheck can touch tens of
// thousands of directories, so the cache is bounded rather than unbounded.
const dirCacheSize = 8192

// Probe is the process-wide filesystem probe. It owns the directory-listing
// cache; construct one per typecheck run (or call Clear() at the top of
// each pass) rather than sharing module-level globals, so tests get a
// fresh instance.
type Probe struct {
	caseSensitive bool
	dirs          *lru.Cache[string, []string]
}

// New determines case-sensitivity once (by checking whether the current
// working directory still resolves when upper-cased) and returns a ready
// Probe.
func New() *Probe {
	p := &Probe{caseSensitive: detectCaseSensitive()}
	p.dirs, _ = lru.New[string, []string](dirCacheSize)
	return p
}

func detectCaseSensitive() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return true
	}
	upper := strings.ToUpper(cwd)
	if upper == cwd {
		// Nothing to test with; assume case-sensitive (the common case for
		// CI and server environments).
		return true
	}
	_, statErr := os.Stat(upper)
	// If the upper-cased path still resolves, case is not significant.
	return statErr != nil
}

// Clear empties the directory-listing cache. Call this at the start of
// each typecheck pass.
func (p *Probe) Clear() {
	p.dirs.Purge()
}

// listDir returns the cached basenames of dir's entries, probing the
// filesystem on a cache miss. Unreadable directories yield an empty slice,
// never an error -- any OS error while probing is treated as absence.
func (p *Probe) listDir(dir string) []string {
	if names, ok := p.dirs.Get(dir); ok {
		return names
	}
	entries, err := os.ReadDir(dir)
	names := make([]string, 0, len(entries))
	if err == nil {
		for _, e := range entries {
			names = append(names, e.Name())
		}
	}
	p.dirs.Add(dir, names)
	return names
}

func containsExact(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Exists reports whether path exists with the exact case given. On a
// case-sensitive filesystem this is a plain stat. On a case-insensitive
// one, the parent directory's cached listing is consulted so a
// differently-cased path does not spuriously resolve.
func (p *Probe) Exists(path string) bool {
	if p.caseSensitive {
		_, err := os.Stat(path)
		return err == nil
	}
	clean := filepath.Clean(path)
	dir, base := filepath.Dir(clean), filepath.Base(clean)
	if base == "." || base == string(filepath.Separator) {
		_, err := os.Stat(clean)
		return err == nil
	}
	return containsExact(p.listDir(dir), base)
}

// DirExists reports whether path exists, is a directory, and is spelled
// with the exact case recorded in its parent's listing.
func (p *Probe) DirExists(path string) bool {
	if !p.Exists(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists, is spelled with the exact case, and
// is a regular (non-directory) file.
func (p *Probe) IsFile(path string) bool {
	if !p.Exists(path) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ResolveSymlinks normalizes path through every symlink on its way and
// returns an absolute path. Any error (broken link, permission) falls back
// to the absolute form of the original path.
func ResolveSymlinks(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return real
}
