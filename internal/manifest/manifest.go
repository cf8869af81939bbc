// Package manifest implements the package-manifest store (spec §4.3): a
// read-through view of parsed package.json-like manifests keyed by path,
// with a change-detection comparison usable to decide whether dependents
// need to be rechecked.
package manifest

import (
	"encoding/json"
	"sync"
)

// Manifest is the parsed, declarative content the core cares about. Only
// Name and Main participate in equality; unrecognized fields are not
// round-tripped because the core never needs to write a manifest back out.
type Manifest struct {
	Name string `json:"name"`
	Main string `json:"main"`
}

// Equal reports whether two manifests are equal for change-detection
// purposes.
func (m Manifest) Equal(other Manifest) bool {
	return m.Name == other.Name && m.Main == other.Main
}

// outcome is the stored Ok(manifest) | Err(parse-failure) result for one
// manifest path.
type outcome struct {
	manifest Manifest
	err      bool
}

// Store is the process-wide read-through manifest cache. It also maintains
// the secondary name -> directory index used by Flat-resolver
// package-expansion (spec §4.6).
type Store struct {
	mu        sync.Mutex
	manifests map[string]outcome
	byName    map[string]string // package name -> directory containing its manifest
	dirOf     func(manifestPath string) string
}

// New builds an empty store. dirOf extracts the directory a manifest path
// lives in (injected so the store has no filepath dependency of its own
// beyond what the caller already computed).
func New(dirOf func(manifestPath string) string) *Store {
	return &Store{
		manifests: make(map[string]outcome),
		byName:    make(map[string]string),
		dirOf:     dirOf,
	}
}

// Get returns the stored outcome for path. ok is false if path has never
// been observed.
func (s *Store) Get(path string) (m Manifest, isErr bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.manifests[path]
	if !found {
		return Manifest{}, false, false
	}
	return o.manifest, o.err, true
}

// AddParsed records a successfully parsed manifest at path.
func (s *Store) AddParsed(path string, m Manifest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[path] = outcome{manifest: m, err: false}
	if m.Name != "" && s.dirOf != nil {
		s.byName[m.Name] = s.dirOf(path)
	}
}

// AddParseFailure records that path exists but failed to parse.
func (s *Store) AddParseFailure(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[path] = outcome{err: true}
}

// AddFromJSON parses raw JSON bytes and records the outcome, returning the
// manifest on success.
func (s *Store) AddFromJSON(path string, raw []byte) (Manifest, bool) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		s.AddParseFailure(path)
		return Manifest{}, false
	}
	s.AddParsed(path, m)
	return m, true
}

// GetPackageDirectory returns the directory of the manifest whose "name"
// field equals name, if one has been observed.
func (s *Store) GetPackageDirectory(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, ok := s.byName[name]
	return dir, ok
}

// Incompatible implements the §4.3 truth table: true means dependents on
// this manifest path must be rechecked.
//
//	old \ new   Ok(b)     Err
//	none        true      false
//	Err         true      false
//	Ok(a)       a != b    true
func Incompatible(oldPresent bool, oldErr bool, oldManifest Manifest, newErr bool, newManifest Manifest) bool {
	if !oldPresent {
		return !newErr
	}
	if oldErr {
		return !newErr
	}
	// old was Ok(a)
	if newErr {
		return true
	}
	return !oldManifest.Equal(newManifest)
}
