// Package registry implements the persistent indexes described in spec §3
// (AllProvidersIndex, NameIndex, InfoHeap) and the two transactional
// operations that keep them consistent: incremental commit (§4.8) and
// file introduction/retirement (§4.9).
package registry

import (
	"sync"

	"modcheck/internal/election"
	"modcheck/internal/fileid"
	"modcheck/internal/sortutil"
)

// Info is the InfoHeap record written at file introduction.
type Info struct {
	ModuleName fileid.ModuleName
	Checked    bool
	Parsed     bool
}

// Index bundles the three persistent maps behind mutator handles. During
// introduction, callers are expected to shard writes by file (no two
// workers touch the same FileKey); Index's own locking additionally makes
// every individual map operation safe to call concurrently. During
// commit, only the commit goroutine writes.
type Index struct {
	mu           sync.RWMutex
	allProviders map[fileid.ModuleName]map[fileid.FileKey]struct{}
	nameIndex    map[fileid.ModuleName]fileid.FileKey
	infoHeap     map[fileid.FileKey]Info
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		allProviders: make(map[fileid.ModuleName]map[fileid.FileKey]struct{}),
		nameIndex:    make(map[fileid.ModuleName]fileid.FileKey),
		infoHeap:     make(map[fileid.FileKey]Info),
	}
}

// AddProvider registers file as a claimant of module.
func (idx *Index) AddProvider(file fileid.FileKey, module fileid.ModuleName) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	set, ok := idx.allProviders[module]
	if !ok {
		set = make(map[fileid.FileKey]struct{})
		idx.allProviders[module] = set
	}
	set[file] = struct{}{}
}

// RemoveProvider withdraws file's claim on module, dropping the module
// entirely from AllProvidersIndex once its claimant set is empty.
func (idx *Index) RemoveProvider(file fileid.FileKey, module fileid.ModuleName) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	set, ok := idx.allProviders[module]
	if !ok {
		return
	}
	delete(set, file)
	if len(set) == 0 {
		delete(idx.allProviders, module)
	}
}

// FindInAllProviders returns the current claimant set for module, in
// deterministic (lexicographic by FileKey string) order.
func (idx *Index) FindInAllProviders(module fileid.ModuleName) []fileid.FileKey {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	set := idx.allProviders[module]
	if len(set) == 0 {
		return nil
	}
	out := make([]fileid.FileKey, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	return sortFileKeys(out)
}

func sortFileKeys(files []fileid.FileKey) []fileid.FileKey {
	return sortutil.ByKey(files, fileid.FileKey.String)
}

// AddInfo writes (or replaces, on re-introduction) a file's InfoHeap entry.
func (idx *Index) AddInfo(file fileid.FileKey, info Info) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.infoHeap[file] = info
}

// GetInfo returns a file's InfoHeap entry, if any.
func (idx *Index) GetInfo(file fileid.FileKey) (Info, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	info, ok := idx.infoHeap[file]
	return info, ok
}

// RemoveInfo drops a retired file's InfoHeap entry.
func (idx *Index) RemoveInfo(file fileid.FileKey) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.infoHeap, file)
}

// CurrentProvider returns NameIndex's current entry for module, if any.
func (idx *Index) CurrentProvider(module fileid.ModuleName) (fileid.FileKey, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	f, ok := idx.nameIndex[module]
	return f, ok
}

// applyTransaction removes, then replaces, entries in NameIndex under a
// single lock -- the only place NameIndex is ever mutated (spec §4.8
// step 3).
func (idx *Index) applyTransaction(toRemove []fileid.ModuleName, toReplace []Replacement) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, m := range toRemove {
		delete(idx.nameIndex, m)
	}
	for _, r := range toReplace {
		idx.nameIndex[r.Module] = r.Provider
	}
}

// Replacement is one (module, new-provider) pair applied to NameIndex.
type Replacement struct {
	Module   fileid.ModuleName
	Provider fileid.FileKey
}

// DirtyModule is one entry of the commit's dirty input: a module whose
// provider needs to be re-elected, paired with its previously-elected
// provider (or nil if it had none, or was newly dirtied).
type DirtyModule struct {
	Module fileid.ModuleName
	Prev   *fileid.FileKey
}

// CommitResult is the §4.8 algorithm's output triple.
type CommitResult struct {
	Providers []fileid.FileKey
	Changed   map[fileid.ModuleName]struct{}
	Errors    election.ErrMap
}

// Commit implements spec §4.8. Dirty modules are processed in the order
// supplied; election for a given module sees the full AllProvidersIndex
// at commit time. Callers must not interleave two concurrent Commit calls
// on the same Index (spec §5 "between commits").
func (idx *Index) Commit(newOrChanged map[fileid.FileKey]struct{}, dirty []DirtyModule, policy election.Policy, cfg election.Config) CommitResult {
	var toRemove []fileid.ModuleName
	var toReplace []Replacement
	var providers []fileid.FileKey
	errs := make(election.ErrMap)
	changed := make(map[fileid.ModuleName]struct{})

	for _, dm := range dirty {
		candidates := idx.FindInAllProviders(dm.Module)
		if len(candidates) == 0 {
			toRemove = append(toRemove, dm.Module)
			changed[dm.Module] = struct{}{}
			continue
		}

		for _, f := range candidates {
			if _, seeded := errs[f]; !seeded {
				errs[f] = []error{}
			}
		}

		winner := election.Elect(dm.Module.String(), candidates, policy, cfg, errs)

		switch {
		case dm.Prev != nil && *dm.Prev == winner:
			if _, isNewOrChanged := newOrChanged[winner]; isNewOrChanged {
				changed[dm.Module] = struct{}{}
			}
		case dm.Prev != nil:
			providers = append(providers, winner)
			toReplace = append(toReplace, Replacement{Module: dm.Module, Provider: winner})
			changed[dm.Module] = struct{}{}
		default: // dm.Prev == nil
			providers = append(providers, winner)
			toReplace = append(toReplace, Replacement{Module: dm.Module, Provider: winner})
			changed[dm.Module] = struct{}{}
		}
	}

	idx.applyTransaction(toRemove, toReplace)

	return CommitResult{Providers: providers, Changed: changed, Errors: errs}
}
