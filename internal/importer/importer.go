// Package importer drives per-file import resolution: for every reference a
// file makes, it expands name-mapper candidates, resolves them through the
// active module system, and assembles the file's resolved-requires record.
package importer

import (
	"sort"
	"strings"

	"modcheck/internal/fileid"
	"modcheck/internal/mapper"
	"modcheck/internal/resolve"
)

// ResolvedRequires is one file's import-resolution outcome: the module name
// each raw reference resolved to, the union of phantom paths probed while
// resolving them, and any errors accumulated along the way.
type ResolvedRequires struct {
	Requires map[string]fileid.ModuleName
	Phantoms []string
	Errors   []error
}

// Resolve runs a file's full reference list through the mapper and the
// active module system, returning its resolved-requires record. It never
// mutates its inputs; two calls with the same arguments are safe to compare
// for equality.
func Resolve(file fileid.FileKey, references []string, gen *mapper.Generator, sys resolve.System) ResolvedRequires {
	acc := resolve.NewAccumulator()
	requires := make(map[string]fileid.ModuleName, len(references))
	for _, ref := range references {
		candidates := gen.Candidates(ref)
		requires[ref] = sys.ImportedModule(file, candidates, acc)
	}
	return ResolvedRequires{
		Requires: requires,
		Phantoms: acc.PhantomPaths(),
		Errors:   acc.Errors,
	}
}

// Text renders a ResolvedRequires as a deterministic, sorted line-oriented
// form suitable for diffing (see package report) and for the "did content
// differ" comparison in Store.Put.
func (r ResolvedRequires) Text() string {
	refs := make([]string, 0, len(r.Requires))
	for ref := range r.Requires {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var b strings.Builder
	for _, ref := range refs {
		b.WriteString(ref)
		b.WriteString(" => ")
		b.WriteString(r.Requires[ref].String())
		b.WriteByte('\n')
	}

	phantoms := append([]string(nil), r.Phantoms...)
	sort.Strings(phantoms)
	for _, p := range phantoms {
		b.WriteString("phantom: ")
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// Store holds the last-committed ResolvedRequires per file, letting callers
// detect whether a file's resolved requires actually changed.
type Store struct {
	byFile map[fileid.FileKey]ResolvedRequires
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{byFile: make(map[fileid.FileKey]ResolvedRequires)}
}

// Get returns the stored record for file, if any.
func (s *Store) Get(file fileid.FileKey) (ResolvedRequires, bool) {
	r, ok := s.byFile[file]
	return r, ok
}

// Put records next as file's resolved-requires, replacing whatever was
// there before, and reports whether the textual content actually changed
// (spec's add_resolved_requires "did content differ" semantics). A file
// seen for the first time counts as changed.
func (s *Store) Put(file fileid.FileKey, next ResolvedRequires) bool {
	prev, existed := s.byFile[file]
	s.byFile[file] = next
	if !existed {
		return true
	}
	return prev.Text() != next.Text()
}

// Remove drops file's record entirely, e.g. on retirement.
func (s *Store) Remove(file fileid.FileKey) {
	delete(s.byFile, file)
}
