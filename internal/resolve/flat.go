package resolve

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"modcheck/internal/config"
	"modcheck/internal/docblock"
	"modcheck/internal/fileid"
	"modcheck/internal/fsprobe"
	"modcheck/internal/manifest"
	"modcheck/internal/rerr"
)

// ExternalResolver is the narrow interface the Flat resolver needs from the
// external-resolver channel (spec §4.5). It is declared here, not in
// package extresolver, so tests can fake it without an import cycle.
type ExternalResolver interface {
	// Resolve asks the external resolver's opinion on one reference.
	// hasOpinion is false for a "no opinion" (null) response or an ignored
	// result, in which case the Flat resolver falls through to its
	// built-in logic. err is non-nil only for the fatal conditions in
	// spec §4.5 (I/O failure, malformed shape).
	Resolve(reference string, importer fileid.FileKey) (resolved string, hasOpinion bool, err error)
}

var mockPathRegexp = regexp.MustCompile(`(^|/)__mocks__/`)

// FlatResolver implements the mock-aware, name-reducer-aware, flat
// namespace module system (spec §4.6).
type FlatResolver struct {
	s        *shared
	external ExternalResolver // nil if no module_resolver configured
}

// NewFlatResolver builds a Flat-mode resolver. external may be nil.
func NewFlatResolver(probe *fsprobe.Probe, manifests *manifest.Store, opts config.Options, external ExternalResolver) *FlatResolver {
	return &FlatResolver{
		s:        &shared{probe: probe, manifests: manifests, opts: opts},
		external: external,
	}
}

func isMockPath(path string) bool {
	return mockPathRegexp.MatchString(filepath.ToSlash(path))
}

func (f *FlatResolver) ExportedModule(file fileid.FileKey, doc docblock.Docblock) fileid.ModuleName {
	if file.Kind != fileid.SourceFile {
		return fileid.NameByFile(file)
	}
	if isMockPath(file.Path) {
		base := filepath.Base(file.Path)
		short := strings.TrimSuffix(base, filepath.Ext(base))
		return fileid.NameByString(short)
	}
	if f.s.opts.HasteUseNameReducers && f.matchesHasteWhitelist(file.Path) {
		if name, ok := applyFirstMatchingReducer(f.s.opts.HasteNameReducers, file.Path); ok {
			return fileid.NameByString(name)
		}
	}
	if doc != nil {
		if name, ok := doc.ProvidesModule(); ok {
			return fileid.NameByString(name)
		}
	}
	return fileid.NameByFile(file)
}

func (f *FlatResolver) matchesHasteWhitelist(path string) bool {
	if len(f.s.opts.HastePathsWhitelist) == 0 {
		return false
	}
	whitelisted := false
	for _, re := range f.s.opts.HastePathsWhitelist {
		if re.MatchString(path) {
			whitelisted = true
			break
		}
	}
	if !whitelisted {
		return false
	}
	for _, re := range f.s.opts.HastePathsBlacklist {
		if re.MatchString(path) {
			return false
		}
	}
	return true
}

func applyFirstMatchingReducer(reducers []config.Mapper, path string) (string, bool) {
	for _, r := range reducers {
		if r.Regex.MatchString(path) {
			return r.Regex.ReplaceAllString(path, r.Template), true
		}
	}
	return "", false
}

// ImportedModule picks the first candidate (not the first that resolves --
// see spec §4.6's rationale) and tries, in order: the external resolver;
// built-in Path resolution; package-expansion. An unresolved reference
// becomes a dangling ByString of the chosen candidate, still a valid
// module identity.
//
// An error from the external resolver is added to acc (a
// *rerr.ModuleResolverFatal or *rerr.InvalidResolution is kept as is; any
// other error is wrapped in a *rerr.ModuleResolverFatal), and the reference
// becomes a dangling ByString of the chosen candidate. ImportedModule does
// not stop or abort anything itself; the error only travels in acc.
func (f *FlatResolver) ImportedModule(importer fileid.FileKey, candidates []string, acc *Accumulator) fileid.ModuleName {
	if len(candidates) == 0 {
		return fileid.NameByString("")
	}
	chosen := candidates[0]

	if f.external != nil {
		resolved, hasOpinion, err := f.external.Resolve(chosen, importer)
		if err != nil {
			var fatal *rerr.ModuleResolverFatal
			var invalid *rerr.InvalidResolution
			if errors.As(err, &fatal) || errors.As(err, &invalid) {
				acc.AddError(err)
			} else {
				acc.AddError(&rerr.ModuleResolverFatal{Text: err.Error()})
			}
			return fileid.NameByString(chosen)
		}
		if hasOpinion {
			return fileid.NameByFile(fileid.Source(resolved))
		}
	}

	importerDir := filepath.Dir(importer.Path)
	if resolved, ok := f.resolveBuiltin(importerDir, chosen, acc); ok {
		return fileid.NameByFile(fileid.Source(resolved))
	}

	if resolved, ok := f.resolvePackageExpansion(chosen, acc); ok {
		return fileid.NameByFile(fileid.Source(resolved))
	}

	return fileid.NameByString(chosen)
}

func (f *FlatResolver) resolveBuiltin(importerDir, ref string, acc *Accumulator) (string, bool) {
	if isRelativeReference(ref) {
		return f.s.resolveAtBase(importerDir, ref, acc)
	}
	return f.s.resolveWalk(importerDir, ref, acc)
}

// resolvePackageExpansion implements the "pkg/rest" fallback in §4.6: if
// the chosen candidate splits into a package name and a remainder, and the
// package's directory is known to the manifest store, resolve the
// remainder relative to that directory.
func (f *FlatResolver) resolvePackageExpansion(ref string, acc *Accumulator) (string, bool) {
	slash := strings.IndexByte(ref, '/')
	if slash <= 0 {
		return "", false
	}
	pkg, rest := ref[:slash], ref[slash+1:]
	if rest == "" {
		return "", false
	}
	dir, ok := f.s.manifests.GetPackageDirectory(pkg)
	if !ok {
		return "", false
	}
	return f.s.resolveAtBase(dir, rest, acc)
}
