// Package resolve implements the two pluggable module systems described in
// spec §4.4 (Path) and §4.6 (Flat), behind the common System interface.
// The driver picks one implementation at startup and keeps it in an
// ordinary variable.
package resolve

import (
	"path/filepath"
	"strings"

	"modcheck/internal/config"
	"modcheck/internal/docblock"
	"modcheck/internal/fileid"
	"modcheck/internal/fsprobe"
	"modcheck/internal/manifest"
	"modcheck/internal/rerr"
)

// System is the pluggable module system interface. Exactly one
// implementation is active per typecheck run.
type System interface {
	// ExportedModule computes the module name a file provides on
	// introduction (spec §4.9).
	ExportedModule(file fileid.FileKey, doc docblock.Docblock) fileid.ModuleName
	// ImportedModule resolves an ordered candidate list (spec §4.2) for one
	// reference in importer to a module name, recording phantom paths and
	// errors into acc.
	ImportedModule(importer fileid.FileKey, candidates []string, acc *Accumulator) fileid.ModuleName
}

// shared holds the collaborators both Path and Flat resolvers need.
type shared struct {
	probe     *fsprobe.Probe
	manifests *manifest.Store
	opts      config.Options
}

func isIgnored(o config.Options, path string) bool {
	return o.File.IsIgnored != nil && o.File.IsIgnored(path)
}

// existsWithShadow implements spec §4.4a: path is considered present if
// either path or its declaration file exists (as a non-ignored,
// non-directory file). The declaration file is path with DeclarationExt
// appended, minus any leading part of DeclarationExt that path already ends
// with ("a.js" with ".js.flow" gives "a.js.flow"). Every negative probe is
// recorded into acc as a phantom dependent.
func (s *shared) existsWithShadow(path string, acc *Accumulator) bool {
	if isIgnored(s.opts, path) {
		return false
	}
	declExt := s.opts.File.DeclarationExt
	declPath := path + declExt
	for i := 1; i < len(declExt); i++ {
		if declExt[i] == '.' && strings.HasSuffix(path, declExt[:i]) {
			declPath = path + declExt[i:]
			break
		}
	}
	sourceOK := s.probe.IsFile(path)
	if !sourceOK {
		acc.RecordPath(path)
	}
	declOK := !isIgnored(s.opts, declPath) && s.probe.IsFile(declPath)
	if !declOK {
		acc.RecordPath(declPath)
	}
	return sourceOK || declOK
}

// resolveFromNormalizedPath implements the body shared by step R (§4.4)
// relative resolution and the node_modules walk (§4.4's step N, which
// re-enters step R at a different base).
func (s *shared) resolveFromNormalizedPath(p string, acc *Accumulator) (string, bool) {
	if s.opts.File.FlowExt != "" && strings.HasSuffix(p, s.opts.File.FlowExt) {
		if s.existsWithShadow(p, acc) {
			return p, true
		}
		return "", false
	}

	for _, ext := range s.opts.ModuleFileExts {
		candidate := p + ext
		if s.existsWithShadow(candidate, acc) {
			return candidate, true
		}
	}

	manifestPath := filepath.Join(p, "package.json")
	if resolved, ok := s.resolvePackageManifest(manifestPath, acc); ok {
		return resolved, true
	}

	for _, ext := range s.opts.ModuleFileExts {
		candidate := filepath.Join(p, "index") + ext
		if s.existsWithShadow(candidate, acc) {
			return candidate, true
		}
	}

	return "", false
}

// resolvePackageManifest implements spec §4.4b.
func (s *shared) resolvePackageManifest(manifestPath string, acc *Accumulator) (string, bool) {
	resolved := fsprobe.ResolveSymlinks(manifestPath)
	if isIgnored(s.opts, resolved) || !s.probe.IsFile(resolved) {
		acc.RecordPath(resolved)
		return "", false
	}

	m, isErr, found := s.manifests.Get(resolved)
	if !found {
		rel := relativeToRoot(s.opts.File.Root, resolved)
		if strings.HasPrefix(resolved, s.opts.File.Root) || (s.opts.File.IsIncluded != nil && s.opts.File.IsIncluded(resolved)) {
			acc.AddError(&rerr.PackageHeapNotFound{RelativePath: rel})
		} else {
			acc.AddError(&rerr.ModuleOutsideRoot{RelativePath: rel})
		}
		return "", false
	}
	if isErr || m.Main == "" {
		return "", false
	}

	dir := filepath.Dir(resolved)
	base := filepath.Clean(filepath.Join(dir, m.Main))

	if s.existsWithShadow(base, acc) {
		return base, true
	}
	for _, ext := range s.opts.ModuleFileExts {
		candidate := base + ext
		if s.existsWithShadow(candidate, acc) {
			return candidate, true
		}
	}
	for _, ext := range s.opts.ModuleFileExts {
		candidate := filepath.Join(base, "index") + ext
		if s.existsWithShadow(candidate, acc) {
			return candidate, true
		}
	}
	return "", false
}

func relativeToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}

func isRelativeReference(ref string) bool {
	return filepath.IsAbs(ref) || strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") || ref == "." || ref == ".."
}

// resolveAtBase joins base and ref (or uses ref verbatim if absolute) and
// runs the step-R body against the normalized result.
func (s *shared) resolveAtBase(base, ref string, acc *Accumulator) (string, bool) {
	var p string
	if filepath.IsAbs(ref) {
		p = filepath.Clean(ref)
	} else {
		p = filepath.Clean(filepath.Join(base, ref))
	}
	return s.resolveFromNormalizedPath(p, acc)
}

// resolveWalk implements step N (§4.4): ascend from importerDir towards
// the filesystem root, trying every configured node_modules dirname at
// each ancestor that actually contains one.
func (s *shared) resolveWalk(importerDir, ref string, acc *Accumulator) (string, bool) {
	dir := importerDir
	for {
		for _, dirname := range s.opts.NodeResolverDirnames {
			container := filepath.Join(dir, dirname)
			if s.probe.DirExists(container) {
				if resolved, ok := s.resolveAtBase(container, ref, acc); ok {
					return resolved, true
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
