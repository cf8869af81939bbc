package resolve

import (
	"path/filepath"

	"modcheck/internal/config"
	"modcheck/internal/docblock"
	"modcheck/internal/fileid"
	"modcheck/internal/fsprobe"
	"modcheck/internal/manifest"
)

// PathResolver mimics a filesystem-walking (node-style) import resolution
// (spec §4.4). Every file's exported name is purely eponymous -- Path mode
// has no flat namespace.
type PathResolver struct {
	s *shared
}

// NewPathResolver builds a Path-mode resolver from its collaborators.
func NewPathResolver(probe *fsprobe.Probe, manifests *manifest.Store, opts config.Options) *PathResolver {
	return &PathResolver{s: &shared{probe: probe, manifests: manifests, opts: opts}}
}

func (p *PathResolver) ExportedModule(file fileid.FileKey, _ docblock.Docblock) fileid.ModuleName {
	return fileid.NameByFile(file)
}

// ImportedModule tries every candidate in order via the full step-R/step-N
// walk, taking the first candidate that resolves anywhere on disk (spec
// §4.4, contrasted explicitly against Flat's "first candidate, not first
// that resolves" in §4.6).
func (p *PathResolver) ImportedModule(importer fileid.FileKey, candidates []string, acc *Accumulator) fileid.ModuleName {
	importerDir := filepath.Dir(importer.Path)
	for _, candidate := range candidates {
		if resolved, ok := p.resolveOne(importerDir, candidate, acc); ok {
			return fileid.NameByFile(fileid.Source(resolved))
		}
	}
	chosen := ""
	if len(candidates) > 0 {
		chosen = candidates[0]
	}
	return fileid.NameByString(chosen)
}

func (p *PathResolver) resolveOne(importerDir, ref string, acc *Accumulator) (string, bool) {
	if isRelativeReference(ref) {
		return p.s.resolveAtBase(importerDir, ref, acc)
	}
	return p.s.resolveWalk(importerDir, ref, acc)
}
