package registry

import (
	"modcheck/internal/docblock"
	"modcheck/internal/fileid"
	"modcheck/internal/resolve"
)

// IntroducedFile is one file handed to Introduce, along with whether it
// was parsed (has a real docblock) or not.
type IntroducedFile struct {
	File   fileid.FileKey
	Doc    docblock.Docblock
	Parsed bool
}

// IsLibOrDeclaration classifies unparsed files for the "checked" rule in
// §4.9; injected so the core does not need to know the language's file
// extension conventions.
type IsLibOrDeclaration func(fileid.FileKey) bool

// Introduce implements spec §4.9's introduce operation. For each file it
// computes the exported module name via the active resolver, writes the
// InfoHeap entry, registers both the named and eponymous claims in
// AllProvidersIndex, and returns the flattened dirty list that becomes the
// input to the next Commit.
//
// The eponymous claim is registered only when it differs from the exported
// name. No shadow-chopped name is derived for a declaration file: neither
// Introduce nor the resolvers strip DeclarationExt, so "a.js.flow" claims
// fileid.NameByFile of its own path and never the eponymous name of
// "a.js". The two files therefore do not meet in one election.
func Introduce(idx *Index, resolver resolve.System, files []IntroducedFile, forceCheck bool, isLibOrDecl IsLibOrDeclaration) []DirtyModule {
	var dirty []DirtyModule
	for _, f := range files {
		moduleName := resolver.ExportedModule(f.File, f.Doc)

		checked := forceCheck
		if !checked {
			if f.Parsed {
				checked = f.Doc != nil && f.Doc.IsFlow()
			} else {
				checked = isLibOrDecl != nil && isLibOrDecl(f.File)
			}
		}
		idx.AddInfo(f.File, Info{ModuleName: moduleName, Checked: checked, Parsed: f.Parsed})

		eponymous := fileid.NameByFile(f.File)

		prevNamed, hasNamed := idx.CurrentProvider(moduleName)
		idx.AddProvider(f.File, moduleName)
		dirty = append(dirty, dirtyEntry(moduleName, prevNamed, hasNamed))

		if eponymous != moduleName {
			prevEponymous, hasEponymous := idx.CurrentProvider(eponymous)
			idx.AddProvider(f.File, eponymous)
			dirty = append(dirty, dirtyEntry(eponymous, prevEponymous, hasEponymous))
		}
	}
	return dirty
}

// Retire implements spec §4.9's retire operation: it withdraws a file's
// claims from AllProvidersIndex and its InfoHeap entry, and returns the
// dirty entries needed to re-elect (or remove) the modules it claimed.
// prev is populated only when the retired file was itself the currently
// elected provider for that name.
func Retire(idx *Index, resolver resolve.System, files []fileid.FileKey) []DirtyModule {
	var dirty []DirtyModule
	for _, file := range files {
		info, ok := idx.GetInfo(file)
		if !ok {
			continue
		}
		moduleName := info.ModuleName
		eponymous := fileid.NameByFile(file)

		idx.RemoveProvider(file, moduleName)
		dirty = append(dirty, retireEntry(idx, moduleName, file))

		if eponymous != moduleName {
			idx.RemoveProvider(file, eponymous)
			dirty = append(dirty, retireEntry(idx, eponymous, file))
		}

		idx.RemoveInfo(file)
	}
	_ = resolver // resolver is not needed to compute retirement's dirty set, but is accepted for symmetry with Introduce and future extension.
	return dirty
}

func dirtyEntry(module fileid.ModuleName, prev fileid.FileKey, hasPrev bool) DirtyModule {
	if !hasPrev {
		return DirtyModule{Module: module, Prev: nil}
	}
	p := prev
	return DirtyModule{Module: module, Prev: &p}
}

func retireEntry(idx *Index, module fileid.ModuleName, retiredFile fileid.FileKey) DirtyModule {
	current, ok := idx.CurrentProvider(module)
	if ok && current == retiredFile {
		p := current
		return DirtyModule{Module: module, Prev: &p}
	}
	return DirtyModule{Module: module, Prev: nil}
}
