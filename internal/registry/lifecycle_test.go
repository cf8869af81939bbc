package registry

import (
	"testing"

	"modcheck/internal/docblock"
	"modcheck/internal/election"
	"modcheck/internal/fileid"
	"modcheck/internal/resolve"
)

// eponymousSystem is a minimal resolve.System stand-in whose exported name
// is always the plain eponymous name, matching Path-mode semantics.
type eponymousSystem struct{}

func (eponymousSystem) ExportedModule(file fileid.FileKey, _ docblock.Docblock) fileid.ModuleName {
	return fileid.NameByFile(file)
}

func (eponymousSystem) ImportedModule(fileid.FileKey, []string, *resolve.Accumulator) fileid.ModuleName {
	return fileid.NameByString("")
}

// namedSystem always reports a fixed flat-namespace name distinct from the
// file's own path, exercising the "eponymous != moduleName" branch.
type namedSystem struct{ name string }

func (n namedSystem) ExportedModule(fileid.FileKey, docblock.Docblock) fileid.ModuleName {
	return fileid.NameByString(n.name)
}

func (n namedSystem) ImportedModule(fileid.FileKey, []string, *resolve.Accumulator) fileid.ModuleName {
	return fileid.NameByString("")
}

func TestIntroduceRegistersEponymousClaim(t *testing.T) {
	idx := New()
	file := fileid.Source("/r/a.js")
	dirty := Introduce(idx, eponymousSystem{}, []IntroducedFile{{File: file, Doc: docblock.Empty{}, Parsed: true}}, false, nil)

	module := fileid.NameByFile(file)
	if len(dirty) != 1 {
		t.Fatalf("dirty = %v, want exactly one entry (moduleName == eponymous, no duplicate claim)", dirty)
	}
	if dirty[0].Module != module || dirty[0].Prev != nil {
		t.Fatalf("dirty[0] = %+v, want {Module: %v, Prev: nil}", dirty[0], module)
	}

	candidates := idx.FindInAllProviders(module)
	if len(candidates) != 1 || candidates[0] != file {
		t.Fatalf("FindInAllProviders(%v) = %v, want [%v]", module, candidates, file)
	}
}

func TestIntroduceRegistersBothNamedAndEponymousClaims(t *testing.T) {
	idx := New()
	file := fileid.Source("/r/haste/a.js")
	sys := namedSystem{name: "a"}
	dirty := Introduce(idx, sys, []IntroducedFile{{File: file, Doc: docblock.Empty{}, Parsed: true}}, false, nil)

	if len(dirty) != 2 {
		t.Fatalf("dirty = %v, want two entries (named + eponymous claims)", dirty)
	}

	named := fileid.NameByString("a")
	eponymous := fileid.NameByFile(file)
	if got := idx.FindInAllProviders(named); len(got) != 1 || got[0] != file {
		t.Fatalf("FindInAllProviders(named) = %v", got)
	}
	if got := idx.FindInAllProviders(eponymous); len(got) != 1 || got[0] != file {
		t.Fatalf("FindInAllProviders(eponymous) = %v", got)
	}
}

func TestIntroduceCheckedRules(t *testing.T) {
	idx := New()
	file := fileid.Source("/r/a.js")

	// forceCheck wins outright.
	Introduce(idx, eponymousSystem{}, []IntroducedFile{{File: file, Doc: docblock.Empty{}, Parsed: false}}, true, nil)
	info, _ := idx.GetInfo(file)
	if !info.Checked {
		t.Errorf("Checked = false with forceCheck=true")
	}

	// Unparsed, no forceCheck, no lib/decl classifier -> not checked.
	file2 := fileid.Source("/r/b.js")
	Introduce(idx, eponymousSystem{}, []IntroducedFile{{File: file2, Doc: docblock.Empty{}, Parsed: false}}, false, nil)
	info2, _ := idx.GetInfo(file2)
	if info2.Checked {
		t.Errorf("Checked = true for an unparsed file with no forceCheck and no lib/decl classifier")
	}

	// Unparsed, classified as lib/declaration -> checked.
	file3 := fileid.Source("/r/c.js.flow")
	isLibOrDecl := func(fileid.FileKey) bool { return true }
	Introduce(idx, eponymousSystem{}, []IntroducedFile{{File: file3, Doc: docblock.Empty{}, Parsed: false}}, false, isLibOrDecl)
	info3, _ := idx.GetInfo(file3)
	if !info3.Checked {
		t.Errorf("Checked = false for a file classified as lib/declaration")
	}
}

func TestRetireWithdrawsClaimsAndInfo(t *testing.T) {
	idx := New()
	file := fileid.Source("/r/haste/a.js")
	sys := namedSystem{name: "a"}
	Introduce(idx, sys, []IntroducedFile{{File: file, Doc: docblock.Empty{}, Parsed: true}}, false, nil)

	named := fileid.NameByString("a")
	eponymous := fileid.NameByFile(file)

	dirty := Retire(idx, sys, []fileid.FileKey{file})
	if len(dirty) != 2 {
		t.Fatalf("dirty = %v, want two entries", dirty)
	}

	if got := idx.FindInAllProviders(named); len(got) != 0 {
		t.Fatalf("FindInAllProviders(named) after retire = %v, want empty", got)
	}
	if got := idx.FindInAllProviders(eponymous); len(got) != 0 {
		t.Fatalf("FindInAllProviders(eponymous) after retire = %v, want empty", got)
	}
	if _, ok := idx.GetInfo(file); ok {
		t.Fatalf("GetInfo() after retire ok = true")
	}
}

func TestRetireDirtyPrevReflectsElectedProvider(t *testing.T) {
	idx := New()
	file := fileid.Source("/r/a.js")
	sys := eponymousSystem{}
	introduceDirty := Introduce(idx, sys, []IntroducedFile{{File: file, Doc: docblock.Empty{}, Parsed: true}}, false, nil)
	idx.Commit(map[fileid.FileKey]struct{}{file: {}}, introduceDirty, election.PathPolicy, election.Config{DeclarationExt: ".js.flow"})

	dirty := Retire(idx, sys, []fileid.FileKey{file})
	if len(dirty) != 1 {
		t.Fatalf("dirty = %v, want one entry", dirty)
	}
	if dirty[0].Prev == nil || *dirty[0].Prev != file {
		t.Fatalf("dirty[0].Prev = %v, want &%v (the file was the current elected provider)", dirty[0].Prev, file)
	}
}

func TestRetireUnknownFileIsNoop(t *testing.T) {
	idx := New()
	dirty := Retire(idx, eponymousSystem{}, []fileid.FileKey{fileid.Source("/r/never-introduced.js")})
	if len(dirty) != 0 {
		t.Fatalf("dirty = %v, want empty for a never-introduced file", dirty)
	}
}
