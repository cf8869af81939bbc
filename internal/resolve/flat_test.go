package resolve

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"modcheck/internal/config"
	"modcheck/internal/docblock"
	"modcheck/internal/fileid"
	"modcheck/internal/fsprobe"
	"modcheck/internal/manifest"
)

type stubDoc struct {
	provides string
	hasPragma bool
}

func (d stubDoc) ProvidesModule() (string, bool) { return d.provides, d.hasPragma }
func (d stubDoc) IsFlow() bool                   { return false }
func (d stubDoc) IsDeclarationFile() bool        { return false }

type stubExternal struct {
	resolved   string
	hasOpinion bool
	err        error
}

func (s stubExternal) Resolve(string, fileid.FileKey) (string, bool, error) {
	return s.resolved, s.hasOpinion, s.err
}

func flatOptions(root string) config.Options {
	return config.Options{
		ModuleSystem: config.Flat,
		File: config.FileOptions{
			Root:           root,
			DeclarationExt: ".js.flow",
		},
		ModuleFileExts: []string{".js", ".json"},
	}
}

func TestFlatResolverExportedModuleMockPath(t *testing.T) {
	f := NewFlatResolver(fsprobe.New(), manifest.New(filepath.Dir), flatOptions("/r"), nil)
	file := fileid.Source("/r/__mocks__/widget.js")
	got := f.ExportedModule(file, docblock.Empty{})
	if got != fileid.NameByString("widget") {
		t.Fatalf("ExportedModule() = %v, want string:widget", got)
	}
}

func TestFlatResolverExportedModuleProvidesModulePragma(t *testing.T) {
	f := NewFlatResolver(fsprobe.New(), manifest.New(filepath.Dir), flatOptions("/r"), nil)
	file := fileid.Source("/r/src/widget.js")
	got := f.ExportedModule(file, stubDoc{provides: "Widget", hasPragma: true})
	if got != fileid.NameByString("Widget") {
		t.Fatalf("ExportedModule() = %v, want string:Widget", got)
	}
}

func TestFlatResolverExportedModuleFallsBackToEponymous(t *testing.T) {
	f := NewFlatResolver(fsprobe.New(), manifest.New(filepath.Dir), flatOptions("/r"), nil)
	file := fileid.Source("/r/src/widget.js")
	got := f.ExportedModule(file, docblock.Empty{})
	if got != fileid.NameByFile(file) {
		t.Fatalf("ExportedModule() = %v, want eponymous", got)
	}
}

func TestFlatResolverExportedModuleHasteReducer(t *testing.T) {
	opts := flatOptions("/r")
	opts.HasteUseNameReducers = true
	opts.HasteNameReducers = []config.Mapper{
		{Regex: regexp.MustCompile(`^.*/([^/]+)\.js$`), Template: "$1"},
	}
	opts.HastePathsWhitelist = []*regexp.Regexp{regexp.MustCompile(`^/r/`)}

	f := &FlatResolver{s: &shared{probe: fsprobe.New(), manifests: manifest.New(filepath.Dir), opts: opts}}
	file := fileid.Source("/r/src/Widget.js")
	got := f.ExportedModule(file, docblock.Empty{})
	if got != fileid.NameByString("Widget") {
		t.Fatalf("ExportedModule() = %v, want string:Widget", got)
	}
}

func TestFlatResolverImportedModuleUsesExternalResolverOpinion(t *testing.T) {
	dir := t.TempDir()
	ext := stubExternal{resolved: filepath.Join(dir, "target.js"), hasOpinion: true}
	f := NewFlatResolver(fsprobe.New(), manifest.New(filepath.Dir), flatOptions(dir), ext)

	importer := fileid.Source(filepath.Join(dir, "a.js"))
	acc := NewAccumulator()
	got := f.ImportedModule(importer, []string{"widget"}, acc)

	want := fileid.NameByFile(fileid.Source(filepath.Join(dir, "target.js")))
	if got != want {
		t.Fatalf("ImportedModule() = %v, want %v", got, want)
	}
}

func TestFlatResolverImportedModuleFallsThroughToBuiltin(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.js"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	ext := stubExternal{hasOpinion: false}
	f := NewFlatResolver(fsprobe.New(), manifest.New(filepath.Dir), flatOptions(dir), ext)

	importer := fileid.Source(filepath.Join(dir, "a.js"))
	acc := NewAccumulator()
	got := f.ImportedModule(importer, []string{"./b"}, acc)

	want := fileid.NameByFile(fileid.Source(filepath.Join(dir, "b.js")))
	if got != want {
		t.Fatalf("ImportedModule() = %v, want %v", got, want)
	}
}

func TestFlatResolverImportedModuleOnlyTriesFirstCandidate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "second.js"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	f := NewFlatResolver(fsprobe.New(), manifest.New(filepath.Dir), flatOptions(dir), nil)

	importer := fileid.Source(filepath.Join(dir, "a.js"))
	acc := NewAccumulator()
	// Unlike Path mode, Flat only ever tries candidates[0] ("./first", which
	// does not exist); it must not fall through to "./second" even though
	// that file exists on disk.
	got := f.ImportedModule(importer, []string{"./first", "./second"}, acc)

	want := fileid.NameByString("./first")
	if got != want {
		t.Fatalf("ImportedModule() = %v, want dangling %v (Flat tries only the chosen candidate)", got, want)
	}
}

func TestFlatResolverImportedModulePackageExpansion(t *testing.T) {
	dir := t.TempDir()
	pkgDir := filepath.Join(dir, "pkg-a")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pkgDir, "lib.js"), []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	manifests := manifest.New(filepath.Dir)
	manifests.AddParsed(filepath.Join(pkgDir, "package.json"), manifest.Manifest{Name: "pkg-a"})

	f := NewFlatResolver(fsprobe.New(), manifests, flatOptions(dir), nil)
	importer := fileid.Source(filepath.Join(dir, "a.js"))
	acc := NewAccumulator()
	got := f.ImportedModule(importer, []string{"pkg-a/lib"}, acc)

	want := fileid.NameByFile(fileid.Source(filepath.Join(pkgDir, "lib.js")))
	if got != want {
		t.Fatalf("ImportedModule() = %v, want %v", got, want)
	}
}
