// Command modcheck is a small end-to-end driver over the module resolution
// core: it walks a source tree, introduces every file, runs an initial
// commit, and can simulate an incremental edit (touch/remove a file) and
// re-commit, printing what changed.
//
// Usage:
//
//	modcheck [flags] <src_dir>
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"modcheck/internal/config"
	"modcheck/internal/docblock"
	"modcheck/internal/election"
	"modcheck/internal/extresolver"
	"modcheck/internal/fileid"
	"modcheck/internal/fsprobe"
	"modcheck/internal/importer"
	"modcheck/internal/manifest"
	"modcheck/internal/mapper"
	"modcheck/internal/registry"
	"modcheck/internal/report"
	"modcheck/internal/resolve"
	"modcheck/internal/walkwalk"
)

// splitCSV converts a comma-separated list into a slice, skipping empty
// elements.
func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 8)
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			p := s[start:i]
			if p != "" {
				out = append(out, p)
			}
			start = i + 1
		}
	}
	return out
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		if v != "" {
			m[v] = struct{}{}
		}
	}
	return m
}

var (
	reImportFrom  = regexp.MustCompile(`(?m)^\s*import\s+[^;]*?\s+from\s+['"]([^'"]+)['"]`)
	reRequireCall = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
)

// scanReferences extracts the raw import/require specifiers out of a
// source file's contents; it is a coarse regex scan, not a parser.
func scanReferences(data []byte) []string {
	set := make(map[string]struct{})
	for _, m := range reImportFrom.FindAllSubmatch(data, -1) {
		set[string(m[1])] = struct{}{}
	}
	for _, m := range reRequireCall.FindAllSubmatch(data, -1) {
		set[string(m[1])] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <src_dir>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	extsFlag := flag.String("ext", ".js,.jsx", "comma-separated source extensions to introduce")
	excludeFlag := flag.String("exclude", ".git,node_modules,dist,build", "comma-separated dir/file prefixes to exclude")
	flatFlag := flag.Bool("flat", false, "use the Flat (Haste-style) module system instead of Path")
	moduleResolverFlag := flag.String("module-resolver", "", "path to an external module resolver binary")
	touchFlag := flag.String("touch", "", "after the initial commit, re-introduce this file as if it changed")
	rmFlag := flag.String("rm", "", "after the initial commit, retire this file as if it were deleted")

	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	srcDir := filepath.Clean(flag.Arg(0))
	srcAbs, err := filepath.Abs(srcDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}

	exts := toSet(splitCSV(*extsFlag))
	exclude := toSet(splitCSV(*excludeFlag))
	files, _, err := walkwalk.CollectFiles(srcDir, exts, exclude, nil, 0, 0, true, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No files matched filters.")
		return
	}

	probe := fsprobe.New()
	manifests := manifest.New(filepath.Dir)
	opts := config.Options{
		ModuleSystem: config.Path,
		File: config.FileOptions{
			Root:           srcAbs,
			FlowExt:        "",
			DeclarationExt: ".js.flow",
			CurrentDirName: ".",
			ParentDirName:  "..",
		},
		NodeResolverDirnames: []string{"node_modules"},
		ModuleFileExts:       []string{".js", ".json"},
	}
	policy := election.PathPolicy
	var sys resolve.System = resolve.NewPathResolver(probe, manifests, opts)
	if *flatFlag {
		opts.ModuleSystem = config.Flat
		policy = election.FlatPolicy
		var ext resolve.ExternalResolver
		if *moduleResolverFlag != "" {
			client := extresolver.New(*moduleResolverFlag)
			defer client.Close()
			ext = client
		}
		sys = resolve.NewFlatResolver(probe, manifests, opts, ext)
	}
	electionCfg := election.Config{DeclarationExt: opts.File.DeclarationExt}

	gen := mapper.New(opts.ModuleNameMappers, srcAbs)
	idx := registry.New()
	store := importer.NewStore()

	introduced := make([]registry.IntroducedFile, 0, len(files))
	byPath := make(map[string]fileid.FileKey, len(files))
	for _, f := range files {
		key := fileid.Source(f.AbsPath)
		byPath[f.AbsPath] = key
		introduced = append(introduced, registry.IntroducedFile{File: key, Doc: docblock.Empty{}, Parsed: false})
	}
	dirty := registry.Introduce(idx, sys, introduced, true, nil)

	newOrChanged := make(map[fileid.FileKey]struct{}, len(introduced))
	for _, f := range introduced {
		newOrChanged[f.File] = struct{}{}
	}
	result := idx.Commit(newOrChanged, dirty, policy, electionCfg)

	for _, p := range result.Providers {
		refs := scanReferences(readOrEmpty(p.Path))
		rr := importer.Resolve(p, refs, gen, sys)
		store.Put(p, rr)
	}

	summary := report.Explain(result.Providers, result.Changed, result.Errors, func(fileid.FileKey) (string, bool) { return "", false }, func(f fileid.FileKey) (string, bool) {
		rr, ok := store.Get(f)
		if !ok {
			return "", false
		}
		return rr.Text(), true
	}, report.Options{})

	fmt.Printf("Introduced %d file(s), %d provider(s) elected, %d module(s) changed\n", len(files), len(result.Providers), len(result.Changed))
	printSummary(summary)

	if *touchFlag == "" && *rmFlag == "" {
		return
	}

	var incremental []registry.DirtyModule
	nextNewOrChanged := make(map[fileid.FileKey]struct{})

	if *touchFlag != "" {
		abs, _ := filepath.Abs(*touchFlag)
		key, ok := byPath[abs]
		if !ok {
			key = fileid.Source(abs)
		}
		retired := registry.Retire(idx, sys, []fileid.FileKey{key})
		incremental = append(incremental, retired...)
		introduced := registry.Introduce(idx, sys, []registry.IntroducedFile{{File: key, Doc: docblock.Empty{}, Parsed: false}}, true, nil)
		incremental = append(incremental, introduced...)
		nextNewOrChanged[key] = struct{}{}
	}
	if *rmFlag != "" {
		abs, _ := filepath.Abs(*rmFlag)
		key, ok := byPath[abs]
		if !ok {
			key = fileid.Source(abs)
		}
		retired := registry.Retire(idx, sys, []fileid.FileKey{key})
		incremental = append(incremental, retired...)
		store.Remove(key)
	}

	result2 := idx.Commit(nextNewOrChanged, incremental, policy, electionCfg)
	fmt.Printf("Incremental commit: %d provider(s) elected, %d module(s) changed\n", len(result2.Providers), len(result2.Changed))
	for _, p := range result2.Providers {
		refs := scanReferences(readOrEmpty(p.Path))
		rr := importer.Resolve(p, refs, gen, sys)
		store.Put(p, rr)
	}
}

func readOrEmpty(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

func printSummary(s report.Summary) {
	for _, d := range s.Diffs {
		fmt.Print(d)
	}
	for _, e := range s.Errors {
		fmt.Fprintln(os.Stderr, e)
	}
}
