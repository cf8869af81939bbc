// Package report renders human-readable explanations of a commit's outcome
// using unified diffs of each changed file's resolved-requires text.
package report

import (
	"fmt"
	"sort"

	"modcheck/internal/diff"
	"modcheck/internal/election"
	"modcheck/internal/fileid"
)

// Options is passed straight through to the shared unified-diff renderer.
type Options = diff.Options

// FileDiff renders a unified diff between a file's previous and current
// resolved-requires text. An empty oldText renders as a pure addition.
func FileDiff(file fileid.FileKey, oldText, newText string, opt Options) string {
	name := file.String()
	if oldText == "" {
		body, _ := diff.Added(name, []byte(newText), opt)
		return body
	}
	body, _ := diff.Unified(name, name, []byte(oldText), []byte(newText), opt)
	return body
}

// Summary is the rendered explanation of one Commit call: one diff per
// changed module's elected provider, plus a flat listing of the errors
// attached to any file touched by the commit.
type Summary struct {
	Diffs  []string
	Errors []string
}

// TextLookup returns a file's resolved-requires text, given a lookup over
// whatever store the caller keeps (see package importer). For the oldText
// lookup, an empty text (including ok=false) is treated as "no prior text"
// (pure addition).
type TextLookup func(file fileid.FileKey) (text string, ok bool)

// Explain builds a Summary for a commit: one diff per provider for which
// newText reports ok, in FileKey string order, and errs flattened into a
// deterministic, sorted line list. changed is not consulted.
func Explain(providers []fileid.FileKey, changed map[fileid.ModuleName]struct{}, errs election.ErrMap, oldText, newText TextLookup, opt Options) Summary {
	var s Summary

	sortedProviders := append([]fileid.FileKey(nil), providers...)
	sort.Slice(sortedProviders, func(i, j int) bool {
		return sortedProviders[i].String() < sortedProviders[j].String()
	})
	for _, p := range sortedProviders {
		old, _ := oldText(p)
		next, ok := newText(p)
		if !ok {
			continue
		}
		s.Diffs = append(s.Diffs, FileDiff(p, old, next, opt))
	}
	_ = changed // changed is available to callers wanting to filter further; every supplied provider is already commit-changed by construction.

	files := make([]fileid.FileKey, 0, len(errs))
	for f := range errs {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].String() < files[j].String() })
	for _, f := range files {
		for _, e := range errs[f] {
			s.Errors = append(s.Errors, fmt.Sprintf("%s: %s", f.String(), e.Error()))
		}
	}
	return s
}
