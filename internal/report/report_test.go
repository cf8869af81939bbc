package report

import (
	"strings"
	"testing"

	"modcheck/internal/election"
	"modcheck/internal/fileid"
	"modcheck/internal/rerr"
)

func TestFileDiffAddition(t *testing.T) {
	file := fileid.Source("/r/a.js")
	out := FileDiff(file, "", "react => string:react\n", Options{})
	if !strings.Contains(out, "+react => string:react") {
		t.Fatalf("FileDiff() addition missing new line:\n%s", out)
	}
}

func TestFileDiffChange(t *testing.T) {
	file := fileid.Source("/r/a.js")
	out := FileDiff(file, "a => string:a\n", "b => string:b\n", Options{})
	if !strings.Contains(out, "-a => string:a") || !strings.Contains(out, "+b => string:b") {
		t.Fatalf("FileDiff() missing expected hunk lines:\n%s", out)
	}
}

func TestExplainSortsDiffsAndFlattenErrors(t *testing.T) {
	fileB := fileid.Source("/r/b.js")
	fileA := fileid.Source("/r/a.js")
	providers := []fileid.FileKey{fileB, fileA}
	changed := map[fileid.ModuleName]struct{}{
		fileid.NameByFile(fileA): {},
		fileid.NameByFile(fileB): {},
	}
	errs := election.ErrMap{
		fileB: {&rerr.DuplicateProvider{Module: "b", Provider: "a", Conflict: "b"}},
	}

	oldText := func(fileid.FileKey) (string, bool) { return "", false }
	newText := func(f fileid.FileKey) (string, bool) {
		if f == fileA {
			return "a => string:a\n", true
		}
		return "b => string:b\n", true
	}

	summary := Explain(providers, changed, errs, oldText, newText, Options{})
	if len(summary.Diffs) != 2 {
		t.Fatalf("Diffs = %v, want 2 entries", summary.Diffs)
	}
	// Providers are sorted by FileKey string, so a.js's diff comes first.
	if !strings.Contains(summary.Diffs[0], "a.js") {
		t.Errorf("Diffs[0] does not reference a.js:\n%s", summary.Diffs[0])
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "duplicate provider") {
		t.Fatalf("Errors = %v, want one duplicate-provider message", summary.Errors)
	}
}

func TestExplainSkipsProvidersWithNoText(t *testing.T) {
	file := fileid.Source("/r/a.js")
	oldText := func(fileid.FileKey) (string, bool) { return "", false }
	newText := func(fileid.FileKey) (string, bool) { return "", false }
	summary := Explain([]fileid.FileKey{file}, nil, nil, oldText, newText, Options{})
	if len(summary.Diffs) != 0 {
		t.Fatalf("Diffs = %v, want none when newText reports ok=false", summary.Diffs)
	}
}
