package resolve

import "modcheck/internal/sortutil"

// Accumulator is the per-import-resolution mutable record described in
// spec §3 "ResolutionAccumulator". It is owned by whichever worker is
// resolving a single file's references and is never shared.
type Accumulator struct {
	Paths  map[string]struct{}
	Errors []error
}

// NewAccumulator returns an empty accumulator ready for one file's worth
// of import resolution.
func NewAccumulator() *Accumulator {
	return &Accumulator{Paths: make(map[string]struct{})}
}

// RecordPath registers a filesystem path that was probed but did not
// exist. These become phantom dependents: if the path later materializes,
// the file that recorded it must be re-resolved.
func (a *Accumulator) RecordPath(path string) {
	a.Paths[path] = struct{}{}
}

// AddError appends a structured error to be surfaced through the commit's
// errmap output.
func (a *Accumulator) AddError(err error) {
	a.Errors = append(a.Errors, err)
}

// PhantomPaths returns the accumulated phantom set as a sorted slice.
func (a *Accumulator) PhantomPaths() []string {
	out := make([]string, 0, len(a.Paths))
	for p := range a.Paths {
		out = append(out, p)
	}
	return sortutil.StablePathSort(out)
}
