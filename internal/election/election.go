// Package election implements provider election (spec §4.7): given a
// module name and a set of candidate files, pick one winner deterministically
// and record duplicate-provider warnings against the rest.
package election

import (
	"strings"

	"modcheck/internal/fileid"
	"modcheck/internal/rerr"
	"modcheck/internal/sortutil"
)

// ErrMap accumulates per-file error lists across an election (and,
// transitively, across a whole commit batch -- see registry.Commit).
type ErrMap map[fileid.FileKey][]error

// Policy distinguishes the two election strategies (spec §4.7).
type Policy int

const (
	PathPolicy Policy = iota
	FlatPolicy
)

// DeclarationExt is injected rather than hard-coded so tests (and, in
// principle, a differently-configured language) can vary it.
type Config struct {
	DeclarationExt string
	IsMock         func(fileid.FileKey) bool // required for FlatPolicy, unused for PathPolicy
}

// Elect picks the winner for module name M among candidates, per the
// configured policy, and merges any DuplicateProvider warnings into errs.
//
// Path policy: candidates must be non-empty; an empty set is an internal
// invariant violation and panics rather than returning an error (spec
// §9's open-question decision: "keep as fatal").
//
// Flat policy: an empty set is likewise an internal invariant violation.
// A singleton set returns its one file with no warnings. Otherwise mocks
// are the fallback group and non-mocks are preferred winners.
func Elect(moduleName string, candidates []fileid.FileKey, policy Policy, cfg Config, errs ErrMap) fileid.FileKey {
	if len(candidates) == 0 {
		panic("election: empty candidate set for module " + moduleName)
	}
	ordered := orderDeterministically(candidates)

	switch policy {
	case PathPolicy:
		return chooseWithDuplicates(moduleName, ordered, cfg.DeclarationExt, pathFallback, errs)
	case FlatPolicy:
		if len(ordered) == 1 {
			return ordered[0]
		}
		return electFlat(moduleName, ordered, cfg, errs)
	default:
		panic("election: unknown policy")
	}
}

func orderDeterministically(candidates []fileid.FileKey) []fileid.FileKey {
	return sortutil.ByKey(candidates, fileid.FileKey.String)
}

func isDeclaration(f fileid.FileKey, declExt string) bool {
	return declExt != "" && strings.HasSuffix(f.Path, declExt)
}

func pathFallback(moduleName string, ordered []fileid.FileKey) fileid.FileKey {
	panic("election: path policy reached fallback for module " + moduleName + " with no definitions or implementations")
}

func electFlat(moduleName string, ordered []fileid.FileKey, cfg Config, errs ErrMap) fileid.FileKey {
	var mocks, nonMocks []fileid.FileKey
	for _, f := range ordered {
		if cfg.IsMock != nil && cfg.IsMock(f) {
			mocks = append(mocks, f)
		} else {
			nonMocks = append(nonMocks, f)
		}
	}
	fallback := func(string, []fileid.FileKey) fileid.FileKey {
		return mocks[0] // an arbitrary mock, per spec §4.7
	}
	return chooseWithDuplicatesPartitioned(moduleName, nonMocks, mocks, cfg.DeclarationExt, fallback, errs)
}

// chooseWithDuplicates partitions ordered into definitions (declaration
// files) and implementations (the rest), then delegates to the
// partitioned helper. Used by Path policy, where there is no mock
// distinction -- the whole candidate set plays the role of
// "winners-or-fallback" input.
func chooseWithDuplicates(moduleName string, ordered []fileid.FileKey, declExt string, fallback func(string, []fileid.FileKey) fileid.FileKey, errs ErrMap) fileid.FileKey {
	return chooseWithDuplicatesPartitioned(moduleName, ordered, nil, declExt, fallback, errs)
}

// chooseWithDuplicatesPartitioned is the §4.7 helper shared by both
// policies. winnerPool is the set from which a definition/implementation
// winner is chosen (all candidates for Path, non-mocks for Flat).
// fallbackPool is consulted only when winnerPool has neither a definition
// nor an implementation (never happens for Path; is the mock set for
// Flat).
func chooseWithDuplicatesPartitioned(moduleName string, winnerPool, fallbackPool []fileid.FileKey, declExt string, fallback func(string, []fileid.FileKey) fileid.FileKey, errs ErrMap) fileid.FileKey {
	var defs, impls []fileid.FileKey
	for _, f := range winnerPool {
		if isDeclaration(f, declExt) {
			defs = append(defs, f)
		} else {
			impls = append(impls, f)
		}
	}

	switch {
	case len(defs) == 0 && len(impls) == 0:
		return fallback(moduleName, fallbackPool)

	case len(defs) == 0:
		winner := impls[0]
		warnDuplicates(moduleName, winner, impls[1:], errs)
		return winner

	case len(impls) == 0:
		winner := defs[0]
		warnDuplicates(moduleName, winner, defs[1:], errs)
		return winner

	default:
		winner := defs[0]
		warnDuplicates(moduleName, winner, defs[1:], errs)
		// The winning implementation legitimately shadows a def; it is not
		// itself flagged as a duplicate, but any further implementations are.
		warnDuplicates(moduleName, winner, impls[1:], errs)
		return winner
	}
}

func warnDuplicates(moduleName string, winner fileid.FileKey, losers []fileid.FileKey, errs ErrMap) {
	for _, loser := range losers {
		errs[loser] = append(errs[loser], &rerr.DuplicateProvider{
			Module:   moduleName,
			Provider: winner.String(),
			Conflict: loser.String(),
		})
	}
}
