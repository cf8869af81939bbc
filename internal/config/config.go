// Package config holds the options consumed by the resolution core (§6 of
// the design). It is a plain struct assembled by a driver (the demo CLI in
// cmd/modcheck, or a test) -- there is no config file format or parsing
// framework here, matching the teacher's flag-per-option style.
package config

import "regexp"

// ModuleSystemKind selects which pluggable resolver implementation is active.
type ModuleSystemKind int

const (
	Path ModuleSystemKind = iota
	Flat
)

// Mapper is one (regex, template) rewrite rule from module_name_mappers or
// haste_name_reducers.
type Mapper struct {
	Regex    *regexp.Regexp
	Template string
}

// FileOptions bundles the small predicates the resolver needs about the
// project layout. A driver fills these in from its own notion of "source
// file", "ignored path", etc.
type FileOptions struct {
	Root string // absolute project root

	IsFlowFile  func(path string) bool
	IsIgnored   func(path string) bool
	IsIncluded  func(path string) bool
	IsPrefix    func(path string) bool
	ChopFlowExt func(path string) string

	FlowExt        string // e.g. ".js"
	DeclarationExt string // e.g. ".js.flow"
	CurrentDirName string // "."
	ParentDirName  string // ".."

	AbsolutePathRegexp *regexp.Regexp
}

// Options is the full configuration bag described in §6.
type Options struct {
	ModuleSystem ModuleSystemKind

	ModuleNameMappers []Mapper

	ModuleResolver string // path to external resolver binary, empty if unset

	HasteUseNameReducers bool
	HasteNameReducers    []Mapper
	HastePathsWhitelist  []*regexp.Regexp
	HastePathsBlacklist  []*regexp.Regexp

	NodeResolverDirnames []string // e.g. ["node_modules"]
	ModuleFileExts       []string // in configured precedence order

	File FileOptions
}

const ProjectRootToken = "<<PROJECT_ROOT>>"

// ExpandToken replaces every occurrence of the PROJECT_ROOT sentinel in s
// with root via a literal split-and-join, so that backreference-looking
// text inside root (e.g. "\1") is never re-interpreted as regex syntax.
func ExpandToken(s, root string) string {
	out := ""
	rest := s
	for {
		idx := indexOf(rest, ProjectRootToken)
		if idx < 0 {
			out += rest
			return out
		}
		out += rest[:idx] + root
		rest = rest[idx+len(ProjectRootToken):]
	}
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}
