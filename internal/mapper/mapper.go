// Package mapper expands a raw module reference into an ordered list of
// rewritten candidates via the configured module_name_mappers (spec §4.2).
package mapper

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"modcheck/internal/config"
)

// candidateCacheSize bounds the memoization cache. A large fileset can
// repeat the same bare specifier ("react", "./utils") thousands of times,
// so a bounded LRU is preferred over an ever-growing map.
const candidateCacheSize = 4096

// Generator memoizes candidate expansion by raw reference string.
type Generator struct {
	mappers []config.Mapper
	root    string
	cache   *lru.Cache[string, []string]
}

// New builds a Generator from the configured mappers and project root.
// Mapper templates are expected to already contain the literal
// PROJECT_ROOT sentinel; it is expanded per-candidate, not at compile time,
// since a mapper's *regex* may itself have been built against the token
// (the caller is responsible for compiling config.Mapper.Regex with the
// token already expanded into it where that's meaningful).
func New(mappers []config.Mapper, root string) *Generator {
	c, _ := lru.New[string, []string](candidateCacheSize)
	return &Generator{mappers: mappers, root: root, cache: c}
}

// Candidates returns the ordered candidate list for raw reference r: r
// itself, then the result of every mapper whose regex matches r (in
// configured order) with its PROJECT_ROOT token expanded. A mapper whose
// rewrite does not change r contributes nothing.
func (g *Generator) Candidates(r string) []string {
	if cached, ok := g.cache.Get(r); ok {
		return cached
	}
	out := []string{r}
	for _, m := range g.mappers {
		if !m.Regex.MatchString(r) {
			continue
		}
		rewritten := m.Regex.ReplaceAllString(r, m.Template)
		rewritten = config.ExpandToken(rewritten, g.root)
		if rewritten != r {
			out = append(out, rewritten)
		}
	}
	g.cache.Add(r, out)
	return out
}
