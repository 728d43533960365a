package indexer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultInclude matches every .sql script below the project root
var DefaultInclude = []string{"**/*.sql"}

// DefaultIgnore skips dependency and build directories
var DefaultIgnore = []string{"**/node_modules/**", "**/vendor/**", "**/bin/**"}

// Matcher decides which paths below a project root are indexed
type Matcher struct {
	include []glob.Glob
	ignore  []glob.Glob
}

// NewMatcher compiles include and ignore patterns. Patterns use '/' as the
// separator and are matched against slash-separated paths relative to the
// root; a leading "**/" also matches at the root itself.
func NewMatcher(include, ignore []string) (*Matcher, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}

	m := &Matcher{}
	var err error
	if m.include, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if m.ignore, err = compilePatterns(ignore); err != nil {
		return nil, err
	}
	return m, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	var globs []glob.Glob
	for _, p := range patterns {
		p = filepath.ToSlash(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		variants := []string{p}
		if rest, ok := strings.CutPrefix(p, "**/"); ok {
			variants = append(variants, rest)
		}
		for _, v := range variants {
			g, err := glob.Compile(v, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
			}
			globs = append(globs, g)
		}
	}
	return globs, nil
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Match reports whether the relative file path is included and not ignored
func (m *Matcher) Match(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return matchAny(m.include, relPath) && !matchAny(m.ignore, relPath)
}

// SkipDir reports whether a relative directory path is ignored as a whole
func (m *Matcher) SkipDir(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return matchAny(m.ignore, relPath) || matchAny(m.ignore, relPath+"/")
}

// DiscoverScripts walks rootPath and returns the matching script paths
// relative to it, sorted. Hidden directories are never entered.
func DiscoverScripts(rootPath string, m *Matcher) ([]string, error) {
	var scripts []string

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || m.SkipDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if m.Match(relPath) {
			scripts = append(scripts, filepath.ToSlash(relPath))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(scripts)
	return scripts, nil
}
