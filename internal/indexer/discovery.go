package indexer

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultCodePatterns selects CoffeeScript sources.
var DefaultCodePatterns = []string{"**/*.coffee"}

// DefaultIgnorePatterns skips dependency and build output directories.
var DefaultIgnorePatterns = []string{"node_modules/**", ".git/**", "dist/**", "build/**"}

// stateDir holds project configuration and the symbol database.
const stateDir = ".coffee-symbols"

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds source files under a root using glob patterns and
// ignore rules. Patterns are matched against slash-separated paths relative
// to the root.
type FileDiscovery struct {
	rootDir        string
	codePatterns   []compiledPattern
	ignorePatterns []compiledPattern
}

// NewFileDiscovery compiles the patterns. Empty pattern lists fall back to
// the defaults.
func NewFileDiscovery(rootDir string, codePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	if len(codePatterns) == 0 {
		codePatterns = DefaultCodePatterns
	}
	if ignorePatterns == nil {
		ignorePatterns = DefaultIgnorePatterns
	}

	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", rootDir, err)
	}
	fd := &FileDiscovery{rootDir: root}

	if fd.codePatterns, err = compilePatterns(codePatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// Root returns the absolute root directory.
func (fd *FileDiscovery) Root() string {
	return fd.rootDir
}

// DiscoverFiles walks the tree and returns absolute paths of matching files
// in lexical order. Ignored directories are not descended into.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.Matches(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", fd.rootDir, err)
	}
	return files, nil
}

// Matches reports whether a root-relative, slash-separated path is a source
// file that is not ignored.
func (fd *FileDiscovery) Matches(relPath string) bool {
	return !fd.shouldIgnore(relPath) && fd.matchesAnyPattern(relPath, fd.codePatterns)
}

// MatchesPath is Matches for an absolute path. Paths outside the root never
// match.
func (fd *FileDiscovery) MatchesPath(path string) bool {
	relPath, ok := fd.relative(path)
	return ok && fd.Matches(relPath)
}

// IgnoresDir reports whether an absolute directory path is excluded from
// discovery. The root itself is never ignored.
func (fd *FileDiscovery) IgnoresDir(path string) bool {
	relPath, ok := fd.relative(path)
	if !ok {
		return true
	}
	return relPath != "." && fd.shouldIgnore(relPath)
}

// ownsPath reports whether path lies under the root.
func (fd *FileDiscovery) ownsPath(path string) bool {
	_, ok := fd.relative(path)
	return ok
}

func (fd *FileDiscovery) relative(path string) (string, bool) {
	relPath, err := filepath.Rel(fd.rootDir, path)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(relPath), true
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if strings.HasPrefix(relPath, stateDir+"/") || relPath == stateDir {
		return true
	}

	if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// "node_modules" should match pattern "node_modules/**"
	return fd.matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// "**/*.coffee" should also match "app.coffee" at the root.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if simplified, ok := strings.CutPrefix(cp.pattern, "**/"); ok {
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}
