// Package pipeline orchestrates the batch run: discover source files,
// compile each to its intermediate tree, extract cross-module calls and
// render the graph.
package pipeline

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// testFilePatterns name files that are always excluded from analysis. The
// exclusion is fixed, not configurable.
var testFilePatterns = []string{
	"**_tests.erl",
	"**_SUITE.erl",
}

// FileDiscovery enumerates source files under a root directory.
type FileDiscovery struct {
	rootDir        string
	ignorePatterns []compiledPattern
	testPatterns   []compiledPattern
}

// NewFileDiscovery creates a discovery instance with extra ignore globs on
// top of the fixed test-file exclusions.
func NewFileDiscovery(rootDir string, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}
	for _, pattern := range testFilePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.testPatterns = append(fd.testPatterns, compiledPattern{pattern: pattern, glob: g})
	}
	return fd, nil
}

// DiscoverFiles walks the directory tree and returns the source files in
// lexical walk order, which keeps downstream output deterministic.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.Walk(fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".erl") {
			return nil
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if fd.matchesAnyPattern(relPath, fd.testPatterns) {
			return nil
		}
		if fd.matchesAnyPattern(relPath, fd.ignorePatterns) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	return files, err
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func (fd *FileDiscovery) matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}
	return false
}
