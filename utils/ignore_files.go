package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// IgnoreFileName is the optional per-project file listing extra directory
// names to skip, one per line.
const IgnoreFileName = ".reviewmentor-ignore"

// DefaultIgnoredDirs are never entered by the walker: dependency caches, VCS
// metadata, editor settings, build output, coverage, virtual environments
// and bytecode caches.
var DefaultIgnoredDirs = []string{
	"node_modules",
	".git",
	".vscode",
	".idea",
	"__pycache__",
	"dist",
	"build",
	"coverage",
	"venv",
	".venv",
}

// IgnoreSet matches directory names that must not be walked.
type IgnoreSet struct {
	names    map[string]struct{}
	patterns []string
}

// NewIgnoreSet returns the default set extended with extra names. Entries
// containing '*', '?' or '[' are treated as filepath.Match patterns.
func NewIgnoreSet(extra ...string) *IgnoreSet {
	set := &IgnoreSet{names: make(map[string]struct{}, len(DefaultIgnoredDirs)+len(extra))}
	set.add(DefaultIgnoredDirs...)
	set.add(extra...)
	return set
}

func (s *IgnoreSet) add(names ...string) {
	for _, name := range names {
		name = strings.TrimSpace(name)
		name = strings.TrimSuffix(name, "/")
		if name == "" {
			continue
		}
		if strings.ContainsAny(name, "*?[") {
			s.patterns = append(s.patterns, name)
			continue
		}
		s.names[name] = struct{}{}
	}
}

// With returns a copy of the set that also ignores names.
func (s *IgnoreSet) With(names ...string) *IgnoreSet {
	if s == nil {
		return NewIgnoreSet(names...)
	}
	clone := NewIgnoreSet()
	for name := range s.names {
		clone.names[name] = struct{}{}
	}
	clone.patterns = append(clone.patterns, s.patterns...)
	clone.add(names...)
	return clone
}

// IsIgnoredDir reports whether a directory with the given base name should be
// skipped. A nil set behaves like the default set.
func (s *IgnoreSet) IsIgnoredDir(name string) bool {
	if s == nil {
		s = defaultIgnoreSet
	}
	if _, ok := s.names[name]; ok {
		return true
	}
	for _, pattern := range s.patterns {
		if match, _ := filepath.Match(pattern, name); match {
			return true
		}
	}
	return false
}

// Names returns the exact names and patterns in the set, sorted.
func (s *IgnoreSet) Names() []string {
	if s == nil {
		s = defaultIgnoreSet
	}
	out := make([]string, 0, len(s.names)+len(s.patterns))
	for name := range s.names {
		out = append(out, name)
	}
	out = append(out, s.patterns...)
	sort.Strings(out)
	return out
}

var defaultIgnoreSet = NewIgnoreSet()

// ignoreCacheEntry holds cached ignore-file patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// LoadIgnoreSet builds the ignore set for a project root from the defaults,
// the configured extra names and the project's ignore file.
func LoadIgnoreSet(root string, extra []string) (*IgnoreSet, error) {
	patterns, err := GetIgnorePatterns(root)
	if err != nil {
		return nil, err
	}
	return NewIgnoreSet(append(append([]string{}, extra...), patterns...)...), nil
}

// GetIgnorePatterns reads the project's ignore file. A missing file yields an
// empty list. Results are cached until the file's modification time changes.
func GetIgnorePatterns(root string) ([]string, error) {
	ignorePath := filepath.Join(root, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists && fileInfo.ModTime().Equal(cached.modTime) {
		cacheMutex.RUnlock()
		return cached.patterns, nil
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return patterns, nil
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// ClearIgnoreCache clears all cached ignore-file patterns
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
