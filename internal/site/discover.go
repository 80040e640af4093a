// Package site finds the HTML files of a built documentation site.
package site

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/karrick/godirwalk"
)

// ErrRootNotFound is returned when a root path does not exist.
var ErrRootNotFound = errors.New("path not found")

// Finder selects HTML files under a set of roots.
type Finder struct {
	extensions map[string]bool
	exclude    []glob.Glob
}

// Option configures a Finder.
type Option func(*Finder) error

// WithExtensions sets the extensions, including the dot, of files to keep.
// Matching is case-insensitive.
func WithExtensions(exts ...string) Option {
	return func(f *Finder) error {
		f.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			f.extensions[strings.ToLower(ext)] = true
		}
		return nil
	}
}

// WithExclude adds glob patterns of files to skip. Patterns use '/' as the
// separator and are matched against the path relative to the root.
func WithExclude(patterns ...string) Option {
	return func(f *Finder) error {
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return fmt.Errorf("invalid exclude pattern %q: %w", p, err)
			}
			f.exclude = append(f.exclude, g)
		}
		return nil
	}
}

// NewFinder creates a Finder. Without WithExtensions it keeps .html and .htm.
func NewFinder(opts ...Option) (*Finder, error) {
	f := &Finder{
		extensions: map[string]bool{".html": true, ".htm": true},
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Discover is a convenience wrapper around NewFinder and Finder.Find.
func Discover(roots []string, opts ...Option) ([]string, error) {
	f, err := NewFinder(opts...)
	if err != nil {
		return nil, err
	}
	return f.Find(roots)
}

// Find returns the files selected under roots, deduplicated and sorted.
// A root that is a regular file is always selected.
func (f *Finder) Find(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	files := make([]string, 0)

	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
			}
			return nil, err
		}

		if !info.IsDir() {
			add(root)
			continue
		}

		if err := f.walk(root, add); err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// Match reports whether path, found under root, would be selected.
func (f *Finder) Match(root, path string) bool {
	if !f.extensions[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return !f.excluded(filepath.ToSlash(rel))
}

func (f *Finder) excluded(rel string) bool {
	for _, g := range f.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (f *Finder) walk(root string, add func(string)) error {
	return godirwalk.Walk(root, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if path == root {
					return nil
				}
				rel, err := filepath.Rel(root, path)
				if err == nil && f.excluded(filepath.ToSlash(rel)) {
					return godirwalk.SkipThis
				}
				return nil
			}
			if !de.IsRegular() {
				return nil
			}
			if f.Match(root, path) {
				add(path)
			}
			return nil
		},
	})
}
