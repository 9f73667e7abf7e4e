// Package filesystem provides file-based adapters for the plugin layer.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DirectoryLister implements ports.DirectoryLister with a recursive walk.
type DirectoryLister struct {
	ignore []string
}

// ListerOption configures a DirectoryLister.
type ListerOption func(*DirectoryLister)

// WithIgnore skips files whose relative path matches any doublestar
// pattern, e.g. "**/.DS_Store" or ".git/**".
func WithIgnore(patterns ...string) ListerOption {
	return func(l *DirectoryLister) {
		l.ignore = append(l.ignore, patterns...)
	}
}

// NewDirectoryLister creates a lister. Invalid patterns are rejected here
// rather than on every file.
func NewDirectoryLister(opts ...ListerOption) (*DirectoryLister, error) {
	l := &DirectoryLister{}
	for _, opt := range opts {
		opt(l)
	}
	for _, p := range l.ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}
	return l, nil
}

// ListFiles returns every regular file below root as a sorted,
// slash-separated path relative to root. root itself may be a symlink.
// Symlinks to regular files are listed; symlinked directories below root
// are not descended.
func (l *DirectoryLister) ListFiles(ctx context.Context, root string) ([]string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !isRegularTarget(path, d) {
			return nil
		}

		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if l.ignored(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func isRegularTarget(path string, d fs.DirEntry) bool {
	if d.Type()&fs.ModeSymlink == 0 {
		return d.Type().IsRegular()
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (l *DirectoryLister) ignored(rel string) bool {
	for _, p := range l.ignore {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
