package locator

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// DefaultInclude matches every PHP file below a root.
const DefaultInclude = "**.php"

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithInclude restricts indexing to paths, relative to their root, matching
// one of the patterns.
func WithInclude(patterns ...string) DirectoryOption {
	return func(d *Directory) { d.include = patterns }
}

// WithExclude skips paths matching one of the patterns. A matching directory
// is not descended into.
func WithExclude(patterns ...string) DirectoryOption {
	return func(d *Directory) { d.exclude = patterns }
}

func WithLogger(logger *slog.Logger) DirectoryOption {
	return func(d *Directory) { d.logger = logger }
}

// Directory indexes the top-level names of every PHP file below a set of
// roots.
type Directory struct {
	roots   []string
	include []string
	exclude []string
	indexer Indexer
	logger  *slog.Logger

	includeGlobs []glob.Glob
	excludeGlobs []glob.Glob
	index        *index
}

// NewDirectory scans roots and indexes the files found. Files are indexed
// concurrently; when two files declare the same name the one that sorts
// first wins.
func NewDirectory(ctx context.Context, roots []string, indexer Indexer, opts ...DirectoryOption) (*Directory, error) {
	d := &Directory{
		roots:   roots,
		include: []string{DefaultInclude},
		indexer: indexer,
		logger:  slog.Default(),
		index:   newIndex(),
	}
	for _, o := range opts {
		o(d)
	}
	var err error
	if d.includeGlobs, err = compileGlobs(d.include); err != nil {
		return nil, err
	}
	if d.excludeGlobs, err = compileGlobs(d.exclude); err != nil {
		return nil, err
	}
	files, err := d.scan()
	if err != nil {
		return nil, err
	}
	if err := d.indexFiles(ctx, files); err != nil {
		return nil, err
	}
	d.logger.Debug("directory indexed", "roots", roots, "files", len(files), "names", d.index.len())
	return d, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("locator: invalid pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (d *Directory) scan() ([]string, error) {
	var files []string
	for _, root := range d.roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if entry.IsDir() {
				if rel != "." && matchAny(d.excludeGlobs, rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Matches(root, path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("locator: scan %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether path, below root, passes the include and exclude
// patterns.
func (d *Directory) Matches(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		// root is the file itself
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	return matchAny(d.includeGlobs, rel) && !matchAny(d.excludeGlobs, rel)
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func (d *Directory) indexFiles(ctx context.Context, files []string) error {
	results := make([]Names, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			names, err := d.indexer.Names(ctx, File(path))
			if err != nil {
				d.logger.Warn("failed to index file", "path", path, "error", err)
				return nil
			}
			results[i] = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i, path := range files {
		d.index.add(path, results[i])
	}
	return nil
}

// Roots returns the scanned roots.
func (d *Directory) Roots() []string { return d.roots }

// Covers reports whether path lies under one of the roots and passes the
// include and exclude patterns.
func (d *Directory) Covers(path string) bool {
	for _, root := range d.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if d.Matches(root, path) {
			return true
		}
	}
	return false
}

// Update re-indexes a single file after it changed on disk.
func (d *Directory) Update(ctx context.Context, path string) error {
	d.index.remove(path)
	names, err := d.indexer.Names(ctx, File(path))
	if err != nil {
		return fmt.Errorf("locator: index %s: %w", path, err)
	}
	d.index.add(path, names)
	return nil
}

// Remove forgets a deleted file.
func (d *Directory) Remove(path string) { d.index.remove(path) }

func (d *Directory) LocateClass(_ context.Context, name string) (Resource, bool, error) {
	return located(d.index.class(name))
}

func (d *Directory) LocateFunction(_ context.Context, name string) (Resource, bool, error) {
	return located(d.index.function(name))
}

func (d *Directory) LocateConstant(_ context.Context, name string) (Resource, bool, error) {
	return located(d.index.constant(name))
}

func located(path string, ok bool) (Resource, bool, error) {
	if !ok {
		return Resource{}, false, nil
	}
	return File(path), true, nil
}
