// Package contentloader scans Markdown content files matching a glob pattern,
// extracts their front matter and excerpt, and hands the resulting raw entries
// to a transform that derives a data asset from them.
package contentloader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"runtime"
	"slices"

	"github.com/adrg/frontmatter"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/folio-blog/folio/kit/colorlog"
	"golang.org/x/sync/errgroup"
)

var Log = colorlog.New("content loader")

// RawEntry is one content file as discovered by a scan. ExcerptSource is the
// unrendered Markdown behind Excerpt; Src is the path inside the scanned FS.
type RawEntry struct {
	URL           string         `json:"url"`
	FrontMatter   map[string]any `json:"frontmatter"`
	Excerpt       string         `json:"excerpt,omitempty"`
	ExcerptSource string         `json:"-"`
	Src           string         `json:"-"`
}

// TransformFunc derives a data asset from the raw entries of one scan. The
// slice is ordered by source path and is owned by the callee.
type TransformFunc[T any] func(raw []RawEntry) (T, error)

type Options[T any] struct {
	// Excerpt enables rendering of the text preceding ExcerptSeparator.
	Excerpt bool
	// ExcerptSeparator defaults to "---".
	ExcerptSeparator string
	// CleanURLs drops the ".html" suffix from entry URLs.
	CleanURLs bool
	// Base is prefixed to every entry URL (e.g. "/blog/"). Defaults to "/".
	Base string
	// Transform is required.
	Transform TransformFunc[T]
}

type Loader[T any] struct {
	pattern string
	opts    Options[T]
}

var ErrInvalidPattern = errors.New("invalid content pattern")

func New[T any](pattern string, opts Options[T]) (*Loader[T], error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if opts.Transform == nil {
		return nil, fmt.Errorf("content loader for %q: transform is required", pattern)
	}
	if opts.ExcerptSeparator == "" {
		opts.ExcerptSeparator = defaultExcerptSeparator
	}
	opts.Base = normalizeBase(opts.Base)
	return &Loader[T]{pattern: pattern, opts: opts}, nil
}

func MustNew[T any](pattern string, opts Options[T]) *Loader[T] {
	l, err := New(pattern, opts)
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Loader[T]) Pattern() string { return l.pattern }

// Watches reports whether a slash-separated path, relative to the scanned
// root, is matched by the loader's pattern.
func (l *Loader[T]) Watches(relPath string) bool {
	ok, err := doublestar.Match(l.pattern, relPath)
	return err == nil && ok
}

// Scan returns the raw entries for every file matching the pattern, ordered
// by path. No matches is not an error.
func (l *Loader[T]) Scan(ctx context.Context, fsys fs.FS) ([]RawEntry, error) {
	matches, err := doublestar.Glob(fsys, l.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("error matching %q: %w", l.pattern, err)
	}
	slices.Sort(matches)

	entries := make([]RawEntry, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, p := range matches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := l.readEntry(fsys, p)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	Log.Debug("scanned content", "pattern", l.pattern, "files", len(entries))
	return entries, nil
}

// Load scans fsys and applies the transform.
func (l *Loader[T]) Load(ctx context.Context, fsys fs.FS) (T, error) {
	var zero T
	raw, err := l.Scan(ctx, fsys)
	if err != nil {
		return zero, err
	}
	out, err := l.opts.Transform(raw)
	if err != nil {
		return zero, fmt.Errorf("error transforming %q: %w", l.pattern, err)
	}
	return out, nil
}

// LoadData is Load with the result boxed, for use through a Registry.
func (l *Loader[T]) LoadData(ctx context.Context, fsys fs.FS) (any, error) {
	return l.Load(ctx, fsys)
}

func (l *Loader[T]) readEntry(fsys fs.FS, p string) (RawEntry, error) {
	src, err := fs.ReadFile(fsys, p)
	if err != nil {
		return RawEntry{}, fmt.Errorf("error reading %s: %w", p, err)
	}

	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(src), &fm)
	if err != nil {
		return RawEntry{}, fmt.Errorf("error parsing front matter in %s: %w", p, err)
	}

	entry := RawEntry{
		URL:         entryURL(p, l.opts.Base, l.opts.CleanURLs),
		FrontMatter: normalizeMap(fm),
		Src:         p,
	}

	if l.opts.Excerpt {
		if md, ok := extractExcerpt(body, l.opts.ExcerptSeparator); ok {
			entry.ExcerptSource = string(md)
			entry.Excerpt = renderExcerpt(md)
		}
	}

	return entry, nil
}

// YAML v2 decodes nested mappings as map[any]any, which neither JSON nor the
// typed accessors understand.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = normalizeValue(val)
		}
		return m
	case map[string]any:
		return normalizeMap(x)
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = normalizeValue(val)
		}
		return s
	default:
		return v
	}
}

func normalizeBase(base string) string {
	if base == "" {
		return "/"
	}
	base = path.Clean("/" + base)
	if base != "/" {
		base += "/"
	}
	return base
}
