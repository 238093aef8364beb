package contentloader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
)

func identity(raw []RawEntry) ([]RawEntry, error) { return raw, nil }

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"posts/index.md":    {Data: []byte("---\ntitle: Posts\n---\n# All posts\n")},
		"posts/b.md":        {Data: []byte("---\ntitle: B\ndate: 2024-03-01\nmeta:\n  tags:\n    - go\n---\nIntro to **B**.\n\n---\n\nThe rest of B.\n")},
		"posts/a.md":        {Data: []byte("---\ntitle: A\ndate: 2024-01-01\n---\nNo separator here.\n")},
		"posts/notes.txt":   {Data: []byte("not markdown")},
		"posts/drafts/c.md": {Data: []byte("---\ndate: 2024-02-01\n---\nnested\n")},
		"about.md":          {Data: []byte("# About\n")},
	}
}

func TestNew(t *testing.T) {
	t.Run("Invalid pattern", func(t *testing.T) {
		_, err := New("posts/[*.md", Options[[]RawEntry]{Transform: identity})
		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("expected ErrInvalidPattern, got %v", err)
		}
	})

	t.Run("Missing transform", func(t *testing.T) {
		if _, err := New("posts/*.md", Options[[]RawEntry]{}); err == nil {
			t.Error("expected error for missing transform")
		}
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("Matches only the pattern, ordered by path", func(t *testing.T) {
		l := MustNew("posts/*.md", Options[[]RawEntry]{Transform: identity})
		got, err := l.Load(ctx, testFS())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var urls []string
		for _, e := range got {
			urls = append(urls, e.URL)
		}
		want := []string{"/posts/a.html", "/posts/b.html", "/posts/"}
		if strings.Join(urls, ",") != strings.Join(want, ",") {
			t.Errorf("got %v, want %v", urls, want)
		}
	})

	t.Run("Front matter is decoded and normalized", func(t *testing.T) {
		l := MustNew("posts/b.md", Options[[]RawEntry]{Transform: identity})
		got, err := l.Load(ctx, testFS())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(got))
		}
		fm := got[0].FrontMatter
		if fm["title"] != "B" {
			t.Errorf("expected title B, got %v", fm["title"])
		}
		meta, ok := fm["meta"].(map[string]any)
		if !ok {
			t.Fatalf("expected nested map[string]any, got %T", fm["meta"])
		}
		if _, ok := meta["tags"].([]any); !ok {
			t.Errorf("expected tags slice, got %T", meta["tags"])
		}
		if got[0].Src != "posts/b.md" {
			t.Errorf("expected Src posts/b.md, got %q", got[0].Src)
		}
	})

	t.Run("Excerpt is rendered only when enabled and separated", func(t *testing.T) {
		l := MustNew("posts/*.md", Options[[]RawEntry]{Excerpt: true, CleanURLs: true, Transform: identity})
		got, err := l.Load(ctx, testFS())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		byURL := map[string]RawEntry{}
		for _, e := range got {
			byURL[e.URL] = e
		}
		b := byURL["/posts/b"]
		if !strings.Contains(b.Excerpt, "<strong>B</strong>") {
			t.Errorf("expected rendered excerpt, got %q", b.Excerpt)
		}
		if strings.Contains(b.Excerpt, "rest of B") {
			t.Errorf("excerpt should stop at separator, got %q", b.Excerpt)
		}
		if a := byURL["/posts/a"]; a.Excerpt != "" {
			t.Errorf("expected empty excerpt without separator, got %q", a.Excerpt)
		}

		l = MustNew("posts/*.md", Options[[]RawEntry]{CleanURLs: true, Transform: identity})
		got, _ = l.Load(ctx, testFS())
		for _, e := range got {
			if e.Excerpt != "" {
				t.Errorf("expected no excerpt when disabled, got %q for %s", e.Excerpt, e.URL)
			}
		}
	})

	t.Run("No matches yields an empty slice", func(t *testing.T) {
		called := false
		l := MustNew("posts/*.md", Options[int]{Transform: func(raw []RawEntry) (int, error) {
			called = true
			return len(raw), nil
		}})
		n, err := l.Load(ctx, fstest.MapFS{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called || n != 0 {
			t.Errorf("expected transform to run on empty input, called=%v n=%d", called, n)
		}
	})

	t.Run("Transform errors are wrapped", func(t *testing.T) {
		sentinel := errors.New("nope")
		l := MustNew("posts/*.md", Options[int]{Transform: func([]RawEntry) (int, error) { return 0, sentinel }})
		if _, err := l.Load(ctx, testFS()); !errors.Is(err, sentinel) {
			t.Errorf("expected wrapped sentinel, got %v", err)
		}
	})

	t.Run("Malformed front matter names the file", func(t *testing.T) {
		fsys := fstest.MapFS{"posts/bad.md": {Data: []byte("---\ntitle: [unclosed\n---\nbody\n")}}
		l := MustNew("posts/*.md", Options[[]RawEntry]{Transform: identity})
		_, err := l.Load(ctx, fsys)
		if err == nil || !strings.Contains(err.Error(), "posts/bad.md") {
			t.Errorf("expected error naming posts/bad.md, got %v", err)
		}
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		l := MustNew("posts/*.md", Options[[]RawEntry]{Transform: identity})
		if _, err := l.Load(cctx, testFS()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestWatches(t *testing.T) {
	l := MustNew("posts/*.md", Options[[]RawEntry]{Transform: identity})
	tests := []struct {
		path string
		want bool
	}{
		{"posts/a.md", true},
		{"posts/index.md", true},
		{"posts/drafts/c.md", false},
		{"posts/a.txt", false},
		{"about.md", false},
	}
	for _, tt := range tests {
		if got := l.Watches(tt.path); got != tt.want {
			t.Errorf("Watches(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestEntryURL(t *testing.T) {
	tests := []struct {
		src, base string
		clean     bool
		want      string
	}{
		{"posts/hello.md", "/", false, "/posts/hello.html"},
		{"posts/hello.md", "/", true, "/posts/hello"},
		{"posts/index.md", "/", false, "/posts/"},
		{"index.md", "/", true, "/"},
		{"posts/hello.md", normalizeBase("blog"), true, "/blog/posts/hello"},
		{"posts/index.md", normalizeBase("/blog/"), true, "/blog/posts/"},
	}
	for _, tt := range tests {
		if got := entryURL(tt.src, tt.base, tt.clean); got != tt.want {
			t.Errorf("entryURL(%q, %q, %v) = %q, want %q", tt.src, tt.base, tt.clean, got, tt.want)
		}
	}
}

func TestExtractExcerpt(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"separator", "first\n---\nsecond\n", "first", true},
		{"crlf", "first\r\n---\r\nsecond\r\n", "first", true},
		{"indented separator", "first\n  ---  \nsecond", "first", true},
		{"none", "first\nsecond\n", "", false},
		{"leading separator", "---\nafter\n", "", true},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractExcerpt([]byte(tt.body), "---")
			if ok != tt.wantOK || string(got) != tt.want {
				t.Errorf("extractExcerpt(%q) = (%q, %v), want (%q, %v)", tt.body, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestJoinBase(t *testing.T) {
	tests := []struct{ base, url, want string }{
		{"", "/posts/", "/posts/"},
		{"/", "/posts/", "/posts/"},
		{"blog", "/posts/", "/blog/posts/"},
		{"/blog/", "posts/", "/blog/posts/"},
	}
	for _, tt := range tests {
		if got := JoinBase(tt.base, tt.url); got != tt.want {
			t.Errorf("JoinBase(%q, %q) = %q, want %q", tt.base, tt.url, got, tt.want)
		}
	}
}
