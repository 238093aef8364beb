package posts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/folio-blog/folio/kit/validate"
)

func TestParseFrontMatter(t *testing.T) {
	t.Run("Known and extra keys", func(t *testing.T) {
		fm, err := parseFrontMatter(map[string]any{
			"title": "Hello",
			"date":  "2024-01-01",
			"tags":  []any{"go"},
		}, "posts/hello.md")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fm.Title != "Hello" || !fm.Date.Valid {
			t.Errorf("unexpected front matter: %+v", fm)
		}
		if _, ok := fm.Extra["tags"]; !ok {
			t.Error("expected tags in Extra")
		}
		if _, ok := fm.Extra["title"]; ok {
			t.Error("title should not be duplicated in Extra")
		}
	})

	t.Run("Title falls back to the file name", func(t *testing.T) {
		fm, _ := parseFrontMatter(map[string]any{"date": "2024-01-01"}, "posts/my-first_post.md")
		if fm.Title != "My First Post" {
			t.Errorf("got %q", fm.Title)
		}
	})

	t.Run("Missing date is a validation error", func(t *testing.T) {
		_, err := parseFrontMatter(map[string]any{"title": "x"}, "")
		if !validate.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if !strings.Contains(err.Error(), "date is required") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("Zero epoch date is valid", func(t *testing.T) {
		fm, err := parseFrontMatter(map[string]any{"date": 0}, "posts/epoch.md")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fm.Date.Valid || fm.Map()["date"] != 0 {
			t.Errorf("unexpected date %+v", fm.Date)
		}
	})

	t.Run("Unparseable date is a validation error", func(t *testing.T) {
		_, err := parseFrontMatter(map[string]any{"date": "someday"}, "")
		if err == nil || !strings.Contains(err.Error(), errUnparseableDate.Error()) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("Nil map", func(t *testing.T) {
		fm, err := parseFrontMatter(nil, "posts/x.md")
		if err == nil {
			t.Error("expected error for nil front matter")
		}
		if fm.Title != "X" {
			t.Errorf("got %q", fm.Title)
		}
	})
}

func TestFrontMatterJSON(t *testing.T) {
	fm, _ := parseFrontMatter(map[string]any{"title": "Hello", "date": "2024-01-01", "draft": false}, "")
	b, err := json.Marshal(Entry{URL: "/posts/hello", FrontMatter: fm})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := got["frontmatter"].(map[string]any)
	if m["title"] != "Hello" || m["date"] != "2024-01-01" || m["draft"] != false {
		t.Errorf("unexpected frontmatter JSON: %s", b)
	}
	if got["url"] != "/posts/hello" {
		t.Errorf("unexpected url: %v", got["url"])
	}
}
