package posts

import (
	"encoding/json"
	"errors"
	"maps"
	"path"
	"strings"

	"github.com/folio-blog/folio/kit/validate"
	"github.com/karlseguin/typed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	titleKey = "title"
	dateKey  = "date"
)

var errUnparseableDate = errors.New("not a recognizable date")

// FrontMatter is the typed view of a post's metadata block. Keys other than
// title and date are kept verbatim in Extra.
type FrontMatter struct {
	Title string
	Date  Date
	Extra map[string]any
}

// Map returns the front matter as a single map, the shape it had in the file.
func (f FrontMatter) Map() map[string]any {
	m := make(map[string]any, len(f.Extra)+2)
	maps.Copy(m, f.Extra)
	if f.Title != "" {
		m[titleKey] = f.Title
	}
	if d := f.Date.Value(); d != nil {
		m[dateKey] = d
	}
	return m
}

func (f FrontMatter) MarshalJSON() ([]byte, error) {
	m := f.Map()
	if !f.Date.Missing() {
		m[dateKey] = f.Date
	}
	return json.Marshal(m)
}

var titleCaser = cases.Title(language.English)

// parseFrontMatter always returns a usable FrontMatter. The error is a
// validation error when the date is missing or cannot be parsed.
func parseFrontMatter(raw map[string]any, src string) (FrontMatter, error) {
	m := typed.New(raw)

	fm := FrontMatter{
		Date:  ParseDate(m[dateKey]),
		Extra: make(map[string]any, len(raw)),
	}
	if title, ok := m.StringIf(titleKey); ok && strings.TrimSpace(title) != "" {
		fm.Title = title
	} else if src != "" {
		fm.Title = titleFromPath(src)
	}
	for k, v := range raw {
		if k != titleKey && k != dateKey {
			fm.Extra[k] = v
		}
	}

	// Presence is judged on the text form, so a literal 0 (the epoch) counts.
	v := validate.Any(dateKey, fm.Date.Raw).Required().Check(func(any) error {
		if !fm.Date.Valid {
			return errUnparseableDate
		}
		return nil
	})
	return fm, v.Error()
}

func titleFromPath(src string) string {
	stem := strings.TrimSuffix(path.Base(src), path.Ext(src))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return titleCaser.String(stem)
}
