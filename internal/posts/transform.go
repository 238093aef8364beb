// Package posts builds the post index: every post under posts/ except the
// listing page itself, most recent first.
package posts

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/folio-blog/folio/internal/contentloader"
	"github.com/folio-blog/folio/kit/colorlog"
	stripmd "github.com/writeas/go-strip-markdown"
)

var Log = colorlog.New("posts")

// ListingURL is the URL of the page that lists the posts. It never appears
// in its own index.
const ListingURL = "/posts/"

type Entry struct {
	URL         string      `json:"url"`
	FrontMatter FrontMatter `json:"frontmatter"`
	Excerpt     string      `json:"excerpt,omitempty"`
	ExcerptText string      `json:"excerptText,omitempty"`
	// ExcerptSource is the Markdown the excerpt was rendered from.
	ExcerptSource string `json:"-"`
}

type Index []Entry

// DatePolicy decides what happens to entries whose date is missing or
// cannot be parsed.
type DatePolicy int

const (
	// DatesLast orders undated entries after all dated ones, keeping their
	// input order.
	DatesLast DatePolicy = iota
	// DatesError fails the whole transform with a *DateError.
	DatesError
	// DatesUnordered treats an undated entry as equal to every other entry.
	// Where it ends up depends on the sort, as with a comparator that
	// yields NaN.
	DatesUnordered
)

var policyNames = map[DatePolicy]string{
	DatesLast:      "last",
	DatesError:     "error",
	DatesUnordered: "unordered",
}

func (p DatePolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("DatePolicy(%d)", int(p))
}

func ParseDatePolicy(s string) (DatePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DatesLast, nil
	}
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown date policy %q (want last, error or unordered)", s)
}

var ErrInvalidDate = errors.New("invalid post date")

// InvalidDate describes one entry rejected by DatesError.
type InvalidDate struct {
	URL string
	Src string
	Err error
}

type DateError struct{ Entries []InvalidDate }

func (e *DateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d post(s) with a missing or invalid date:", len(e.Entries))
	for _, d := range e.Entries {
		fmt.Fprintf(&sb, "\n  %s: %v", d.URL, d.Err)
	}
	return sb.String()
}

func (e *DateError) Unwrap() []error {
	errs := []error{ErrInvalidDate}
	for _, d := range e.Entries {
		errs = append(errs, d.Err)
	}
	return errs
}

type TransformOptions struct {
	Policy DatePolicy
	// ListingURL defaults to the package constant.
	ListingURL string
}

// Transform drops the listing page and stably sorts the remaining entries by
// date, most recent first. The input is not modified.
func Transform(raw []contentloader.RawEntry, opts TransformOptions) (Index, error) {
	listing := cmp.Or(opts.ListingURL, ListingURL)

	index := make(Index, 0, len(raw))
	var invalid []InvalidDate

	for _, r := range raw {
		if r.URL == listing {
			continue
		}
		fm, err := parseFrontMatter(r.FrontMatter, r.Src)
		if err != nil {
			invalid = append(invalid, InvalidDate{URL: r.URL, Src: r.Src, Err: err})
		}
		index = append(index, Entry{
			URL:           r.URL,
			FrontMatter:   fm,
			Excerpt:       r.Excerpt,
			ExcerptText:   excerptText(r.ExcerptSource),
			ExcerptSource: r.ExcerptSource,
		})
	}

	if len(invalid) > 0 {
		if opts.Policy == DatesError {
			return nil, &DateError{Entries: invalid}
		}
		for _, d := range invalid {
			Log.Warn("post has no usable date", "url", d.URL, "policy", opts.Policy, "error", d.Err)
		}
	}

	SortByDate(index, opts.Policy)
	return index, nil
}

// SortByDate sorts entries in place, most recent first. Entries with equal
// timestamps keep their relative order.
func SortByDate(entries []Entry, policy DatePolicy) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		ta, okA := a.FrontMatter.Date.Timestamp()
		tb, okB := b.FrontMatter.Date.Timestamp()
		switch {
		case okA && okB:
			return cmp.Compare(tb, ta)
		case policy == DatesUnordered:
			return 0
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

func excerptText(md string) string {
	if md == "" {
		return ""
	}
	return strings.TrimSpace(stripmd.Strip(md))
}

// Raw converts the index back into loader input, e.g. to feed it through
// Transform again.
func (idx Index) Raw() []contentloader.RawEntry {
	raw := make([]contentloader.RawEntry, len(idx))
	for i, e := range idx {
		raw[i] = contentloader.RawEntry{
			URL:           e.URL,
			FrontMatter:   e.FrontMatter.Map(),
			Excerpt:       e.Excerpt,
			ExcerptSource: e.ExcerptSource,
		}
	}
	return raw
}
