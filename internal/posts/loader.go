package posts

import (
	"github.com/folio-blog/folio/internal/contentloader"
)

// Pattern selects the post files, relative to the content root.
const Pattern = "posts/*.md"

type LoaderOptions struct {
	Policy    DatePolicy
	Base      string
	CleanURLs bool
}

// NewLoader returns the content loader that produces the post index.
func NewLoader(opts LoaderOptions) (*contentloader.Loader[Index], error) {
	listing := contentloader.JoinBase(opts.Base, ListingURL)
	return contentloader.New(Pattern, contentloader.Options[Index]{
		Excerpt:   true,
		CleanURLs: opts.CleanURLs,
		Base:      opts.Base,
		Transform: func(raw []contentloader.RawEntry) (Index, error) {
			return Transform(raw, TransformOptions{Policy: opts.Policy, ListingURL: listing})
		},
	})
}
