// Package siteconfig declares the site: its metadata, navigation, per-path
// sidebars, social links and Markdown theme. The host reads it once at
// startup; nothing here has behavior beyond validation and sidebar lookup.
package siteconfig

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/folio-blog/folio/kit/validate"
	"golang.org/x/net/idna"
)

type Config struct {
	Title       string          `yaml:"title" json:"title"`
	Description string          `yaml:"description" json:"description"`
	Nav         []NavItem       `yaml:"nav" json:"nav"`
	Sidebar     Sidebar         `yaml:"sidebar" json:"sidebar"`
	SocialLinks []SocialLink    `yaml:"socialLinks" json:"socialLinks"`
	Markdown    MarkdownOptions `yaml:"markdown" json:"markdown"`
}

type NavItem struct {
	Text string `yaml:"text" json:"text"`
	Link string `yaml:"link" json:"link"`
}

// Sidebar maps a path prefix to the groups shown on pages under it. An empty
// group list hides the sidebar for that prefix.
type Sidebar map[string][]SidebarGroup

type SidebarGroup struct {
	Text  string    `yaml:"text" json:"text"`
	Items []NavItem `yaml:"items" json:"items"`
}

type SocialLink struct {
	Icon string `yaml:"icon" json:"icon"`
	Link string `yaml:"link" json:"link"`
}

type MarkdownOptions struct {
	// Theme names the syntax highlighting theme handed to the renderer.
	Theme string `yaml:"theme" json:"theme"`
}

var SocialIcons = []string{
	"bluesky", "discord", "facebook", "github", "instagram", "linkedin",
	"mastodon", "npm", "slack", "twitter", "x", "youtube",
}

func (c *Config) Validate() error {
	v := validate.Object(c)
	v.Required("Title")
	v.Optional("Description")
	v.Optional("Nav")
	v.Optional("SocialLinks")
	v.Required("Markdown")
	v.Optional("Sidebar").Check(func(any) error {
		for prefix := range c.Sidebar {
			if !strings.HasPrefix(prefix, "/") {
				return fmt.Errorf("prefix %q must start with /", prefix)
			}
		}
		return nil
	})
	return v.Error()
}

func (n NavItem) Validate() error {
	v := validate.Object(n)
	v.Required("Text")
	v.Required("Link").Check(checkLink)
	return v.Error()
}

func (g SidebarGroup) Validate() error {
	v := validate.Object(g)
	v.Required("Text")
	v.Optional("Items")
	return v.Error()
}

func (s SocialLink) Validate() error {
	v := validate.Object(s)
	v.Required("Icon").In(SocialIcons)
	v.Required("Link").Check(checkAbsoluteLink)
	return v.Error()
}

func (m MarkdownOptions) Validate() error {
	v := validate.Object(m)
	v.Required("Theme")
	return v.Error()
}

// SidebarFor returns the groups of the longest prefix matching path. ok is
// false when no prefix matches.
func (c *Config) SidebarFor(path string) (groups []SidebarGroup, ok bool) {
	prefixes := make([]string, 0, len(c.Sidebar))
	for prefix := range c.Sidebar {
		prefixes = append(prefixes, prefix)
	}
	slices.SortFunc(prefixes, func(a, b string) int { return len(b) - len(a) })
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return c.Sidebar[prefix], true
		}
	}
	return nil, false
}

var errRelativeLink = errors.New("must be site-relative (start with /) or an absolute http(s) URL")

func checkLink(v any) error {
	s, _ := v.(string)
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return nil
	}
	return checkAbsoluteLink(v)
}

func checkAbsoluteLink(v any) error {
	s, _ := v.(string)
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errRelativeLink
	}
	if _, err := idna.Lookup.ToASCII(u.Hostname()); err != nil {
		return fmt.Errorf("invalid host %q: %w", u.Hostname(), err)
	}
	return nil
}
