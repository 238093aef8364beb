package siteconfig

const (
	SiteTitle       = "Folio"
	SiteDescription = "Notes, posts and projects."
)

// Default returns a fresh copy of the declared site configuration.
func Default() *Config {
	return &Config{
		Title:       SiteTitle,
		Description: SiteDescription,
		Nav: []NavItem{
			{Text: "Home", Link: "/"},
			{Text: "Posts", Link: "/posts/"},
			{Text: "Projects", Link: "/projects/"},
			{Text: "About", Link: "/about"},
		},
		Sidebar: Sidebar{
			"/posts/": {},
			"/": {
				{
					Text: "Recent Posts",
					Items: []NavItem{
						{Text: "Building a blog on a content loader", Link: "/posts/content-loader"},
						{Text: "Notes on stable sorting", Link: "/posts/stable-sorting"},
						{Text: "Hello, world", Link: "/posts/hello-world"},
					},
				},
			},
		},
		SocialLinks: []SocialLink{
			{Icon: "github", Link: "https://github.com/folio-blog"},
			{Icon: "mastodon", Link: "https://hachyderm.io/@folio"},
		},
		Markdown: MarkdownOptions{Theme: "material-theme-palenight"},
	}
}
