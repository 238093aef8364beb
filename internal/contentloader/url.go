package contentloader

import (
	"path"
	"strings"
)

// entryURL maps a content path to its site-relative URL:
//
//	posts/hello.md  -> /posts/hello.html (or /posts/hello with clean URLs)
//	posts/index.md  -> /posts/
//	index.md        -> /
func entryURL(src, base string, cleanURLs bool) string {
	rel := strings.TrimSuffix(src, path.Ext(src))
	dir, name := path.Split(rel)

	if name == "index" {
		return base + dir
	}
	if cleanURLs {
		return base + rel
	}
	return base + rel + ".html"
}

// JoinBase prefixes a site-relative URL with a base path, the same way entry
// URLs are prefixed.
func JoinBase(base, url string) string {
	return normalizeBase(base) + strings.TrimPrefix(url, "/")
}
