package contentloader

import (
	"bytes"

	"github.com/russross/blackfriday/v2"
)

const defaultExcerptSeparator = "---"

// extractExcerpt returns the Markdown preceding the first line that consists
// solely of sep. ok is false when there is no such line.
func extractExcerpt(body []byte, sep string) (excerpt []byte, ok bool) {
	var offset int
	rest := body
	for len(rest) > 0 {
		line := rest
		next := len(rest)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, next = rest[:i], i+1
		}
		if string(bytes.TrimSpace(line)) == sep {
			return bytes.TrimSpace(body[:offset]), true
		}
		offset += next
		rest = rest[next:]
	}
	return nil, false
}

func renderExcerpt(md []byte) string {
	if len(md) == 0 {
		return ""
	}
	return string(blackfriday.Run(md, blackfriday.WithExtensions(blackfriday.AutoHeadingIDs|blackfriday.CommonExtensions)))
}
