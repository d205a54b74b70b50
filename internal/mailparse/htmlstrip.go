package mailparse

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML reduces an HTML email body to its visible text. Script and style
// contents are dropped, block-ish boundaries become newlines, and runs of
// whitespace collapse to single spaces.
func StripHTML(s string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(s))

	var b strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseWhitespace(b.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "head":
				skipDepth++
			case "br", "p", "div", "tr", "li", "h1", "h2", "h3", "h4":
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "head":
				if skipDepth > 0 {
					skipDepth--
				}
			case "p", "div", "tr", "li":
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
