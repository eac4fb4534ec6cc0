// Package render turns chapter plain text into the paragraph HTML handed to
// the reading view.
package render

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// ChapterHTML splits text into paragraphs on blank lines. Single newlines
// inside a paragraph become <br/>. All text is escaped.
func ChapterHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	first := true
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if !first {
			b.WriteByte('\n')
		}
		first = false
		// Writes to a strings.Builder cannot fail.
		_ = html.Render(&b, paragraph(para))
	}
	return b.String()
}

func paragraph(text string) *html.Node {
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			p.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		}
		if line != "" {
			p.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
	return p
}
