package intake

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLExtractor handles HTML files. The page title becomes a level-one
// heading when the body has none of its own.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(r io.Reader, filename string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var out strings.Builder
	var sawHeading bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					writeHeading(&out, level, t)
					sawHeading = true
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "li":
				if t := textContent(n); t != "" {
					writeListItem(&out, t)
				}
				return
			case "p", "td", "th", "blockquote", "pre":
				writeBlock(&out, textContent(n))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	text := out.String()
	if title := findElement(doc, "title"); title != nil && !sawHeading {
		if t := textContent(title); t != "" {
			var withTitle strings.Builder
			writeHeading(&withTitle, 1, t)
			writeBlock(&withTitle, text)
			text = withTitle.String()
		}
	}
	return text, nil
}

// writeListItem keeps consecutive list items on adjacent lines.
func writeListItem(sb *strings.Builder, text string) {
	item := "- " + strings.Join(strings.Fields(text), " ")
	if lastLineIsItem(sb.String()) {
		sb.WriteString("\n" + item)
		return
	}
	writeBlock(sb, item)
}

func lastLineIsItem(s string) bool {
	i := strings.LastIndexByte(s, '\n')
	return strings.HasPrefix(s[i+1:], "- ")
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
