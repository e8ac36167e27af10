package render

import (
	"strings"

	"golang.org/x/net/html"
)

// Text returns the readable text of an HTML fragment. Block elements become
// line breaks and list items are bulleted; everything else is flattened the
// way a browser's textContent would be.
func Text(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var sb strings.Builder
	extractText(doc, &sb, false)
	return tidy(sb.String())
}

func extractText(n *html.Node, sb *strings.Builder, pre bool) {
	switch n.Type {
	case html.TextNode:
		if pre {
			sb.WriteString(n.Data)
		} else {
			sb.WriteString(collapseSpace(n.Data))
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "svg":
			return
		case "br":
			sb.WriteString("\n")
			return
		case "li":
			sb.WriteString("\n• ")
		case "pre":
			pre = true
			sb.WriteString("\n\n")
		default:
			if isBlock(n.Data) {
				sb.WriteString("\n\n")
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, pre)
	}

	if n.Type == html.ElementNode && (n.Data == "pre" || isBlock(n.Data)) {
		sb.WriteString("\n\n")
	}
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "ul", "ol", "table", "tr", "blockquote", "hr",
		"h1", "h2", "h3", "h4", "h5", "h6", "article", "section":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}

// tidy trims every line and keeps at most one blank line between paragraphs.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
