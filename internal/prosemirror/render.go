package prosemirror

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Render converts doc into normalized Markdown. Invalid or nil documents
// render to the empty string.
func Render(doc *Doc) string {
	if !doc.Valid() {
		return ""
	}
	var b strings.Builder
	for _, n := range doc.Content {
		b.WriteString(renderNode(n))
	}
	return normalize(b.String())
}

// RenderJSON decodes data as a Doc and renders it. A decode failure renders
// to the empty string and is returned for the caller to log.
func RenderJSON(data []byte) (string, error) {
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("prosemirror: decode: %w", err)
	}
	return Render(&doc), nil
}

func normalize(s string) string {
	return strings.TrimSpace(blankRunRe.ReplaceAllString(s, "\n\n"))
}

// textContent concatenates rendered children; a node with children ignores
// its own text.
func textContent(n Node) string {
	if n.Content != nil {
		var b strings.Builder
		for _, c := range n.Content {
			b.WriteString(renderNode(c))
		}
		return b.String()
	}
	return n.Text
}

func renderNode(n Node) string {
	switch n.Kind() {
	case KindHeading:
		return strings.Repeat("#", n.HeadingLevel()) + " " + strings.TrimSpace(textContent(n)) + "\n\n"
	case KindParagraph:
		if t := strings.TrimSpace(textContent(n)); t != "" {
			return t + "\n\n"
		}
		return ""
	case KindBulletList:
		return renderBulletList(n)
	case KindText:
		return n.Text
	default:
		return textContent(n)
	}
}

func renderBulletList(n Node) string {
	var items []string
	for _, item := range n.Content {
		if item.Kind() != KindListItem {
			continue
		}
		var b strings.Builder
		for _, c := range item.Content {
			b.WriteString(renderNode(c))
		}
		if t := strings.TrimSpace(b.String()); t != "" {
			items = append(items, "- "+t)
		}
	}
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, "\n") + "\n\n"
}
