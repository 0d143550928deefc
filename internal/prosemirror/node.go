// Package prosemirror renders ProseMirror-style document trees into Markdown.
package prosemirror

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind is the closed set of node kinds the renderer formats.
// Anything else maps to KindUnknown and renders as flattened text.
type Kind int

const (
	KindUnknown Kind = iota
	KindHeading
	KindParagraph
	KindBulletList
	KindListItem
	KindText
)

var kindNames = map[string]Kind{
	"heading":    KindHeading,
	"paragraph":  KindParagraph,
	"bulletList": KindBulletList,
	"listItem":   KindListItem,
	"text":       KindText,
}

// ParseKind maps a source type tag to a Kind.
func ParseKind(tag string) Kind {
	if k, ok := kindNames[tag]; ok {
		return k
	}
	return KindUnknown
}

// Node is a single node of the source tree.
type Node struct {
	Type    string         `json:"type"`
	Content []Node         `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Kind returns the node's kind.
func (n Node) Kind() Kind {
	return ParseKind(n.Type)
}

// HeadingLevel returns attrs.level clamped to 1..6. Missing or non-numeric
// values yield 1.
func (n Node) HeadingLevel() int {
	level := 1
	switch v := n.Attrs["level"].(type) {
	case float64:
		level = int(v)
	case int:
		level = v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			level = int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			level = i
		}
	}
	return max(1, min(level, 6))
}

// Doc is the root of a source tree.
type Doc struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// DocType is the only accepted root type.
const DocType = "doc"

// Valid reports whether d is a renderable document.
func (d *Doc) Valid() bool {
	return d != nil && d.Type == DocType && d.Content != nil
}
