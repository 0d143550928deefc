// Package parser reads the frontmatter of Markdown notes already in the vault.
package parser

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Result holds the frontmatter of a Markdown file.
type Result struct {
	Frontmatter map[string]any
}

// ID returns the frontmatter "id" of the note, or "" when absent.
func (r *Result) ID() string {
	if r == nil || r.Frontmatter == nil {
		return ""
	}
	switch v := r.Frontmatter["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Parse decodes the YAML frontmatter of raw Markdown. Missing, unclosed or
// invalid frontmatter is not an error: the result is empty.
func Parse(data []byte) (*Result, error) {
	return &Result{Frontmatter: frontmatter(data)}, nil
}

// frontmatter decodes the YAML block between leading --- delimiters.
func frontmatter(data []byte) map[string]any {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil
	}
	return fm
}
