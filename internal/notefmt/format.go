// Package notefmt builds the Markdown files written into the vault.
package notefmt

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Meta identifies the source document of a note.
type Meta struct {
	ID        string
	Title     string
	CreatedAt string
	UpdatedAt string
}

// Standalone builds a note file: a frontmatter block followed by the
// rendered body.
func Standalone(m Meta, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", m.ID)
	fmt.Fprintf(&b, "title: %s\n", quote(m.Title))
	if m.CreatedAt != "" {
		fmt.Fprintf(&b, "created_at: %s\n", m.CreatedAt)
	}
	if m.UpdatedAt != "" {
		fmt.Fprintf(&b, "updated_at: %s\n", m.UpdatedAt)
	}
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}

// quote renders s as a single-line YAML double-quoted scalar, escaping
// backslashes, quotes and control characters.
func quote(s string) string {
	out, err := yaml.Marshal(&yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Value: s})
	q := strings.TrimSuffix(string(out), "\n")
	if err != nil || strings.Contains(q, "\n") {
		// Go escapes are a subset of YAML double-quoted escapes.
		return strconv.Quote(s)
	}
	return q
}

// DailyEntry is one document contributing to a daily-note section.
type DailyEntry struct {
	Meta
	Body string
}

// DailySection builds the section body (without the section heading) for
// the documents merged into one daily note. Headings inside each body are
// pushed below sectionLevel+1 so they cannot end the section early.
func DailySection(sectionLevel int, entries []DailyEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### %s\n", e.Title)
		fmt.Fprintf(&b, "**ID:** %s\n", e.ID)
		if e.CreatedAt != "" {
			fmt.Fprintf(&b, "**Created:** %s\n", e.CreatedAt)
		}
		if e.UpdatedAt != "" {
			fmt.Fprintf(&b, "**Updated:** %s\n", e.UpdatedAt)
		}
		if body := strings.TrimSpace(e.Body); body != "" {
			b.WriteString("\n")
			b.WriteString(DemoteHeadings(body, max(sectionLevel, 3)+1))
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// DemoteHeadings shifts Markdown headings in text so the shallowest one sits
// at minLevel. Levels are capped at 6; text without headings is unchanged.
func DemoteHeadings(text string, minLevel int) string {
	lines := strings.Split(text, "\n")
	shallowest := 0
	for _, l := range lines {
		if lvl := headingLevel(l); lvl > 0 && (shallowest == 0 || lvl < shallowest) {
			shallowest = lvl
		}
	}
	shift := minLevel - shallowest
	if shallowest == 0 || shift <= 0 {
		return text
	}
	for i, l := range lines {
		lvl := headingLevel(l)
		if lvl == 0 {
			continue
		}
		lines[i] = strings.Repeat("#", min(lvl+shift, 6)) + l[lvl:]
	}
	return strings.Join(lines, "\n")
}

func headingLevel(line string) int {
	n := len(line) - len(strings.TrimLeft(line, "#"))
	if n == 0 || n > 6 {
		return 0
	}
	if len(line) > n && line[n] != ' ' && line[n] != '\t' {
		return 0
	}
	return n
}
