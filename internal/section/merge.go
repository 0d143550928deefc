package section

import (
	"fmt"
	"regexp"
	"strings"
)

// Level returns the number of leading '#' characters of a heading line.
// Zero means the line is not a heading.
func Level(heading string) int {
	return len(heading) - len(strings.TrimLeft(heading, "#"))
}

// Find locates the section introduced by heading in text. The returned span
// covers the heading line and its body, up to (not including) the next
// heading of the same or a shallower level, or the end of text.
// Headings without leading '#' match an exact line and run to end of text.
func Find(text, heading string) (start, end int, ok bool) {
	heading = strings.TrimSpace(heading)
	if heading == "" {
		return 0, 0, false
	}
	headRe := regexp.MustCompile(`(?m)^` + EscapePattern(heading) + `[ \t]*\r?$`)
	loc := headRe.FindStringIndex(text)
	if loc == nil {
		return 0, 0, false
	}
	start = loc[0]
	bodyStart := loc[1]
	if bodyStart < len(text) && text[bodyStart] == '\n' {
		bodyStart++
	}

	end = len(text)
	if level := Level(heading); level > 0 {
		boundary := regexp.MustCompile(fmt.Sprintf(`(?m)^#{1,%d}(?:[ \t]|\r?$)`, level))
		if b := boundary.FindStringIndex(text[bodyStart:]); b != nil {
			end = bodyStart + b[0]
		}
	}
	return start, end, true
}

// Merge returns existing with the section under heading replaced by body,
// or with the section appended when it is absent. Applying Merge twice with
// the same heading and body yields the same text as applying it once.
//
// Headings inside body that would close the section are confined first,
// see Confine.
func Merge(existing, heading, body string) string {
	heading = strings.TrimSpace(heading)
	body = strings.TrimSpace(body)

	if heading == "" {
		return appendBlock(existing, body)
	}
	body = Confine(body, Level(heading))

	block := heading + "\n"
	if body != "" {
		block += body + "\n"
	}

	start, end, ok := Find(existing, heading)
	if !ok {
		return appendBlock(existing, strings.TrimSuffix(block, "\n"))
	}
	if end < len(existing) {
		// Keep one blank line before the following heading.
		block += "\n"
	}
	return existing[:start] + block + existing[end:]
}

// Confine rewrites the headings in body so none of them ends a section of
// the given level. Headings shift down until the shallowest sits at
// level+1 and are capped at 6. Under a level-6 section there is no deeper
// level, so headings are escaped with a backslash. Level 0 leaves body
// unchanged.
func Confine(body string, level int) string {
	if level <= 0 {
		return body
	}
	lines := strings.Split(body, "\n")
	shallowest := 0
	for _, l := range lines {
		if n := headingLevel(l); n > 0 && (shallowest == 0 || n < shallowest) {
			shallowest = n
		}
	}
	if shallowest == 0 || shallowest > level {
		return body
	}
	shift := level + 1 - shallowest
	for i, l := range lines {
		n := headingLevel(l)
		switch {
		case n == 0:
		case n+shift <= 6:
			lines[i] = strings.Repeat("#", n+shift) + l[n:]
		case level >= 6:
			lines[i] = `\` + l
		default:
			lines[i] = "######" + l[n:]
		}
	}
	return strings.Join(lines, "\n")
}

// headingLevel returns the level of a line that would act as a section
// boundary: 1 to 6 '#' followed by a blank, a CR or the end of the line.
func headingLevel(line string) int {
	n := len(line) - len(strings.TrimLeft(line, "#"))
	if n == 0 || n > 6 {
		return 0
	}
	if len(line) > n && line[n] != ' ' && line[n] != '\t' && line[n] != '\r' {
		return 0
	}
	return n
}

// appendBlock adds block after existing, which is kept byte for byte.
// Newlines are added only as needed to leave one blank line in between.
// Whitespace-only text is replaced by the block.
func appendBlock(existing, block string) string {
	if block == "" {
		return existing
	}
	if strings.TrimSpace(existing) == "" {
		return block + "\n"
	}
	trailing := len(existing) - len(strings.TrimRight(existing, "\n"))
	return existing + strings.Repeat("\n", max(0, 2-trailing)) + block + "\n"
}
