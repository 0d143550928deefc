package notefmt

import (
	"regexp"
	"strings"
)

const maxFilenameRunes = 200

var (
	invalidFilenameRe = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a document title into a file name stem: characters
// invalid on common file systems are dropped, whitespace runs become "_",
// and the result is capped at 200 runes.
func SanitizeFilename(title string) string {
	name := invalidFilenameRe.ReplaceAllString(title, "")
	name = whitespaceRe.ReplaceAllString(strings.TrimSpace(name), "_")
	if r := []rune(name); len(r) > maxFilenameRunes {
		name = string(r[:maxFilenameRunes])
	}
	if name == "" || strings.Trim(name, ".") == "" {
		return "Untitled"
	}
	return name
}
