// Package route decides where a rendered document is written.
//
// Dates are resolved in UTC: "2024-03-05T23:30:00-05:00" lands on
// 2024-03-06 regardless of the host's local zone.
package route

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// Mode selects the routing policy. Exactly one mode is active at a time.
type Mode string

const (
	// ModeFlat writes every document into one folder.
	ModeFlat Mode = "flat"
	// ModeDailyNote merges documents into the daily note for their date.
	ModeDailyNote Mode = "daily_note"
	// ModeDailyFolder writes documents into a folder derived from their date.
	ModeDailyFolder Mode = "daily_folder"
)

// Modes lists every valid mode.
var Modes = []Mode{ModeFlat, ModeDailyNote, ModeDailyFolder}

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("route: unknown mode %q", s)
}

// Decision is the outcome of routing one document. It is one of FlatFolder,
// DailyNote or DateFolder.
type Decision interface {
	decision()
}

// FlatFolder places the document in Path.
type FlatFolder struct{ Path string }

// DailyNote merges the document into the daily note for DateKey (YYYY-MM-DD).
type DailyNote struct{ DateKey string }

// DateFolder places the document in a date-derived Path.
type DateFolder struct{ Path string }

func (FlatFolder) decision() {}
func (DailyNote) decision()  {}
func (DateFolder) decision() {}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are
// taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ResolveTime returns the first present, parseable candidate, or now.
func ResolveTime(candidates []string, now time.Time) time.Time {
	for _, c := range candidates {
		if t, ok := ParseTimestamp(c); ok {
			return t
		}
	}
	return now.UTC()
}

// DateKey formats t as YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Route computes the destination for a document with the given timestamp
// candidates, in priority order (created, then updated).
func Route(candidates []string, mode Mode, dateFormat, baseFolder string, now time.Time) Decision {
	switch mode {
	case ModeDailyNote:
		return DailyNote{DateKey: DateKey(ResolveTime(candidates, now))}
	case ModeDailyFolder:
		formatted := FormatDate(ResolveTime(candidates, now), dateFormat)
		return DateFolder{Path: FolderFor(baseFolder, formatted)}
	default:
		return FlatFolder{Path: NormalizePath(baseFolder)}
	}
}

// FolderFor drops the file-name component of a formatted date path and joins
// the remaining segments onto base.
func FolderFor(base, formatted string) string {
	i := strings.LastIndex(formatted, "/")
	if i < 0 {
		return NormalizePath(base)
	}
	return NormalizePath(path.Join(base, formatted[:i]))
}

// NormalizePath cleans a vault-relative path: forward slashes, no leading or
// trailing separators, "" for the vault root.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(path.Clean("/"+p), "/")
	return p
}
