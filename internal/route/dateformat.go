package route

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat is the date-key format used for daily notes.
const DefaultDateFormat = "YYYY-MM-DD"

// Tokens are matched longest first.
var dateTokens = []struct {
	token  string
	format func(time.Time) string
}{
	{"YYYY", func(t time.Time) string { return pad(t.Year(), 4) }},
	{"YY", func(t time.Time) string { return pad(t.Year()%100, 2) }},
	{"MMMM", func(t time.Time) string { return t.Month().String() }},
	{"MMM", func(t time.Time) string { return t.Month().String()[:3] }},
	{"MM", func(t time.Time) string { return pad(int(t.Month()), 2) }},
	{"M", func(t time.Time) string { return strconv.Itoa(int(t.Month())) }},
	{"DD", func(t time.Time) string { return pad(t.Day(), 2) }},
	{"D", func(t time.Time) string { return strconv.Itoa(t.Day()) }},
	{"dddd", func(t time.Time) string { return t.Weekday().String() }},
	{"ddd", func(t time.Time) string { return t.Weekday().String()[:3] }},
	{"HH", func(t time.Time) string { return pad(t.Hour(), 2) }},
	{"H", func(t time.Time) string { return strconv.Itoa(t.Hour()) }},
	{"mm", func(t time.Time) string { return pad(t.Minute(), 2) }},
	{"ss", func(t time.Time) string { return pad(t.Second(), 2) }},
}

// FormatDate formats t with a moment.js-style pattern such as "YYYY/MM/DD"
// or "YYYY-MM-DD [Meeting]". Text in square brackets is copied literally;
// unknown characters pass through. An empty format means DefaultDateFormat.
func FormatDate(t time.Time, format string) string {
	if format == "" {
		format = DefaultDateFormat
	}
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			if j := strings.IndexByte(format[i+1:], ']'); j >= 0 {
				b.WriteString(format[i+1 : i+1+j])
				i += j + 2
				continue
			}
		}
		matched := false
		for _, tok := range dateTokens {
			if strings.HasPrefix(format[i:], tok.token) {
				b.WriteString(tok.format(t))
				i += len(tok.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

func pad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
