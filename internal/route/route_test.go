package route

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)

func TestRoute_DailyNoteUsesCreatedAt(t *testing.T) {
	d := Route([]string{"2024-03-05T10:00:00Z", "2024-04-01T00:00:00Z"}, ModeDailyNote, "", "", fixedNow)
	dn, ok := d.(DailyNote)
	if !ok {
		t.Fatalf("decision = %T, want DailyNote", d)
	}
	if dn.DateKey != "2024-03-05" {
		t.Errorf("date key = %q", dn.DateKey)
	}
}

func TestRoute_DailyNoteIsUTC(t *testing.T) {
	d := Route([]string{"2024-03-05T23:30:00-05:00"}, ModeDailyNote, "", "", fixedNow)
	if got := d.(DailyNote).DateKey; got != "2024-03-06" {
		t.Errorf("date key = %q, want 2024-03-06", got)
	}
}

func TestRoute_FallsBackToUpdatedThenNow(t *testing.T) {
	d := Route([]string{"", "2024-01-02T03:04:05.123Z"}, ModeDailyNote, "", "", fixedNow)
	if got := d.(DailyNote).DateKey; got != "2024-01-02" {
		t.Errorf("updated fallback = %q", got)
	}
	d = Route([]string{"", ""}, ModeDailyNote, "", "", fixedNow)
	if got := d.(DailyNote).DateKey; got != "2025-07-14" {
		t.Errorf("now fallback = %q", got)
	}
	d = Route(nil, ModeDailyNote, "", "", fixedNow)
	if got := d.(DailyNote).DateKey; got != "2025-07-14" {
		t.Errorf("nil candidates = %q", got)
	}
}

func TestRoute_UnparseableCandidateSkipped(t *testing.T) {
	d := Route([]string{"yesterday", "2023-12-31"}, ModeDailyNote, "", "", fixedNow)
	if got := d.(DailyNote).DateKey; got != "2023-12-31" {
		t.Errorf("date key = %q", got)
	}
}

func TestRoute_FlatIgnoresDate(t *testing.T) {
	for _, c := range [][]string{{"2020-01-01"}, {"2030-06-06T00:00:00Z"}, nil} {
		d := Route(c, ModeFlat, "YYYY/MM/DD", "Granola/", fixedNow)
		ff, ok := d.(FlatFolder)
		if !ok {
			t.Fatalf("decision = %T", d)
		}
		if ff.Path != "Granola" {
			t.Errorf("path = %q", ff.Path)
		}
	}
}

func TestRoute_DailyFolderStructure(t *testing.T) {
	cases := []struct {
		format, base, want string
	}{
		{"YYYY/MM/DD", "Daily", "Daily/2024/03"},
		{"YYYY/MMMM/YYYY-MM-DD", "Journal", "Journal/2024/March"},
		{"YYYY-MM-DD", "Daily", "Daily"},
		{"YYYY-MM-DD", "", ""},
		{"YYYY/MM/DD", "", "2024/03"},
		{"", "Notes", "Notes"},
	}
	for _, c := range cases {
		d := Route([]string{"2024-03-05T10:00:00Z"}, ModeDailyFolder, c.format, c.base, fixedNow)
		df, ok := d.(DateFolder)
		if !ok {
			t.Fatalf("decision = %T", d)
		}
		if df.Path != c.want {
			t.Errorf("format %q base %q: path = %q, want %q", c.format, c.base, df.Path, c.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range Modes {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %q, %v", m, got, err)
		}
	}
	if _, err := ParseMode("both"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"/":            "",
		"Granola/":     "Granola",
		"a//b/../c":    "a/c",
		`win\path\dir`: "win/path/dir",
		"/abs/x":       "abs/x",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
