package notefmt

import (
	"strings"
	"testing"

	"github.com/starford/granola-sync/internal/section"
)

func TestStandalone(t *testing.T) {
	got := Standalone(Meta{
		ID:        "abc",
		Title:     `Plan "Q3"`,
		CreatedAt: "2024-03-05T10:00:00Z",
	}, "# Title\n\nHello")
	want := "---\nid: abc\ntitle: \"Plan \\\"Q3\\\"\"\ncreated_at: 2024-03-05T10:00:00Z\n---\n\n# Title\n\nHello"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStandalone_BothTimestamps(t *testing.T) {
	got := Standalone(Meta{ID: "x", Title: "T", CreatedAt: "c", UpdatedAt: "u"}, "")
	if !strings.Contains(got, "created_at: c\nupdated_at: u\n---\n\n") {
		t.Errorf("got %q", got)
	}
}

func TestStandalone_TitleEscaping(t *testing.T) {
	cases := []struct{ title, want string }{
		{`Budget\Q3`, `"Budget\\Q3"`},
		{`say "hi"`, `"say \"hi\""`},
		{"line\nbreak", `"line\nbreak"`},
		{"tab\there", `"tab\there"`},
		{`C:\"dir"\`, `"C:\\\"dir\"\\"`},
	}
	for _, c := range cases {
		got := Standalone(Meta{ID: "x", Title: c.title}, "")
		if !strings.Contains(got, "\ntitle: "+c.want+"\n") {
			t.Errorf("title %q rendered as %q, want %s", c.title, got, c.want)
		}
	}
}

func TestDailySection(t *testing.T) {
	got := DailySection(2, []DailyEntry{
		{Meta: Meta{ID: "1", Title: "Standup", CreatedAt: "2024-03-05T09:00:00Z"}, Body: "# Agenda\n\n- a"},
		{Meta: Meta{ID: "2", Title: "Retro"}, Body: ""},
	})
	want := "### Standup\n**ID:** 1\n**Created:** 2024-03-05T09:00:00Z\n\n#### Agenda\n\n- a\n\n### Retro\n**ID:** 2"
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestDailySection_MergeIsIdempotent(t *testing.T) {
	body := DailySection(2, []DailyEntry{
		{Meta: Meta{ID: "1", Title: "Standup"}, Body: "# Top\n\n## Sub\n\ntext"},
	})
	daily := "# 2024-03-05\n\n## Tasks\n- [ ] x\n"
	once := section.Merge(daily, "## Granola Notes", body)
	twice := section.Merge(once, "## Granola Notes", body)
	if once != twice {
		t.Errorf("merge grew:\n%q\n%q", once, twice)
	}
	if !strings.HasPrefix(once, daily) {
		t.Errorf("existing content changed: %q", once)
	}
}

func TestDemoteHeadings(t *testing.T) {
	cases := []struct {
		in   string
		min  int
		want string
	}{
		{"# A\ntext\n## B", 4, "#### A\ntext\n##### B"},
		{"#### A", 4, "#### A"},
		{"##### A\n# B", 3, "###### A\n### B"},
		{"no headings", 4, "no headings"},
		{"#hashtag\n# Real", 2, "#hashtag\n## Real"},
	}
	for _, c := range cases {
		if got := DemoteHeadings(c.in, c.min); got != c.want {
			t.Errorf("DemoteHeadings(%q, %d) = %q, want %q", c.in, c.min, got, c.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"test/file:name*with?invalid<chars>": "testfilenamewithinvalidchars",
		"Weekly  team   sync":                "Weekly_team_sync",
		`  "quoted"  `:                       "quoted",
		"":                                   "Untitled",
		"???":                                "Untitled",
		"..":                                 "Untitled",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
	long := SanitizeFilename(strings.Repeat("é", 250))
	if n := len([]rune(long)); n != 200 {
		t.Errorf("long name has %d runes", n)
	}
}
