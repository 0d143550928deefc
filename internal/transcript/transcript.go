// Package transcript renders meeting transcripts grouped into speaker turns.
package transcript

import (
	"strings"

	"github.com/starford/granola-sync/internal/granola"
)

// Speakers maps transcript source identifiers (e.g. "microphone") to labels.
// Sources without an entry use Default.
type Speakers struct {
	Labels  map[string]string
	Default string
}

// Label returns the speaker label for source.
func (s Speakers) Label(source string) string {
	if l, ok := s.Labels[source]; ok && l != "" {
		return l
	}
	if s.Default != "" {
		return s.Default
	}
	if source != "" {
		return source
	}
	return "Unknown"
}

// Turn is a contiguous run of entries from one speaker.
type Turn struct {
	Speaker string
	Start   string
	Texts   []string
}

// Group splits entries into speaker turns, preserving order.
func Group(entries []granola.TranscriptEntry, speakers Speakers) []Turn {
	var turns []Turn
	for _, e := range entries {
		label := speakers.Label(e.Source)
		if n := len(turns); n > 0 && turns[n-1].Speaker == label {
			turns[n-1].Texts = append(turns[n-1].Texts, e.Text)
			continue
		}
		turns = append(turns, Turn{Speaker: label, Start: e.StartTimestamp, Texts: []string{e.Text}})
	}
	return turns
}

// Format renders a transcript file body.
func Format(title string, entries []granola.TranscriptEntry, speakers Speakers) string {
	var b strings.Builder
	b.WriteString("# Transcript for: " + title + "\n\n")
	for _, t := range Group(entries, speakers) {
		b.WriteString("## " + t.Speaker + " (" + t.Start + ")\n\n")
		b.WriteString(strings.Join(t.Texts, " ") + "\n\n")
	}
	return b.String()
}
