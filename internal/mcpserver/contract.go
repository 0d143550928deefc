package mcpserver

// OutputFormatURI identifies the output format resource.
const OutputFormatURI = "granola-sync://output-format"

// OutputFormat describes the Markdown files granola-sync writes into the
// vault, so LLM consumers can read and edit them without breaking
// the next sync.
const OutputFormat = `# granola-sync Output Format

Synced meeting notes land in the vault in one of three layouts, selected by
` + "`sync.mode`" + `.

## Standalone notes (flat, daily_folder)

One file per document, named after the sanitized title
(` + "`<>:\"/\\|?*`" + ` removed, whitespace runs become ` + "`_`" + `, at most 200 characters).
When another document already owns the name, the document id is appended:
` + "`<title>_<id>.md`" + `.

` + "```" + `markdown
---
id: 0f1e2d3c
title: "Weekly standup"
created_at: 2024-03-05T10:00:00Z
updated_at: 2024-03-05T11:00:00Z
---

# Weekly standup

- Shipped the importer
` + "```" + `

- ` + "`id`" + ` is the Granola document id. It is how the sync recognises its own files.
- ` + "`title`" + ` is always a YAML double-quoted string so backslashes and quotes survive a round trip.
- Timestamps are copied verbatim and omitted when unknown.

## Daily notes (daily_note)

Documents are merged into the daily note for their date under a configured
section heading (default ` + "`## Granola Notes`" + `). The section runs until the next
heading of the same or a shallower level. Everything outside it is left
untouched, and re-running the sync replaces the section in place.

` + "```" + `markdown
## Granola Notes

### Weekly standup
**ID:** 0f1e2d3c
**Created:** 2024-03-05T10:00:00Z

#### Agenda

- Shipped the importer
` + "```" + `

Headings inside a document body are demoted below the entry heading, so
they never end the section early. Edits made inside the section are
overwritten on the next sync; write below the next heading instead.

## Transcripts

With ` + "`sync.transcripts`" + ` enabled, ` + "`<title>-transcript.md`" + ` is written next to the
flat notes. Consecutive utterances from the same speaker are grouped:

` + "```" + `markdown
# Transcript for: Weekly standup

## Me (2024-03-05T10:00:01Z)

Morning everyone. Let's start.

## Them (2024-03-05T10:00:09Z)

Sounds good.
` + "```" + `
`
