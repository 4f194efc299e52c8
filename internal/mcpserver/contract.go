package mcpserver

// NoteFormatGuide describes how note content passed to create_note is
// interpreted before it reaches the backend.
const NoteFormatGuide = `# Brainboard Note Format

Notes are plain Markdown. Content passed to ` + "`create_note`" + ` is parsed, created,
embedded for search and scanned for action items.

## Structure

` + "```" + `markdown
---
title: Weekly sync            # OPTIONAL - otherwise the first "# " heading, else untitled
tags:                         # OPTIONAL - stored with the embedding
  - meetings
owner: Dana                   # OPTIONAL - any other key is stored with the embedding
---

Body text in standard Markdown. Inline #tags are collected too.

TODO: book the room           # one task per TODO line
` + "```" + `

## Rules

1. The frontmatter block is optional. When present it must be first.
2. Untitled notes are shown by their first body line.
3. Each line starting with ` + "`TODO:`" + ` becomes a task linked to the note.
4. Search answers cite notes as ` + "`[note_id:<id>]`" + `; use ` + "`get_note`" + ` to read a cited note.
`
