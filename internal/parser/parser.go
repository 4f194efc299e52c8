// Package parser turns inbox files into note documents: title, body, tags
// and extra frontmatter fields.
package parser

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Document is a note ready to be ingested.
type Document struct {
	// Title is empty when the file has none; the backend then shows the
	// first body line.
	Title string
	Body  string
	Tags  []string
	// Links are [[wikilink]] targets, deduplicated, aliases removed.
	Links []string
	// Meta holds frontmatter keys other than title and tags.
	Meta map[string]any
}

type frontmatter struct {
	Title string         `yaml:"title"`
	Tags  []string       `yaml:"tags"`
	Extra map[string]any `yaml:",inline"`
}

// Parse reads a file by extension: .md and .markdown files may carry YAML
// frontmatter and an H1 title, anything else is plain text.
func Parse(name string, data []byte) Document {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return ParseMarkdown(data)
	default:
		return ParseText(data)
	}
}

// ParseText keeps the whole file as body, without a title.
func ParseText(data []byte) Document {
	return Document{Body: normalize(string(data))}
}

// ParseMarkdown splits off frontmatter and derives the title from it or from
// the first H1 heading. Invalid frontmatter is kept as part of the body.
func ParseMarkdown(data []byte) Document {
	fm, body, ok := splitFrontmatter(data)
	if !ok {
		body = string(data)
	}
	body = normalize(body)

	doc := Document{
		Body:  body,
		Links: extractLinks(body),
		Tags:  extractTags(body, fm.Tags),
		Title: strings.TrimSpace(fm.Title),
	}
	if doc.Title == "" {
		doc.Title = headingTitle(body)
	}
	if len(fm.Extra) > 0 {
		doc.Meta = fm.Extra
	}
	return doc
}

// splitFrontmatter separates YAML frontmatter between leading --- lines from
// the body. ok is false when there is no well-formed frontmatter.
func splitFrontmatter(data []byte) (fm frontmatter, body string, ok bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, "", false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, "", false
	}
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return frontmatter{}, "", false
	}
	after := rest[idx+1+len(delim):]
	return fm, strings.TrimLeft(string(after), "\n\r"), true
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

func extractLinks(body string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target, _, _ := strings.Cut(m[1], "|")
		target = strings.TrimSpace(target)
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

// extractTags merges frontmatter tags with inline #tags, frontmatter first.
func extractTags(body string, declared []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(tag string) {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		out = append(out, tag)
	}
	for _, t := range declared {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

func headingTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return ""
}
