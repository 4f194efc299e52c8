package present

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/starford/brainboard/internal/citation"
	"github.com/starford/brainboard/internal/models"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		// Raw HTML in note bodies is not rendered; goldmark omits it unless
		// html.WithUnsafe is set.
		markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdown
}

// BodyHTML renders a note body as GitHub-flavoured Markdown.
func BodyHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer().Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("present: render markdown: %w", err)
	}
	return buf.String(), nil
}

// NoteHref is the link target of a note.
func NoteHref(id string) string {
	return "/notes/" + url.PathEscape(id)
}

// AnswerHTML renders a search answer as escaped HTML where every marker is a
// numbered link to its note, titled with the cited snippet. Numbers match
// those of Answer.
func AnswerHTML(res models.SearchResult) string {
	numbers := referenceNumbers(res)
	var b strings.Builder
	for _, seg := range citation.Split(res.Answer) {
		if !seg.IsCitation() {
			b.WriteString(html.EscapeString(seg.Text))
			continue
		}
		fmt.Fprintf(&b, `<a class="citation" href="%s"`, html.EscapeString(NoteHref(seg.NoteID)))
		if c, ok := citation.Lookup(res, seg.NoteID); ok {
			fmt.Fprintf(&b, ` title="%s"`, html.EscapeString(c.Snippet))
		}
		fmt.Fprintf(&b, ">%s</a>", reference(numbers, seg.NoteID))
	}
	return b.String()
}
