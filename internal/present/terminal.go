// Package present renders validated entities for terminals and HTML.
package present

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/brainboard/internal/apperr"
	"github.com/starford/brainboard/internal/citation"
	"github.com/starford/brainboard/internal/graph"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/taskboard"
)

const previewLines = 3

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Strikethrough(true)
	refStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// NoteCard renders a note as a bordered card: title, age and a body preview.
func NoteCard(n models.Note, now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(n.DisplayTitle()))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(n.ID + " · updated " + Relative(n.UpdatedAt, now)))
	if preview := Preview(n.Body, previewLines); preview != "" {
		b.WriteString("\n\n")
		b.WriteString(preview)
	}
	return cardStyle.Render(b.String())
}

// NoteList renders notes as cards, one after another.
func NoteList(notes []models.Note, now time.Time) string {
	if len(notes) == 0 {
		return faintStyle.Render("No notes yet.")
	}
	cards := make([]string, len(notes))
	for i, n := range notes {
		cards[i] = NoteCard(n, now)
	}
	return strings.Join(cards, "\n")
}

// NoteDetail renders a full note with its tasks and related notes.
func NoteDetail(d models.NoteDetail, now time.Time) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(d.DisplayTitle()))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(fmt.Sprintf("%s · created %s · updated %s",
		d.ID, Relative(d.CreatedAt, now), Relative(d.UpdatedAt, now))))
	b.WriteString("\n\n")
	b.WriteString(d.Body)
	b.WriteString("\n")

	if len(d.Tasks) > 0 {
		b.WriteString("\n")
		b.WriteString(headingStyle.Render("Tasks"))
		b.WriteString("\n")
		for _, t := range d.Tasks {
			b.WriteString(TaskLine(t))
			b.WriteString("\n")
		}
	}
	if len(d.RelatedLinks) > 0 {
		b.WriteString("\n")
		b.WriteString(headingStyle.Render("Related notes"))
		b.WriteString("\n")
		for _, l := range d.RelatedLinks {
			other := l.TargetNote
			if other == d.ID {
				other = l.SourceNote
			}
			fmt.Fprintf(&b, "%s %s\n", refStyle.Render(fmt.Sprintf("%3.0f%%", l.Similarity*100)), other)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// TaskLine renders one task with a checkbox, owner and due date.
func TaskLine(t models.Task) string {
	box, desc := "[ ]", t.Description
	if t.Completed {
		box, desc = "[x]", doneStyle.Render(t.Description)
	}
	var meta []string
	if t.Owner != nil && *t.Owner != "" {
		meta = append(meta, "@"+*t.Owner)
	}
	if t.DueDate != nil && *t.DueDate != "" {
		meta = append(meta, "due "+FormatDate(*t.DueDate))
	}
	line := box + " " + desc
	if len(meta) > 0 {
		line += " " + faintStyle.Render(strings.Join(meta, " "))
	}
	return line
}

// TaskList renders tasks one per line.
func TaskList(tasks []models.Task) string {
	if len(tasks) == 0 {
		return faintStyle.Render("No tasks.")
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = TaskLine(t)
	}
	return strings.Join(lines, "\n")
}

// TaskBoard renders board entries with their ids; pending changes are marked.
func TaskBoard(entries []taskboard.Entry) string {
	if len(entries) == 0 {
		return faintStyle.Render("No tasks.")
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		line := faintStyle.Render(e.ID) + " " + TaskLine(e.Task)
		if e.Pending {
			line += " " + faintStyle.Render("(saving)")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Answer renders a search answer with markers replaced by numbered references
// and the cited snippets listed below. Markers without a citation render as [?].
func Answer(res models.SearchResult) string {
	numbers := referenceNumbers(res)
	var b strings.Builder
	for _, seg := range citation.Split(res.Answer) {
		if !seg.IsCitation() {
			b.WriteString(seg.Text)
			continue
		}
		b.WriteString(refStyle.Render(reference(numbers, seg.NoteID)))
	}

	if len(res.Citations) > 0 {
		b.WriteString("\n\n")
		b.WriteString(headingStyle.Render("Sources"))
		for _, c := range res.Citations {
			fmt.Fprintf(&b, "\n%s %s %s", refStyle.Render(reference(numbers, c.NoteID)),
				c.Snippet, faintStyle.Render("("+c.NoteID+")"))
		}
	}
	return b.String()
}

// Summary renders a summary with its three lists.
func Summary(s models.SummaryResult) string {
	var b strings.Builder
	b.WriteString(s.Summary)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("\n\n")
		b.WriteString(headingStyle.Render(title))
		for _, item := range items {
			b.WriteString("\n• ")
			b.WriteString(item)
		}
	}
	section("Highlights", s.Highlights)
	section("Decisions", s.Decisions)
	section("Action items", s.ActionItems)
	return b.String()
}

// Graph renders the edges of a graph as "label -- label (weight)" lines.
func Graph(g graph.Graph) string {
	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d notes, %d links", len(g.Nodes), len(g.Edges))
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "\n%s -- %s %s", labels[e.Source], labels[e.Target],
			faintStyle.Render(fmt.Sprintf("(%.2f)", e.Weight)))
	}
	return b.String()
}

// Health renders the backend status and its services in name order.
func Health(h models.Health) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("backend: " + h.Status))
	for _, name := range sortedKeys(h.Services) {
		fmt.Fprintf(&b, "\n  %s: %s", name, h.Services[name])
	}
	return b.String()
}

// Error renders the user-facing message of err.
func Error(err error) string {
	return errorStyle.Render("Error: ") + apperr.UserMessage(err)
}

// Preview returns at most lines non-empty lines of body.
func Preview(body string, lines int) string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if len(out) == lines {
			out = append(out, "…")
			break
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// referenceNumbers numbers cited notes by first appearance in the answer,
// then in the citation list.
func referenceNumbers(res models.SearchResult) map[string]int {
	numbers := make(map[string]int)
	add := func(id string) {
		if _, ok := numbers[id]; !ok {
			numbers[id] = len(numbers) + 1
		}
	}
	for _, m := range citation.Markers(res.Answer) {
		if _, ok := citation.Lookup(res, m.NoteID); ok {
			add(m.NoteID)
		}
	}
	for _, c := range res.Citations {
		add(c.NoteID)
	}
	return numbers
}

func reference(numbers map[string]int, id string) string {
	if n, ok := numbers[id]; ok {
		return fmt.Sprintf("[%d]", n)
	}
	return "[?]"
}
