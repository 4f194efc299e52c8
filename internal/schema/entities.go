package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/brainboard/internal/models"
)

func noteKeys() []*validation.KeyRules {
	return []*validation.KeyRules{
		validation.Key("id", ID),
		validation.Key("title", Nullable(String)).Optional(),
		validation.Key("body", String),
		validation.Key("created_at", String),
		validation.Key("updated_at", String),
	}
}

var taskRules = Object(
	validation.Key("description", String),
	validation.Key("due_date", Nullable(String)).Optional(),
	validation.Key("owner", Nullable(String)).Optional(),
	validation.Key("source_note_id", Nullable(ID)).Optional(),
	validation.Key("completed", Nullable(Bool)).Optional(),
)

var linkRules = Object(
	validation.Key("source_note", ID),
	validation.Key("target_note", ID),
	validation.Key("similarity", Number),
)

var citationRules = Object(
	validation.Key("note_id", ID),
	validation.Key("snippet", String),
)

var (
	// Note matches a NoteOut payload.
	Note = New("Note", buildNote, Object(noteKeys()...))

	// NoteDetail matches a NoteDetailOut payload, a note plus tasks and links.
	NoteDetail = New("NoteDetail", buildNoteDetail, Object(append(noteKeys(),
		validation.Key("tasks", Array(taskRules)),
		validation.Key("related_links", Array(linkRules)),
	)...))

	Task     = New("Task", buildTask, taskRules)
	Link     = New("Link", buildLink, linkRules)
	Citation = New("Citation", buildCitation, citationRules)

	NoteList = ListOf(Note)
	TaskList = ListOf(Task)

	TaskExtraction = New("TaskExtraction", func(value any) models.TaskExtraction {
		m := value.(map[string]any)
		return models.TaskExtraction{Tasks: TaskList.build(m["tasks"])}
	}, Object(validation.Key("tasks", Array(taskRules))))

	SearchResult = New("SearchResult", func(value any) models.SearchResult {
		m := value.(map[string]any)
		raw := m["citations"].([]any)
		citations := make([]models.Citation, len(raw))
		for i, c := range raw {
			citations[i] = buildCitation(c)
		}
		return models.SearchResult{Answer: m["answer"].(string), Citations: citations}
	}, Object(
		validation.Key("answer", String),
		validation.Key("citations", Array(citationRules)),
	))

	SummaryResult = New("SummaryResult", func(value any) models.SummaryResult {
		m := value.(map[string]any)
		return models.SummaryResult{
			Summary:     m["summary"].(string),
			Highlights:  stringList(m["highlights"]),
			Decisions:   stringList(m["decisions"]),
			ActionItems: stringList(m["action_items"]),
		}
	}, Object(
		validation.Key("summary", String),
		validation.Key("highlights", Array(String)),
		validation.Key("decisions", Array(String)),
		validation.Key("action_items", Array(String)),
	))

	EmbedResult = New("EmbedResult", func(value any) models.EmbedResult {
		m := value.(map[string]any)
		return models.EmbedResult{
			ChunksIndexed: integer(m["chunks_indexed"]),
			Links:         links(m["links"]),
		}
	}, Object(
		validation.Key("chunks_indexed", Integer),
		validation.Key("links", Array(linkRules)),
	))

	Health = New("Health", func(value any) models.Health {
		m := value.(map[string]any)
		h := models.Health{Status: m["status"].(string)}
		if services, ok := m["services"].(map[string]any); ok {
			h.Services = make(map[string]string, len(services))
			for k, v := range services {
				h.Services[k] = v.(string)
			}
		}
		return h
	}, Object(
		validation.Key("status", String),
		validation.Key("services", Nullable(StringMap)).Optional(),
	))
)

func buildNote(value any) models.Note {
	m := value.(map[string]any)
	return models.Note{
		ID:        m["id"].(string),
		Title:     optString(m["title"]),
		Body:      m["body"].(string),
		CreatedAt: m["created_at"].(string),
		UpdatedAt: m["updated_at"].(string),
	}
}

func buildNoteDetail(value any) models.NoteDetail {
	m := value.(map[string]any)
	return models.NoteDetail{
		Note:         buildNote(value),
		Tasks:        TaskList.build(m["tasks"]),
		RelatedLinks: links(m["related_links"]),
	}
}

func buildTask(value any) models.Task {
	m := value.(map[string]any)
	completed, _ := m["completed"].(bool)
	return models.Task{
		Description:  m["description"].(string),
		DueDate:      optString(m["due_date"]),
		Owner:        optString(m["owner"]),
		SourceNoteID: optString(m["source_note_id"]),
		Completed:    completed,
	}
}

func buildLink(value any) models.Link {
	m := value.(map[string]any)
	similarity, _ := toFloat(m["similarity"])
	return models.Link{
		SourceNote: m["source_note"].(string),
		TargetNote: m["target_note"].(string),
		Similarity: similarity,
	}
}

func buildCitation(value any) models.Citation {
	m := value.(map[string]any)
	return models.Citation{NoteID: m["note_id"].(string), Snippet: m["snippet"].(string)}
}

func links(value any) []models.Link {
	raw, _ := value.([]any)
	out := make([]models.Link, len(raw))
	for i, v := range raw {
		out[i] = buildLink(v)
	}
	return out
}

func stringList(value any) []string {
	raw, _ := value.([]any)
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = v.(string)
	}
	return out
}

func optString(value any) *string {
	if s, ok := value.(string); ok {
		return &s
	}
	return nil
}

func optBool(value any) *bool {
	if b, ok := value.(bool); ok {
		return &b
	}
	return nil
}

func integer(value any) int {
	f, _ := toFloat(value)
	return int(f)
}
