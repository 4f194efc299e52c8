package schema

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/brainboard/internal/models"
)

// Request schemas describe what the backend accepts. The client sends typed
// structs; these are used to check a request body as it arrives on the wire.
var (
	CreateNoteRequest = New("CreateNoteRequest", func(value any) models.CreateNoteRequest {
		m := value.(map[string]any)
		return models.CreateNoteRequest{Title: optString(m["title"]), Body: m["body"].(string)}
	}, Object(
		validation.Key("title", Nullable(String)).Optional(),
		validation.Key("body", String),
	))

	EmbedNoteRequest = New("EmbedNoteRequest", func(value any) models.EmbedNoteRequest {
		m := value.(map[string]any)
		meta, _ := m["meta"].(map[string]any)
		return models.EmbedNoteRequest{
			NoteID: m["note_id"].(string),
			Text:   m["text"].(string),
			Meta:   meta,
		}
	}, Object(
		validation.Key("note_id", ID),
		validation.Key("text", String),
		validation.Key("meta", Nullable(AnyObject)).Optional(),
	))

	ExtractTasksRequest = New("ExtractTasksRequest", func(value any) models.ExtractTasksRequest {
		m := value.(map[string]any)
		return models.ExtractTasksRequest{
			Text:         m["text"].(string),
			SourceNoteID: optString(m["source_note_id"]),
		}
	}, Object(
		validation.Key("text", String),
		validation.Key("source_note_id", Nullable(ID)).Optional(),
	))

	UpdateTaskRequest = New("UpdateTaskRequest", func(value any) models.UpdateTaskRequest {
		m := value.(map[string]any)
		return models.UpdateTaskRequest{Completed: optBool(m["completed"])}
	}, Object(
		validation.Key("completed", Nullable(Bool)).Optional(),
	))

	SearchRequest = New("SearchRequest", func(value any) models.SearchRequest {
		m := value.(map[string]any)
		req := models.SearchRequest{Query: m["query"].(string)}
		if raw, ok := m["k"]; ok && raw != nil {
			k := integer(raw)
			req.K = &k
		}
		return req
	}, Object(
		validation.Key("query", String),
		validation.Key("k", Nullable(Integer)).Optional(),
	))

	SummarizeRequest = New("SummarizeRequest", func(value any) models.SummarizeRequest {
		m := value.(map[string]any)
		return models.SummarizeRequest{Text: m["text"].(string)}
	}, Object(
		validation.Key("text", String),
	))
)
