package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Pagination defaults used by the dashboard views.
const (
	DefaultNotesLimit = 20
	DefaultTasksLimit = 50
)

// ListNotesParams selects a page of notes.
type ListNotesParams struct {
	Skip  int
	Limit int
}

// Validate validates the pagination parameters.
func (p *ListNotesParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Skip, validation.Min(0)),
		validation.Field(&p.Limit, validation.Min(0)),
	)
}

// ListTasksParams selects a page of tasks, optionally filtered by completion.
type ListTasksParams struct {
	Completed *bool
	Limit     int
	Offset    int
}

// Validate validates the pagination parameters.
func (p *ListTasksParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Limit, validation.Min(0)),
		validation.Field(&p.Offset, validation.Min(0)),
	)
}

// CreateNoteRequest is the body of POST /notes.
type CreateNoteRequest struct {
	Title *string `json:"title,omitempty"`
	Body  string  `json:"body"`
}

// Validate validates the request.
func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Body, validation.Required),
	)
}

// EmbedNoteRequest is the body of POST /notes/embed.
type EmbedNoteRequest struct {
	NoteID string         `json:"note_id"`
	Text   string         `json:"text"`
	Meta   map[string]any `json:"meta"`
}

// Validate validates the request.
func (r *EmbedNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.NoteID, validation.Required, CanonicalID),
		validation.Field(&r.Text, validation.Required),
	)
}

// ExtractTasksRequest is the body of POST /tasks/extract.
type ExtractTasksRequest struct {
	Text         string  `json:"text"`
	SourceNoteID *string `json:"source_note_id,omitempty"`
}

// Validate validates the request.
func (r *ExtractTasksRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.SourceNoteID, validation.NilOrNotEmpty, CanonicalID),
	)
}

// UpdateTaskRequest is the body of PATCH /tasks/{id}. Only supplied fields change.
type UpdateTaskRequest struct {
	Completed *bool `json:"completed,omitempty"`
}

// SearchRequest is the body of POST /search/query. K is left to the backend when nil.
type SearchRequest struct {
	Query string `json:"query"`
	K     *int   `json:"k,omitempty"`
}

// Validate validates the request.
func (r *SearchRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Query, validation.Required),
		validation.Field(&r.K, validation.NilOrNotEmpty, validation.Min(1)),
	)
}

// SummarizeRequest is the body of POST /summarize.
type SummarizeRequest struct {
	Text string `json:"text"`
}

// Validate validates the request.
func (r *SummarizeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Required),
	)
}
