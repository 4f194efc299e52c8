// Package ingest runs the upload flow for one document: create the note,
// embed it, extract its tasks and optionally summarize it.
//
// Steps run sequentially and stop at the first failure. There are no retries;
// a failed step is reported with the note created so far, if any.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/parser"
)

// Step names a stage of the pipeline.
type Step string

// Pipeline steps in order.
const (
	StepCreate    Step = "create"
	StepEmbed     Step = "embed"
	StepExtract   Step = "extract_tasks"
	StepSummarize Step = "summarize"
)

// API is the part of the backend the pipeline needs.
type API interface {
	CreateNote(ctx context.Context, req models.CreateNoteRequest) (models.Note, error)
	EmbedNote(ctx context.Context, req models.EmbedNoteRequest) (models.EmbedResult, error)
	ExtractTasks(ctx context.Context, req models.ExtractTasksRequest) (models.TaskExtraction, error)
	Summarize(ctx context.Context, req models.SummarizeRequest) (models.SummaryResult, error)
}

// Outcome is what each completed step returned.
type Outcome struct {
	Note    models.Note           `json:"note" yaml:"note"`
	Embed   models.EmbedResult    `json:"embed" yaml:"embed"`
	Tasks   []models.Task         `json:"tasks" yaml:"tasks"`
	Summary *models.SummaryResult `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// StepError reports the step that failed. Note is set when the note was
// already created.
type StepError struct {
	Step Step
	Note *models.Note
	Err  error
}

func (e *StepError) Error() string {
	if e.Note != nil {
		return fmt.Sprintf("ingest: %s (note %s): %v", e.Step, e.Note.ID, e.Err)
	}
	return fmt.Sprintf("ingest: %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Pipeline ingests documents through API.
type Pipeline struct {
	api       API
	logger    *slog.Logger
	summarize bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSummary enables the summarize step.
func WithSummary(enabled bool) Option {
	return func(p *Pipeline) {
		p.summarize = enabled
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a pipeline.
func New(api API, opts ...Option) *Pipeline {
	p := &Pipeline{api: api, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest runs the pipeline for doc. source identifies where the document
// came from and is stored in the embedding metadata.
func (p *Pipeline) Ingest(ctx context.Context, doc parser.Document, source string) (Outcome, error) {
	var out Outcome

	req := models.CreateNoteRequest{Body: doc.Body}
	if doc.Title != "" {
		title := doc.Title
		req.Title = &title
	}
	note, err := p.api.CreateNote(ctx, req)
	if err != nil {
		return out, &StepError{Step: StepCreate, Err: err}
	}
	out.Note = note
	logger := p.logger.With(slog.String("note_id", note.ID), slog.String("source", source))
	logger.Info("note created")

	embed, err := p.api.EmbedNote(ctx, models.EmbedNoteRequest{
		NoteID: note.ID,
		Text:   doc.Body,
		Meta:   Meta(doc, source),
	})
	if err != nil {
		return out, &StepError{Step: StepEmbed, Note: &out.Note, Err: err}
	}
	out.Embed = embed
	logger.Info("note embedded",
		slog.Int("chunks_indexed", embed.ChunksIndexed),
		slog.Int("links", len(embed.Links)))

	extracted, err := p.api.ExtractTasks(ctx, models.ExtractTasksRequest{Text: doc.Body, SourceNoteID: &note.ID})
	if err != nil {
		return out, &StepError{Step: StepExtract, Note: &out.Note, Err: err}
	}
	out.Tasks = extracted.Tasks
	logger.Info("tasks extracted", slog.Int("tasks", len(extracted.Tasks)))

	if p.summarize {
		summary, err := p.api.Summarize(ctx, models.SummarizeRequest{Text: doc.Body})
		if err != nil {
			return out, &StepError{Step: StepSummarize, Note: &out.Note, Err: err}
		}
		out.Summary = &summary
	}
	return out, nil
}

// Meta builds the embedding metadata of a document. Frontmatter fields come
// first so source, tags and links always win.
func Meta(doc parser.Document, source string) map[string]any {
	meta := make(map[string]any, len(doc.Meta)+3)
	for k, v := range doc.Meta {
		meta[k] = v
	}
	if source != "" {
		meta["source"] = source
	}
	if len(doc.Tags) > 0 {
		meta["tags"] = doc.Tags
	}
	if len(doc.Links) > 0 {
		meta["links"] = doc.Links
	}
	return meta
}
