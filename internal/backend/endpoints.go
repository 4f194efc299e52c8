package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/schema"
)

// API is the set of backend operations. *Client implements it, and so does the
// caching wrapper in package querycache.
type API interface {
	ListNotes(ctx context.Context, p models.ListNotesParams) ([]models.Note, error)
	GetNote(ctx context.Context, id string) (models.NoteDetail, error)
	CreateNote(ctx context.Context, req models.CreateNoteRequest) (models.Note, error)
	EmbedNote(ctx context.Context, req models.EmbedNoteRequest) (models.EmbedResult, error)
	ListTasks(ctx context.Context, p models.ListTasksParams) ([]models.Task, error)
	ExtractTasks(ctx context.Context, req models.ExtractTasksRequest) (models.TaskExtraction, error)
	UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error)
	Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
	Summarize(ctx context.Context, req models.SummarizeRequest) (models.SummaryResult, error)
	Health(ctx context.Context) (models.Health, error)
}

var _ API = (*Client)(nil)

// NotesPath builds the list-notes path. A zero Limit means DefaultNotesLimit.
func NotesPath(p models.ListNotesParams) string {
	if p.Limit == 0 {
		p.Limit = models.DefaultNotesLimit
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(p.Skip))
	q.Set("limit", strconv.Itoa(p.Limit))
	return "/notes?" + q.Encode()
}

// NotePath builds the path of a single note.
func NotePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}

// TasksPath builds the list-tasks path. A zero Limit means DefaultTasksLimit.
// The completed filter is only sent when set.
func TasksPath(p models.ListTasksParams) string {
	if p.Limit == 0 {
		p.Limit = models.DefaultTasksLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset))
	if p.Completed != nil {
		q.Set("completed", strconv.FormatBool(*p.Completed))
	}
	return "/tasks?" + q.Encode()
}

// TaskPath builds the path of a single task.
func TaskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func validateID(op, id string) error {
	if err := validation.Validate(id, validation.Required, models.CanonicalID); err != nil {
		return invalidRequest(op, validation.Errors{"id": err})
	}
	return nil
}

// ListNotes returns a page of notes.
func (c *Client) ListNotes(ctx context.Context, p models.ListNotesParams) ([]models.Note, error) {
	if err := p.Validate(); err != nil {
		return nil, invalidRequest("list notes", err)
	}
	return request(ctx, c, http.MethodGet, NotesPath(p), nil, schema.NoteList)
}

// GetNote returns a note with its tasks and related links. A missing note is
// an *HTTPError with status 404.
func (c *Client) GetNote(ctx context.Context, id string) (models.NoteDetail, error) {
	if err := validateID("get note", id); err != nil {
		return models.NoteDetail{}, err
	}
	return request(ctx, c, http.MethodGet, NotePath(id), nil, schema.NoteDetail)
}

// CreateNote stores a new note.
func (c *Client) CreateNote(ctx context.Context, req models.CreateNoteRequest) (models.Note, error) {
	if err := req.Validate(); err != nil {
		return models.Note{}, invalidRequest("create note", err)
	}
	return request(ctx, c, http.MethodPost, "/notes", req, schema.Note)
}

// EmbedNote indexes a note's text for semantic search and returns the links
// the backend computed for it.
func (c *Client) EmbedNote(ctx context.Context, req models.EmbedNoteRequest) (models.EmbedResult, error) {
	if err := req.Validate(); err != nil {
		return models.EmbedResult{}, invalidRequest("embed note", err)
	}
	return request(ctx, c, http.MethodPost, "/notes/embed", req, schema.EmbedResult)
}

// ListTasks returns a page of tasks.
func (c *Client) ListTasks(ctx context.Context, p models.ListTasksParams) ([]models.Task, error) {
	if err := p.Validate(); err != nil {
		return nil, invalidRequest("list tasks", err)
	}
	return request(ctx, c, http.MethodGet, TasksPath(p), nil, schema.TaskList)
}

// ExtractTasks asks the backend to find action items in text.
func (c *Client) ExtractTasks(ctx context.Context, req models.ExtractTasksRequest) (models.TaskExtraction, error) {
	if err := req.Validate(); err != nil {
		return models.TaskExtraction{}, invalidRequest("extract tasks", err)
	}
	return request(ctx, c, http.MethodPost, "/tasks/extract", req, schema.TaskExtraction)
}

// UpdateTask applies a partial update and returns the task as the backend now
// has it.
func (c *Client) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error) {
	if err := validateID("update task", id); err != nil {
		return models.Task{}, err
	}
	return request(ctx, c, http.MethodPatch, TaskPath(id), req, schema.Task)
}

// Search answers a question from the notes. The answer embeds
// [note_id:<uuid>] markers that refer to the returned citations.
func (c *Client) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return models.SearchResult{}, invalidRequest("search", err)
	}
	return request(ctx, c, http.MethodPost, "/search/query", req, schema.SearchResult)
}

// Summarize condenses text into a summary, highlights, decisions and action items.
func (c *Client) Summarize(ctx context.Context, req models.SummarizeRequest) (models.SummaryResult, error) {
	if err := req.Validate(); err != nil {
		return models.SummaryResult{}, invalidRequest("summarize", err)
	}
	return request(ctx, c, http.MethodPost, "/summarize", req, schema.SummaryResult)
}

// Health reports the backend status.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	return request(ctx, c, http.MethodGet, "/health", nil, schema.Health)
}
