package querycache

import (
	"context"
	"net/http"

	"github.com/starford/brainboard/internal/backend"
	"github.com/starford/brainboard/internal/models"
)

// Key prefixes dropped by mutations.
var (
	notesPrefix = Key(http.MethodGet, "/notes")
	tasksPrefix = Key(http.MethodGet, "/tasks")
)

// Client serves note and task reads from a Cache and invalidates them when a
// mutation goes through. Search, summarize and health are never cached.
type Client struct {
	api   backend.API
	cache *Cache
}

var _ backend.API = (*Client)(nil)

// NewClient wraps api with cache.
func NewClient(api backend.API, cache *Cache) *Client {
	return &Client{api: api, cache: cache}
}

// Cache returns the underlying cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) ListNotes(ctx context.Context, p models.ListNotesParams) ([]models.Note, error) {
	return Fetch(ctx, c.cache, Key(http.MethodGet, backend.NotesPath(p)), func(ctx context.Context) ([]models.Note, error) {
		return c.api.ListNotes(ctx, p)
	})
}

func (c *Client) GetNote(ctx context.Context, id string) (models.NoteDetail, error) {
	return Fetch(ctx, c.cache, Key(http.MethodGet, backend.NotePath(id)), func(ctx context.Context) (models.NoteDetail, error) {
		return c.api.GetNote(ctx, id)
	})
}

func (c *Client) ListTasks(ctx context.Context, p models.ListTasksParams) ([]models.Task, error) {
	return Fetch(ctx, c.cache, Key(http.MethodGet, backend.TasksPath(p)), func(ctx context.Context) ([]models.Task, error) {
		return c.api.ListTasks(ctx, p)
	})
}

// Mutations invalidate even when they fail: the backend may have applied them
// before the error surfaced.

func (c *Client) CreateNote(ctx context.Context, req models.CreateNoteRequest) (models.Note, error) {
	defer c.cache.Invalidate(notesPrefix)
	return c.api.CreateNote(ctx, req)
}

// EmbedNote drops every note entry since links are stored on both ends.
func (c *Client) EmbedNote(ctx context.Context, req models.EmbedNoteRequest) (models.EmbedResult, error) {
	defer c.cache.Invalidate(notesPrefix)
	return c.api.EmbedNote(ctx, req)
}

func (c *Client) ExtractTasks(ctx context.Context, req models.ExtractTasksRequest) (models.TaskExtraction, error) {
	defer c.invalidateTasks(req.SourceNoteID)
	return c.api.ExtractTasks(ctx, req)
}

// UpdateTask drops task lists and every note detail, since tasks do not carry
// the id of their note in a way the cache can rely on.
func (c *Client) UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error) {
	defer c.invalidateTasks(nil)
	return c.api.UpdateTask(ctx, id, req)
}

func (c *Client) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	return c.api.Search(ctx, req)
}

func (c *Client) Summarize(ctx context.Context, req models.SummarizeRequest) (models.SummaryResult, error) {
	return c.api.Summarize(ctx, req)
}

func (c *Client) Health(ctx context.Context) (models.Health, error) {
	return c.api.Health(ctx)
}

func (c *Client) invalidateTasks(sourceNoteID *string) {
	c.cache.Invalidate(tasksPrefix)
	if sourceNoteID != nil {
		c.cache.Invalidate(Key(http.MethodGet, backend.NotePath(*sourceNoteID)))
		return
	}
	c.cache.Invalidate(Key(http.MethodGet, "/notes/"))
}
