package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/brainboard/internal/apperr"
	"github.com/starford/brainboard/internal/citation"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/schema"
)

func ptr[T any](v T) *T { return &v }

func TestPaths(t *testing.T) {
	assert.Equal(t, "/notes?limit=20&skip=0", NotesPath(models.ListNotesParams{}))
	assert.Equal(t, "/notes?limit=5&skip=10", NotesPath(models.ListNotesParams{Skip: 10, Limit: 5}))
	assert.Equal(t, "/tasks?limit=50&offset=0", TasksPath(models.ListTasksParams{}))
	assert.Equal(t, "/tasks?completed=false&limit=10&offset=3",
		TasksPath(models.ListTasksParams{Completed: ptr(false), Limit: 10, Offset: 3}))
	assert.Equal(t, "/notes/"+noteA, NotePath(noteA))
	assert.Equal(t, "/tasks/"+noteA, TaskPath(noteA))
}

func TestSearch_BudgetScenario(t *testing.T) {
	c, fake := newTestClient(t)
	fake.Respond(http.MethodPost, "/search/query", http.StatusOK,
		`{"answer":"See [note_id:11111111-1111-1111-1111-111111111111] for details.","citations":[{"note_id":"11111111-1111-1111-1111-111111111111","snippet":"Q3 budget"}]}`)

	res, err := c.Search(context.Background(), models.SearchRequest{Query: "budget"})
	require.NoError(t, err)
	assert.Len(t, citation.Markers(res.Answer), 1)
	assert.Len(t, res.Citations, 1)
	assert.True(t, citation.Check(res).Consistent())
	assert.Equal(t, "Q3 budget", res.Citations[0].Snippet)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"query":"budget"}`, reqs[0].Body)
}

func TestSearch_FakeBackend(t *testing.T) {
	c, fake := newTestClient(t)
	budget := fake.AddNote(models.NoteDetail{Note: models.Note{Body: "Q3 budget review"}})
	fake.AddNote(models.NoteDetail{Note: models.Note{Body: "Holiday plans"}})

	res, err := c.Search(context.Background(), models.SearchRequest{Query: "Budget", K: ptr(3)})
	require.NoError(t, err)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, budget, res.Citations[0].NoteID)
	assert.True(t, citation.Check(res).Consistent())
}

func TestUpdateTask_Scenario(t *testing.T) {
	c, fake := newTestClient(t)
	id := fake.AddTask("", models.Task{
		Description:  "Send the Q3 report",
		DueDate:      ptr("2024-04-01T00:00:00"),
		Owner:        ptr("Dana"),
		SourceNoteID: ptr(noteA),
		Completed:    false,
	})

	got, err := c.UpdateTask(context.Background(), id, models.UpdateTaskRequest{Completed: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, models.Task{
		Description:  "Send the Q3 report",
		DueDate:      ptr("2024-04-01T00:00:00"),
		Owner:        ptr("Dana"),
		SourceNoteID: ptr(noteA),
		Completed:    true,
	}, got)

	stored, ok := fake.Task(id)
	require.True(t, ok)
	assert.True(t, stored.Completed)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/tasks/"+id, reqs[0].Path)
	assert.JSONEq(t, `{"completed":true}`, reqs[0].Body)
}

func TestUpdateTask_UnknownID(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.UpdateTask(context.Background(), noteA, models.UpdateTaskRequest{Completed: ptr(true)})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}

func TestGetNote_UnknownID(t *testing.T) {
	c, _ := newTestClient(t)
	detail, err := c.GetNote(context.Background(), noteA)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Contains(t, httpErr.Body, "Note not found")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, models.NoteDetail{}, detail)
}

func TestGetNote(t *testing.T) {
	c, fake := newTestClient(t)
	id := fake.AddNote(models.NoteDetail{
		Note:  models.Note{Title: ptr("Sync"), Body: "Agenda"},
		Tasks: []models.Task{{Description: "Book room"}},
	})

	detail, err := c.GetNote(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, detail.ID)
	assert.Equal(t, "Sync", detail.DisplayTitle())
	require.Len(t, detail.Tasks, 1)
	assert.False(t, detail.Tasks[0].Completed)
	assert.Empty(t, detail.RelatedLinks)
}

func TestListNotes(t *testing.T) {
	c, fake := newTestClient(t)
	for _, body := range []string{"one", "two", "three"} {
		fake.AddNote(models.NoteDetail{Note: models.Note{Body: body}})
	}

	notes, err := c.ListNotes(context.Background(), models.ListNotesParams{})
	require.NoError(t, err)
	assert.Len(t, notes, 3)
	assert.Equal(t, "skip=0&limit=20", sortedQuery(fake.Requests()[0].RawQuery, "skip", "limit"))

	notes, err = c.ListNotes(context.Background(), models.ListNotesParams{Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "two", notes[0].Body)
}

func TestListTasks_CompletedFilter(t *testing.T) {
	c, fake := newTestClient(t)
	fake.AddTask("", models.Task{Description: "open"})
	fake.AddTask("", models.Task{Description: "done", Completed: true})

	all, err := c.ListTasks(context.Background(), models.ListTasksParams{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NotContains(t, fake.Requests()[0].RawQuery, "completed")

	done, err := c.ListTasks(context.Background(), models.ListTasksParams{Completed: ptr(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "done", done[0].Description)
	assert.Contains(t, fake.Requests()[1].RawQuery, "completed=true")
}

func TestUploadFlow(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	fake.AddNote(models.NoteDetail{Note: models.Note{Body: "quarterly budget numbers"}})

	text := "Budget meeting\n- numbers look good\nDecision: freeze hiring\nTODO: send budget numbers"
	note, err := c.CreateNote(ctx, models.CreateNoteRequest{Title: ptr("Budget meeting"), Body: text})
	require.NoError(t, err)
	assert.True(t, models.IsCanonicalID(note.ID))
	assert.Equal(t, text, note.Body)

	embed, err := c.EmbedNote(ctx, models.EmbedNoteRequest{NoteID: note.ID, Text: text, Meta: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, 1, embed.ChunksIndexed)
	require.NotEmpty(t, embed.Links)
	assert.Equal(t, note.ID, embed.Links[0].SourceNote)

	extracted, err := c.ExtractTasks(ctx, models.ExtractTasksRequest{Text: text, SourceNoteID: &note.ID})
	require.NoError(t, err)
	require.Len(t, extracted.Tasks, 1)
	assert.Equal(t, "send budget numbers", extracted.Tasks[0].Description)
	assert.Equal(t, &note.ID, extracted.Tasks[0].SourceNoteID)

	summary, err := c.Summarize(ctx, models.SummarizeRequest{Text: text})
	require.NoError(t, err)
	assert.Equal(t, "Budget meeting", summary.Summary)
	assert.Equal(t, []string{"numbers look good"}, summary.Highlights)
	assert.Equal(t, []string{"freeze hiring"}, summary.Decisions)
	assert.Equal(t, []string{"send budget numbers"}, summary.ActionItems)

	detail, err := c.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Tasks, 1)
	assert.Equal(t, embed.Links, detail.RelatedLinks)
}

// The body the client puts on the wire validates back into the value it was
// built from.
func TestRequestBodies_RoundTrip(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	id := fake.AddNote(models.NoteDetail{Note: models.Note{Body: "seed"}})
	taskID := fake.AddTask("", models.Task{Description: "t"})

	create := models.CreateNoteRequest{Title: ptr("T"), Body: "B"}
	embed := models.EmbedNoteRequest{NoteID: id, Text: "seed", Meta: map[string]any{"source": "upload"}}
	extract := models.ExtractTasksRequest{Text: "TODO: x", SourceNoteID: &id}
	update := models.UpdateTaskRequest{Completed: ptr(false)}
	search := models.SearchRequest{Query: "seed", K: ptr(2)}
	summarize := models.SummarizeRequest{Text: "s"}

	_, err := c.CreateNote(ctx, create)
	require.NoError(t, err)
	_, err = c.EmbedNote(ctx, embed)
	require.NoError(t, err)
	_, err = c.ExtractTasks(ctx, extract)
	require.NoError(t, err)
	_, err = c.UpdateTask(ctx, taskID, update)
	require.NoError(t, err)
	_, err = c.Search(ctx, search)
	require.NoError(t, err)
	_, err = c.Summarize(ctx, summarize)
	require.NoError(t, err)

	reqs := fake.Requests()
	require.Len(t, reqs, 6)
	assert.Equal(t, create, revalidate(t, schema.CreateNoteRequest, reqs[0].Body))
	assert.Equal(t, embed, revalidate(t, schema.EmbedNoteRequest, reqs[1].Body))
	assert.Equal(t, extract, revalidate(t, schema.ExtractTasksRequest, reqs[2].Body))
	assert.Equal(t, update, revalidate(t, schema.UpdateTaskRequest, reqs[3].Body))
	assert.Equal(t, search, revalidate(t, schema.SearchRequest, reqs[4].Body))
	assert.Equal(t, summarize, revalidate(t, schema.SummarizeRequest, reqs[5].Body))
}

func TestInvalidRequests_NoNetworkCall(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"get note bad id": func() error { _, err := c.GetNote(ctx, "abc"); return err },
		"get note empty":  func() error { _, err := c.GetNote(ctx, ""); return err },
		"update bad id": func() error {
			_, err := c.UpdateTask(ctx, "../notes", models.UpdateTaskRequest{})
			return err
		},
		"create no body": func() error { _, err := c.CreateNote(ctx, models.CreateNoteRequest{}); return err },
		"embed bad note": func() error {
			_, err := c.EmbedNote(ctx, models.EmbedNoteRequest{NoteID: "x", Text: "t"})
			return err
		},
		"extract no text": func() error { _, err := c.ExtractTasks(ctx, models.ExtractTasksRequest{}); return err },
		"extract bad source": func() error {
			_, err := c.ExtractTasks(ctx, models.ExtractTasksRequest{Text: "t", SourceNoteID: ptr("nope")})
			return err
		},
		"search no query": func() error { _, err := c.Search(ctx, models.SearchRequest{}); return err },
		"search zero k": func() error {
			_, err := c.Search(ctx, models.SearchRequest{Query: "q", K: ptr(0)})
			return err
		},
		"summarize empty": func() error { _, err := c.Summarize(ctx, models.SummarizeRequest{}); return err },
		"notes negative": func() error {
			_, err := c.ListNotes(ctx, models.ListNotesParams{Skip: -1})
			return err
		},
		"tasks negative": func() error {
			_, err := c.ListTasks(ctx, models.ListTasksParams{Offset: -5})
			return err
		},
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
		})
	}
	assert.Empty(t, fake.Requests())
}

func revalidate[T any](t *testing.T, s *schema.Schema[T], body string) T {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var raw any
	require.NoError(t, dec.Decode(&raw))
	v, err := s.Validate(raw)
	require.NoError(t, err)
	return v
}

func sortedQuery(raw string, keys ...string) string {
	parts := strings.Split(raw, "&")
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, p := range parts {
			if strings.HasPrefix(p, k+"=") {
				out = append(out, p)
			}
		}
	}
	return strings.Join(out, "&")
}
