package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/starford/brainboard/internal"
	"github.com/starford/brainboard/internal/inbox"
	"github.com/starford/brainboard/internal/ingest"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/testutil"
)

// run executes the command line against the fake backend and returns stdout.
func run(t *testing.T, fake *testutil.Backend, args ...string) (string, error) {
	t.Helper()
	t.Setenv(internal.EnvBackendURL, "")
	var out bytes.Buffer
	cmd := New(internal.WithLogOutput(io.Discard))
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard
	argv := []string{"brainboard", "--config", filepath.Join(t.TempDir(), "none.yaml")}
	if fake != nil {
		argv = append(argv, "--backend-url", fake.URL())
	}
	err := cmd.Run(context.Background(), append(argv, args...))
	return out.String(), err
}

func TestNotesList_JSON(t *testing.T) {
	fake := testutil.NewBackend(t)
	fake.AddNote(models.NoteDetail{Note: models.Note{Body: "first"}})
	fake.AddNote(models.NoteDetail{Note: models.Note{Body: "second"}})

	out, err := run(t, fake, "-o", "json", "notes", "list", "--limit", "5")
	require.NoError(t, err)
	var notes []models.Note
	require.NoError(t, json.Unmarshal([]byte(out), &notes))
	assert.Len(t, notes, 2)
	assert.Equal(t, "limit=5&skip=0", fake.Requests()[0].RawQuery)
}

func TestNotesList_Empty(t *testing.T) {
	out, err := run(t, testutil.NewBackend(t), "notes", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No notes yet.")
}

func TestNotesShow(t *testing.T) {
	fake := testutil.NewBackend(t)
	title := "Plan"
	id := fake.AddNote(models.NoteDetail{
		Note:  models.Note{Title: &title, Body: "# Plan\n\nShip it"},
		Tasks: []models.Task{{Description: "Write draft"}},
	})

	out, err := run(t, fake, "notes", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Plan")
	assert.Contains(t, out, "[ ] Write draft")

	out, err = run(t, fake, "notes", "show", "--html", id)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Plan</h1>")
}

func TestNotesShow_NotFound(t *testing.T) {
	_, err := run(t, testutil.NewBackend(t), "notes", "show", "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.Contains(t, Message(err), "The requested item was not found.")
}

func TestNotesShow_MissingArg(t *testing.T) {
	_, err := run(t, testutil.NewBackend(t), "notes", "show")
	assert.ErrorContains(t, err, "usage:")
}

func TestNotesCreate(t *testing.T) {
	fake := testutil.NewBackend(t)
	path := filepath.Join(t.TempDir(), "retro.md")
	require.NoError(t, os.WriteFile(path, []byte("# Retro\n- good pace\nTODO: fix CI"), 0o644))

	out, err := run(t, fake, "-o", "json", "notes", "create", "--summarize", path)
	require.NoError(t, err)
	var res ingest.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Retro", *res.Note.Title)
	require.Len(t, res.Tasks, 1)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1, fake.Calls(http.MethodPost, "/summarize"))
}

func TestTasksListAndDone(t *testing.T) {
	fake := testutil.NewBackend(t)
	id := fake.AddTask("", models.Task{Description: "open one"})
	fake.AddTask("", models.Task{Description: "done one", Completed: true})

	out, err := run(t, fake, "tasks", "list", "--status", "open")
	require.NoError(t, err)
	assert.Equal(t, "[ ] open one\n", out)
	assert.Equal(t, "completed=false&limit=50&offset=0", fake.Requests()[0].RawQuery)

	out, err = run(t, fake, "tasks", "done", id)
	require.NoError(t, err)
	assert.Contains(t, out, id+" [x] open one")
	task, _ := fake.Task(id)
	assert.True(t, task.Completed)

	_, err = run(t, fake, "tasks", "list", "--status", "later")
	assert.ErrorContains(t, err, "--status")
}

func TestTasksDone_Unknown(t *testing.T) {
	_, err := run(t, testutil.NewBackend(t), "tasks", "done", "00000000-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.Contains(t, Message(err), "not found")
}

func TestSearch(t *testing.T) {
	fake := testutil.NewBackend(t)
	id := fake.AddNote(models.NoteDetail{Note: models.Note{Body: "Q3 budget is 40k"}})

	out, err := run(t, fake, "search", "--k", "2", "budget")
	require.NoError(t, err)
	assert.Contains(t, out, "Your notes mention budget in [1].")
	assert.Contains(t, out, "[1] Q3 budget is 40k ("+id+")")
	assert.JSONEq(t, `{"query":"budget","k":2}`, fake.Requests()[0].Body)

	out, err = run(t, fake, "search", "--html", "budget")
	require.NoError(t, err)
	assert.Contains(t, out, `<a class="citation" href="/notes/`+id+`"`)
}

func TestHealth_YAML(t *testing.T) {
	out, err := run(t, testutil.NewBackend(t), "-o", "yaml", "health")
	require.NoError(t, err)
	var h models.Health
	require.NoError(t, yaml.Unmarshal([]byte(out), &h))
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "ok", h.Services["db"])
}

func TestHealth_Unreachable(t *testing.T) {
	fake := testutil.NewBackend(t)
	fake.Server.Close()
	_, err := run(t, fake, "health")
	require.Error(t, err)
	assert.Contains(t, Message(err), "Could not reach the backend")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run(t, testutil.NewBackend(t), "-o", "xml", "health")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestInvalidBackendURL(t *testing.T) {
	var out bytes.Buffer
	cmd := New(internal.WithLogOutput(io.Discard))
	cmd.Writer = &out
	t.Setenv(internal.EnvBackendURL, "")
	err := cmd.Run(context.Background(), []string{"brainboard",
		"--config", filepath.Join(t.TempDir(), "none.yaml"), "--backend-url", "nope", "health"})
	assert.ErrorContains(t, err, "invalid --backend-url")
}

func TestIngest_InboxFromConfig(t *testing.T) {
	fake := testutil.NewBackend(t)
	dir := testutil.TestInbox(t, map[string]string{
		"a.md":  "# A\nTODO: one",
		"b.txt": "plain",
	})
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend:\n  base_url: "+fake.URL()+"\ninbox:\n  path: "+dir+"\n  rate: 0\n"), 0o644))
	t.Setenv(internal.EnvBackendURL, "")

	var out bytes.Buffer
	cmd := New(internal.WithLogOutput(io.Discard))
	cmd.Writer = &out
	require.NoError(t, cmd.Run(context.Background(), []string{"brainboard", "--config", cfgPath, "-o", "json", "ingest"}))

	var res inbox.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.Ingested, 2)
	assert.Equal(t, "a.md", res.Ingested[0].Path)
	assert.Equal(t, 1, res.Ingested[0].Tasks)
	assert.Len(t, fake.Notes(), 2)
}

func TestIngest_Files(t *testing.T) {
	fake := testutil.NewBackend(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.md")
	empty := filepath.Join(dir, "empty.md")
	require.NoError(t, os.WriteFile(good, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(empty, []byte(""), 0o644))

	out, err := run(t, fake, "ingest", good, empty)
	assert.ErrorContains(t, err, "1 of 2 files failed")
	assert.True(t, strings.HasPrefix(out, "ingested "+good), out)
	assert.Contains(t, out, "failed   "+empty)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Error: boom", Message(errors.New("boom")))
}
