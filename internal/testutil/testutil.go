// Package testutil provides shared test helpers: an in-memory fake of the
// backend HTTP service and temporary inbox directories.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/schema"
)

// Request is one request received by the fake backend.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Body     string
}

// Backend is an in-memory stand-in for the backend service. Inbound bodies are
// checked against the request schemas and rejected with 422 when they do not
// match, like the real service does.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	notes     []*models.NoteDetail
	taskOrder []string
	tasks     map[string]*models.Task
	requests  []Request
	overrides map[string]http.HandlerFunc
	now       func() time.Time
}

// TimestampLayout is the naive ISO-8601 layout the backend serializes datetimes with.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		tasks:     make(map[string]*models.Task),
		overrides: make(map[string]http.HandlerFunc),
		now:       time.Now,
	}
	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the base address of the fake backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Handle replaces the handler for exact method and path.
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = h
}

// Respond makes method and path answer with a fixed status and raw body.
func (b *Backend) Respond(method, path string, status int, body string) {
	b.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// AddNote stores a note and returns its id. A missing id is generated.
func (b *Backend) AddNote(n models.NoteDetail) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = b.timestamp()
		n.UpdatedAt = n.CreatedAt
	}
	if n.Tasks == nil {
		n.Tasks = []models.Task{}
	}
	if n.RelatedLinks == nil {
		n.RelatedLinks = []models.Link{}
	}
	b.notes = append(b.notes, &n)
	return n.ID
}

// AddTask stores a task under id and returns the id. A missing id is generated.
func (b *Backend) AddTask(id string, task models.Task) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addTask(id, task)
}

// Task returns the stored task with the given id.
func (b *Backend) Task(id string) (models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	task, ok := b.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *task, true
}

// Notes returns the stored notes in insertion order.
func (b *Backend) Notes() []models.NoteDetail {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.NoteDetail, len(b.notes))
	for i, n := range b.notes {
		out[i] = *n
	}
	return out
}

// Requests returns every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Calls counts the requests received for method and path (query excluded).
func (b *Backend) Calls(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Get("/health", b.health)
	r.Get("/notes", b.listNotes)
	r.Post("/notes", b.createNote)
	r.Post("/notes/embed", b.embedNote)
	r.Get("/notes/{id}", b.getNote)
	r.Get("/tasks", b.listTasks)
	r.Post("/tasks/extract", b.extractTasks)
	r.Patch("/tasks/{id}", b.updateTask)
	r.Post("/search/query", b.search)
	r.Post("/summarize", b.summarize)

	return r
}

// record logs the request and serves an override when one is registered.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Body:     string(body),
		})
		override := b.overrides[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.Health{
		Status:   "healthy",
		Services: map[string]string{"api": "ok", "db": "ok", "vector_store": "ok"},
	})
}

func (b *Backend) listNotes(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := pagination(w, r, "skip", 0, 20)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Note{}
	for i := skip; i < len(b.notes) && len(out) < limit; i++ {
		out = append(out, b.notes[i].Note)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) getNote(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.note(chi.URLParam(r, "id"))
	if n == nil {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (b *Backend) createNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r, schema.CreateNoteRequest)
	if !ok {
		return
	}
	b.mu.Lock()
	now := b.timestamp()
	n := &models.NoteDetail{
		Note: models.Note{
			ID:        uuid.NewString(),
			Title:     req.Title,
			Body:      req.Body,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Tasks:        []models.Task{},
		RelatedLinks: []models.Link{},
	}
	b.notes = append(b.notes, n)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, n.Note)
}

func (b *Backend) embedNote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r, schema.EmbedNoteRequest)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.note(req.NoteID)
	if n == nil {
		writeDetail(w, http.StatusNotFound, "Note not found")
		return
	}
	links := []models.Link{}
	for _, other := range b.notes {
		if other.ID == n.ID {
			continue
		}
		if sim := similarity(req.Text, other.Body); sim > 0 {
			links = append(links, models.Link{SourceNote: n.ID, TargetNote: other.ID, Similarity: sim})
		}
	}
	n.RelatedLinks = links
	writeJSON(w, http.StatusOK, models.EmbedResult{
		ChunksIndexed: len(strings.Split(strings.TrimSpace(req.Text), "\n\n")),
		Links:         links,
	})
}

func (b *Backend) listTasks(w http.ResponseWriter, r *http.Request) {
	offset, limit, ok := pagination(w, r, "offset", 0, 50)
	if !ok {
		return
	}
	var completed *bool
	if raw := r.URL.Query().Get("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "completed must be a boolean")
			return
		}
		completed = &v
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Task{}
	seen := 0
	for _, id := range b.taskOrder {
		task := b.tasks[id]
		if completed != nil && task.Completed != *completed {
			continue
		}
		if seen++; seen <= offset {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, *task)
	}
	writeJSON(w, http.StatusOK, out)
}

// extractTasks turns every "TODO:" line into a task.
func (b *Backend) extractTasks(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r, schema.ExtractTasksRequest)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	tasks := []models.Task{}
	for _, line := range strings.Split(req.Text, "\n") {
		desc, found := strings.CutPrefix(strings.TrimSpace(line), "TODO:")
		if !found {
			continue
		}
		task := models.Task{Description: strings.TrimSpace(desc), SourceNoteID: req.SourceNoteID}
		b.addTask("", task)
		tasks = append(tasks, task)
		if req.SourceNoteID != nil {
			if n := b.note(*req.SourceNoteID); n != nil {
				n.Tasks = append(n.Tasks, task)
			}
		}
	}
	writeJSON(w, http.StatusOK, models.TaskExtraction{Tasks: tasks})
}

func (b *Backend) updateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "task_id must be a UUID")
		return
	}
	req, ok := decodeBody(w, r, schema.UpdateTaskRequest)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	task, found := b.tasks[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Task "+id+" not found")
		return
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	writeJSON(w, http.StatusOK, task)
}

// search cites every note whose body contains the query, case-insensitively.
func (b *Backend) search(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r, schema.SearchRequest)
	if !ok {
		return
	}
	k := 6
	if req.K != nil {
		k = *req.K
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	query := strings.ToLower(req.Query)
	citations := []models.Citation{}
	var parts []string
	for _, n := range b.notes {
		if len(citations) == k {
			break
		}
		if !strings.Contains(strings.ToLower(n.Body), query) {
			continue
		}
		citations = append(citations, models.Citation{NoteID: n.ID, Snippet: snippet(n.Body, 200)})
		parts = append(parts, "[note_id:"+n.ID+"]")
	}
	answer := "I couldn't find anything about that in your notes."
	if len(parts) > 0 {
		answer = "Your notes mention " + req.Query + " in " + strings.Join(parts, " and ") + "."
	}
	writeJSON(w, http.StatusOK, models.SearchResult{Answer: answer, Citations: citations})
}

// summarize uses the first line as the summary and sorts the remaining lines
// by prefix: "- " highlights, "Decision:" decisions, "TODO:" action items.
func (b *Backend) summarize(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeBody(w, r, schema.SummarizeRequest)
	if !ok {
		return
	}
	out := models.SummaryResult{Highlights: []string{}, Decisions: []string{}, ActionItems: []string{}}
	for i, line := range strings.Split(strings.TrimSpace(req.Text), "\n") {
		line = strings.TrimSpace(line)
		if i == 0 {
			out.Summary = line
			continue
		}
		if v, ok := strings.CutPrefix(line, "- "); ok {
			out.Highlights = append(out.Highlights, v)
		} else if v, ok := strings.CutPrefix(line, "Decision:"); ok {
			out.Decisions = append(out.Decisions, strings.TrimSpace(v))
		} else if v, ok := strings.CutPrefix(line, "TODO:"); ok {
			out.ActionItems = append(out.ActionItems, strings.TrimSpace(v))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) note(id string) *models.NoteDetail {
	for _, n := range b.notes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (b *Backend) addTask(id string, task models.Task) string {
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := b.tasks[id]; !exists {
		b.taskOrder = append(b.taskOrder, id)
	}
	b.tasks[id] = &task
	return id
}

func (b *Backend) timestamp() string {
	return b.now().UTC().Format(TimestampLayout)
}

// decodeBody reads a JSON body, validates it with s and writes a 422 on failure.
func decodeBody[T any](w http.ResponseWriter, r *http.Request, s *schema.Schema[T]) (T, bool) {
	var zero T
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body: "+err.Error())
		return zero, false
	}
	v, err := s.Validate(raw)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return zero, false
	}
	return v, true
}

func pagination(w http.ResponseWriter, r *http.Request, startKey string, start, limit int) (int, int, bool) {
	q := r.URL.Query()
	for key, dst := range map[string]*int{startKey: &start, "limit": &limit} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeDetail(w, http.StatusUnprocessableEntity, key+" must be a non-negative integer")
			return 0, 0, false
		}
		*dst = v
	}
	return start, limit, true
}

// similarity is the Jaccard index of the lower-cased word sets of a and b.
func similarity(a, b string) float64 {
	wa, wb := words(a), words(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(wa)+len(wb)-shared)
}

func words(s string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(s)) {
		out[strings.Trim(f, ".,;:!?\"'()[]")] = true
	}
	delete(out, "")
	return out
}

func snippet(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// TestInbox creates a temporary inbox directory populated with files, keyed by
// relative path.
func TestInbox(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
