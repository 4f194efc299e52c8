// Package taskboard holds a local view of tasks whose completion flag can be
// changed optimistically.
//
// A change is visible immediately, then sent to the backend. The backend's
// response replaces the local entry; on failure the entry goes back to the
// last state the backend confirmed. A successful result that arrives after a
// newer change to the same task still becomes the confirmed state, so a later
// failure reverts to what the backend last accepted.
package taskboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/brainboard/internal/apperr"
	"github.com/starford/brainboard/internal/models"
)

// ErrSuperseded is returned when a newer change to the same task was made
// while the request was in flight. The returned task is the current local one.
var ErrSuperseded = errors.New("taskboard: superseded by a newer change")

// Updater is the part of the backend API the board needs.
type Updater interface {
	UpdateTask(ctx context.Context, id string, req models.UpdateTaskRequest) (models.Task, error)
}

// Entry is a task with the id the board knows it by.
type Entry struct {
	ID      string      `json:"id" yaml:"id"`
	Task    models.Task `json:"task" yaml:"task"`
	Pending bool        `json:"pending" yaml:"pending"`
}

type entry struct {
	task      models.Task
	confirmed models.Task
	gen       uint64
	confGen   uint64 // gen that produced confirmed
	inFlight  int
	reverted  bool
}

// Board is safe for concurrent use.
type Board struct {
	api    Updater
	logger *slog.Logger

	mu    sync.Mutex
	order []string
	tasks map[string]*entry
}

// New creates an empty board.
func New(api Updater, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{api: api, logger: logger, tasks: make(map[string]*entry)}
}

// Put stores task under id as confirmed backend state. Any in-flight change to
// id is superseded.
func (b *Board) Put(id string, task models.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.tasks[id]
	if !ok {
		e = &entry{}
		b.tasks[id] = e
		b.order = append(b.order, id)
	}
	e.task, e.confirmed = task, task
	e.gen++
	e.confGen = e.gen
	e.reverted = false
}

// Get returns the current local state of a task.
func (b *Board) Get(id string) (models.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return e.task, true
}

// Entries returns every task in insertion order.
func (b *Board) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, len(b.order))
	for i, id := range b.order {
		e := b.tasks[id]
		out[i] = Entry{ID: id, Task: e.task, Pending: e.inFlight > 0}
	}
	return out
}

// Toggle flips the completion flag of a task.
func (b *Board) Toggle(ctx context.Context, id string) (models.Task, error) {
	return b.change(ctx, id, func(current bool) bool { return !current })
}

// SetCompleted sets the completion flag of a task.
func (b *Board) SetCompleted(ctx context.Context, id string, completed bool) (models.Task, error) {
	return b.change(ctx, id, func(bool) bool { return completed })
}

func (b *Board) change(ctx context.Context, id string, next func(current bool) bool) (models.Task, error) {
	b.mu.Lock()
	e, ok := b.tasks[id]
	if !ok {
		b.mu.Unlock()
		return models.Task{}, fmt.Errorf("taskboard: task %s: %w", id, apperr.ErrNotFound)
	}
	completed := next(e.task.Completed)
	e.task.Completed = completed
	e.gen++
	e.inFlight++
	e.reverted = false
	gen := e.gen
	b.mu.Unlock()

	got, err := b.api.UpdateTask(ctx, id, models.UpdateTaskRequest{Completed: &completed})

	b.mu.Lock()
	defer b.mu.Unlock()
	e.inFlight--
	if e.gen != gen {
		if err == nil && gen > e.confGen {
			e.confirmed, e.confGen = got, gen
			if e.reverted && e.inFlight == 0 {
				e.task = got
			}
		}
		b.logger.Debug("task update superseded", slog.String("task_id", id))
		return e.task, ErrSuperseded
	}
	if err != nil {
		e.task = e.confirmed
		e.reverted = true
		b.logger.Warn("task update failed, reverted",
			slog.String("task_id", id),
			slog.String("error", err.Error()))
		return e.task, fmt.Errorf("taskboard: update task %s: %w", id, err)
	}
	e.task, e.confirmed, e.confGen = got, got, gen
	return got, nil
}
