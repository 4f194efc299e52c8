package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/starford/brainboard/internal/ingest"
	"github.com/starford/brainboard/internal/parser"
)

// Ingester runs the upload flow for one document.
type Ingester interface {
	Ingest(ctx context.Context, doc parser.Document, source string) (ingest.Outcome, error)
}

// Item is a file that was ingested.
type Item struct {
	Path   string `json:"path" yaml:"path"`
	NoteID string `json:"note_id" yaml:"note_id"`
	Tasks  int    `json:"tasks" yaml:"tasks"`
}

// Failure is a file whose ingestion failed. It is retried on the next sync.
type Failure struct {
	Path string `json:"path" yaml:"path"`
	Err  error  `json:"-" yaml:"-"`
	// Message is Err rendered for structured output.
	Message string `json:"error" yaml:"error"`
}

// Result summarizes one sync pass.
type Result struct {
	Ingested []Item    `json:"ingested" yaml:"ingested"`
	Skipped  int       `json:"skipped" yaml:"skipped"`
	Failed   []Failure `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Syncer ingests inbox files that have not been seen yet. A file is seen
// once its current content was ingested successfully; editing it makes it
// unseen again and the next pass creates a new note. Seen state lives in
// memory only.
type Syncer struct {
	src      *Source
	pipeline Ingester
	limiter  *rate.Limiter
	logger   *slog.Logger
	onIngest func(Item)

	mu   sync.Mutex
	seen map[string]string // path -> checksum
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithRate limits ingestions to perSecond files per second. Zero or less
// means unlimited.
func WithRate(perSecond float64) Option {
	return func(s *Syncer) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the syncer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Syncer) {
		s.logger = logger
	}
}

// OnIngest registers a callback run after each successful ingestion.
func OnIngest(fn func(Item)) Option {
	return func(s *Syncer) {
		s.onIngest = fn
	}
}

// NewSyncer creates a Syncer over src.
func NewSyncer(src *Source, pipeline Ingester, opts ...Option) *Syncer {
	s := &Syncer{
		src:      src,
		pipeline: pipeline,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   slog.Default(),
		seen:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync walks the inbox and ingests every new or changed file. Per-file
// failures are collected in the result; the returned error is set only when
// the inbox cannot be listed or ctx ends.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var res Result
	files, err := s.src.List()
	if err != nil {
		return res, err
	}
	for _, f := range files {
		if s.isSeen(f.Path, f.Checksum) {
			res.Skipped++
			continue
		}
		item, err := s.ingest(ctx, f.Path, f.Checksum)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed = append(res.Failed, Failure{Path: f.Path, Err: err, Message: err.Error()})
			continue
		}
		res.Ingested = append(res.Ingested, item)
	}
	s.logger.Info("sync: done",
		slog.Int("ingested", len(res.Ingested)),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", len(res.Failed)))
	return res, nil
}

// IngestPath ingests a single inbox file if its content was not seen yet.
// ok is false when the file was skipped.
func (s *Syncer) IngestPath(ctx context.Context, path string) (item Item, ok bool, err error) {
	data, err := s.src.Read(path)
	if err != nil {
		return Item{}, false, err
	}
	sum := checksum(data)
	if s.isSeen(path, sum) {
		return Item{}, false, nil
	}
	item, err = s.ingestData(ctx, path, sum, data)
	if err != nil {
		return Item{}, false, err
	}
	return item, true, nil
}

// Forget drops the seen state of path.
func (s *Syncer) Forget(path string) {
	s.mu.Lock()
	delete(s.seen, path)
	s.mu.Unlock()
}

func (s *Syncer) ingest(ctx context.Context, path, sum string) (Item, error) {
	data, err := s.src.Read(path)
	if err != nil {
		s.logger.Warn("sync: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return Item{}, err
	}
	return s.ingestData(ctx, path, sum, data)
}

func (s *Syncer) ingestData(ctx context.Context, path, sum string, data []byte) (Item, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Item{}, fmt.Errorf("inbox: wait: %w", err)
	}
	out, err := s.pipeline.Ingest(ctx, parser.Parse(path, data), path)
	if err != nil {
		s.logger.Warn("sync: ingest failed", slog.String("path", path), slog.String("error", err.Error()))
		return Item{}, err
	}

	s.mu.Lock()
	s.seen[path] = sum
	s.mu.Unlock()

	item := Item{Path: path, NoteID: out.Note.ID, Tasks: len(out.Tasks)}
	s.logger.Debug("sync: ingested", slog.String("path", path), slog.String("note_id", item.NoteID))
	if s.onIngest != nil {
		s.onIngest(item)
	}
	return item, nil
}

func (s *Syncer) isSeen(path, sum string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[path] == sum
}
