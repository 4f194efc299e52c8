package querycache

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/brainboard/internal/backend"
	"github.com/starford/brainboard/internal/models"
	"github.com/starford/brainboard/internal/testutil"
)

func TestFetch_CachesValues(t *testing.T) {
	c := New(10, time.Minute)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for range 3 {
		v, err := Fetch(context.Background(), c, "k", load)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stats{Hits: 2, Misses: 1}, c.Stats())
}

func TestFetch_ErrorsNotCached(t *testing.T) {
	c := New(10, time.Minute)
	boom := errors.New("boom")
	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		return "", boom
	}

	_, err := Fetch(context.Background(), c, "k", load)
	require.ErrorIs(t, err, boom)
	_, err = Fetch(context.Background(), c, "k", load)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Zero(t, c.Len())
}

func TestFetch_Expires(t *testing.T) {
	c := New(10, 20*time.Millisecond)
	var calls atomic.Int32
	load := func(context.Context) (int32, error) {
		return calls.Add(1), nil
	}

	v, err := Fetch(context.Background(), c, "k", load)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	require.Eventually(t, func() bool {
		v, err := Fetch(context.Background(), c, "k", load)
		return err == nil && v > 1
	}, time.Second, 10*time.Millisecond)
}

func TestFetch_DeduplicatesInFlight(t *testing.T) {
	c := New(10, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Fetch(context.Background(), c, "k", load)
			if err == nil {
				results[i] = v
			}
		}()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, []string{"v", "v", "v", "v", "v"}, results)
}

func TestInvalidate_Prefix(t *testing.T) {
	c := New(10, time.Minute)
	for _, k := range []string{"GET /notes?limit=20&skip=0", "GET /notes/abc", "GET /tasks?limit=50&offset=0"} {
		_, err := Fetch(context.Background(), c, k, func(context.Context) (string, error) { return k, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Invalidate("GET /notes"))
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, c.Invalidate("GET /notes"))

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestInvalidate_DuringLoadSkipsStore(t *testing.T) {
	c := New(10, time.Minute)
	_, err := Fetch(context.Background(), c, "k", func(context.Context) (string, error) {
		c.Invalidate("k")
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestInvalidate_LaterReadsStartFreshLoad(t *testing.T) {
	c := New(10, time.Minute)
	var state atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(context.Context) (int32, error) {
		v := state.Load()
		close(started)
		<-release
		return v, nil
	}

	first := make(chan int32, 1)
	go func() {
		v, _ := Fetch(context.Background(), c, "k", slow)
		first <- v
	}()
	<-started

	state.Store(1)
	c.Invalidate("k")
	v, err := Fetch(context.Background(), c, "k", func(context.Context) (int32, error) {
		return state.Load(), nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	close(release)
	assert.EqualValues(t, 0, <-first)
	cached, err := Fetch(context.Background(), c, "k", func(context.Context) (int32, error) {
		return -1, errors.New("not cached")
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, cached)
}

func TestFetch_CallerCancelDoesNotFailOthers(t *testing.T) {
	c := New(10, time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-release:
			return "v", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := Fetch(ctx1, c, "k", load)
		first <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		v, err := Fetch(context.Background(), c, "k", load)
		if err != nil {
			v = err.Error()
		}
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel1()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(release)
	assert.Equal(t, "v", <-second)
}

func newCachedClient(t *testing.T) (*Client, *testutil.Backend) {
	t.Helper()
	fake := testutil.NewBackend(t)
	api := backend.NewClient(backend.Config{BaseURL: fake.URL()})
	return NewClient(api, New(100, time.Minute)), fake
}

func TestClient_ReadsAreMemoized(t *testing.T) {
	c, fake := newCachedClient(t)
	ctx := context.Background()
	id := fake.AddNote(models.NoteDetail{Note: models.Note{Body: "b"}})

	for range 2 {
		_, err := c.ListNotes(ctx, models.ListNotesParams{})
		require.NoError(t, err)
		_, err = c.GetNote(ctx, id)
		require.NoError(t, err)
		_, err = c.ListTasks(ctx, models.ListTasksParams{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.Calls(http.MethodGet, "/notes"))
	assert.Equal(t, 1, fake.Calls(http.MethodGet, "/notes/"+id))
	assert.Equal(t, 1, fake.Calls(http.MethodGet, "/tasks"))

	// Different parameters are different keys.
	_, err := c.ListNotes(ctx, models.ListNotesParams{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls(http.MethodGet, "/notes"))
}

func TestClient_CreateInvalidatesNotes(t *testing.T) {
	c, fake := newCachedClient(t)
	ctx := context.Background()

	notes, err := c.ListNotes(ctx, models.ListNotesParams{})
	require.NoError(t, err)
	assert.Empty(t, notes)

	_, err = c.CreateNote(ctx, models.CreateNoteRequest{Body: "new"})
	require.NoError(t, err)

	notes, err = c.ListNotes(ctx, models.ListNotesParams{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, 2, fake.Calls(http.MethodGet, "/notes"))
}

func TestClient_UpdateTaskInvalidatesTasks(t *testing.T) {
	c, fake := newCachedClient(t)
	ctx := context.Background()
	id := fake.AddTask("", models.Task{Description: "x"})

	tasks, err := c.ListTasks(ctx, models.ListTasksParams{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].Completed)

	done := true
	_, err = c.UpdateTask(ctx, id, models.UpdateTaskRequest{Completed: &done})
	require.NoError(t, err)

	tasks, err = c.ListTasks(ctx, models.ListTasksParams{})
	require.NoError(t, err)
	assert.True(t, tasks[0].Completed)
}

func TestClient_FailedMutationStillInvalidates(t *testing.T) {
	c, fake := newCachedClient(t)
	ctx := context.Background()

	_, err := c.ListTasks(ctx, models.ListTasksParams{})
	require.NoError(t, err)
	fake.Respond(http.MethodPost, "/tasks/extract", http.StatusInternalServerError, `{"detail":"llm down"}`)

	_, err = c.ExtractTasks(ctx, models.ExtractTasksRequest{Text: "TODO: a"})
	require.Error(t, err)
	assert.Zero(t, c.Cache().Len())
}

func TestClient_SearchNotCached(t *testing.T) {
	c, fake := newCachedClient(t)
	ctx := context.Background()
	for range 2 {
		_, err := c.Search(ctx, models.SearchRequest{Query: "q"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, fake.Calls(http.MethodPost, "/search/query"))
}
