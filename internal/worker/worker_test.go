package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"headlines/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	runs    atomic.Int32
	block   chan struct{}
	started chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context) usecase.Report {
	n := r.runs.Add(1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return usecase.Report{Outcome: usecase.FetchDropped, Err: ctx.Err()}
		}
	}
	return usecase.Report{RunID: "run", Outcome: usecase.FetchPublished, Articles: int(n)}
}

type fakeRecorder struct {
	mu      sync.Mutex
	sources []string
}

func (r *fakeRecorder) RefreshTriggered(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *fakeRecorder) Sources() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sources...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorker_RunsOnceAtStart(t *testing.T) {
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}
	w := New(runner, recorder, discardLogger())

	w.Start(context.Background())
	assert.Eventually(t, func() bool {
		_, ok := w.LastReport()
		return ok
	}, time.Second, 5*time.Millisecond)
	w.Stop()

	assert.Equal(t, int32(1), runner.runs.Load())
	assert.Equal(t, []string{SourceStartup}, recorder.Sources())
	report, ok := w.LastReport()
	require.True(t, ok)
	assert.Equal(t, usecase.FetchPublished, report.Outcome)
}

func TestWorker_TriggerStartsAnotherRun(t *testing.T) {
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}
	w := New(runner, recorder, discardLogger())
	w.Start(context.Background())
	defer w.Stop()

	assert.True(t, w.Trigger(SourceHTTP))

	assert.Eventually(t, func() bool { return runner.runs.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{SourceStartup, SourceHTTP}, recorder.Sources())
}

func TestWorker_PendingTriggersCoalesce(t *testing.T) {
	// воркер не запущен: первый запрос ждет в буфере, второй схлопывается
	w := New(&fakeRunner{}, nil, discardLogger())

	assert.True(t, w.Trigger(SourceSignal))
	assert.False(t, w.Trigger(SourceHTTP))
}

func TestWorker_StopCancelsInFlightRuns(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{}), started: make(chan struct{}, 4)}
	w := New(runner, nil, discardLogger())
	w.Start(context.Background())

	select {
	case <-runner.started:
	case <-time.After(time.Second):
		t.Fatal("startup run did not begin")
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not wait for cancelled run")
	}

	report, ok := w.LastReport()
	require.True(t, ok)
	assert.Equal(t, usecase.FetchDropped, report.Outcome)
	assert.ErrorIs(t, report.Err, context.Canceled)
}
