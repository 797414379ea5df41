package worker

import (
	"context"
	"log/slog"
	"sync"

	"headlines/internal/usecase"
)

// FlowRunner определяет интерфейс одного прогона сценария получения заголовков.
// Используется для внедрения зависимости в воркер.
type FlowRunner interface {
	Run(ctx context.Context) usecase.Report
}

// TriggerRecorder считает запросы на обновление.
type TriggerRecorder interface {
	RefreshTriggered(source string)
}

const (
	SourceStartup = "startup"
	SourceHTTP    = "http"
	SourceSignal  = "signal"
)

// Worker запускает сценарий один раз при старте и затем только по запросу
// на обновление. Запросы, пришедшие пока предыдущий еще не забран, схлопываются.
// Каждый прогон выполняется в своей горутине; перекрывающиеся прогоны
// разрешает HeadlineFetcher (побеждает последний).
type Worker struct {
	runner   FlowRunner
	recorder TriggerRecorder
	log      *slog.Logger
	triggers chan string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu   sync.RWMutex
	last *usecase.Report
}

// New создает воркер. recorder может быть nil.
func New(runner FlowRunner, recorder TriggerRecorder, log *slog.Logger) *Worker {
	return &Worker{
		runner:   runner,
		recorder: recorder,
		log:      log.With(slog.String("component", "worker")),
		triggers: make(chan string, 1),
	}
}

// Start запускает воркер в отдельной горутине.
// Отмена ctx или вызов Stop отменяют активные прогоны.
func (w *Worker) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run()
}

// Stop отменяет активные прогоны и ждет их завершения.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Trigger запрашивает новый прогон. Возвращает false, если запрос
// схлопнулся с уже ожидающим.
func (w *Worker) Trigger(source string) bool {
	select {
	case w.triggers <- source:
		w.record(source)
		return true
	default:
		w.log.Debug("Refresh already pending", slog.String("source", source))
		return false
	}
}

// LastReport возвращает отчет последнего завершенного прогона.
func (w *Worker) LastReport() (usecase.Report, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return usecase.Report{}, false
	}
	return *w.last, true
}

func (w *Worker) run() {
	defer w.wg.Done()
	w.log.Info("Headlines worker started")
	w.record(SourceStartup)
	w.launch(SourceStartup)
	for {
		select {
		case source := <-w.triggers:
			w.launch(source)
		case <-w.ctx.Done():
			w.log.Info("Worker stopping")
			return
		}
	}
}

func (w *Worker) launch(source string) {
	if w.ctx.Err() != nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		report := w.runner.Run(w.ctx)
		w.mu.Lock()
		w.last = &report
		w.mu.Unlock()
		w.log.Info("Flow run completed",
			slog.String("source", source),
			slog.String("run_id", report.RunID),
			slog.String("outcome", string(report.Outcome)),
			slog.Int("articles", report.Articles),
			slog.Duration("duration", report.Duration),
		)
	}()
}

func (w *Worker) record(source string) {
	if w.recorder != nil {
		w.recorder.RefreshTriggered(source)
	}
}
