package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"headlines/internal/domain"
)

// FetchOutcome - итог одного запроса заголовков.
type FetchOutcome string

const (
	FetchPublished FetchOutcome = "published"
	FetchDropped   FetchOutcome = "logged_and_dropped"
)

// FetchResult описывает завершенный запрос заголовков.
// При FetchDropped поле Err содержит причину.
type FetchResult struct {
	Region   domain.Region
	Outcome  FetchOutcome
	Articles int
	Err      error
	Duration time.Duration
}

// HeadlineFetcher выполняет запрос главных заголовков и публикует результат.
// Одновременно активен только последний запрос: новый вызов Fetch отменяет
// предыдущий, и вытесненный запрос ничего не публикует.
type HeadlineFetcher struct {
	client    HeadlinesClient
	parser    HeadlinesParser
	publisher Publisher
	apiKey    string
	log       *slog.Logger
	metrics   Metrics

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewHeadlineFetcher создает HeadlineFetcher. metrics может быть nil.
func NewHeadlineFetcher(
	client HeadlinesClient,
	parser HeadlinesParser,
	publisher Publisher,
	apiKey string,
	log *slog.Logger,
	metrics Metrics,
) *HeadlineFetcher {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &HeadlineFetcher{
		client:    client,
		parser:    parser,
		publisher: publisher,
		apiKey:    apiKey,
		log:       log.With(slog.String("component", "headline-fetcher")),
		metrics:   metrics,
	}
}

// Fetch запускает асинхронный запрос для региона и сразу возвращает канал,
// в который будет отправлен ровно один FetchResult. Канал закрывается после отправки.
func (f *HeadlineFetcher) Fetch(ctx context.Context, region domain.Region) <-chan FetchResult {
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	out := make(chan FetchResult, 1)
	go func() {
		defer close(out)
		defer cancel()
		res := f.safeRun(reqCtx, gen, region)
		f.release(gen)
		out <- res
	}()
	return out
}

func (f *HeadlineFetcher) safeRun(ctx context.Context, gen uint64, region domain.Region) (res FetchResult) {
	defer func() {
		if p := recover(); p != nil {
			res = FetchResult{Region: region, Outcome: FetchDropped, Err: fmt.Errorf("headlines request panicked: %v", p)}
			f.log.Error("Headlines request panicked", slog.Any("error", res.Err))
		}
	}()
	return f.run(ctx, gen, region)
}

// FetchSync выполняет запрос и ждет его завершения.
func (f *HeadlineFetcher) FetchSync(ctx context.Context, region domain.Region) FetchResult {
	return <-f.Fetch(ctx, region)
}

// Cancel отменяет активный запрос, если он есть.
func (f *HeadlineFetcher) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *HeadlineFetcher) release(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen == gen {
		f.cancel = nil
	}
}

func (f *HeadlineFetcher) current(gen uint64) bool {
	return f.gen == gen
}

func (f *HeadlineFetcher) run(ctx context.Context, gen uint64, region domain.Region) FetchResult {
	start := time.Now()
	log := f.log.With(
		slog.String("country", string(region.Country)),
		slog.String("language", string(region.Language)),
		slog.Bool("derived", region.Derived),
	)
	drop := func(stage string, err error) FetchResult {
		f.mu.Lock()
		superseded := !f.current(gen)
		f.mu.Unlock()
		if superseded {
			err = fmt.Errorf("%w: %w", ErrSuperseded, err)
		}
		res := FetchResult{Region: region, Outcome: FetchDropped, Err: err, Duration: time.Since(start)}
		switch {
		case superseded, errors.Is(err, context.Canceled):
			log.Info("Headlines request dropped",
				slog.String("stage", stage),
				slog.Any("error", err),
			)
		default:
			log.Error("Headlines request failed",
				slog.String("stage", stage),
				slog.Any("error", err),
			)
		}
		f.metrics.FetchCompleted(string(FetchDropped), 0, res.Duration)
		return res
	}

	log.Info("Headlines request started")

	body, err := f.client.TopHeadlines(ctx, domain.HeadlinesQuery{
		Country:  region.Country,
		Language: region.Language,
		APIKey:   f.apiKey,
	})
	if err != nil {
		return drop("fetch", err)
	}
	defer body.Close()

	resp, err := f.parser.Parse(ctx, body)
	if err != nil {
		return drop("parse", err)
	}
	if !resp.OK() {
		return drop("parse", fmt.Errorf("unsuccessful response status %q", resp.Status))
	}
	if !resp.HasArticles() {
		return drop("parse", errors.New("response contains no articles list"))
	}

	snap, err := f.publish(ctx, gen, region, resp.Articles)
	if err != nil {
		return drop("publish", err)
	}
	f.publisher.Persist(ctx, snap)

	res := FetchResult{
		Region:   region,
		Outcome:  FetchPublished,
		Articles: len(resp.Articles),
		Duration: time.Since(start),
	}
	f.metrics.FetchCompleted(string(FetchPublished), res.Articles, res.Duration)
	log.Info("Headlines published",
		slog.Int("articles", res.Articles),
		slog.Int("total_results", resp.TotalResults),
		slog.Duration("duration", res.Duration),
	)
	return res
}

// publish проверяет поколение и заменяет список под мьютексом, чтобы
// вытесняющий запрос не начался между проверкой и публикацией.
func (f *HeadlineFetcher) publish(ctx context.Context, gen uint64, region domain.Region, articles []domain.Article) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.current(gen) {
		return domain.Snapshot{}, errors.New("newer request started")
	}
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	return f.publisher.Publish(ctx, region, articles), nil
}
