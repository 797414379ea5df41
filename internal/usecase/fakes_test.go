package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"headlines/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePermissions struct {
	check      domain.Grant
	checkErr   error
	request    domain.Grant
	requestErr error
	requests   int
}

func (p *fakePermissions) Check(context.Context) (domain.Grant, error) {
	return p.check, p.checkErr
}

func (p *fakePermissions) Request(context.Context) (domain.Grant, error) {
	p.requests++
	return p.request, p.requestErr
}

type fakeLocator struct {
	coords domain.Coordinates
	ok     bool
	err    error
	grants []domain.Grant
}

func (l *fakeLocator) LastKnown(_ context.Context, grant domain.Grant) (domain.Coordinates, bool, error) {
	l.grants = append(l.grants, grant)
	return l.coords, l.ok, l.err
}

// fakeGeocoder отвечает по таблице координат; неизвестная точка - ошибка.
type fakeGeocoder struct {
	codes map[domain.Coordinates]domain.RegionCode
	err   error
	panic bool
}

func (g *fakeGeocoder) CountryCode(_ context.Context, c domain.Coordinates) (domain.RegionCode, error) {
	if g.panic {
		panic("geocoder exploded")
	}
	if g.err != nil {
		return "", g.err
	}
	code, ok := g.codes[c]
	if !ok {
		return "", errors.New("no country")
	}
	return code, nil
}

type fakeLocale struct {
	lang domain.LanguageCode
	err  error
}

func (l fakeLocale) Language() (domain.LanguageCode, error) {
	return l.lang, l.err
}

// fakeClient записывает запросы; respond задает ответ по номеру вызова (с нуля).
type fakeClient struct {
	mu      sync.Mutex
	queries []domain.HeadlinesQuery
	respond func(ctx context.Context, call int) (io.ReadCloser, error)
}

func (c *fakeClient) TopHeadlines(ctx context.Context, q domain.HeadlinesQuery) (io.ReadCloser, error) {
	c.mu.Lock()
	call := len(c.queries)
	c.queries = append(c.queries, q)
	c.mu.Unlock()
	if c.respond == nil {
		return io.NopCloser(strings.NewReader("{}")), nil
	}
	return c.respond(ctx, call)
}

func (c *fakeClient) Queries() []domain.HeadlinesQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.HeadlinesQuery(nil), c.queries...)
}

type fakeParser struct {
	resp *domain.HeadlinesResponse
	err  error
}

func (p *fakeParser) Parse(_ context.Context, r io.Reader) (*domain.HeadlinesResponse, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return p.resp, p.err
}

type publication struct {
	region   domain.Region
	articles []domain.Article
}

type fakePublisher struct {
	mu        sync.Mutex
	calls     []publication
	persisted []uint64
	// persist, если задан, вызывается из Persist вне мьютекса.
	persist func(ctx context.Context)
}

func (p *fakePublisher) Publish(_ context.Context, region domain.Region, articles []domain.Article) domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, publication{region: region, articles: articles})
	return domain.Snapshot{Version: uint64(len(p.calls)), Region: region, Articles: articles}
}

func (p *fakePublisher) Persist(ctx context.Context, snap domain.Snapshot) {
	p.mu.Lock()
	persist := p.persist
	p.mu.Unlock()
	if persist != nil {
		persist(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.persisted = append(p.persisted, snap.Version)
}

func (p *fakePublisher) Persisted() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.persisted...)
}

func (p *fakePublisher) Calls() []publication {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publication(nil), p.calls...)
}

type fakeMetrics struct {
	mu      sync.Mutex
	fetches []string
	flows   []string
	derived []bool
}

func (m *fakeMetrics) FetchCompleted(outcome string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, outcome)
}

func (m *fakeMetrics) FlowCompleted(outcome string, derived bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows = append(m.flows, outcome)
	m.derived = append(m.derived, derived)
}

func okResponse(titles ...string) *domain.HeadlinesResponse {
	resp := &domain.HeadlinesResponse{
		Status:       domain.StatusOK,
		TotalResults: len(titles),
		Articles:     make([]domain.Article, 0, len(titles)),
	}
	for _, t := range titles {
		resp.Articles = append(resp.Articles, domain.Article{
			Source: domain.Source{Name: "Source " + t},
			Title:  t,
		})
	}
	return resp
}
