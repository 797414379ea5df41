package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"headlines/internal/domain"

	"github.com/sony/gobreaker"
)

const topHeadlinesPath = "v2/top-headlines"

// maxErrorBody ограничивает объем тела ответа с ошибкой, попадающего в лог.
const maxErrorBody = 4 << 10

// StatusError возвращается, когда сервис заголовков ответил неуспешным HTTP-статусом.
// Body содержит начало тела ответа (обычно JSON с полями code и message).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// HTTPFetcher реализует HeadlinesClient из usecase поверх одного внедренного http.Client.
// Выполняет ровно один GET-запрос на вызов, без повторов; при включенном
// предохранителе запросы к недоступному сервису сразу завершаются ошибкой.
type HTTPFetcher struct {
	client  *http.Client
	baseURL *url.URL
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

// Option настраивает HTTPFetcher.
type Option func(*HTTPFetcher)

// WithBreaker подключает предохранитель к запросам.
func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(f *HTTPFetcher) { f.breaker = cb }
}

// NewHTTPFetcher создает клиент сервиса заголовков.
// Если client равен nil, используется http.DefaultClient.
func NewHTTPFetcher(client *http.Client, baseURL string, log *slog.Logger, opts ...Option) (*HTTPFetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", baseURL, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	f := &HTTPFetcher{
		client:  client,
		baseURL: u,
		log:     log.With(slog.String("component", "headlines-client")),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// TopHeadlines запрашивает главные заголовки для страны и языка из запроса.
// Возвращает тело ответа как io.ReadCloser, которое должно быть закрыто после использования.
// Неуспешный статус возвращается как *StatusError, ошибки сети - с оберткой %w.
func (f *HTTPFetcher) TopHeadlines(ctx context.Context, q domain.HeadlinesQuery) (io.ReadCloser, error) {
	endpoint := f.endpoint(q)
	log := f.log.With(
		slog.String("country", string(q.Country)),
		slog.String("language", string(q.Language)),
	)
	log.Info("Requesting top headlines")

	if f.breaker == nil {
		return f.do(ctx, endpoint, log)
	}
	res, err := f.breaker.Execute(func() (interface{}, error) {
		return f.do(ctx, endpoint, log)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Warn("Circuit breaker rejected request", slog.Any("error", err))
			return nil, fmt.Errorf("headlines endpoint unavailable: %w", err)
		}
		return nil, err
	}
	return res.(io.ReadCloser), nil
}

func (f *HTTPFetcher) do(ctx context.Context, endpoint string, log *slog.Logger) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		err = redactError(err)
		log.Error("Failed to create HTTP request", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create headlines request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		err = redactError(err)
		log.Error("HTTP request failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch top headlines: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Error("Unexpected status code",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	log.Debug("Top headlines response received")
	return resp.Body, nil
}

// endpoint собирает URL запроса; ключ API передается параметром apiKey.
func (f *HTTPFetcher) endpoint(q domain.HeadlinesQuery) string {
	u := f.baseURL.ResolveReference(&url.URL{Path: topHeadlinesPath})
	params := url.Values{}
	params.Set("country", string(q.Country))
	params.Set("language", string(q.Language))
	params.Set("apiKey", q.APIKey)
	u.RawQuery = params.Encode()
	return u.String()
}

// redactError убирает ключ API из URL внутри *url.Error,
// чтобы он не попал в логи и в обертки ошибки.
func redactError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redactURL(ue.URL)
	}
	return err
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "***")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
