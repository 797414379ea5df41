package usecase

import (
	"context"
	"io"
	"time"

	"headlines/internal/domain"
)

// PermissionProvider определяет интерфейс платформенного разрешения на доступ к местоположению.
// Request может показать пользователю запрос и вернуть его решение.
type PermissionProvider interface {
	Check(ctx context.Context) (domain.Grant, error)
	Request(ctx context.Context) (domain.Grant, error)
}

// Locator возвращает последнее известное местоположение устройства.
// ok равен false, если свежих координат нет.
type Locator interface {
	LastKnown(ctx context.Context, grant domain.Grant) (coords domain.Coordinates, ok bool, err error)
}

// Geocoder преобразует координаты в двухбуквенный код страны.
type Geocoder interface {
	CountryCode(ctx context.Context, c domain.Coordinates) (domain.RegionCode, error)
}

// LocaleProvider возвращает язык из настроек локали платформы.
type LocaleProvider interface {
	Language() (domain.LanguageCode, error)
}

// HeadlinesClient выполняет один запрос главных заголовков.
// Возвращает io.ReadCloser который должен быть закрыт после использования.
type HeadlinesClient interface {
	TopHeadlines(ctx context.Context, q domain.HeadlinesQuery) (io.ReadCloser, error)
}

// HeadlinesParser разбирает ответ сервиса заголовков в доменную модель.
type HeadlinesParser interface {
	Parse(ctx context.Context, reader io.Reader) (*domain.HeadlinesResponse, error)
}

// Publisher передает список статей слою отображения.
// Каждый вызов Publish полностью заменяет ранее опубликованный список;
// Persist сохраняет снимок во внешние хранилища и может быть медленным.
type Publisher interface {
	Publish(ctx context.Context, region domain.Region, articles []domain.Article) domain.Snapshot
	Persist(ctx context.Context, snap domain.Snapshot)
}

// Metrics принимает итоги загрузок и прогонов сценария.
type Metrics interface {
	FetchCompleted(outcome string, articles int, elapsed time.Duration)
	FlowCompleted(outcome string, derived bool)
}

type noopMetrics struct{}

func (noopMetrics) FetchCompleted(string, int, time.Duration) {}
func (noopMetrics) FlowCompleted(string, bool)                {}
