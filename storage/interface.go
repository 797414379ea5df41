package storage

import (
	"context"

	"headlines/internal/domain"
)

// HeadlinesTable определяет интерфейс таблицы отображения заголовков.
// Каждый Replace полностью заменяет содержимое таблицы.
type HeadlinesTable interface {
	Replace(ctx context.Context, snap domain.Snapshot) error
	Close()
}
