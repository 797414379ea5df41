package usecase

import (
	"context"

	"headlines/internal/domain"
)

// SnapshotSource определяет интерфейс доступа к последнему опубликованному списку.
// Используется для предоставления данных через API.
type SnapshotSource interface {
	Current() domain.Snapshot
}

// HeadlinesGetterUseCase отдает опубликованные заголовки слою транспорта.
type HeadlinesGetterUseCase struct {
	source SnapshotSource
}

// NewHeadlinesGetterUseCase создает новый экземпляр UseCase для получения заголовков.
func NewHeadlinesGetterUseCase(s SnapshotSource) *HeadlinesGetterUseCase {
	return &HeadlinesGetterUseCase{source: s}
}

// GetHeadlines возвращает текущий список, обрезанный до limit статей.
// limit <= 0 означает весь список. Порядок статей сохраняется.
func (uc *HeadlinesGetterUseCase) GetHeadlines(ctx context.Context, limit int) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}
	snap := uc.source.Current()
	if limit > 0 && len(snap.Articles) > limit {
		snap.Articles = snap.Articles[:limit]
	}
	return snap, nil
}
