package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"headlines/internal/domain"
)

// LocationResult - итог работы LocationResolver.
type LocationResult struct {
	Grant       domain.Grant
	Coordinates domain.Coordinates
}

// LocationResolver получает местоположение устройства с учетом разрешения.
// Отказ или отсутствие координат не прерывают сценарий: вызывающая сторона
// получает ErrPermissionDenied или ErrLocationUnavailable и берет регион по умолчанию.
type LocationResolver struct {
	permissions PermissionProvider
	locator     Locator
	log         *slog.Logger
}

func NewLocationResolver(permissions PermissionProvider, locator Locator, log *slog.Logger) *LocationResolver {
	return &LocationResolver{
		permissions: permissions,
		locator:     locator,
		log:         log.With(slog.String("component", "location-resolver")),
	}
}

// Permission проверяет разрешение и, если оно не выдано, запрашивает его один раз.
// Ошибки платформы трактуются как отказ.
func (r *LocationResolver) Permission(ctx context.Context) domain.Grant {
	grant, err := r.permissions.Check(ctx)
	if err != nil {
		r.log.Warn("Permission check failed", slog.Any("error", err))
		grant = domain.GrantUndetermined
	}
	if grant.Granted() {
		return grant
	}
	grant, err = r.permissions.Request(ctx)
	if err != nil {
		r.log.Warn("Permission request failed", slog.Any("error", err))
		return domain.GrantDenied
	}
	if !grant.Granted() {
		return domain.GrantDenied
	}
	return grant
}

// Locate возвращает последнее известное местоположение для выданного разрешения.
func (r *LocationResolver) Locate(ctx context.Context, grant domain.Grant) (domain.Coordinates, error) {
	if !grant.Granted() {
		return domain.Coordinates{}, ErrPermissionDenied
	}
	coords, ok, err := r.locator.LastKnown(ctx, grant)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}
	if !ok {
		return domain.Coordinates{}, ErrLocationUnavailable
	}
	if !coords.Valid() {
		return domain.Coordinates{}, fmt.Errorf("%w: invalid coordinates %s", ErrLocationUnavailable, coords)
	}
	return coords, nil
}

// Resolve объединяет Permission и Locate.
func (r *LocationResolver) Resolve(ctx context.Context) (LocationResult, error) {
	grant := r.Permission(ctx)
	coords, err := r.Locate(ctx, grant)
	if err != nil {
		return LocationResult{Grant: grant}, err
	}
	return LocationResult{Grant: grant, Coordinates: coords}, nil
}
