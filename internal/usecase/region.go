package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"headlines/internal/domain"
)

// RegionMapper определяет код страны по координатам.
type RegionMapper struct {
	geocoder Geocoder
	log      *slog.Logger
}

// NewRegionMapper создает RegionMapper. geocoder может быть nil, тогда регион
// всегда считается неопределенным.
func NewRegionMapper(geocoder Geocoder, log *slog.Logger) *RegionMapper {
	return &RegionMapper{
		geocoder: geocoder,
		log:      log.With(slog.String("component", "region-mapper")),
	}
}

// Map возвращает двухбуквенный код страны или ErrRegionUnresolved
// (с причиной), если геокодер ничего не нашел, вернул ошибку или упал.
func (m *RegionMapper) Map(ctx context.Context, c domain.Coordinates) (code domain.RegionCode, err error) {
	defer func() {
		if p := recover(); p != nil {
			code, err = "", fmt.Errorf("%w: geocoder panicked: %v", ErrRegionUnresolved, p)
		}
	}()
	if m.geocoder == nil {
		return "", fmt.Errorf("%w: no geocoder configured", ErrRegionUnresolved)
	}
	code, err = m.geocoder.CountryCode(ctx, c)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRegionUnresolved, err)
	}
	if !code.Valid() {
		return "", fmt.Errorf("%w: geocoder returned %q", ErrRegionUnresolved, code)
	}
	m.log.Debug("Region resolved",
		slog.String("coordinates", c.String()),
		slog.String("country", string(code)),
	)
	return code, nil
}
