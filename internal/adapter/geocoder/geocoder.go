package geocoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"headlines/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrNoCountry возвращается, когда точка не попадает ни в одну страну (например, над морем).
var ErrNoCountry = errors.New("no country at point")

type country struct {
	code  domain.RegionCode
	name  string
	geom  orb.Geometry
	bound orb.Bound
}

// CountryGeocoder выполняет обратное геокодирование координат в код страны
// по полигонам границ (point-in-polygon). Данные неизменяемы после загрузки,
// поэтому геокодер безопасен для конкурентного использования.
type CountryGeocoder struct {
	countries []country
	log       *slog.Logger
}

// Load загружает границы стран из файла .geojson/.json или .shp.
func Load(path string, log *slog.Logger) (*CountryGeocoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		fc, err := readShapefile(path)
		if err != nil {
			return nil, err
		}
		return New(fc, log)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read boundaries file %s: %w", path, err)
		}
		return FromGeoJSON(data, log)
	}
}

// FromGeoJSON разбирает FeatureCollection с границами стран.
func FromGeoJSON(data []byte, log *slog.Logger) (*CountryGeocoder, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse boundaries GeoJSON: %w", err)
	}
	return New(fc, log)
}

// New строит геокодер по набору объектов. Объекты без полигона
// или без двухбуквенного кода пропускаются.
func New(fc *geojson.FeatureCollection, log *slog.Logger) (*CountryGeocoder, error) {
	g := &CountryGeocoder{log: log.With(slog.String("component", "geocoder"))}
	skipped := 0
	for _, f := range fc.Features {
		code := isoCode(f.Properties)
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			skipped++
			continue
		}
		if !code.Valid() {
			skipped++
			continue
		}
		g.countries = append(g.countries, country{
			code:  code,
			name:  stringProp(f.Properties, "NAME"),
			geom:  f.Geometry,
			bound: f.Geometry.Bound(),
		})
	}
	if len(g.countries) == 0 {
		return nil, fmt.Errorf("boundaries contain no usable country polygons")
	}
	g.log.Info("Country boundaries loaded",
		slog.Int("countries", len(g.countries)),
		slog.Int("skipped", skipped),
	)
	return g, nil
}

// CountryCode возвращает ISO 3166-1 alpha-2 код страны, содержащей точку.
func (g *CountryGeocoder) CountryCode(ctx context.Context, c domain.Coordinates) (domain.RegionCode, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.Valid() {
		return "", fmt.Errorf("invalid coordinates %s", c)
	}
	point := orb.Point{c.Longitude, c.Latitude} // orb хранит [lon, lat]
	for _, ct := range g.countries {
		if !ct.bound.Contains(point) {
			continue
		}
		if containsPoint(ct.geom, point) {
			g.log.Debug("Coordinates geocoded",
				slog.String("coordinates", c.String()),
				slog.String("country", string(ct.code)),
				slog.String("name", ct.name),
			)
			return ct.code, nil
		}
	}
	return "", fmt.Errorf("%w %s", ErrNoCountry, c)
}

// Countries возвращает число загруженных стран.
func (g *CountryGeocoder) Countries() int { return len(g.countries) }

func containsPoint(geom orb.Geometry, point orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, point)
	}
	return false
}

func stringProp(props geojson.Properties, key string) string {
	if val, ok := props[key]; ok {
		if s, ok := val.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// isoCode берет код из ISO_A2, при значении -99 (так Natural Earth помечает
// часть территорий) - из ISO_A2_EH. Поддерживается и строчное iso_a2.
func isoCode(props geojson.Properties) domain.RegionCode {
	for _, key := range []string{"ISO_A2", "ISO_A2_EH", "iso_a2", "iso_a2_eh"} {
		code := stringProp(props, key)
		if code != "" && code != "-99" {
			return domain.RegionCode(strings.ToUpper(code))
		}
	}
	return ""
}
