package geocoder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"headlines/internal/domain"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Упрощенные прямоугольные границы, достаточные для проверки поиска.
const testBoundaries = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"ISO_A2": "RU", "NAME": "Russia"},
      "geometry": {"type": "Polygon", "coordinates": [[[27,41],[60,41],[60,70],[27,70],[27,41]]]}
    },
    {
      "type": "Feature",
      "properties": {"ISO_A2": "US", "NAME": "United States of America"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[-125,24],[-66,24],[-66,50],[-125,50],[-125,24]]],
        [[[-170,52],[-130,52],[-130,71],[-170,71],[-170,52]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"ISO_A2": "-99", "ISO_A2_EH": "FR", "NAME": "France"},
      "geometry": {"type": "Polygon", "coordinates": [[[-5,42],[8,42],[8,51],[-5,51],[-5,42]]]}
    },
    {
      "type": "Feature",
      "properties": {"ISO_A2": "XX"},
      "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}
    },
    {
      "type": "Feature",
      "properties": {"ISO_A2": "-99"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}
    }
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGeocoder(t *testing.T) *CountryGeocoder {
	t.Helper()
	g, err := FromGeoJSON([]byte(testBoundaries), discardLogger())
	require.NoError(t, err)
	return g
}

func TestCountryGeocoder_CountryCode(t *testing.T) {
	g := newTestGeocoder(t)
	assert.Equal(t, 3, g.Countries())

	tests := []struct {
		name     string
		lat, lon float64
		want     domain.RegionCode
	}{
		{"Moscow", 55.75, 37.62, "RU"},
		{"New York", 40.7128, -74.0060, "US"},
		{"Anchorage", 61.2, -149.9, "US"},
		{"Paris via ISO_A2_EH", 48.8566, 2.3522, "FR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.CountryCode(context.Background(), domain.Coordinates{Latitude: tt.lat, Longitude: tt.lon})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountryGeocoder_OverWater(t *testing.T) {
	g := newTestGeocoder(t)

	_, err := g.CountryCode(context.Background(), domain.Coordinates{Latitude: 0.5, Longitude: 0.5})

	assert.True(t, errors.Is(err, ErrNoCountry))
}

func TestCountryGeocoder_InvalidInput(t *testing.T) {
	g := newTestGeocoder(t)

	_, err := g.CountryCode(context.Background(), domain.Coordinates{Latitude: 100, Longitude: 0})
	assert.ErrorContains(t, err, "invalid coordinates")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.CountryCode(ctx, domain.Coordinates{Latitude: 55.75, Longitude: 37.62})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFromGeoJSON_Errors(t *testing.T) {
	_, err := FromGeoJSON([]byte(`not json`), discardLogger())
	assert.ErrorContains(t, err, "failed to parse boundaries GeoJSON")

	_, err = FromGeoJSON([]byte(`{"type":"FeatureCollection","features":[]}`), discardLogger())
	assert.ErrorContains(t, err, "no usable country polygons")
}

func TestLoad_GeoJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.geojson")
	require.NoError(t, os.WriteFile(path, []byte(testBoundaries), 0o600))

	g, err := Load(path, discardLogger())

	require.NoError(t, err)
	got, err := g.CountryCode(context.Background(), domain.Coordinates{Latitude: 55.75, Longitude: 37.62})
	require.NoError(t, err)
	assert.Equal(t, domain.RegionCode("RU"), got)
}

type shapeRow struct {
	code, name string
	parts      [][]shp.Point
}

// writeShapefile пишет полигоны и атрибуты в path. go-shp создает файл
// атрибутов без точки перед расширением, поэтому он переименовывается.
func writeShapefile(t *testing.T, path string, rows []shapeRow) {
	t.Helper()
	writer, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, writer.SetFields([]shp.Field{
		shp.StringField("ISO_A2", 2),
		shp.StringField("NAME", 32),
	}))
	for _, r := range rows {
		poly := shp.Polygon(*shp.NewPolyLine(r.parts))
		row := writer.Write(&poly)
		require.NoError(t, writer.WriteAttribute(int(row), 0, r.code))
		require.NoError(t, writer.WriteAttribute(int(row), 1, r.name))
	}
	writer.Close()

	base := strings.TrimSuffix(path, filepath.Ext(path))
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

func TestLoad_Shapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.shp")
	writeShapefile(t, path, []shapeRow{{
		code: "RU",
		name: "Russia",
		parts: [][]shp.Point{
			{{X: 27, Y: 41}, {X: 27, Y: 70}, {X: 60, Y: 70}, {X: 60, Y: 41}, {X: 27, Y: 41}},
		},
	}})

	g, err := Load(path, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, 1, g.Countries())
	got, err := g.CountryCode(context.Background(), domain.Coordinates{Latitude: 55.75, Longitude: 37.62})
	require.NoError(t, err)
	assert.Equal(t, domain.RegionCode("RU"), got)
}

func TestLoad_ShapefileEnclave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countries.shp")
	writeShapefile(t, path, []shapeRow{
		{
			code: "ZA",
			name: "South Africa",
			parts: [][]shp.Point{
				// внешнее кольцо по часовой стрелке
				{{X: 16, Y: -35}, {X: 16, Y: -22}, {X: 33, Y: -22}, {X: 33, Y: -35}, {X: 16, Y: -35}},
				// дыра против часовой стрелки
				{{X: 27, Y: -30.7}, {X: 29.5, Y: -30.7}, {X: 29.5, Y: -28.5}, {X: 27, Y: -28.5}, {X: 27, Y: -30.7}},
			},
		},
		{
			code: "LS",
			name: "Lesotho",
			parts: [][]shp.Point{
				{{X: 27, Y: -30.7}, {X: 27, Y: -28.5}, {X: 29.5, Y: -28.5}, {X: 29.5, Y: -30.7}, {X: 27, Y: -30.7}},
			},
		},
	})

	g, err := Load(path, discardLogger())
	require.NoError(t, err)

	tests := []struct {
		name   string
		coords domain.Coordinates
		want   domain.RegionCode
	}{
		{"enclave", domain.Coordinates{Latitude: -29.6, Longitude: 28.2}, "LS"},
		{"surrounding country", domain.Coordinates{Latitude: -26, Longitude: 25}, "ZA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.CountryCode(context.Background(), tt.coords)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertPolygon_Rings(t *testing.T) {
	islands := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
		{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}},
		{{X: 20, Y: 0}, {X: 20, Y: 5}, {X: 25, Y: 5}, {X: 25, Y: 0}, {X: 20, Y: 0}},
	}))

	mp := convertPolygon(&islands)

	require.Len(t, mp, 2)
	assert.Len(t, mp[0], 2, "hole attached to the enclosing outer ring")
	assert.Len(t, mp[1], 1)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.geojson"), discardLogger())
	assert.ErrorContains(t, err, "failed to read boundaries file")
}
