package geocoder

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// readShapefile читает полигоны стран и их атрибуты из ESRI shapefile
// (например, Natural Earth admin 0 countries).
func readShapefile(path string) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	fieldNames := make([]string, len(fields))
	for i, f := range fields {
		fieldNames[i] = f.String()
	}

	fc := geojson.NewFeatureCollection()
	for reader.Next() {
		n, p := reader.Shape()
		poly, ok := p.(*shp.Polygon)
		if !ok {
			continue
		}
		f := geojson.NewFeature(convertPolygon(poly))
		for i, name := range fieldNames {
			f.Properties[name] = strings.TrimSpace(reader.ReadAttribute(n, i))
		}
		fc.Append(f)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shapes in %s: %w", path, err)
	}
	return fc, nil
}

// convertPolygon переводит части shapefile-полигона в orb.MultiPolygon.
// Внешние кольца в shapefile идут по часовой стрелке, дыры - против.
// Дыра прикрепляется к внешнему кольцу, которое ее содержит; дыра без
// такого кольца считается отдельным полигоном.
func convertPolygon(s *shp.Polygon) orb.MultiPolygon {
	var mp orb.MultiPolygon
	var holes []orb.Ring
	for i := 0; i < int(s.NumParts); i++ {
		start := s.Parts[i]
		end := s.NumPoints
		if i < int(s.NumParts)-1 {
			end = s.Parts[i+1]
		}
		ring := make(orb.Ring, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{s.Points[j].X, s.Points[j].Y})
		}
		if len(ring) < 4 {
			continue
		}
		if ring.Orientation() == orb.CCW {
			holes = append(holes, ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	for _, hole := range holes {
		if k := enclosing(mp, hole); k >= 0 {
			mp[k] = append(mp[k], hole)
			continue
		}
		mp = append(mp, orb.Polygon{hole})
	}
	return mp
}

// enclosing возвращает индекс полигона, внешнее кольцо которого содержит
// кольцо hole, или -1.
func enclosing(mp orb.MultiPolygon, hole orb.Ring) int {
	for k, poly := range mp {
		if !poly[0].Bound().Contains(hole[0]) {
			continue
		}
		if planar.RingContains(poly[0], hole[0]) {
			return k
		}
	}
	return -1
}
