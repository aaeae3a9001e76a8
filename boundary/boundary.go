// Package boundary loads administrative boundary polygons from
// GeoJSON or ESRI shapefiles and converts between the two formats.
package boundary

import (
	"os"
	"sort"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/pkg/errors"

	"choromap/geom"
	"choromap/geom/geojson"
)

// Feature is one district or state polygon with the key used for
// joining against the statistics table.
type Feature struct {
	Key  string
	Geom geom.Geometry
}

// LoadGeoJSON reads all polygon features and extracts the join key
// from the given property column.
func LoadGeoJSON(filename, keyColumn string) ([]Feature, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening boundary file")
	}
	defer f.Close()

	raw, err := geojson.ReadFeatures(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filename)
	}
	features := make([]Feature, 0, len(raw))
	for i := range raw {
		key, ok := raw[i].Property(keyColumn)
		if !ok {
			return nil, errors.Errorf("%s: feature %d has no property %q",
				filename, i, keyColumn)
		}
		features = append(features, Feature{
			Key:  strings.TrimSpace(key),
			Geom: raw[i].Geometry,
		})
	}
	return features, nil
}

// LoadShapefile reads all polygon shapes and their join key from the
// named DBF attribute column.
func LoadShapefile(filename, keyColumn string) ([]Feature, error) {
	r, err := shp.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening shapefile")
	}
	defer r.Close()

	keyField := -1
	for i, field := range r.Fields() {
		if field.String() == dbfFieldName(keyColumn) {
			keyField = i
			break
		}
	}
	if keyField < 0 {
		return nil, errors.Errorf("%s: no attribute column %q", filename, keyColumn)
	}

	var features []Feature
	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return nil, errors.Errorf("%s: shape %d is not a polygon", filename, n)
		}
		features = append(features, Feature{
			Key:  strings.TrimSpace(r.ReadAttribute(n, keyField)),
			Geom: polygonGeometry(poly),
		})
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return features, nil
}

func polygonGeometry(poly *shp.Polygon) geom.Geometry {
	rings := make(geom.Polygon, 0, len(poly.Parts))
	for i, start := range poly.Parts {
		end := int32(len(poly.Points))
		if i+1 < len(poly.Parts) {
			end = poly.Parts[i+1]
		}
		ring := make(geom.Ring, 0, end-start)
		for _, p := range poly.Points[start:end] {
			ring = append(ring, geom.Point{X: p.X, Y: p.Y})
		}
		rings = append(rings, ring)
	}
	return geom.Geometry{rings}
}

// Convert reads a GeoJSON boundary file and writes it out as a
// polygon shapefile. All feature properties are carried over as
// string attributes (names truncated to the DBF limit).
func Convert(geojsonFile, shapefile string) error {
	f, err := os.Open(geojsonFile)
	if err != nil {
		return errors.Wrap(err, "opening geojson file")
	}
	defer f.Close()

	features, err := geojson.ReadFeatures(f)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", geojsonFile)
	}
	if len(features) == 0 {
		return errors.Errorf("%s: no features", geojsonFile)
	}

	names := propertyNames(features)
	fields := make([]shp.Field, len(names))
	for i, name := range names {
		fields[i] = shp.StringField(dbfFieldName(name), 64)
	}

	w, err := shp.Create(shapefile, shp.POLYGON)
	if err != nil {
		return errors.Wrap(err, "creating shapefile")
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return errors.Wrap(err, "setting attribute fields")
	}

	for i := range features {
		w.Write(shpPolygon(features[i].Geometry))
		for j, name := range names {
			value, _ := features[i].Property(name)
			if err := w.WriteAttribute(i, j, value); err != nil {
				w.Close()
				return errors.Wrapf(err, "writing attribute %q", name)
			}
		}
	}
	w.Close()
	return renameAttributeTable(shapefile)
}

// renameAttributeTable moves the DBF written by the shapefile writer
// to the name the reader expects. The writer emits "<base>dbf" without
// the dot separator, the reader opens "<base>.dbf"; without the rename
// every converted shapefile loads with an empty attribute table.
func renameAttributeTable(shapefile string) error {
	base := strings.TrimSuffix(shapefile, ".shp")
	misnamed := base + "dbf"
	if _, err := os.Stat(misnamed); err != nil {
		return nil
	}
	if err := os.Rename(misnamed, base+".dbf"); err != nil {
		return errors.Wrap(err, "renaming attribute table")
	}
	return nil
}

// EnsureShapefile converts the GeoJSON boundary to a shapefile unless
// the shapefile already exists. Idempotent.
func EnsureShapefile(geojsonFile, shapefile string) (converted bool, err error) {
	if _, err := os.Stat(shapefile); err == nil {
		return false, nil
	}
	if err := Convert(geojsonFile, shapefile); err != nil {
		return false, err
	}
	return true, nil
}

func propertyNames(features []geojson.Feature) []string {
	var names []string
	seen := make(map[string]bool)
	for i := range features {
		for name := range features[i].Properties {
			truncated := dbfFieldName(name)
			if seen[truncated] {
				continue
			}
			seen[truncated] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// dbfFieldName truncates to the 10 character DBF column name limit.
func dbfFieldName(name string) string {
	if len(name) > 10 {
		return name[:10]
	}
	return name
}

func shpPolygon(g geom.Geometry) *shp.Polygon {
	var parts [][]shp.Point
	for _, poly := range g {
		for _, ring := range poly {
			part := make([]shp.Point, 0, len(ring)+1)
			for _, p := range ring {
				part = append(part, shp.Point{X: p.X, Y: p.Y})
			}
			// shapefile rings must be closed
			if len(part) > 0 && part[0] != part[len(part)-1] {
				part = append(part, part[0])
			}
			parts = append(parts, part)
		}
	}
	return (*shp.Polygon)(shp.NewPolyLine(parts))
}
