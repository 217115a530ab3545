package layerio

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/pointsregroup/featurestore"
)

// ReadGeoJSON loads a feature collection into a new memory layer. Multi
// geometries are split into one feature per part, geometries that do not
// fit kind are skipped.
func ReadGeoJSON(r io.Reader, name string, kind featurestore.Kind, opts ...Option) (*featurestore.MemoryLayer, error) {
	o := loadOptions(opts...)
	log := o.logger.With("layer", name)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing geojson: %w", err)
	}

	features := make([]featurestore.Feature, 0, len(fc.Features))
	skipped := 0
	for _, f := range fc.Features {
		attrs := attributesFromProperties(f.Properties)
		parts := splitGeometry(f.Geometry, kind)
		if len(parts) == 0 {
			skipped++
			continue
		}
		for i, g := range parts {
			a := attrs
			if i > 0 {
				a = attrs.Clone()
			}
			features = append(features, featurestore.Feature{Geometry: g, Attributes: a})
		}
	}
	if skipped > 0 {
		log.Warn("skipped features with foreign geometry", "kind", kind.String(), "skipped", skipped)
	}

	layer := featurestore.NewMemoryLayer(name, kind)
	if _, err := layer.Add(features...); err != nil {
		return nil, err
	}
	log.Debug("geojson layer loaded", "features", len(features))
	return layer, nil
}

func splitGeometry(g orb.Geometry, kind featurestore.Kind) []orb.Geometry {
	switch kind {
	case featurestore.KindPoint:
		switch g := g.(type) {
		case orb.Point:
			return []orb.Geometry{g}
		case orb.MultiPoint:
			out := make([]orb.Geometry, len(g))
			for i, p := range g {
				out[i] = p
			}
			return out
		}
	case featurestore.KindPolygon:
		switch g := g.(type) {
		case orb.Polygon:
			return []orb.Geometry{g}
		case orb.MultiPolygon:
			out := make([]orb.Geometry, len(g))
			for i, p := range g {
				out[i] = p
			}
			return out
		}
	}
	return nil
}

// attributesFromProperties stringifies feature properties. Numbers keep
// their shortest representation, objects and arrays stay json encoded.
func attributesFromProperties(props geojson.Properties) featurestore.Attributes {
	attrs := make(featurestore.Attributes, len(props))
	for k, v := range props {
		switch v := v.(type) {
		case nil:
			continue
		case string:
			attrs[k] = v
		case float64:
			attrs[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			attrs[k] = strconv.FormatBool(v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				slog.Debug("unencodable property", "key", k, "error", err.Error())
				continue
			}
			attrs[k] = string(data)
		}
	}
	return attrs
}

// WriteGeoJSON writes all features of layer as a feature collection with the
// feature id as the geojson id.
func WriteGeoJSON(w io.Writer, layer featurestore.Layer) error {
	fc := geojson.NewFeatureCollection()
	layer.Features(func(f featurestore.Feature) bool {
		feature := geojson.NewFeature(f.Geometry)
		feature.ID = uint64(f.ID)
		for k, v := range f.Attributes {
			feature.Properties[k] = v
		}
		fc.Append(feature)
		return true
	})

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
