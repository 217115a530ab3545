package layerio

import (
	"context"
	"io"
	"runtime"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/royalcat/pointsregroup/featurestore"
)

// OSMIDKey holds the id of the way a polygon was built from.
const OSMIDKey = "osm_id"

// ReadOSM builds a polygon layer of the closed building ways of an OSM
// extract. Node coordinates are collected on the fly, so nodes must precede
// the ways referencing them as they do in regular extracts.
func ReadOSM(ctx context.Context, r io.Reader, format Format, name string, opts ...Option) (*featurestore.MemoryLayer, error) {
	o := loadOptions(opts...)
	log := o.logger.With("layer", name)

	var scanner osm.Scanner
	switch format {
	case FormatOSMXML:
		scanner = osmxml.New(ctx, r)
	case FormatOSMPBF:
		pbf := osmpbf.New(ctx, r, runtime.GOMAXPROCS(0))
		pbf.SkipRelations = true
		scanner = pbf
	default:
		return nil, ErrUnsupportedFormat
	}
	defer scanner.Close()

	nodes := map[osm.NodeID]orb.Point{}
	features := []featurestore.Feature{}
	broken := 0

	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Node:
			nodes[obj.ID] = orb.Point{obj.Lon, obj.Lat}
		case *osm.Way:
			if obj.Tags.Find("building") == "" {
				continue
			}
			polygon, ok := wayPolygon(obj, nodes)
			if !ok {
				broken++
				continue
			}
			features = append(features, featurestore.Feature{
				Geometry:   polygon,
				Attributes: wayAttributes(obj),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if broken > 0 {
		log.Warn("skipped unclosed or incomplete building ways", "skipped", broken)
	}

	layer := featurestore.NewMemoryLayer(name, featurestore.KindPolygon)
	if _, err := layer.Add(features...); err != nil {
		return nil, err
	}
	log.Debug("osm layer loaded", "buildings", len(features), "nodes", len(nodes))
	return layer, nil
}

func wayPolygon(way *osm.Way, nodes map[osm.NodeID]orb.Point) (orb.Polygon, bool) {
	if len(way.Nodes) < 4 || way.Nodes[0].ID != way.Nodes[len(way.Nodes)-1].ID {
		return nil, false
	}

	ring := make(orb.Ring, 0, len(way.Nodes))
	for _, wn := range way.Nodes {
		p, ok := nodes[wn.ID]
		if !ok {
			if wn.Lat == 0 && wn.Lon == 0 {
				return nil, false
			}
			p = orb.Point{wn.Lon, wn.Lat}
		}
		ring = append(ring, p)
	}
	return orb.Polygon{ring}, true
}

func wayAttributes(way *osm.Way) featurestore.Attributes {
	attrs := make(featurestore.Attributes, len(way.Tags)+1)
	for _, tag := range way.Tags {
		attrs[tag.Key] = tag.Value
	}
	attrs[OSMIDKey] = strconv.FormatInt(int64(way.ID), 10)
	return attrs
}
