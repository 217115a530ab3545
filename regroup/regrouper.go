package regroup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/pointsregroup/featurestore"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	meter  = otel.Meter("github.com/royalcat/pointsregroup/regroup")
	tracer = otel.Tracer("github.com/royalcat/pointsregroup/regroup")
)

type Result struct {
	Anchor   featurestore.FeatureID
	Polygon  featurestore.FeatureID
	Count    int
	Removed  []featurestore.FeatureID
	Inserted []featurestore.FeatureID
}

type Regrouper struct {
	cfg        Config
	normalizer *Normalizer
	placer     Placer
	log        *slog.Logger

	metricRuns      metric.Int64Counter
	metricRejected  metric.Int64Counter
	metricGenerated metric.Int64Counter
	metricRemoved   metric.Int64Counter
}

func New(cfg Config, opts ...Option) (*Regrouper, error) {
	o := loadOptions(opts...)

	placer, err := NewPlacer(cfg.Mode, o.rand)
	if err != nil {
		return nil, err
	}

	r := &Regrouper{
		cfg:        cfg,
		normalizer: NewNormalizer(cfg),
		placer:     placer,
		log:        o.logger.With("component", "regroup", "mode", string(cfg.Mode)),
	}

	if r.metricRuns, err = meter.Int64Counter("regroup_runs_total"); err != nil {
		return nil, err
	}
	if r.metricRejected, err = meter.Int64Counter("regroup_rejected_total"); err != nil {
		return nil, err
	}
	if r.metricGenerated, err = meter.Int64Counter("points_generated_total"); err != nil {
		return nil, err
	}
	if r.metricRemoved, err = meter.Int64Counter("points_removed_total"); err != nil {
		return nil, err
	}

	return r, nil
}

// Run replaces the selection of every vector layer with the features under
// rect and regenerates points for the selected polygon.
func (r *Regrouper) Run(ctx context.Context, store featurestore.Store, rect orb.Bound) (Result, error) {
	SelectInBound(store, rect)
	return r.Generate(ctx, store)
}

// SelectInBound clears the selection of all layers and selects the features
// intersecting rect in every vector layer.
func SelectInBound(store featurestore.Store, rect orb.Bound) {
	for _, l := range store.Layers() {
		l.ClearSelection()
	}
	for _, l := range store.Layers() {
		if l.Kind() == featurestore.KindRaster {
			continue
		}
		l.Select(rect, false)
	}
}

// Generate regroups points of the current selection. Nothing in store is
// changed when an error is returned.
func (r *Regrouper) Generate(ctx context.Context, store featurestore.Store) (Result, error) {
	ctx, span := tracer.Start(ctx, "Generate", trace.WithAttributes(attribute.String("mode", string(r.cfg.Mode))))
	defer span.End()

	r.metricRuns.Add(ctx, 1)

	res, err := r.generate(ctx, store)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.metricRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", Reason(err))))
		return Result{}, err
	}
	span.SetAttributes(attribute.Int("inserted", len(res.Inserted)), attribute.Int("removed", len(res.Removed)))

	r.metricGenerated.Add(ctx, int64(len(res.Inserted)))
	r.metricRemoved.Add(ctx, int64(len(res.Removed)))
	return res, nil
}

func (r *Regrouper) generate(ctx context.Context, store featurestore.Store) (Result, error) {
	pointLayer, polygonLayer, err := r.layers(store)
	if err != nil {
		return Result{}, err
	}

	points := pointLayer.SelectedFeatures()
	if len(points) == 0 {
		return Result{}, fmt.Errorf("%w: no %s point selected", ErrSelectionEmpty, r.cfg.PointLayer)
	}
	polygons := polygonLayer.SelectedFeatures()
	if len(polygons) == 0 {
		return Result{}, fmt.Errorf("%w: no %s polygon selected", ErrSelectionEmpty, r.cfg.PolygonLayer)
	}
	if len(polygons) > 1 {
		return Result{}, fmt.Errorf("%w: %d polygons selected", ErrAmbiguousSelection, len(polygons))
	}

	anchor := points[0]
	polygonFeature := polygons[0]
	polygon, ok := polygonFeature.Geometry.(orb.Polygon)
	if !ok {
		return Result{}, fmt.Errorf("%w: feature %d is %T", ErrDegenerateGeometry, polygonFeature.ID, polygonFeature.Geometry)
	}

	log := r.log.With("anchor", anchor.ID, "polygon", polygonFeature.ID)

	attrs := anchor.Attributes.Clone()
	count, err := r.normalizer.Normalize(attrs)
	if err != nil {
		return Result{}, err
	}

	stale := staleFeatures(pointLayer, polygon, points)

	generated, err := r.placer.Place(attrs, polygon, count)
	if err != nil {
		return Result{}, err
	}

	features := make([]featurestore.Feature, len(generated))
	for i, g := range generated {
		features[i] = featurestore.Feature{Geometry: g.Point, Attributes: g.Attributes}
	}

	inserted, err := replaceFeatures(pointLayer, stale, features)
	if err != nil {
		return Result{}, err
	}
	pointLayer.RefreshExtent()

	log.InfoContext(ctx, "points regrouped", "count", count, "removed", len(stale), "inserted", len(inserted))

	return Result{
		Anchor:   anchor.ID,
		Polygon:  polygonFeature.ID,
		Count:    count,
		Removed:  stale,
		Inserted: inserted,
	}, nil
}

func (r *Regrouper) layers(store featurestore.Store) (points, polygons featurestore.Layer, err error) {
	var ok bool
	points, ok = store.Layer(r.cfg.PointLayer)
	if !ok || points.Kind() != featurestore.KindPoint {
		return nil, nil, fmt.Errorf("%w: point layer %q", ErrLayerMissing, r.cfg.PointLayer)
	}
	polygons, ok = store.Layer(r.cfg.PolygonLayer)
	if !ok || polygons.Kind() != featurestore.KindPolygon {
		return nil, nil, fmt.Errorf("%w: polygon layer %q", ErrLayerMissing, r.cfg.PolygonLayer)
	}
	return points, polygons, nil
}

// staleFeatures lists points lying inside polygon followed by the selected
// points, without duplicates.
func staleFeatures(layer featurestore.Layer, polygon orb.Polygon, selected []featurestore.Feature) []featurestore.FeatureID {
	seen := map[featurestore.FeatureID]struct{}{}
	stale := []featurestore.FeatureID{}
	add := func(id featurestore.FeatureID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		stale = append(stale, id)
	}

	layer.FeaturesInBound(polygon.Bound(), func(f featurestore.Feature) bool {
		if p, ok := f.Geometry.(orb.Point); ok && interior(polygon, p) {
			add(f.ID)
		}
		return true
	})
	for _, f := range selected {
		add(f.ID)
	}
	return stale
}

// interior reports whether point lies inside polygon and off its outer ring.
// Hole boundaries are already outside for planar.PolygonContains.
func interior(polygon orb.Polygon, point orb.Point) bool {
	if !planar.PolygonContains(polygon, point) {
		return false
	}
	shell := polygon[0]
	for i := range shell {
		if planar.DistanceFromSegmentSquared(shell[i], shell[(i+1)%len(shell)], point) == 0 {
			return false
		}
	}
	return true
}

// replaceFeatures deletes stale and inserts features in one edit session,
// rolling back on any failure.
func replaceFeatures(layer featurestore.Layer, stale []featurestore.FeatureID, features []featurestore.Feature) ([]featurestore.FeatureID, error) {
	edit, err := layer.BeginEdit()
	if err != nil {
		return nil, err
	}

	fail := func(err error) ([]featurestore.FeatureID, error) {
		if rbErr := edit.Rollback(); rbErr != nil {
			return nil, errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return nil, err
	}

	for _, id := range stale {
		if err := edit.DeleteFeature(id); err != nil {
			return fail(fmt.Errorf("deleting feature %d: %w", id, err))
		}
	}
	ids, err := edit.InsertFeatures(features)
	if err != nil {
		return fail(fmt.Errorf("inserting features: %w", err))
	}
	if err := edit.Commit(); err != nil {
		return fail(fmt.Errorf("committing edit: %w", err))
	}
	return ids, nil
}

// Reason maps a rejection to a short label used in metrics and api responses.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, ErrLayerMissing):
		return "layer_missing"
	case errors.Is(err, ErrSelectionEmpty):
		return "selection_empty"
	case errors.Is(err, ErrAmbiguousSelection):
		return "ambiguous_selection"
	case errors.Is(err, ErrDegenerateGeometry):
		return "degenerate_geometry"
	case errors.Is(err, ErrUnknownMode):
		return "unknown_mode"
	}
	return "store"
}
