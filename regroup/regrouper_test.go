package regroup_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/pointsregroup/featurestore"
	"github.com/royalcat/pointsregroup/regroup"
)

type fixture struct {
	store    *featurestore.MemoryStore
	points   *featurestore.MemoryLayer
	polygons *featurestore.MemoryLayer
}

// newFixture builds a block around a 10x10 building: a four flat entrance
// at the centre, a stale generated point inside and a neighbour outside.
func newFixture(t *testing.T, access string) fixture {
	t.Helper()

	points := featurestore.NewMemoryLayer("home", featurestore.KindPoint)
	_, err := points.Add(
		featurestore.Feature{Geometry: orb.Point{0, 0}, Attributes: featurestore.Attributes{"access": access, "all_area": "400"}},
		featurestore.Feature{Geometry: orb.Point{3, 3}, Attributes: featurestore.Attributes{"access": "1/processed"}},
		featurestore.Feature{Geometry: orb.Point{20, 20}, Attributes: featurestore.Attributes{"access": "2"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	polygons := featurestore.NewMemoryLayer("building-polygon", featurestore.KindPolygon)
	if _, err := polygons.Add(featurestore.Feature{Geometry: square(-5, -5, 5, 5)}); err != nil {
		t.Fatal(err)
	}

	raster := featurestore.NewMemoryLayer("basemap", featurestore.KindRaster)

	return fixture{
		store:    featurestore.NewMemoryStore(points, polygons, raster),
		points:   points,
		polygons: polygons,
	}
}

func newRegrouper(t *testing.T, mode regroup.Mode, opts ...regroup.Option) *regroup.Regrouper {
	t.Helper()
	cfg := regroup.ConfigDefault()
	cfg.Mode = mode
	opts = append([]regroup.Option{regroup.WithRand(rand.New(rand.NewSource(1)))}, opts...)
	r, err := regroup.New(cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

var centre = orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{1, 1}}

func TestRunLinear(t *testing.T) {
	f := newFixture(t, "4")
	r := newRegrouper(t, regroup.ModeLinear)

	res, err := r.Run(context.Background(), f.store, centre)
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 4 || len(res.Inserted) != 4 {
		t.Fatalf("expected 4 inserted points, got %+v", res)
	}
	if res.Anchor != 1 || res.Polygon != 1 {
		t.Fatalf("unexpected anchor or polygon: %+v", res)
	}
	// the anchor and the stale point inside the building
	if len(res.Removed) != 2 {
		t.Fatalf("expected 2 removed points, got %v", res.Removed)
	}

	if _, ok := f.points.Get(2); ok {
		t.Fatalf("stale point inside the building was kept")
	}
	if _, ok := f.points.Get(3); !ok {
		t.Fatalf("point outside the building was removed")
	}
	if f.points.Len() != 5 {
		t.Fatalf("expected 5 points in layer, got %d", f.points.Len())
	}

	expected := []orb.Point{{0, 0}, {2.5, 0}, {5, 0}, {7.5, 0}}
	for i, id := range res.Inserted {
		feature, ok := f.points.Get(id)
		if !ok {
			t.Fatalf("inserted feature %d missing", id)
		}
		if !near(feature.Geometry.(orb.Point), expected[i]) {
			t.Fatalf("point %d: expected %v, got %v", i, expected[i], feature.Geometry)
		}
		if feature.Attributes["access"] != "4/processed" {
			t.Fatalf("expected processed access, got %q", feature.Attributes["access"])
		}
		if feature.Attributes["all_area"] != "100.0" {
			t.Fatalf("expected all_area 100.0, got %q", feature.Attributes["all_area"])
		}
	}

	if ext := f.points.Extent(); ext.Max != (orb.Point{20, 20}) || ext.Min != (orb.Point{0, 0}) {
		t.Fatalf("extent not refreshed: %v", ext)
	}
}

func TestRunKeepsPointsOnOutline(t *testing.T) {
	f := newFixture(t, "2")
	outline, err := f.points.Add(
		featurestore.Feature{Geometry: orb.Point{5, 2}, Attributes: featurestore.Attributes{"access": "1"}},
		featurestore.Feature{Geometry: orb.Point{-5, -5}, Attributes: featurestore.Attributes{"access": "1"}},
	)
	if err != nil {
		t.Fatal(err)
	}

	res, err := newRegrouper(t, regroup.ModeLinear).Run(context.Background(), f.store, centre)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Removed) != 2 {
		t.Fatalf("expected the anchor and the inner point removed, got %v", res.Removed)
	}
	for _, id := range outline {
		if _, ok := f.points.Get(id); !ok {
			t.Fatalf("point %d on the building outline was removed", id)
		}
	}
}

func TestRunRandomStaysInside(t *testing.T) {
	for _, mode := range []regroup.Mode{regroup.ModeRandom, regroup.ModePoisson} {
		t.Run(string(mode), func(t *testing.T) {
			f := newFixture(t, "6")
			r := newRegrouper(t, mode)

			res, err := r.Run(context.Background(), f.store, centre)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Inserted) != 6 {
				t.Fatalf("expected 6 points, got %d", len(res.Inserted))
			}
			building := square(-5, -5, 5, 5)
			for _, id := range res.Inserted {
				feature, _ := f.points.Get(id)
				if !planar.PolygonContains(building, feature.Geometry.(orb.Point)) {
					t.Fatalf("point %v outside the building", feature.Geometry)
				}
			}
		})
	}
}

func TestRunTwiceKeepsCount(t *testing.T) {
	f := newFixture(t, "3")
	r := newRegrouper(t, regroup.ModeRandom)

	if _, err := r.Run(context.Background(), f.store, centre); err != nil {
		t.Fatal(err)
	}
	// the processed points now carry the divided areas and the marker, so a
	// second pass regenerates the same number of points without dividing again
	res, err := r.Run(context.Background(), f.store, square(-5, -5, 5, 5).Bound())
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 3 || f.points.Len() != 4 {
		t.Fatalf("expected 3 regenerated points and 4 total, got %+v and %d", res, f.points.Len())
	}
	for _, id := range res.Inserted {
		feature, _ := f.points.Get(id)
		if feature.Attributes["all_area"] != strconv.FormatFloat(400.0/3, 'f', -1, 64) {
			t.Fatalf("areas divided twice: %v", feature.Attributes)
		}
	}
}

func TestGenerateRejects(t *testing.T) {
	ctx := context.Background()

	t.Run("layer missing", func(t *testing.T) {
		f := newFixture(t, "4")
		f.store.RemoveLayer("building-polygon")
		_, err := newRegrouper(t, regroup.ModeLinear).Run(ctx, f.store, centre)
		if !errors.Is(err, regroup.ErrLayerMissing) {
			t.Fatalf("expected ErrLayerMissing, got %v", err)
		}
	})

	t.Run("layer of wrong kind", func(t *testing.T) {
		f := newFixture(t, "4")
		cfg := regroup.ConfigDefault()
		cfg.PolygonLayer = "basemap"
		r, err := regroup.New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := r.Run(ctx, f.store, centre); !errors.Is(err, regroup.ErrLayerMissing) {
			t.Fatalf("expected ErrLayerMissing, got %v", err)
		}
	})

	t.Run("no point", func(t *testing.T) {
		f := newFixture(t, "4")
		rect := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{2, 2}}
		_, err := newRegrouper(t, regroup.ModeLinear).Run(ctx, f.store, rect)
		if !errors.Is(err, regroup.ErrSelectionEmpty) {
			t.Fatalf("expected ErrSelectionEmpty, got %v", err)
		}
	})

	t.Run("no polygon", func(t *testing.T) {
		f := newFixture(t, "4")
		rect := orb.Bound{Min: orb.Point{19, 19}, Max: orb.Point{21, 21}}
		_, err := newRegrouper(t, regroup.ModeLinear).Run(ctx, f.store, rect)
		if !errors.Is(err, regroup.ErrSelectionEmpty) {
			t.Fatalf("expected ErrSelectionEmpty, got %v", err)
		}
	})

	t.Run("two polygons", func(t *testing.T) {
		f := newFixture(t, "4")
		if _, err := f.polygons.Add(featurestore.Feature{Geometry: square(-2, -2, 2, 2)}); err != nil {
			t.Fatal(err)
		}
		_, err := newRegrouper(t, regroup.ModeLinear).Run(ctx, f.store, centre)
		if !errors.Is(err, regroup.ErrAmbiguousSelection) {
			t.Fatalf("expected ErrAmbiguousSelection, got %v", err)
		}
	})

	for _, access := range []string{"0", "abc", "", "-1"} {
		t.Run("invalid count "+strconv.Quote(access), func(t *testing.T) {
			f := newFixture(t, access)
			_, err := newRegrouper(t, regroup.ModeLinear).Run(ctx, f.store, centre)
			if !errors.Is(err, regroup.ErrInvalidCount) {
				t.Fatalf("expected ErrInvalidCount, got %v", err)
			}
			if f.points.Len() != 3 {
				t.Fatalf("layer changed on rejection: %d points", f.points.Len())
			}
			anchor, _ := f.points.Get(1)
			if anchor.Attributes["access"] != access || anchor.Attributes["all_area"] != "400" {
				t.Fatalf("anchor attributes changed: %v", anchor.Attributes)
			}
		})
	}

	t.Run("zero area polygon", func(t *testing.T) {
		f := newFixture(t, "4")
		f.store.RemoveLayer("building-polygon")
		flat := featurestore.NewMemoryLayer("building-polygon", featurestore.KindPolygon)
		if _, err := flat.Add(featurestore.Feature{Geometry: orb.Polygon{orb.Ring{{0, 0}, {2, 2}, {4, 4}, {0, 0}}}}); err != nil {
			t.Fatal(err)
		}
		f.store.AddLayer(flat)

		_, err := newRegrouper(t, regroup.ModeRandom).Run(ctx, f.store, centre)
		if !errors.Is(err, regroup.ErrDegenerateGeometry) {
			t.Fatalf("expected ErrDegenerateGeometry, got %v", err)
		}
		if f.points.Len() != 3 {
			t.Fatalf("layer changed on rejection: %d points", f.points.Len())
		}
	})
}

var errInsert = errors.New("disk full")

type failingStore struct {
	*featurestore.MemoryStore
}

func (s failingStore) Layers() []featurestore.Layer {
	layers := s.MemoryStore.Layers()
	for i, l := range layers {
		if l.Kind() == featurestore.KindPoint {
			layers[i] = failingLayer{l}
		}
	}
	return layers
}

func (s failingStore) Layer(name string) (featurestore.Layer, bool) {
	l, ok := s.MemoryStore.Layer(name)
	if ok && l.Kind() == featurestore.KindPoint {
		return failingLayer{l}, true
	}
	return l, ok
}

type failingLayer struct {
	featurestore.Layer
}

func (l failingLayer) BeginEdit() (featurestore.Edit, error) {
	edit, err := l.Layer.BeginEdit()
	if err != nil {
		return nil, err
	}
	return failingEdit{edit}, nil
}

type failingEdit struct {
	featurestore.Edit
}

func (failingEdit) InsertFeatures([]featurestore.Feature) ([]featurestore.FeatureID, error) {
	return nil, errInsert
}

func TestGenerateRollsBack(t *testing.T) {
	f := newFixture(t, "4")
	r := newRegrouper(t, regroup.ModeLinear)

	_, err := r.Run(context.Background(), failingStore{f.store}, centre)
	if !errors.Is(err, errInsert) {
		t.Fatalf("expected insert error, got %v", err)
	}
	if f.points.Len() != 3 {
		t.Fatalf("deletes were not rolled back: %d points", f.points.Len())
	}
	for id := featurestore.FeatureID(1); id <= 3; id++ {
		if _, ok := f.points.Get(id); !ok {
			t.Fatalf("feature %d lost", id)
		}
	}

	// the edit was released, so a normal run succeeds afterwards
	if _, err := r.Run(context.Background(), f.store, centre); err != nil {
		t.Fatal(err)
	}
}

func TestSelectInBoundSkipsRaster(t *testing.T) {
	f := newFixture(t, "4")
	f.points.SelectIDs(3)

	regroup.SelectInBound(f.store, centre)

	selected := f.points.SelectedFeatures()
	if len(selected) != 1 || selected[0].ID != 1 {
		t.Fatalf("expected only the anchor selected, got %v", selected)
	}
	if len(f.polygons.SelectedFeatures()) != 1 {
		t.Fatalf("expected the building selected")
	}
}

func BenchmarkRunLinear(b *testing.B) {
	cfg := regroup.ConfigDefault()
	r, err := regroup.New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	building := square(-50, -50, 50, 50)

	for i := 0; i < b.N; i++ {
		points := featurestore.NewMemoryLayer("home", featurestore.KindPoint)
		points.Add(featurestore.Feature{Geometry: orb.Point{0, 0}, Attributes: featurestore.Attributes{"access": "64", "all_area": "6400"}})
		polygons := featurestore.NewMemoryLayer("building-polygon", featurestore.KindPolygon)
		polygons.Add(featurestore.Feature{Geometry: building})
		store := featurestore.NewMemoryStore(points, polygons)

		if _, err := r.Run(context.Background(), store, centre); err != nil {
			b.Fatal(err)
		}
	}
}
