package featurestore

import (
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/paulmach/orb"
	"github.com/royalcat/pointsregroup/bordertree"
	"github.com/royalcat/pointsregroup/kdbush"
)

const btreeDegree = 32

func featureLess(a, b Feature) bool {
	return a.ID < b.ID
}

// MemoryLayer keeps features ordered by id. Spatial indexes are rebuilt
// lazily after every committed edit.
type MemoryLayer struct {
	mu sync.RWMutex

	name string
	kind Kind

	nextID   FeatureID
	features *btree.BTreeG[Feature]
	selected map[FeatureID]struct{}
	extent   orb.Bound
	editing  bool

	points   *kdbush.KDBush[FeatureID]
	polygons *bordertree.BorderTree[FeatureID]
}

var _ Layer = (*MemoryLayer)(nil)

func NewMemoryLayer(name string, kind Kind) *MemoryLayer {
	return &MemoryLayer{
		name:     name,
		kind:     kind,
		nextID:   1,
		features: btree.NewG(btreeDegree, featureLess),
		selected: map[FeatureID]struct{}{},
	}
}

func (l *MemoryLayer) Name() string { return l.name }
func (l *MemoryLayer) Kind() Kind   { return l.kind }

func (l *MemoryLayer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.features.Len()
}

// Add inserts features outside of an edit session, used when loading layers.
func (l *MemoryLayer) Add(features ...Feature) ([]FeatureID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.editing {
		return nil, fmt.Errorf("%w: %s", ErrEditInProgress, l.name)
	}
	tree := l.features.Clone()
	nextID := l.nextID
	ids, err := insertInto(tree, &nextID, l.kind, features)
	if err != nil {
		return nil, err
	}
	l.features = tree
	l.nextID = nextID
	l.invalidate()
	l.refreshExtentLocked()
	return ids, nil
}

func (l *MemoryLayer) Get(id FeatureID) (Feature, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.features.Get(Feature{ID: id})
}

func (l *MemoryLayer) SelectedFeatures() []Feature {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Feature, 0, len(l.selected))
	l.features.Ascend(func(f Feature) bool {
		if _, ok := l.selected[f.ID]; ok {
			out = append(out, f)
		}
		return true
	})
	return out
}

func (l *MemoryLayer) Select(bound orb.Bound, exclusive bool) {
	if l.kind == KindRaster {
		return
	}

	ids := []FeatureID{}
	l.FeaturesInBound(bound, func(f Feature) bool {
		ids = append(ids, f.ID)
		return true
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if exclusive {
		clear(l.selected)
	}
	for _, id := range ids {
		l.selected[id] = struct{}{}
	}
}

// SelectIDs adds features to the selection by id, ignoring unknown ids.
func (l *MemoryLayer) SelectIDs(ids ...FeatureID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		if _, ok := l.features.Get(Feature{ID: id}); ok {
			l.selected[id] = struct{}{}
		}
	}
}

func (l *MemoryLayer) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.selected)
}

func (l *MemoryLayer) Features(fn func(Feature) bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.features.Ascend(fn)
}

func (l *MemoryLayer) FeaturesInBound(bound orb.Bound, fn func(Feature) bool) {
	l.mu.Lock()
	l.buildIndex()
	points, polygons := l.points, l.polygons
	l.mu.Unlock()

	l.mu.RLock()
	defer l.mu.RUnlock()

	switch l.kind {
	case KindPoint:
		points.RangeFunc(bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), func(i int) bool {
			f, ok := l.features.Get(Feature{ID: points.Points[i].Data})
			if !ok {
				return true
			}
			return fn(f)
		})
	case KindPolygon:
		polygons.QueryBound(bound, func(id FeatureID) bool {
			f, ok := l.features.Get(Feature{ID: id})
			if !ok {
				return true
			}
			return fn(f)
		})
	}
}

func (l *MemoryLayer) RefreshExtent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refreshExtentLocked()
}

func (l *MemoryLayer) Extent() orb.Bound {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.extent
}

func (l *MemoryLayer) refreshExtentLocked() {
	var extent orb.Bound
	first := true
	l.features.Ascend(func(f Feature) bool {
		if f.Geometry == nil {
			return true
		}
		if first {
			extent = f.Geometry.Bound()
			first = false
		} else {
			extent = extent.Union(f.Geometry.Bound())
		}
		return true
	})
	l.extent = extent
}

func (l *MemoryLayer) invalidate() {
	l.points = nil
	l.polygons = nil
}

// buildIndex must be called with the write lock held.
func (l *MemoryLayer) buildIndex() {
	switch l.kind {
	case KindPoint:
		if l.points != nil {
			return
		}
		pts := make([]kdbush.Point[FeatureID], 0, l.features.Len())
		l.features.Ascend(func(f Feature) bool {
			if p, ok := f.Geometry.(orb.Point); ok {
				pts = append(pts, kdbush.Point[FeatureID]{X: p.X(), Y: p.Y(), Data: f.ID})
			}
			return true
		})
		l.points = kdbush.NewBush(pts, kdbush.DefaultNodeSize)
	case KindPolygon:
		if l.polygons != nil {
			return
		}
		tree := bordertree.NewBorderTree[FeatureID]()
		l.features.Ascend(func(f Feature) bool {
			if p, ok := f.Geometry.(orb.Polygon); ok {
				tree.InsertBorder(f.ID, p)
			}
			return true
		})
		l.polygons = tree
	}
}

func (l *MemoryLayer) BeginEdit() (Edit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.kind == KindRaster {
		return nil, fmt.Errorf("%w: %s", ErrReadOnlyLayer, l.name)
	}
	if l.editing {
		return nil, fmt.Errorf("%w: %s", ErrEditInProgress, l.name)
	}
	l.editing = true

	return &memoryEdit{
		layer:    l,
		features: l.features.Clone(),
		nextID:   l.nextID,
		deleted:  map[FeatureID]struct{}{},
	}, nil
}

func checkGeometry(kind Kind, g orb.Geometry) error {
	switch g.(type) {
	case orb.Point:
		if kind == KindPoint {
			return nil
		}
	case orb.Polygon:
		if kind == KindPolygon {
			return nil
		}
	}
	return fmt.Errorf("%w: %T in %s layer", ErrGeometryKind, g, kind)
}

func insertInto(tree *btree.BTreeG[Feature], nextID *FeatureID, kind Kind, features []Feature) ([]FeatureID, error) {
	ids := make([]FeatureID, 0, len(features))
	for _, f := range features {
		if err := checkGeometry(kind, f.Geometry); err != nil {
			return ids, err
		}
		f.ID = *nextID
		*nextID++
		f.Attributes = f.Attributes.Clone()
		tree.ReplaceOrInsert(f)
		ids = append(ids, f.ID)
	}
	return ids, nil
}

type memoryEdit struct {
	layer *MemoryLayer

	features *btree.BTreeG[Feature]
	nextID   FeatureID
	deleted  map[FeatureID]struct{}
	closed   bool
}

func (e *memoryEdit) DeleteFeature(id FeatureID) error {
	if e.closed {
		return ErrEditClosed
	}
	e.features.Delete(Feature{ID: id})
	e.deleted[id] = struct{}{}
	return nil
}

func (e *memoryEdit) InsertFeatures(features []Feature) ([]FeatureID, error) {
	if e.closed {
		return nil, ErrEditClosed
	}
	return insertInto(e.features, &e.nextID, e.layer.kind, features)
}

func (e *memoryEdit) Commit() error {
	if e.closed {
		return ErrEditClosed
	}
	e.closed = true

	l := e.layer
	l.mu.Lock()
	defer l.mu.Unlock()

	l.features = e.features
	l.nextID = e.nextID
	for id := range e.deleted {
		delete(l.selected, id)
	}
	l.editing = false
	l.invalidate()
	return nil
}

func (e *memoryEdit) Rollback() error {
	if e.closed {
		return ErrEditClosed
	}
	e.closed = true

	l := e.layer
	l.mu.Lock()
	defer l.mu.Unlock()
	l.editing = false
	return nil
}
