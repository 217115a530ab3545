package bordertree

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/qtree"
)

// BorderTree indexes polygons by their bounds and answers rectangle
// queries with exact geometry checks.
type BorderTree[Data any] struct {
	mu      sync.RWMutex
	borders []border[Data]
	qt      qtree.QTree
}

func NewBorderTree[Data any]() *BorderTree[Data] {
	return &BorderTree[Data]{}
}

type border[D any] struct {
	Data    D
	Polygon orb.Polygon
}

func (bt *BorderTree[Data]) InsertBorder(data Data, p orb.Polygon) {
	bound := p.Bound()

	bt.mu.Lock()
	defer bt.mu.Unlock()

	id := len(bt.borders)
	bt.borders = append(bt.borders, border[Data]{Data: data, Polygon: p})
	bt.qt.Insert(bound.Min, bound.Max, id)
}

func (bt *BorderTree[Data]) Len() int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return len(bt.borders)
}

// QueryBound calls fn for every polygon intersecting bound until fn returns false.
func (bt *BorderTree[Data]) QueryBound(bound orb.Bound, fn func(Data) bool) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	bt.qt.Search(bound.Min, bound.Max, func(_, _ [2]float64, data interface{}) bool {
		b := bt.borders[data.(int)]
		if !Intersects(b.Polygon, bound) {
			return true
		}
		return fn(b.Data)
	})
}

// Intersects reports whether polygon shares any area or boundary with bound.
func Intersects(p orb.Polygon, bound orb.Bound) bool {
	if len(p) == 0 || !p.Bound().Intersects(bound) {
		return false
	}
	for _, pnt := range p[0] {
		if bound.Contains(pnt) {
			return true
		}
	}
	if planar.PolygonContains(p, bound.Center()) {
		return true
	}

	clipped := clip.Polygon(bound, p.Clone())
	if len(clipped) == 0 || len(clipped[0]) == 0 {
		return false
	}
	if len(p) == 1 {
		return true
	}
	// holes are clipped too, so a bound inside a hole leaves no area
	return planar.Area(clipped) > 0
}
