package regroup

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/pointsregroup/featurestore"
)

// RandomPlacer samples points uniformly inside the polygon keeping them at
// least perimeter/(3*count) apart. After 100*count proposals the distance
// rule is dropped.
type RandomPlacer struct {
	Rand *rand.Rand
}

var _ Placer = (*RandomPlacer)(nil)

func (p *RandomPlacer) Place(attrs featurestore.Attributes, polygon orb.Polygon, count int) ([]GeneratedPoint, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if err := checkArea(polygon); err != nil {
		return nil, err
	}

	s := newSampler(polygon, count, p.rnd())
	points, err := s.fill(nil)
	if err != nil {
		return nil, err
	}
	return generated(attrs, points), nil
}

func (p *RandomPlacer) rnd() *rand.Rand {
	if p.Rand == nil {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	return p.Rand
}

// checkArea rejects polygons no point can be sampled in. The signed area of a
// self-intersecting ring can cancel out, so the check sums the absolute
// areas of its fan triangles instead.
func checkArea(polygon orb.Polygon) error {
	if len(polygon) == 0 || len(polygon[0]) < 3 {
		return fmt.Errorf("%w: empty polygon", ErrDegenerateGeometry)
	}
	b := polygon.Bound()
	if b.Max.X() == b.Min.X() || b.Max.Y() == b.Min.Y() || coverage(polygon[0]) == 0 {
		return fmt.Errorf("%w: zero area", ErrDegenerateGeometry)
	}
	return nil
}

// coverage is the sum of absolute areas of the triangles fanned out from the
// first vertex of r.
func coverage(r orb.Ring) float64 {
	sum := 0.0
	o := r[0]
	for i := 1; i+1 < len(r); i++ {
		ax, ay := r[i][0]-o[0], r[i][1]-o[1]
		bx, by := r[i+1][0]-o[0], r[i+1][1]-o[1]
		sum += math.Abs(ax*by - ay*bx)
	}
	return sum / 2
}

// sampleGiveUp bounds the proposals of a sampler in units of its distance
// budget. Rings that retrace themselves pass checkArea yet contain nothing.
const sampleGiveUp = 1000

type sampler struct {
	polygon       orb.Polygon
	bound         orb.Bound
	count         int
	minDistance   float64
	maxIterations int
	giveUp        int
	rnd           *rand.Rand

	iteration int
}

func newSampler(polygon orb.Polygon, count int, rnd *rand.Rand) *sampler {
	return &sampler{
		polygon:       polygon,
		bound:         polygon.Bound(),
		count:         count,
		minDistance:   planar.Length(polygon) / (3 * float64(count)),
		maxIterations: 100 * count,
		giveUp:        sampleGiveUp * 100 * count,
		rnd:           rnd,
	}
}

// fill proposes points until accepted holds count of them. The iteration
// counter is shared by every proposal of the sampler.
func (s *sampler) fill(accepted []orb.Point) ([]orb.Point, error) {
	minX, minY := s.bound.Min.X(), s.bound.Min.Y()
	w, h := s.bound.Max.X()-minX, s.bound.Max.Y()-minY

	for len(accepted) < s.count {
		if s.iteration >= s.giveUp {
			return nil, fmt.Errorf("%w: no room for %d points after %d proposals", ErrDegenerateGeometry, s.count, s.iteration)
		}
		s.iteration++
		p := orb.Point{minX + s.rnd.Float64()*w, minY + s.rnd.Float64()*h}
		if !planar.PolygonContains(s.polygon, p) {
			continue
		}
		if s.iteration < s.maxIterations && s.tooClose(accepted, p) {
			continue
		}
		accepted = append(accepted, p)
	}
	return accepted, nil
}

func (s *sampler) tooClose(accepted []orb.Point, p orb.Point) bool {
	for _, q := range accepted {
		if planar.Distance(q, p) < s.minDistance {
			return true
		}
	}
	return false
}
