package regroup

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/fogleman/poissondisc"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/pointsregroup/featurestore"
)

const (
	// poissonAttempts is the number of candidates tried around each active sample.
	poissonAttempts = 30
	// poissonSpacing scales sqrt(area/count) into a radius that packs a small
	// surplus of samples per requested point.
	poissonSpacing = 0.7
	// poissonBudget caps the expected samples over the bounding box in units
	// of count. Thin diagonal polygons waste most of their box and go to
	// random sampling instead.
	poissonBudget = 8
)

// PoissonPlacer fills the polygon with Poisson-disc samples and keeps a random
// count of them. The radius never drops below the minimum distance the
// RandomPlacer uses. Polygons too narrow to fit count samples are topped up
// by random sampling.
type PoissonPlacer struct {
	Rand *rand.Rand
}

var _ Placer = (*PoissonPlacer)(nil)

func (p *PoissonPlacer) Place(attrs featurestore.Attributes, polygon orb.Polygon, count int) ([]GeneratedPoint, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if err := checkArea(polygon); err != nil {
		return nil, err
	}

	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}

	s := newSampler(polygon, count, rnd)
	var points []orb.Point
	if radius, ok := poissonRadius(polygon, s.bound, s.minDistance, count); ok {
		points = fillPolygonWithPoints(polygon, s.bound, radius, count, rnd)
	}
	points, err := s.fill(points)
	if err != nil {
		return nil, err
	}
	return generated(attrs, points), nil
}

// poissonRadius picks the sample radius for count points and reports whether
// sampling the whole bound at it stays within poissonBudget.
func poissonRadius(polygon orb.Polygon, bound orb.Bound, minDistance float64, count int) (float64, bool) {
	radius := math.Max(minDistance, poissonSpacing*math.Sqrt(coverage(polygon[0])/float64(count)))
	if radius <= 0 {
		return 0, false
	}
	w, h := bound.Max.X()-bound.Min.X(), bound.Max.Y()-bound.Min.Y()
	expected := w * h / (radius * radius)
	return radius, expected <= poissonBudget*float64(count)
}

func fillPolygonWithPoints(polygon orb.Polygon, bound orb.Bound, distance float64, limit int, rnd *rand.Rand) []orb.Point {
	samples := poissondisc.Sample(bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), distance, poissonAttempts, rnd)

	inside := make([]orb.Point, 0, len(samples))
	for _, sample := range samples {
		point := orb.Point{sample.X, sample.Y}
		if planar.PolygonContains(polygon, point) {
			inside = append(inside, point)
		}
	}
	// samples grow outwards from a seed, so the first ones cluster
	rnd.Shuffle(len(inside), func(i, j int) {
		inside[i], inside[j] = inside[j], inside[i]
	})
	if len(inside) > limit {
		inside = inside[:limit]
	}
	return inside
}
