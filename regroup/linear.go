package regroup

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/royalcat/pointsregroup/featurestore"
)

// LinearPlacer puts points in a row parallel to the longest polygon edge,
// shifted towards the vertex centroid of the polygon.
type LinearPlacer struct{}

var _ Placer = LinearPlacer{}

func (LinearPlacer) Place(attrs featurestore.Attributes, polygon orb.Polygon, count int) ([]GeneratedPoint, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	points, err := linearPoints(outerRing(polygon), count)
	if err != nil {
		return nil, err
	}
	return generated(attrs, points), nil
}

func linearPoints(ring orb.Ring, count int) ([]orb.Point, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("%w: ring has %d vertices", ErrDegenerateGeometry, len(ring))
	}

	var a, b orb.Point
	var dist, cx, cy float64
	for i := 1; i < len(ring); i++ {
		if d := planar.Distance(ring[i], ring[i-1]); d > dist {
			dist = d
			a, b = ring[i], ring[i-1]
		}
		cx += ring[i][0]
		cy += ring[i][1]
	}
	if dist == 0 {
		return nil, fmt.Errorf("%w: no edge of positive length", ErrDegenerateGeometry)
	}

	n := float64(len(ring) - 1)
	cx /= n
	cy /= n

	step := dist / float64(count)

	if b.X() < a.X() {
		a, b = b, a
	}

	slope := 0.0
	if b.X() != a.X() {
		slope = (b.Y() - a.Y()) / (b.X() - a.X())
	}
	k := math.Atan(slope)
	dx, dy := math.Cos(k), math.Sin(k)

	x0, y0 := a.X()+dx*step/2, a.Y()+dy*step/2
	x0, y0 = projectThroughCentroid(x0, y0, cx, cy, slope)

	points := make([]orb.Point, count)
	for i := range points {
		points[i] = orb.Point{x0, y0}
		x0 += dx * step
		y0 += dy * step
	}
	return points, nil
}

// projectThroughCentroid moves (x, y) onto the line of the given slope that
// passes through (cx, cy). A zero slope snaps to the centroid itself.
func projectThroughCentroid(x, y, cx, cy, slope float64) (float64, float64) {
	if slope == 0 {
		x = cx
	} else {
		x = (x/slope + y + slope*cx - cy) / (slope + 1/slope)
	}
	return x, slope*(x-cx) + cy
}
