package regroup

import (
	"fmt"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointsregroup/featurestore"
)

type Mode string

const (
	ModeLinear  Mode = "linear"
	ModeRandom  Mode = "random"
	ModePoisson Mode = "poisson"
)

var Modes = []Mode{ModeLinear, ModeRandom, ModePoisson}

func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

type GeneratedPoint struct {
	Point      orb.Point
	Attributes featurestore.Attributes
}

// Placer lays out count points for polygon, each carrying a copy of attrs.
type Placer interface {
	Place(attrs featurestore.Attributes, polygon orb.Polygon, count int) ([]GeneratedPoint, error)
}

func NewPlacer(mode Mode, rnd *rand.Rand) (Placer, error) {
	switch mode {
	case ModeLinear:
		return LinearPlacer{}, nil
	case ModeRandom:
		return &RandomPlacer{Rand: rnd}, nil
	case ModePoisson:
		return &PoissonPlacer{Rand: rnd}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

func generated(attrs featurestore.Attributes, points []orb.Point) []GeneratedPoint {
	out := make([]GeneratedPoint, len(points))
	for i, p := range points {
		out[i] = GeneratedPoint{Point: p, Attributes: attrs.Clone()}
	}
	return out
}

// outerRing returns the polygon shell, closed.
func outerRing(polygon orb.Polygon) orb.Ring {
	if len(polygon) == 0 || len(polygon[0]) == 0 {
		return nil
	}
	ring := polygon[0]
	if !ring.Closed() {
		ring = append(ring.Clone(), ring[0])
	}
	return ring
}
