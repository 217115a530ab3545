// Package featurestore describes the layer api the regrouping tool works against
// and provides an in-memory implementation of it.
package featurestore

import (
	"errors"
	"maps"

	"github.com/paulmach/orb"
)

type FeatureID uint64

type Kind int

const (
	KindPoint Kind = iota
	KindPolygon
	KindRaster
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindPolygon:
		return "polygon"
	case KindRaster:
		return "raster"
	}
	return "unknown"
}

// Attributes are the string valued fields of a feature.
type Attributes map[string]string

func (a Attributes) Clone() Attributes {
	if a == nil {
		return Attributes{}
	}
	return maps.Clone(a)
}

type Feature struct {
	ID         FeatureID
	Geometry   orb.Geometry
	Attributes Attributes
}

var (
	ErrEditInProgress = errors.New("layer is already being edited")
	ErrEditClosed     = errors.New("edit session is closed")
	ErrGeometryKind   = errors.New("geometry does not match layer kind")
	ErrReadOnlyLayer  = errors.New("layer is read only")
)

type Store interface {
	Layers() []Layer
	Layer(name string) (Layer, bool)
}

type Layer interface {
	Name() string
	Kind() Kind

	SelectedFeatures() []Feature
	// Select marks features intersecting bound. With exclusive set the previous
	// selection is dropped first.
	Select(bound orb.Bound, exclusive bool)
	ClearSelection()

	// Features iterates all features in id order until fn returns false.
	// fn must not call back into the layer.
	Features(fn func(Feature) bool)
	// FeaturesInBound iterates features whose bound intersects bound.
	FeaturesInBound(bound orb.Bound, fn func(Feature) bool)

	BeginEdit() (Edit, error)
	RefreshExtent()
	Extent() orb.Bound
}

// Edit is an exclusive edit session on a single layer. Changes become visible
// only after Commit; Rollback discards them.
type Edit interface {
	DeleteFeature(id FeatureID) error
	InsertFeatures(features []Feature) ([]FeatureID, error)
	Commit() error
	Rollback() error
}
