package featurestore

import (
	"slices"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

type MemoryStore struct {
	layers *xsync.MapOf[string, *MemoryLayer]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(layers ...*MemoryLayer) *MemoryStore {
	s := &MemoryStore{
		layers: xsync.NewMapOf[string, *MemoryLayer](),
	}
	for _, l := range layers {
		s.AddLayer(l)
	}
	return s
}

// AddLayer registers l, replacing any layer with the same name.
func (s *MemoryStore) AddLayer(l *MemoryLayer) {
	s.layers.Store(l.Name(), l)
}

func (s *MemoryStore) RemoveLayer(name string) {
	s.layers.Delete(name)
}

// Layers returns registered layers sorted by name.
func (s *MemoryStore) Layers() []Layer {
	out := make([]*MemoryLayer, 0, s.layers.Size())
	s.layers.Range(func(_ string, l *MemoryLayer) bool {
		out = append(out, l)
		return true
	})
	slices.SortFunc(out, func(a, b *MemoryLayer) int {
		return strings.Compare(a.Name(), b.Name())
	})

	layers := make([]Layer, len(out))
	for i, l := range out {
		layers[i] = l
	}
	return layers
}

func (s *MemoryStore) Layer(name string) (Layer, bool) {
	l, ok := s.layers.Load(name)
	if !ok {
		return nil, false
	}
	return l, true
}
