package layerio

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/royalcat/pointsregroup/featurestore"
	"github.com/sourcegraph/conc/pool"
)

// Source names a layer file and the layer it becomes.
type Source struct {
	Path string
	Name string
	Kind featurestore.Kind
}

// LoadFile reads a single layer file, picking the decoder by file name.
func LoadFile(ctx context.Context, src Source, opts ...Option) (*featurestore.MemoryLayer, error) {
	o := loadOptions(opts...)

	format, err := DetectFormat(src.Path)
	if err != nil {
		return nil, err
	}
	if format != FormatGeoJSON && src.Kind != featurestore.KindPolygon {
		return nil, fmt.Errorf("%w: %s layers can not be read from %s", ErrUnsupportedFormat, src.Kind, format)
	}

	file, size, err := OpenReader(src.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening layer file: %w", err)
	}
	defer file.Close()

	o.logger.InfoContext(ctx, "loading layer", "layer", src.Name, "path", src.Path, "format", format.String(), "size", humanize.Bytes(uint64(size)))

	var r io.Reader = file
	if o.progress {
		var finish func()
		r, finish = progressReader(file, size, src.Name)
		defer finish()
	}

	switch format {
	case FormatGeoJSON:
		return ReadGeoJSON(r, src.Name, src.Kind, opts...)
	default:
		return ReadOSM(ctx, r, format, src.Name, opts...)
	}
}

// LoadStore reads all sources concurrently into a memory store. The first
// failure cancels the remaining loads.
func LoadStore(ctx context.Context, sources []Source, opts ...Option) (*featurestore.MemoryStore, error) {
	store := featurestore.NewMemoryStore()

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, src := range sources {
		p.Go(func(ctx context.Context) error {
			layer, err := LoadFile(ctx, src, opts...)
			if err != nil {
				return fmt.Errorf("layer %s: %w", src.Name, err)
			}
			store.AddLayer(layer)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return store, nil
}

// SaveFile writes layer as geojson, zstd compressed when name ends in .zst.
func SaveFile(name string, layer featurestore.Layer) error {
	w, err := CreateWriter(name)
	if err != nil {
		return fmt.Errorf("error creating layer file: %w", err)
	}
	if err := WriteGeoJSON(w, layer); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
