package layerio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/cheggaaa/pb/v3/termutil"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/mmap"
)

var ErrUnsupportedFormat = errors.New("unsupported layer file format")

type Format int

const (
	FormatGeoJSON Format = iota
	FormatOSMXML
	FormatOSMPBF
)

func (f Format) String() string {
	switch f {
	case FormatGeoJSON:
		return "geojson"
	case FormatOSMXML:
		return "osm"
	case FormatOSMPBF:
		return "pbf"
	}
	return "unknown"
}

// DetectFormat guesses the format from the file name. A trailing .zst is
// ignored, pbf files can not be compressed.
func DetectFormat(name string) (Format, error) {
	base := strings.ToLower(filepath.Base(name))
	base = strings.TrimSuffix(base, ".zst")

	switch {
	case strings.HasSuffix(base, ".geojson"), strings.HasSuffix(base, ".json"):
		return FormatGeoJSON, nil
	case strings.HasSuffix(base, ".osm"), strings.HasSuffix(base, ".osm.xml"):
		return FormatOSMXML, nil
	case strings.HasSuffix(base, ".osm.pbf") && !compressed(name):
		return FormatOSMPBF, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

func compressed(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zst")
}

type mmapReader struct {
	*io.SectionReader
	file *mmap.ReaderAt
}

func (r *mmapReader) Close() error {
	return r.file.Close()
}

// OpenReader opens a layer file for reading. Files ending in .zst are
// decompressed on the fly, everything else is memory mapped.
func OpenReader(name string) (io.ReadCloser, int64, error) {
	if compressed(name) {
		file, err := os.Open(name)
		if err != nil {
			return nil, 0, fmt.Errorf("can`t open file: %w", err)
		}
		stat, err := file.Stat()
		if err != nil {
			file.Close()
			return nil, 0, err
		}
		dec, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, 0, fmt.Errorf("can`t create zstd reader: %w", err)
		}
		return &zstdReader{dec: dec, file: file}, stat.Size(), nil
	}

	file, err := mmap.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("can`t map file: %w", err)
	}
	size := int64(file.Len())
	return &mmapReader{SectionReader: io.NewSectionReader(file, 0, size), file: file}, size, nil
}

type zstdReader struct {
	dec  *zstd.Decoder
	file *os.File
}

func (r *zstdReader) Read(p []byte) (int, error) {
	return r.dec.Read(p)
}

func (r *zstdReader) Close() error {
	r.dec.Close()
	return r.file.Close()
}

type zstdWriter struct {
	*zstd.Encoder
	file *os.File
}

func (w *zstdWriter) Close() error {
	return errors.Join(w.Encoder.Close(), w.file.Close())
}

// CreateWriter creates a layer file, compressed when the name ends in .zst.
func CreateWriter(name string) (io.WriteCloser, error) {
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	if !compressed(name) {
		return file, nil
	}

	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("can`t create zstd writer: %w", err)
	}
	return &zstdWriter{Encoder: enc, file: file}, nil
}

// progressReader wraps r into a byte counting bar. The returned finish func
// must be called once reading is done.
func progressReader(r io.Reader, size int64, name string) (io.Reader, func()) {
	bar := pb.Start64(size)
	bar.Set("prefix", name)
	bar.Set(pb.Bytes, true)
	bar.SetRefreshRate(time.Second)
	if w, err := termutil.TerminalWidth(); w == 0 || err != nil {
		bar.SetTemplateString(`{{with string . "prefix"}}{{.}} {{end}}{{counters . }} {{bar . }} {{percent . }} {{speed . }}` + "\n")
	}
	return bar.NewProxyReader(r), func() { bar.Finish() }
}
