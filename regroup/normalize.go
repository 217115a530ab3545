package regroup

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/royalcat/pointsregroup/featurestore"
)

const AccessKey = "access"

// Normalizer rescales area attributes of an anchor point by its occupancy count.
type Normalizer struct {
	marker      string
	areaKeys    []string
	roundedKeys []string
}

func NewNormalizer(cfg Config) *Normalizer {
	return &Normalizer{
		marker:      cfg.ProcessedMarker,
		areaKeys:    cfg.AreaKeys,
		roundedKeys: cfg.RoundedKeys,
	}
}

// Normalize parses the occupancy count from the access attribute. On the
// first call for a given attribute set it marks access as processed and
// divides every area attribute by the count, later calls only return the count.
// attrs is left untouched when the count is invalid.
func (n *Normalizer) Normalize(attrs featurestore.Attributes) (int, error) {
	access, ok := attrs[AccessKey]
	if !ok {
		return 0, fmt.Errorf("%w: %s attribute is missing", ErrInvalidCount, AccessKey)
	}

	processed := n.marker != "" && strings.Contains(access, n.marker)
	raw := access
	if n.marker != "" {
		raw, _, _ = strings.Cut(access, n.marker)
	}

	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, access)
	}

	if processed {
		return count, nil
	}

	attrs[AccessKey] = access + n.marker
	for _, key := range n.areaKeys {
		v, ok := attrs[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			continue
		}

		f /= float64(count)
		if slices.Contains(n.roundedKeys, key) {
			f = round2(f)
		}
		attrs[key] = formatFloat(f)
	}

	return count, nil
}

// round2 rounds the exact binary value to two decimals, half to even.
func round2(f float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'f', 2, 64), 64)
	if err != nil {
		return f
	}
	return r
}

// formatFloat writes the shortest decimal that round trips, always keeping a
// fractional part: 100 becomes "100.0". Magnitudes from 1e16 up and below
// 1e-4 switch to exponent form, 1e16 becomes "1e+16".
func formatFloat(f float64) string {
	if a := math.Abs(f); a >= 1e16 || (a != 0 && a < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
