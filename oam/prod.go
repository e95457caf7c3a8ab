package oam

import (
	"errors"
	"fmt"
	"math"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

const (
	distanceBits      = 7
	// distanceBase is the distance of code 0 in meters; 16 codes double it.
	distanceBase      = 0.5
	distancePerOctave = 16

	// DefaultReferenceDistance is the reference distance in meters when none is signalled.
	DefaultReferenceDistance = 1.0

	minDistanceGain = 0.1
	maxDistanceGain = 1.0
)

// ProdMetadata is the production metadata of one frame group.
type ProdMetadata struct {
	// ReferenceDistance is the listener reference distance in meters.
	ReferenceDistance float64
	// ObjectDistance is the intended distance of each object in meters, 0 when not signalled.
	ObjectDistance []float64
}

// DistanceGain returns the linear gain of object i: reference/distance clamped to [0.1, 1].
func (p *ProdMetadata) DistanceGain(i int) float64 {
	if p == nil || i >= len(p.ObjectDistance) || p.ObjectDistance[i] <= 0 {
		return 1
	}

	return max(minDistanceGain, min(maxDistanceGain, p.ReferenceDistance/p.ObjectDistance[i]))
}

func distanceOf(code uint32) float64 {
	return distanceBase * math.Pow(2, float64(code)/distancePerOctave)
}

func distanceCode(d float64) uint32 {
	if d <= distanceBase {
		return 0
	}

	c := math.Round(distancePerOctave * math.Log2(d/distanceBase))

	return uint32(min(float64(1<<distanceBits-1), c))
}

// DecodeProdMetadata decodes a production metadata frame group for numObjects objects.
func DecodeProdMetadata(r *bitstream.Reader, numObjects int) (*ProdMetadata, error) {
	if numObjects <= 0 {
		return nil, fmt.Errorf("%w: %d objects", ErrConfig, numObjects)
	}

	f := &fieldReader{r: r}
	pm := &ProdMetadata{ReferenceDistance: DefaultReferenceDistance, ObjectDistance: make([]float64, numObjects)}

	if f.flag() {
		pm.ReferenceDistance = distanceOf(f.bits(distanceBits))
	}

	for i := range numObjects {
		if f.flag() {
			pm.ObjectDistance[i] = distanceOf(f.bits(distanceBits))
		}
	}

	if f.err != nil {
		if errors.Is(f.err, bitstream.ErrOverrun) {
			return nil, fmt.Errorf("%w: production metadata: %w", ErrTruncated, f.err)
		}

		return nil, f.err
	}

	return pm, nil
}

// EncodeProdMetadata writes pm. A reference distance equal to the default is not signalled.
func EncodeProdMetadata(w *bitstream.Writer, pm *ProdMetadata) error {
	hasRef := pm.ReferenceDistance != DefaultReferenceDistance

	fields := []field{{boolBit(hasRef), 1}}
	if hasRef {
		fields = append(fields, field{distanceCode(pm.ReferenceDistance), distanceBits})
	}

	for _, d := range pm.ObjectDistance {
		fields = append(fields, field{boolBit(d > 0), 1})
		if d > 0 {
			fields = append(fields, field{distanceCode(d), distanceBits})
		}
	}

	for _, fld := range fields {
		if err := w.WriteBits(fld.v, fld.n); err != nil {
			return err
		}
	}

	return nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}

	return 0
}
