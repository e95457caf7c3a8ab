// Package oam holds object audio metadata: the per-object sample model and the coding of
// object metadata frames and production metadata.
package oam

import "math"

// Sample is the metadata of one object for one OAM sub-frame.
type Sample struct {
	// Azimuth in degrees, positive left.
	Azimuth float64
	// Elevation in degrees, positive up.
	Elevation float64
	// Radius is the object distance in meters.
	Radius float64
	// Gain is linear.
	Gain float64
	// Spread is the spread width in degrees (the only spread value when spread is uniform).
	Spread float64
	// SpreadHeight is the vertical extent in degrees.
	SpreadHeight float64
	// SpreadDepth is the radial extent in meters.
	SpreadDepth float64
}

// Default returns the sample of an object in front of the listener at unit gain.
func Default() Sample {
	return Sample{Radius: 1, Gain: 1}
}

const (
	azimuthBits   = 8
	azimuthStep   = 1.5
	maxAzimuth    = 180.0
	elevationBits = 6
	elevationStep = 3.0
	maxElevation  = 90.0
	radiusBits    = 4
	gainBits      = 7
	gainStepDB    = 0.5
	spreadBits    = 7
	spreadStep    = 1.5
	maxSpread     = 180.0
	heightBits    = 5
	heightStep    = 3.0
	maxHeight     = 90.0
	depthBits     = 4
	depthStep     = 0.5
	maxDepth      = 7.5
)

// minRadius is the radius of code 0; every third code doubles it.
const minRadius = 0.5

// muteCode is the most negative gain code; it silences the object.
const muteCode = -(1 << (gainBits - 1))

func radiusOf(code uint32) float64 {
	return minRadius * math.Pow(2, float64(code)/3)
}

func radiusCode(r float64) uint32 {
	if r <= minRadius {
		return 0
	}

	return uint32(min(float64(1<<radiusBits-1), math.Round(3*math.Log2(r/minRadius))))
}

func gainOf(code int32) float64 {
	if code == muteCode {
		return 0
	}

	return math.Pow(10, float64(code)*gainStepDB/20)
}

func gainCode(g float64) int32 {
	if g <= 0 {
		return muteCode
	}

	c := math.Round(20 * math.Log10(g) / gainStepDB)

	return int32(max(muteCode+1, min(-muteCode-1, c)))
}

// Quantize returns s as it reads back after coding.
func Quantize(s Sample, uniformSpread bool) Sample {
	out := Sample{
		Azimuth:   float64(signedCode(s.Azimuth, azimuthStep, azimuthBits, maxAzimuth)) * azimuthStep,
		Elevation: float64(signedCode(s.Elevation, elevationStep, elevationBits, maxElevation)) * elevationStep,
		Radius:    radiusOf(radiusCode(s.Radius)),
		Gain:      gainOf(gainCode(s.Gain)),
		Spread:    float64(unsignedCode(s.Spread, spreadStep, spreadBits, maxSpread)) * spreadStep,
	}

	if uniformSpread {
		out.SpreadHeight = out.Spread
	} else {
		out.SpreadHeight = float64(unsignedCode(s.SpreadHeight, heightStep, heightBits, maxHeight)) * heightStep
		out.SpreadDepth = float64(unsignedCode(s.SpreadDepth, depthStep, depthBits, maxDepth)) * depthStep
	}

	return out
}

func signedCode(v, step float64, bits int, limit float64) int32 {
	v = max(-limit, min(limit, v))
	c := int32(math.Round(v / step))
	hi := int32(1)<<(bits-1) - 1

	return max(-hi-1, min(hi, c))
}

func unsignedCode(v, step float64, bits int, limit float64) uint32 {
	v = max(0, min(limit, v))

	return min(uint32(1)<<bits-1, uint32(math.Round(v/step)))
}
