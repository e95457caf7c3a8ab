package hull

import (
	"math"
	"slices"

	"github.com/mycophonic/mpegh3da"
)

const (
	// poleThreshold is the elevation beyond which a speaker counts as covering a pole.
	poleThreshold = 45.0
	// maxHorizontalGap is the widest azimuth gap tolerated on the horizontal ring.
	maxHorizontalGap = 160.0
	// layerThreshold is the elevation from which a speaker belongs to an upper/lower layer.
	layerThreshold = 20.0
)

// subset is an azimuth/elevation quadrilateral that must contain at least one speaker
// once the hemisphere it belongs to carries a height layer.
type subset struct {
	rear             bool
	elMin, elMax     float64
	ghostAz, ghostEl float64
}

//nolint:gochecknoglobals
var subsets = [4]subset{
	{rear: false, elMin: 20, elMax: 60, ghostAz: 0, ghostEl: 40},
	{rear: true, elMin: 20, elMax: 60, ghostAz: 180, ghostEl: 40},
	{rear: false, elMin: -60, elMax: -20, ghostAz: 0, ghostEl: -40},
	{rear: true, elMin: -60, elMax: -20, ghostAz: 180, ghostEl: -40},
}

// frontLimit splits the front and rear halves of a subset, in degrees azimuth.
const frontLimit = 100.0

func (s subset) contains(sp mpegh3da.Speaker) bool {
	if sp.Elevation < s.elMin || sp.Elevation > s.elMax {
		return false
	}

	if s.rear {
		return math.Abs(sp.Azimuth) >= frontLimit
	}

	return math.Abs(sp.Azimuth) <= frontLimit
}

// ghostSpeakers returns the imaginary speakers needed to close the coverage of speakers.
func ghostSpeakers(speakers []mpegh3da.Speaker) []mpegh3da.Speaker {
	var ghosts []mpegh3da.Speaker

	hasTop := slices.ContainsFunc(speakers, func(s mpegh3da.Speaker) bool { return s.Elevation > poleThreshold })
	hasBottom := slices.ContainsFunc(speakers, func(s mpegh3da.Speaker) bool { return s.Elevation < -poleThreshold })

	if !hasTop {
		ghosts = append(ghosts, mpegh3da.Speaker{Azimuth: 0, Elevation: 90})
	}

	if !hasBottom {
		ghosts = append(ghosts, mpegh3da.Speaker{Azimuth: 0, Elevation: -90})
	}

	hasUpper := slices.ContainsFunc(speakers, func(s mpegh3da.Speaker) bool { return s.Elevation >= layerThreshold })
	hasLower := slices.ContainsFunc(speakers, func(s mpegh3da.Speaker) bool { return s.Elevation <= -layerThreshold })

	for _, sub := range subsets {
		upper := sub.elMin > 0
		if (upper && !hasUpper) || (!upper && !hasLower) {
			continue
		}

		if !slices.ContainsFunc(speakers, sub.contains) {
			ghosts = append(ghosts, mpegh3da.Speaker{Azimuth: sub.ghostAz, Elevation: sub.ghostEl})
		}
	}

	return append(ghosts, horizontalGhosts(append(slices.Clone(speakers), ghosts...))...)
}

// horizontalGhosts fills azimuth gaps wider than maxHorizontalGap among the speakers
// within poleThreshold of the horizontal plane.
func horizontalGhosts(all []mpegh3da.Speaker) []mpegh3da.Speaker {
	var azimuths []float64

	for _, s := range all {
		if math.Abs(s.Elevation) <= poleThreshold {
			azimuths = append(azimuths, s.Azimuth)
		}
	}

	if len(azimuths) == 0 {
		return []mpegh3da.Speaker{{Azimuth: 0}, {Azimuth: 120}, {Azimuth: -120}}
	}

	slices.Sort(azimuths)
	azimuths = slices.Compact(azimuths)

	var ghosts []mpegh3da.Speaker

	for i, az := range azimuths {
		next := azimuths[(i+1)%len(azimuths)]

		gap := next - az
		if gap <= 0 {
			gap += 360
		}

		if gap <= maxHorizontalGap {
			continue
		}

		parts := 2
		if gap > 2*maxHorizontalGap {
			parts = 3
		}

		for k := 1; k < parts; k++ {
			ghosts = append(ghosts, mpegh3da.Speaker{
				Azimuth: mpegh3da.WrapAzimuth(az + gap*float64(k)/float64(parts)),
			})
		}
	}

	return ghosts
}
