package dmx

import (
	"fmt"
	"math"

	"github.com/mycophonic/mpegh3da"
)

// Kind classifies a compact channel.
type Kind int

const (
	// Center is a loudspeaker on the median plane.
	Center Kind = iota
	// Symmetric is a left/right mirrored pair.
	Symmetric
	// Single is a loudspeaker without a mirrored partner.
	Single
)

func (k Kind) String() string {
	switch k {
	case Center:
		return "center"
	case Symmetric:
		return "symmetric"
	case Single:
		return "single"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Compact is one channel of the compact matrix.
type Compact struct {
	Kind Kind
	// Channels holds the channel index, or the left then right channel of a pair.
	Channels []int
	LFE      bool
}

// pairTolerance is the angular tolerance, in degrees, for mirrored partners.
const pairTolerance = 1.0

func onMedianPlane(s mpegh3da.Speaker) bool {
	az := math.Abs(mpegh3da.WrapAzimuth(s.Azimuth))

	return az <= pairTolerance || az >= 180-pairTolerance || math.Abs(s.Elevation) >= 90-pairTolerance
}

// Compaction collapses a layout into compact channels in order of first appearance.
func Compaction(speakers []mpegh3da.Speaker) []Compact {
	used := make([]bool, len(speakers))

	var out []Compact

	for i, s := range speakers {
		if used[i] {
			continue
		}

		used[i] = true

		if onMedianPlane(s) {
			out = append(out, Compact{Kind: Center, Channels: []int{i}, LFE: s.LFE})

			continue
		}

		partner := -1

		for j := i + 1; j < len(speakers); j++ {
			t := speakers[j]
			if used[j] || t.LFE != s.LFE {
				continue
			}

			if math.Abs(mpegh3da.WrapAzimuth(s.Azimuth+t.Azimuth)) <= pairTolerance &&
				math.Abs(s.Elevation-t.Elevation) <= pairTolerance {
				partner = j

				break
			}
		}

		if partner < 0 {
			out = append(out, Compact{Kind: Single, Channels: []int{i}, LFE: s.LFE})

			continue
		}

		used[partner] = true

		left, right := i, partner
		if mpegh3da.WrapAzimuth(s.Azimuth) < 0 {
			left, right = partner, i
		}

		out = append(out, Compact{Kind: Symmetric, Channels: []int{left, right}, LFE: s.LFE})
	}

	return out
}

// cell addresses one [output][input] matrix entry.
type cell struct {
	out, in int
}

// slots returns the gain slots of a compact entry. Every cell of a slot carries the same gain.
func slots(in, out Compact, separable, symmetric bool) [][]cell {
	switch {
	case in.Kind == Symmetric && out.Kind == Symmetric:
		l, r := in.Channels[0], in.Channels[1]
		ol, or := out.Channels[0], out.Channels[1]

		switch {
		case separable:
			return [][]cell{{{ol, l}, {or, r}}}
		case symmetric:
			return [][]cell{{{ol, l}, {or, r}}, {{or, l}, {ol, r}}}
		default:
			return [][]cell{{{ol, l}}, {{or, l}}, {{ol, r}}, {{or, r}}}
		}

	case in.Kind == Symmetric:
		l, r, o := in.Channels[0], in.Channels[1], out.Channels[0]
		if symmetric {
			return [][]cell{{{o, l}, {o, r}}}
		}

		return [][]cell{{{o, l}}, {{o, r}}}

	case out.Kind == Symmetric:
		c, ol, or := in.Channels[0], out.Channels[0], out.Channels[1]
		if in.Kind == Center {
			return [][]cell{{{ol, c}, {or, c}}}
		}

		return [][]cell{{{ol, c}}, {{or, c}}}

	default:
		return [][]cell{{{out.Channels[0], in.Channels[0]}}}
	}
}

// entry is one coded position of the compact matrix.
type entry struct {
	in, out int
}

// entries lists the compact positions carried in the payload, input major.
func entries(in, out []Compact, lfeOnlyToLFE bool) []entry {
	var es []entry

	for i, ci := range in {
		for o, co := range out {
			if lfeOnlyToLFE && ci.LFE != co.LFE {
				continue
			}

			es = append(es, entry{in: i, out: o})
		}
	}

	return es
}
