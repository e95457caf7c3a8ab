package converter

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
)

// Assignment routes one input channel to one output channel.
type Assignment struct {
	Src int
	Dst int
	// Gain applies above the virtual elevation crossover, and everywhere for other rules.
	Gain float64
	// GainLow applies below the crossover.
	GainLow float64
	EQ      EQ
}

// ResolveOptions selects the rule table.
type ResolveOptions struct {
	// Immersive selects the immersive table.
	Immersive bool
	// Rendering3D enables the virtual elevation rules of the immersive table.
	Rendering3D bool
}

// Resolve maps every input label onto the output labels. Input channels labelled cicp.None
// are empty and dropped. The result is ordered by destination channel.
func Resolve(in, out []cicp.Label, opts ResolveOptions) ([]Assignment, error) {
	rules := classicRules
	if opts.Immersive {
		rules = immersiveRules
	}

	outIndex := map[cicp.Label]int{}

	for i, l := range out {
		if _, dup := outIndex[l]; !dup && l.Valid() {
			outIndex[l] = i
		}
	}

	ctx := &resolver{
		out:      out,
		outIndex: outIndex,
		virtual:  opts.Immersive && opts.Rendering3D && !slices.ContainsFunc(out, cicp.Label.IsUpper),
	}

	var result []Assignment

	for src, lbl := range in {
		if !lbl.Valid() {
			continue
		}

		if dst, ok := outIndex[lbl]; ok {
			result = append(result, Assignment{Src: src, Dst: dst, Gain: 1, GainLow: 1})

			continue
		}

		found := false

		for _, r := range rules {
			if r.Src != lbl {
				continue
			}

			if as, ok := ctx.apply(r, src); ok {
				result = append(result, as...)
				found = true

				break
			}
		}

		if !found {
			return nil, fmt.Errorf("%w: %s", ErrMissingRule, lbl)
		}
	}

	slices.SortStableFunc(result, func(a, b Assignment) int {
		return cmp.Compare(a.Dst, b.Dst)
	})

	return result, nil
}

type resolver struct {
	out      []cicp.Label
	outIndex map[cicp.Label]int
	virtual  bool
}

func (c *resolver) has(l cicp.Label) bool {
	_, ok := c.outIndex[l]

	return ok
}

// apply returns the assignments of rule r for input channel src, or false when r does not
// apply to the output layout.
func (c *resolver) apply(r Rule, src int) ([]Assignment, bool) {
	single := func(dst cicp.Label, gain float64) Assignment {
		return Assignment{Src: src, Dst: c.outIndex[dst], Gain: gain, GainLow: gain, EQ: r.EQ}
	}

	switch r.Mode {
	case NoProc:
		if !c.has(r.Dst1) {
			return nil, false
		}

		return []Assignment{single(r.Dst1, r.Gain)}, true

	case Panning, AutoPan:
		if !c.has(r.Dst1) || !c.has(r.Dst2) {
			return nil, false
		}

		alpha0, alpha := r.P1, r.P2
		if r.Mode == AutoPan {
			alpha0, alpha = panAngles(r.Dst1.Azimuth(), r.Dst2.Azimuth(), r.Src.Azimuth())
		}

		g1, g2, err := TangentGains(alpha0, alpha)
		if err != nil {
			return nil, false
		}

		return []Assignment{single(r.Dst1, r.Gain*g1), single(r.Dst2, r.Gain*g2)}, true

	case Top2AllU, Top2AllM:
		layer := cicp.Label.IsUpper
		if r.Mode == Top2AllM {
			layer = cicp.Label.IsMiddle
		}

		dsts := lo.Uniq(lo.Filter(c.out, func(l cicp.Label, _ int) bool { return l.Valid() && layer(l) }))
		if float64(len(dsts)) < r.P1 || len(dsts) == 0 {
			return nil, false
		}

		g := r.Gain / math.Sqrt(float64(len(dsts)))

		return lo.Map(dsts, func(l cicp.Label, _ int) Assignment { return single(l, g) }), true

	case Virtual:
		if !c.virtual {
			return nil, false
		}

		high, low, ok := virtualGains(int(r.P1), r.Src.Azimuth() < 0, c.has)
		if !ok {
			return nil, false
		}

		out := make([]Assignment, 0, len(high))
		for lbl, h := range high {
			out = append(out, Assignment{
				Src: src, Dst: c.outIndex[lbl], Gain: r.Gain * h, GainLow: r.Gain * low[lbl], EQ: r.EQ,
			})
		}

		slices.SortFunc(out, func(a, b Assignment) int { return cmp.Compare(a.Dst, b.Dst) })

		return out, true
	}

	return nil, false
}

// panAngles returns the half aperture of the shorter arc from a1 to a2 and the angle of s
// from the arc bisector towards a1, in degrees. A source outside the arc is clamped to the
// nearer end.
func panAngles(a1, a2, s float64) (float64, float64) {
	span := mpegh3da.WrapAzimuth(a2 - a1)

	dir := 1.0
	if span < 0 {
		dir = -1
	}

	width := math.Abs(span)
	alpha0 := width / 2

	// Distance travelled from a1 towards a2 to reach s, in [0, 360).
	u := math.Mod(mpegh3da.WrapAzimuth(s-a1)*dir+360, 360)
	if u > width {
		if u-width < 360-u {
			return alpha0, -alpha0
		}

		return alpha0, alpha0
	}

	return alpha0, alpha0 - u
}

// TangentGains returns unit-power gains of the tangent panning law for half aperture alpha0
// and source angle alpha towards the first loudspeaker, in degrees. alpha is clamped to the
// aperture; alpha0 must lie in (0, 90).
func TangentGains(alpha0, alpha float64) (float64, float64, error) {
	if !(alpha0 > 0 && alpha0 < 90) {
		return 0, 0, fmt.Errorf("%w: %g degrees", ErrAperture, alpha0)
	}

	alpha = max(-alpha0, min(alpha0, alpha))

	t0 := math.Tan(alpha0 * math.Pi / 180)
	t := math.Tan(alpha * math.Pi / 180)

	g1, g2 := t0+t, t0-t
	n := math.Hypot(g1, g2)

	return g1 / n, g2 / n, nil
}

// DownmixMatrix converts assignments into a dense [output][input] matrix of high-band gains.
func DownmixMatrix(assignments []Assignment, inputs, outputs int) [][]float64 {
	m := make([][]float64, outputs)
	for i := range m {
		m[i] = make([]float64, inputs)
	}

	for _, a := range assignments {
		m[a.Dst][a.Src] += a.Gain
	}

	return m
}
