package converter

import (
	"fmt"
	"math"

	"github.com/mycophonic/mpegh3da/cicp"
)

// RuleMode selects how a rule distributes its source.
type RuleMode int

const (
	// NoProc copies the source to Dst1 with Gain.
	NoProc RuleMode = iota
	// Panning pans between Dst1 and Dst2 by the tangent law with half aperture P1 and
	// source angle P2 (degrees, positive towards Dst1).
	Panning
	// AutoPan pans between Dst1 and Dst2 with angles taken from the nominal geometry.
	AutoPan
	// Top2AllU spreads the source with equal power over every upper-layer output; it applies
	// when at least P1 such outputs exist.
	Top2AllU
	// Top2AllM spreads the source with equal power over every horizontal output; it applies
	// when at least P1 such outputs exist.
	Top2AllM
	// Virtual renders an elevated source on the horizontal layer with the virtual elevation
	// table row P1. It applies only to immersive 3D rendering on outputs without upper layer.
	Virtual
)

func (m RuleMode) String() string {
	switch m {
	case NoProc:
		return "NOPROC"
	case Panning:
		return "PANNING"
	case AutoPan:
		return "AUTOPAN"
	case Top2AllU:
		return "TOP2ALLU"
	case Top2AllM:
		return "TOP2ALLM"
	case Virtual:
		return "VIRTUAL"
	default:
		return fmt.Sprintf("RuleMode(%d)", int(m))
	}
}

// Rule is one row of a downmix rule table.
type Rule struct {
	Src  cicp.Label
	Dst1 cicp.Label
	Dst2 cicp.Label
	Gain float64
	Mode RuleMode
	P1   float64
	P2   float64
	EQ   EQ
}

// Downmix gain constants.
const (
	// G1 is the gain of a front-wide channel folded onto the front pair.
	G1 = 0.8
	// Gc is the gain of a lateral channel folded into a mono centre.
	Gc = 0.7071067811865476
	// minTop2All is the minimum number of outputs a TOP2ALL rule needs.
	minTop2All = 4
)

func nop(src, dst cicp.Label, gain float64, eq EQ) Rule {
	return Rule{Src: src, Dst1: dst, Dst2: cicp.None, Gain: gain, Mode: NoProc, EQ: eq}
}

func auto(src, d1, d2 cicp.Label, eq EQ) Rule {
	return Rule{Src: src, Dst1: d1, Dst2: d2, Gain: 1, Mode: AutoPan, EQ: eq}
}

// centred pans a source equally between a symmetric pair. The half aperture is taken on the
// shorter arc between the pair, so rear pairs stay below 90 degrees.
func centred(src, left cicp.Label, eq EQ) Rule {
	az := math.Abs(left.Azimuth())

	return Rule{
		Src: src, Dst1: left, Dst2: left.Mirror(), Gain: 1, Mode: Panning,
		P1: min(az, 180-az), EQ: eq,
	}
}

// tail ends every source's rule list so that any layout with a front pair or a centre is
// reachable.
func tail(src cicp.Label, eq EQ) []Rule {
	var front Rule

	switch az := src.Azimuth(); {
	case src.IsLFE():
		front = centred(src, cicp.ML030, NoEQ)
	case az > 0 && az < 180:
		front = nop(src, cicp.ML030, 1, eq)
	default:
		front = centred(src, cicp.ML030, eq)
	}

	mono := nop(src, cicp.M000, Gc, eq)
	if az := src.Azimuth(); !src.IsLFE() && (az == 0 || az == 180) {
		mono.Gain = 1
	}

	return []Rule{front, mono}
}

// classicLeft holds the rules of the left and centre-line sources. Right-side rules are
// their mirror images.
//
//nolint:gochecknoglobals
var classicLeft = concat(
	// Horizontal layer.
	[]Rule{centred(cicp.M000, cicp.ML022, NoEQ), centred(cicp.M000, cicp.ML030, NoEQ)},
	[]Rule{auto(cicp.ML022, cicp.M000, cicp.ML030, NoEQ), nop(cicp.ML022, cicp.ML030, 1, NoEQ)},
	tail(cicp.ML022, NoEQ),
	[]Rule{nop(cicp.ML030, cicp.ML022, 1, NoEQ), nop(cicp.ML030, cicp.M000, Gc, NoEQ)},
	[]Rule{
		auto(cicp.ML045, cicp.ML030, cicp.ML060, NoEQ),
		auto(cicp.ML045, cicp.ML030, cicp.ML090, NoEQ),
		auto(cicp.ML045, cicp.ML030, cicp.ML110, NoEQ),
	},
	tail(cicp.ML045, NoEQ),
	[]Rule{auto(cicp.ML060, cicp.ML045, cicp.ML090, NoEQ), nop(cicp.ML060, cicp.ML030, G1, NoEQ)},
	tail(cicp.ML060, NoEQ),
	[]Rule{
		auto(cicp.ML090, cicp.ML060, cicp.ML110, NoEQ),
		auto(cicp.ML090, cicp.ML045, cicp.ML110, NoEQ),
		auto(cicp.ML090, cicp.ML030, cicp.ML110, NoEQ),
		auto(cicp.ML090, cicp.ML045, cicp.ML135, NoEQ),
		auto(cicp.ML090, cicp.ML030, cicp.ML135, NoEQ),
		auto(cicp.ML090, cicp.ML030, cicp.M180, NoEQ),
	},
	tail(cicp.ML090, NoEQ),
	[]Rule{
		nop(cicp.ML110, cicp.ML135, 1, NoEQ),
		auto(cicp.ML110, cicp.ML090, cicp.M180, NoEQ),
		auto(cicp.ML110, cicp.ML030, cicp.M180, NoEQ),
	},
	tail(cicp.ML110, EQ1),
	[]Rule{
		nop(cicp.ML135, cicp.ML110, 1, NoEQ),
		auto(cicp.ML135, cicp.ML090, cicp.M180, NoEQ),
		auto(cicp.ML135, cicp.ML030, cicp.M180, NoEQ),
	},
	tail(cicp.ML135, EQ1),
	[]Rule{
		centred(cicp.M180, cicp.ML135, NoEQ),
		centred(cicp.M180, cicp.ML110, NoEQ),
	},
	tail(cicp.M180, EQ1),

	// Upper layer.
	[]Rule{
		centred(cicp.U000, cicp.UL030, NoEQ),
		centred(cicp.U000, cicp.UL045, NoEQ),
		nop(cicp.U000, cicp.M000, 1, EQ4),
		centred(cicp.U000, cicp.ML030, EQ4),
	},
	[]Rule{
		auto(cicp.UL030, cicp.U000, cicp.UL045, NoEQ),
		nop(cicp.UL030, cicp.UL045, 1, NoEQ),
		auto(cicp.UL030, cicp.U000, cicp.UL090, NoEQ),
		nop(cicp.UL030, cicp.ML030, 1, EQ4),
	},
	tail(cicp.UL030, EQ4),
	[]Rule{
		auto(cicp.UL045, cicp.UL030, cicp.UL090, NoEQ),
		nop(cicp.UL045, cicp.UL030, 1, NoEQ),
		nop(cicp.UL045, cicp.ML045, 1, EQ4),
		auto(cicp.UL045, cicp.ML030, cicp.ML060, EQ4),
		nop(cicp.UL045, cicp.ML030, 1, EQ4),
	},
	tail(cicp.UL045, EQ4),
	[]Rule{
		auto(cicp.UL090, cicp.UL045, cicp.UL135, NoEQ),
		auto(cicp.UL090, cicp.UL030, cicp.UL110, NoEQ),
		auto(cicp.UL090, cicp.UL030, cicp.UL135, NoEQ),
		nop(cicp.UL090, cicp.ML090, 1, EQ4),
		auto(cicp.UL090, cicp.ML030, cicp.ML110, EQ4),
		auto(cicp.UL090, cicp.ML030, cicp.ML135, EQ4),
	},
	tail(cicp.UL090, EQ4),
	[]Rule{
		nop(cicp.UL110, cicp.UL135, 1, NoEQ),
		nop(cicp.UL110, cicp.ML110, 1, EQ2),
		nop(cicp.UL110, cicp.ML135, 1, EQ2),
		auto(cicp.UL110, cicp.ML030, cicp.M180, EQ2),
	},
	tail(cicp.UL110, EQ2),
	[]Rule{
		nop(cicp.UL135, cicp.UL110, 1, NoEQ),
		nop(cicp.UL135, cicp.ML135, 1, EQ2),
		nop(cicp.UL135, cicp.ML110, 1, EQ2),
		auto(cicp.UL135, cicp.ML030, cicp.M180, EQ2),
	},
	tail(cicp.UL135, EQ2),
	[]Rule{
		centred(cicp.U180, cicp.UL135, NoEQ),
		centred(cicp.U180, cicp.UL110, NoEQ),
		nop(cicp.U180, cicp.M180, 1, EQ2),
		centred(cicp.U180, cicp.ML135, EQ2),
		centred(cicp.U180, cicp.ML110, EQ2),
	},
	tail(cicp.U180, EQ2),

	// Top and lower layers.
	[]Rule{
		{Src: cicp.T000, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Top2AllU, P1: minTop2All},
		{Src: cicp.T000, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Top2AllM, P1: minTop2All, EQ: EQ3},
	},
	tail(cicp.T000, EQ3),
	[]Rule{nop(cicp.L000, cicp.M000, 1, EQ5)},
	tail(cicp.L000, EQ5),
	[]Rule{
		nop(cicp.LL045, cicp.ML045, 1, EQ5),
		auto(cicp.LL045, cicp.ML030, cicp.ML060, EQ5),
	},
	tail(cicp.LL045, EQ5),

	// LFE.
	[]Rule{nop(cicp.LFE1, cicp.LFE2, 1, NoEQ)},
	tail(cicp.LFE1, NoEQ),
)

// virtualLeft holds the virtual elevation rules prepended in immersive mode. P1 indexes the
// rows of the virtual elevation tables.
//
//nolint:gochecknoglobals
var virtualLeft = []Rule{
	{Src: cicp.U000, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Virtual, P1: rowU000},
	{Src: cicp.UL030, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Virtual, P1: rowUL030},
	{Src: cicp.UL045, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Virtual, P1: rowUL045},
	{Src: cicp.UL090, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Virtual, P1: rowUL090},
	{Src: cicp.UL110, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Virtual, P1: rowUL110},
	{Src: cicp.UL135, Dst1: cicp.None, Dst2: cicp.None, Gain: 1, Mode: Virtual, P1: rowUL135},
}

//nolint:gochecknoglobals
var (
	classicRules   = withMirrors(classicLeft)
	immersiveRules = append(withMirrors(virtualLeft), classicRules...)
)

// ClassicRules returns a copy of the classic rule table.
func ClassicRules() []Rule { return append([]Rule(nil), classicRules...) }

// ImmersiveRules returns a copy of the immersive rule table.
func ImmersiveRules() []Rule { return append([]Rule(nil), immersiveRules...) }

func concat(parts ...[]Rule) []Rule {
	var out []Rule
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

// withMirrors appends the left/right mirror of every rule whose source is not on the centre
// line. Mirrored rules keep their relative order, so each source still sees its own list in
// priority order.
func withMirrors(rules []Rule) []Rule {
	out := make([]Rule, 0, 2*len(rules))
	out = append(out, rules...)

	for _, r := range rules {
		if r.Src.Mirror() == r.Src {
			continue
		}

		out = append(out, mirror(r))
	}

	return out
}

func mirror(r Rule) Rule {
	m := r
	m.Src = r.Src.Mirror()

	if r.Dst1 != cicp.None {
		m.Dst1 = r.Dst1.Mirror()
	}

	if r.Dst2 != cicp.None {
		m.Dst2 = r.Dst2.Mirror()
	}

	return m
}
