package cicp

import "github.com/mycophonic/mpegh3da"

// Label names a standardized loudspeaker position.
// M = middle (horizontal) layer, U = upper layer, T = top, L = lower layer.
type Label int

// Channel labels. The numbering is internal to this package.
const (
	None Label = iota - 1
	M000
	ML022
	MR022
	ML030
	MR030
	ML045
	MR045
	ML060
	MR060
	ML090
	MR090
	ML110
	MR110
	ML135
	MR135
	M180
	U000
	UL030
	UR030
	UL045
	UR045
	UL090
	UR090
	UL110
	UR110
	UL135
	UR135
	U180
	T000
	L000
	LL045
	LR045
	LFE1
	LFE2

	numLabels
)

// NumLabels is the number of defined channel labels.
const NumLabels = int(numLabels)

type labelInfo struct {
	name   string
	az, el float64
	lfe    bool
	mirror Label
}

//nolint:gochecknoglobals
var labels = [numLabels]labelInfo{
	M000:  {"CH_M_000", 0, 0, false, M000},
	ML022: {"CH_M_L022", 22, 0, false, MR022},
	MR022: {"CH_M_R022", -22, 0, false, ML022},
	ML030: {"CH_M_L030", 30, 0, false, MR030},
	MR030: {"CH_M_R030", -30, 0, false, ML030},
	ML045: {"CH_M_L045", 45, 0, false, MR045},
	MR045: {"CH_M_R045", -45, 0, false, ML045},
	ML060: {"CH_M_L060", 60, 0, false, MR060},
	MR060: {"CH_M_R060", -60, 0, false, ML060},
	ML090: {"CH_M_L090", 90, 0, false, MR090},
	MR090: {"CH_M_R090", -90, 0, false, ML090},
	ML110: {"CH_M_L110", 110, 0, false, MR110},
	MR110: {"CH_M_R110", -110, 0, false, ML110},
	ML135: {"CH_M_L135", 135, 0, false, MR135},
	MR135: {"CH_M_R135", -135, 0, false, ML135},
	M180:  {"CH_M_180", 180, 0, false, M180},
	U000:  {"CH_U_000", 0, 35, false, U000},
	UL030: {"CH_U_L030", 30, 35, false, UR030},
	UR030: {"CH_U_R030", -30, 35, false, UL030},
	UL045: {"CH_U_L045", 45, 35, false, UR045},
	UR045: {"CH_U_R045", -45, 35, false, UL045},
	UL090: {"CH_U_L090", 90, 35, false, UR090},
	UR090: {"CH_U_R090", -90, 35, false, UL090},
	UL110: {"CH_U_L110", 110, 35, false, UR110},
	UR110: {"CH_U_R110", -110, 35, false, UL110},
	UL135: {"CH_U_L135", 135, 35, false, UR135},
	UR135: {"CH_U_R135", -135, 35, false, UL135},
	U180:  {"CH_U_180", 180, 35, false, U180},
	T000:  {"CH_T_000", 0, 90, false, T000},
	L000:  {"CH_L_000", 0, -15, false, L000},
	LL045: {"CH_L_L045", 45, -15, false, LR045},
	LR045: {"CH_L_R045", -45, -15, false, LL045},
	LFE1:  {"CH_LFE1", 45, -15, true, LFE2},
	LFE2:  {"CH_LFE2", -45, -15, true, LFE1},
}

// String returns the conventional CH_* name of the label.
func (l Label) String() string {
	if !l.Valid() {
		return "CH_EMPTY"
	}

	return labels[l].name
}

// Valid reports whether l is a defined label.
func (l Label) Valid() bool {
	return l >= 0 && l < numLabels
}

// Speaker returns the nominal geometry of the label.
func (l Label) Speaker() mpegh3da.Speaker {
	info := labels[l]

	return mpegh3da.Speaker{Azimuth: info.az, Elevation: info.el, LFE: info.lfe}
}

// Azimuth returns the nominal azimuth in degrees.
func (l Label) Azimuth() float64 { return labels[l].az }

// Elevation returns the nominal elevation in degrees.
func (l Label) Elevation() float64 { return labels[l].el }

// IsLFE reports whether the label is a low-frequency effects channel.
func (l Label) IsLFE() bool { return labels[l].lfe }

// Mirror returns the left/right mirrored label (itself for centre labels).
func (l Label) Mirror() Label { return labels[l].mirror }

// IsUpper reports whether the label is on the upper layer (not top).
func (l Label) IsUpper() bool { return l >= U000 && l <= U180 }

// IsMiddle reports whether the label is on the horizontal layer.
func (l Label) IsMiddle() bool { return l >= M000 && l <= M180 }

// angleTolerance is the tolerance in degrees when matching a geometry to a label.
const angleTolerance = 1.0

// LabelOf maps a speaker geometry to its label, if any label lies within one degree.
func LabelOf(s mpegh3da.Speaker) (Label, bool) {
	for l := range numLabels {
		info := labels[l]
		if info.lfe != s.LFE {
			continue
		}

		if closeAngles(info.az, info.el, s.Azimuth, s.Elevation) {
			return l, true
		}
	}

	return None, false
}

func closeAngles(az1, el1, az2, el2 float64) bool {
	if abs(el1-el2) > angleTolerance {
		return false
	}

	// Azimuth is irrelevant at the poles.
	if abs(el1) >= 90-angleTolerance {
		return true
	}

	return abs(mpegh3da.WrapAzimuth(az1-az2)) <= angleTolerance
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
