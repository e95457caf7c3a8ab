// Package dmx decodes and encodes downmix matrices signalled in the bitstream.
//
// A matrix is coded on the compact layouts of its input and output: centre loudspeakers,
// mirrored pairs and unpaired loudspeakers each form one compact channel. A sparsity mask over
// the compact matrix is sent either raw or as run lengths, optionally XORed with the sparsity
// of the rule-derived downmix of the same CICP layouts, and every non-zero compact entry
// carries one to four gains from a table that is densest around 0 dB and multiples of 3 dB.
package dmx

import (
	"fmt"
	"math"
	"slices"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/converter"
	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

// maxChannels bounds the number of input or output channels of a coded matrix.
const maxChannels = 64

// Field widths.
const (
	precisionBits = 2
	lgrParamBits  = 3
)

// Params describes the layouts a matrix maps between.
type Params struct {
	Input  []mpegh3da.Speaker
	Output []mpegh3da.Speaker
	// InputCICP and OutputCICP are the CICP indices of the layouts, 0 when there is none.
	// Both are needed for template coding.
	InputCICP  int
	OutputCICP int
}

func (p Params) validate() error {
	if len(p.Input) == 0 || len(p.Output) == 0 {
		return errConfigf("%d inputs, %d outputs", len(p.Input), len(p.Output))
	}

	if len(p.Input) > maxChannels || len(p.Output) > maxChannels {
		return fmt.Errorf("%w: %d inputs, %d outputs", ErrMatrixTooLarge, len(p.Input), len(p.Output))
	}

	return nil
}

// Matrix is a decoded downmix matrix.
type Matrix struct {
	// Gains is the [output][input] linear gain matrix.
	Gains [][]float64
	// EQ holds one equalizer per input channel. A nil slice or nil entry means none.
	EQ []*converter.Equalizer
}

// EncodeOptions selects the coding tools of Encode.
type EncodeOptions struct {
	// Precision is the gain precision level, 0 (1 dB) to 2 (0.25 dB).
	Precision int
	// RawMask sends the sparsity mask as one bit per compact entry.
	RawMask bool
	// UseTemplate XORs the run-length coded mask with the rule-derived template.
	UseTemplate bool
	// RawGains sends gain indices with fixed width instead of Golomb-Rice codes.
	RawGains bool
}

func errConfigf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfig}, args...)...)
}

type field struct {
	v uint32
	n int
}

func writeFields(w *bitstream.Writer, fields []field) error {
	for _, f := range fields {
		if err := w.WriteBits(f.v, f.n); err != nil {
			return err
		}
	}

	return nil
}

// layout is the compact view shared by the decoder and the encoder.
type layout struct {
	in, out   []Compact
	pairs     []int // compact input index of each symmetric pair
	separable []bool
	symmetric []bool
}

func newLayout(p Params) *layout {
	l := &layout{in: Compaction(p.Input), out: Compaction(p.Output)}

	for i, c := range l.in {
		if c.Kind == Symmetric {
			l.pairs = append(l.pairs, i)
		}
	}

	l.separable = make([]bool, len(l.in))
	l.symmetric = make([]bool, len(l.in))

	return l
}

func (l *layout) slots(e entry) [][]cell {
	return slots(l.in[e.in], l.out[e.out], l.separable[e.in], l.symmetric[e.in])
}

// template returns the compact sparsity of the rule-derived downmix between the CICP layouts
// of p, one value per entry of es.
func template(p Params, l *layout, es []entry) ([]bool, error) {
	if p.InputCICP == 0 || p.OutputCICP == 0 {
		return nil, fmt.Errorf("%w: cicp %d to %d", ErrTemplate, p.InputCICP, p.OutputCICP)
	}

	in, err := cicp.Labels(p.InputCICP)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	out, err := cicp.Labels(p.OutputCICP)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	if len(in) != len(p.Input) || len(out) != len(p.Output) {
		return nil, fmt.Errorf("%w: geometry does not match cicp %d to %d", ErrTemplate, p.InputCICP, p.OutputCICP)
	}

	as, err := converter.Resolve(in, out, converter.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplate, err)
	}

	m := converter.DownmixMatrix(as, len(in), len(out))

	mask := make([]bool, len(es))

	for k, e := range es {
		for _, o := range l.out[e.out].Channels {
			for _, i := range l.in[e.in].Channels {
				if m[o][i] != 0 {
					mask[k] = true
				}
			}
		}
	}

	return mask, nil
}

// Decode reads one downmix matrix for the layouts of p.
func Decode(r *bitstream.Reader, p Params) (*Matrix, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	s := &syntax{r: r}
	m := &Matrix{Gains: make([][]float64, len(p.Output))}

	for o := range m.Gains {
		m.Gains[o] = make([]float64, len(p.Input))
	}

	if s.flag() {
		m.EQ = s.equalizerConfig(len(p.Input))
	}

	precision := int(s.bits(precisionBits))
	if precision > maxPrecision {
		s.fail("precision level %d", precision)
	}

	maxDB := s.escaped(3, 4, 0)
	minDB := -(s.escaped(4, 5, 0) + 1)

	l := newLayout(p)

	allSeparable := s.flag()
	for _, i := range l.pairs {
		l.separable[i] = allSeparable || s.flag()
	}

	allSymmetric := s.flag()
	for _, i := range l.pairs {
		l.symmetric[i] = allSymmetric || s.flag()
	}

	es := entries(l.in, l.out, s.flag())
	mask := s.mask(p, l, es)

	table := gainTable(minDB, maxDB, precision)
	limit := len(table) - 1

	k := 0

	raw := s.flag()
	if !raw {
		k = int(s.bits(lgrParamBits))
	}

	if s.err != nil {
		return nil, s.result()
	}

	for n, e := range es {
		if !mask[n] {
			continue
		}

		for _, slot := range l.slots(e) {
			var idx int
			if raw {
				idx = int(s.bits(width(len(table))))
			} else {
				idx = s.lgr(k, limit)
			}

			if idx > limit {
				s.fail("gain index %d of %d", idx, len(table))
			}

			if s.err != nil {
				return nil, s.result()
			}

			g := linear(table[idx])
			for _, c := range slot {
				m.Gains[c.out][c.in] = g
			}
		}
	}

	if s.err != nil {
		return nil, s.result()
	}

	return m, nil
}

// mask reads the compact sparsity mask.
func (s *syntax) mask(p Params, l *layout, es []entry) []bool {
	mask := make([]bool, len(es))

	if s.flag() {
		for i := range mask {
			mask[i] = s.flag()
		}

		return mask
	}

	var tmpl []bool

	if s.flag() {
		t, err := template(p, l, es)
		if err != nil {
			if s.err == nil {
				s.err = err
			}

			return mask
		}

		tmpl = t
	}

	k := int(s.bits(lgrParamBits))

	for pos := 0; pos < len(mask) && s.err == nil; {
		pos += s.lgr(k, len(mask)-pos)
		if pos < len(mask) {
			mask[pos] = true
			pos++
		}
	}

	for i := range tmpl {
		mask[i] = mask[i] != tmpl[i]
	}

	return mask
}

// Encode writes m for the layouts of p. Gains are quantized to the nearest table value.
func Encode(w *bitstream.Writer, m *Matrix, p Params, opts EncodeOptions) error {
	if err := p.validate(); err != nil {
		return err
	}

	if m == nil || len(m.Gains) != len(p.Output) {
		return errConfigf("matrix rows do not match %d outputs", len(p.Output))
	}

	for o, row := range m.Gains {
		if len(row) != len(p.Input) {
			return errConfigf("row %d has %d columns, want %d", o, len(row), len(p.Input))
		}
	}

	if m.EQ != nil && len(m.EQ) != len(p.Input) {
		return errConfigf("%d equalizers for %d inputs", len(m.EQ), len(p.Input))
	}

	if opts.Precision < 0 || opts.Precision > maxPrecision {
		return errConfigf("precision level %d", opts.Precision)
	}

	e := &encoder{w: w, m: m, p: p, l: newLayout(p), opts: opts}

	return e.encode()
}

type encoder struct {
	w    *bitstream.Writer
	m    *Matrix
	p    Params
	l    *layout
	opts EncodeOptions
}

func (e *encoder) encode() error {
	hasEQ := slices.ContainsFunc(e.m.EQ, func(eq *converter.Equalizer) bool { return eq != nil })

	if err := e.w.WriteBit(hasEQ); err != nil {
		return err
	}

	if hasEQ {
		if err := writeEqualizerConfig(e.w, e.m.EQ); err != nil {
			return err
		}
	}

	minDB, maxDB := e.gainRange()

	if err := e.w.WriteBits(uint32(e.opts.Precision), precisionBits); err != nil { //nolint:gosec // validated
		return err
	}

	if err := e.w.EscapedValue(uint32(maxDB), 3, 4, 0); err != nil { //nolint:gosec // clamped
		return err
	}

	if err := e.w.EscapedValue(uint32(-minDB-1), 4, 5, 0); err != nil { //nolint:gosec // clamped
		return err
	}

	if err := e.writeSymmetry(); err != nil {
		return err
	}

	lfeOnly := e.lfeOnlyToLFE()
	if err := e.w.WriteBit(lfeOnly); err != nil {
		return err
	}

	es := entries(e.l.in, e.l.out, lfeOnly)

	mask := make([]bool, len(es))
	for n, en := range es {
		for _, slot := range e.l.slots(en) {
			for _, c := range slot {
				if e.m.Gains[c.out][c.in] != 0 {
					mask[n] = true
				}
			}
		}
	}

	if err := e.writeMask(es, mask); err != nil {
		return err
	}

	table := gainTable(minDB, maxDB, e.opts.Precision)

	var indices []int

	for n, en := range es {
		if !mask[n] {
			continue
		}

		for _, slot := range e.l.slots(en) {
			c := slot[0]
			indices = append(indices, nearest(table, decibels(e.m.Gains[c.out][c.in])))
		}
	}

	return e.writeGains(indices, len(table))
}

// gainRange returns the coded gain range covering every finite gain of the matrix.
func (e *encoder) gainRange() (int, int) {
	lo, hi := -1.0, 0.0

	for _, row := range e.m.Gains {
		for _, g := range row {
			if g <= 0 {
				continue
			}

			db := decibels(g)
			lo = math.Min(lo, db)
			hi = math.Max(hi, db)
		}
	}

	return clampInt(int(math.Floor(lo)), minGainDB, -1), clampInt(int(math.Ceil(hi)), 0, maxGainDB)
}

// equal compares two gains to within the finest table step.
func equal(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// writeSymmetry derives and writes the separable and symmetric flags of every input pair.
func (e *encoder) writeSymmetry() error {
	g := e.m.Gains

	for _, i := range e.l.pairs {
		l, r := e.l.in[i].Channels[0], e.l.in[i].Channels[1]
		sep, sym := true, true

		for _, out := range e.l.out {
			if out.Kind != Symmetric {
				if !equal(g[out.Channels[0]][l], g[out.Channels[0]][r]) {
					sym = false
				}

				continue
			}

			ol, or := out.Channels[0], out.Channels[1]
			if !equal(g[ol][l], g[or][r]) || !equal(g[or][l], g[ol][r]) {
				sym = false
				sep = false
			}

			if g[or][l] != 0 || g[ol][r] != 0 {
				sep = false
			}
		}

		e.l.separable[i] = sep
		e.l.symmetric[i] = sym
	}

	for i, c := range e.l.in {
		if c.Kind != Center {
			continue
		}

		for _, out := range e.l.out {
			if out.Kind == Symmetric && !equal(g[out.Channels[0]][c.Channels[0]], g[out.Channels[1]][c.Channels[0]]) {
				return errConfigf("centre input %d feeds output pair %v asymmetrically", i, out.Channels)
			}
		}
	}

	for _, flags := range [][]bool{e.l.separable, e.l.symmetric} {
		all := true
		for _, i := range e.l.pairs {
			all = all && flags[i]
		}

		if err := e.w.WriteBit(all); err != nil {
			return err
		}

		if all {
			continue
		}

		for _, i := range e.l.pairs {
			if err := e.w.WriteBit(flags[i]); err != nil {
				return err
			}
		}
	}

	return nil
}

func (e *encoder) lfeOnlyToLFE() bool {
	for o, out := range e.p.Output {
		for i, in := range e.p.Input {
			if out.LFE != in.LFE && e.m.Gains[o][i] != 0 {
				return false
			}
		}
	}

	return true
}

func (e *encoder) writeMask(es []entry, mask []bool) error {
	if err := e.w.WriteBit(e.opts.RawMask); err != nil {
		return err
	}

	if e.opts.RawMask {
		for _, b := range mask {
			if err := e.w.WriteBit(b); err != nil {
				return err
			}
		}

		return nil
	}

	if err := e.w.WriteBit(e.opts.UseTemplate); err != nil {
		return err
	}

	coded := mask

	if e.opts.UseTemplate {
		tmpl, err := template(e.p, e.l, es)
		if err != nil {
			return err
		}

		coded = make([]bool, len(mask))
		for i := range mask {
			coded[i] = mask[i] != tmpl[i]
		}
	}

	var runs, limits []int

	pos := 0
	for i, b := range coded {
		if b {
			runs = append(runs, i-pos)
			limits = append(limits, len(coded)-pos)
			pos = i + 1
		}
	}

	if pos < len(coded) {
		runs = append(runs, len(coded)-pos)
		limits = append(limits, len(coded)-pos)
	}

	k := bestLGRParam(runs, limits)
	if err := e.w.WriteBits(uint32(k), lgrParamBits); err != nil { //nolint:gosec // at most 7
		return err
	}

	for n, run := range runs {
		if err := writeLGR(e.w, run, k, limits[n]); err != nil {
			return err
		}
	}

	return nil
}

func (e *encoder) writeGains(indices []int, size int) error {
	if err := e.w.WriteBit(e.opts.RawGains); err != nil {
		return err
	}

	if e.opts.RawGains {
		for _, idx := range indices {
			if err := e.w.WriteBits(uint32(idx), width(size)); err != nil { //nolint:gosec // table index
				return err
			}
		}

		return nil
	}

	limits := make([]int, len(indices))
	for i := range limits {
		limits[i] = size - 1
	}

	k := bestLGRParam(indices, limits)
	if err := e.w.WriteBits(uint32(k), lgrParamBits); err != nil { //nolint:gosec // at most 7
		return err
	}

	for _, idx := range indices {
		if err := writeLGR(e.w, idx, k, size-1); err != nil {
			return err
		}
	}

	return nil
}
