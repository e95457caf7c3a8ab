package dmx_test

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/converter"
	"github.com/mycophonic/mpegh3da/dmx"
	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

func params(t *testing.T, in, out int) dmx.Params {
	t.Helper()

	ig, _, _, err := cicp.Geometry(in)
	assert.NilError(t, err)

	og, _, _, err := cicp.Geometry(out)
	assert.NilError(t, err)

	return dmx.Params{Input: ig, Output: og, InputCICP: in, OutputCICP: out}
}

func ruleMatrix(t *testing.T, in, out int) *dmx.Matrix {
	t.Helper()

	il, err := cicp.Labels(in)
	assert.NilError(t, err)

	ol, err := cicp.Labels(out)
	assert.NilError(t, err)

	as, err := converter.Resolve(il, ol, converter.ResolveOptions{})
	assert.NilError(t, err)

	return &dmx.Matrix{Gains: converter.DownmixMatrix(as, len(il), len(ol))}
}

func encode(t *testing.T, m *dmx.Matrix, p dmx.Params, opts dmx.EncodeOptions) ([]byte, int) {
	t.Helper()

	w := bitstream.NewWriter()
	assert.NilError(t, dmx.Encode(w, m, p, opts))

	n := w.Len()

	data, err := w.Bytes()
	assert.NilError(t, err)

	return data, n
}

func decode(t *testing.T, data []byte, p dmx.Params) *dmx.Matrix {
	t.Helper()

	m, err := dmx.Decode(bitstream.NewReader(data), p)
	assert.NilError(t, err)

	return m
}

func TestCompaction(t *testing.T) {
	t.Parallel()

	p := params(t, 6, 2)
	c := dmx.Compaction(p.Input)

	assert.Equal(t, len(c), 4)
	assert.Equal(t, c[0].Kind, dmx.Symmetric)
	assert.DeepEqual(t, c[0].Channels, []int{0, 1})
	assert.Equal(t, c[1].Kind, dmx.Center)
	assert.DeepEqual(t, c[1].Channels, []int{2})
	assert.Equal(t, c[2].Kind, dmx.Single)
	assert.Assert(t, c[2].LFE)
	assert.Equal(t, c[3].Kind, dmx.Symmetric)
	assert.DeepEqual(t, c[3].Channels, []int{4, 5})

	full := dmx.Compaction(params(t, 13, 6).Input)

	var lfePairs int
	for _, cc := range full {
		if cc.LFE && cc.Kind == dmx.Symmetric {
			lfePairs++
		}
	}

	assert.Equal(t, lfePairs, 1)
}

func TestTemplateAndRawCodingAgree(t *testing.T) {
	t.Parallel()

	for _, pair := range [][2]int{{6, 2}, {13, 6}, {12, 6}, {19, 14}, {7, 6}} {
		p := params(t, pair[0], pair[1])
		m := ruleMatrix(t, pair[0], pair[1])

		for precision := range 3 {
			raw, rawBits := encode(t, m, p, dmx.EncodeOptions{Precision: precision, RawMask: true, RawGains: true})
			runs, runBits := encode(t, m, p, dmx.EncodeOptions{Precision: precision})
			tmpl, tmplBits := encode(t, m, p, dmx.EncodeOptions{Precision: precision, UseTemplate: true})

			want := decode(t, raw, p)
			assert.DeepEqual(t, decode(t, runs, p), want)
			assert.DeepEqual(t, decode(t, tmpl, p), want)

			assert.Assert(t, tmplBits <= runBits, "cicp %v: template %d bits, runs %d bits", pair, tmplBits, runBits)
			assert.Assert(t, rawBits > 0)

			// Half a quantization step.
			tol := math.Pow(10, 0.5/float64(int(1)<<precision)/20) - 1

			for o := range m.Gains {
				for i := range m.Gains[o] {
					assert.Assert(t, math.Abs(want.Gains[o][i]-m.Gains[o][i]) <= tol*m.Gains[o][i]+1e-12,
						"cicp %v [%d][%d]: %f, want %f", pair, o, i, want.Gains[o][i], m.Gains[o][i])
					assert.Equal(t, want.Gains[o][i] == 0, m.Gains[o][i] == 0)
				}
			}
		}
	}
}

func TestArbitraryMatrix(t *testing.T) {
	t.Parallel()

	p := params(t, 6, 2)
	p.InputCICP, p.OutputCICP = 0, 0

	// Asymmetric surround pair and a boosted centre.
	m := &dmx.Matrix{Gains: [][]float64{
		{1, 0, 1.4125375446227544, 0, 0.5, 0.25},
		{0, 1, 1.4125375446227544, 0, 0.125, 0.5},
	}}

	got := decode(t, first(encode(t, m, p, dmx.EncodeOptions{Precision: 2})), p)

	for o := range m.Gains {
		for i := range m.Gains[o] {
			assert.Assert(t, math.Abs(got.Gains[o][i]-m.Gains[o][i]) < 0.02,
				"[%d][%d]: %f, want %f", o, i, got.Gains[o][i], m.Gains[o][i])
		}
	}

	w := bitstream.NewWriter()
	assert.ErrorIs(t, dmx.Encode(w, m, p, dmx.EncodeOptions{UseTemplate: true}), dmx.ErrTemplate)
}

func first(data []byte, _ int) []byte { return data }

func TestEqualizerConfig(t *testing.T) {
	t.Parallel()

	p := params(t, 6, 2)
	m := ruleMatrix(t, 6, 2)

	eq := &converter.Equalizer{Peaks: []converter.Peak{{Freq: 1000, Q: 1, GainDB: 3}}, GlobalGainDB: -1}
	m.EQ = []*converter.Equalizer{nil, nil, nil, nil, eq, eq}

	got := decode(t, first(encode(t, m, p, dmx.EncodeOptions{})), p)
	assert.Equal(t, len(got.EQ), 6)
	assert.Assert(t, got.EQ[0] == nil)
	assert.Assert(t, got.EQ[4] != nil)
	assert.Assert(t, got.EQ[4] == got.EQ[5])

	peak := got.EQ[4].Peaks[0]
	assert.Assert(t, math.Abs(peak.Freq-1000) < 1e-9)
	assert.Assert(t, math.Abs(peak.Q-1) < 1e-9)
	assert.Assert(t, math.Abs(peak.GainDB-3) < 1e-9)
	assert.Assert(t, math.Abs(got.EQ[4].GlobalGainDB+1) < 1e-9)
}

func TestAllNilEqualizersAreAbsent(t *testing.T) {
	t.Parallel()

	p := params(t, 6, 2)

	plain := ruleMatrix(t, 6, 2)
	_, want := encode(t, plain, p, dmx.EncodeOptions{})

	m := ruleMatrix(t, 6, 2)
	m.EQ = make([]*converter.Equalizer, 6)

	data, n := encode(t, m, p, dmx.EncodeOptions{})
	assert.Equal(t, n, want)

	got := decode(t, data, p)
	assert.Assert(t, got.EQ == nil)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	p := params(t, 13, 6)
	data, n := encode(t, ruleMatrix(t, 13, 6), p, dmx.EncodeOptions{UseTemplate: true})
	assert.Assert(t, n > 16)

	_, err := dmx.Decode(bitstream.NewReader(data[:1]), p)
	assert.ErrorIs(t, err, dmx.ErrTruncated)

	noTemplate := p
	noTemplate.InputCICP = 0
	_, err = dmx.Decode(bitstream.NewReader(data), noTemplate)
	assert.ErrorIs(t, err, dmx.ErrTemplate)

	big := dmx.Params{Input: make([]mpegh3da.Speaker, 65), Output: p.Output}
	_, err = dmx.Decode(bitstream.NewReader(data), big)
	assert.ErrorIs(t, err, dmx.ErrMatrixTooLarge)

	_, err = dmx.Decode(bitstream.NewReader(data), dmx.Params{Output: p.Output})
	assert.ErrorIs(t, err, dmx.ErrConfig)
}

func TestDownmixMatrixSet(t *testing.T) {
	t.Parallel()

	set := dmx.SetParams{1: params(t, 6, 2), 3: params(t, 13, 6)}
	groups := []dmx.Group{
		{ID: 1, Matrix: ruleMatrix(t, 6, 2)},
		{ID: 3, Matrix: ruleMatrix(t, 13, 6)},
	}

	w := bitstream.NewWriter()
	assert.NilError(t, dmx.EncodeSet(w, groups, set, dmx.EncodeOptions{UseTemplate: true}))
	assert.NilError(t, w.WriteBits(0x5, 3))

	total := w.Len()

	data, err := w.Bytes()
	assert.NilError(t, err)

	r := bitstream.NewReader(data)
	got, err := dmx.DecodeSet(r, set)
	assert.NilError(t, err)
	assert.Equal(t, len(got), 2)
	assert.Equal(t, got[0].ID, 1)
	assert.Equal(t, got[1].ID, 3)
	assert.Equal(t, r.Position(), total-3)

	trailer, err := r.ReadBits(3)
	assert.NilError(t, err)
	assert.Equal(t, trailer, uint32(0x5))

	want := decode(t, first(encode(t, groups[1].Matrix, set[3], dmx.EncodeOptions{})), set[3])
	assert.DeepEqual(t, got[1].Matrix, want)

	_, err = dmx.DecodeSet(bitstream.NewReader(data), dmx.SetParams{1: set[1]})
	assert.ErrorIs(t, err, dmx.ErrUnexpectedGroup)
}
