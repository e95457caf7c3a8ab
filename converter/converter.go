// Package converter converts multichannel audio from one loudspeaker layout to another.
//
// A session is created with New, configured with AddInputSetup and the Set* methods, then
// opened. Open resolves a downmix from, in order of precedence, an explicit matrix, the
// rule tables, or vector-base amplitude panning when a layout has unlabelled loudspeakers or
// the rules cannot cover it. Process then runs the downmix either directly on samples or in
// a short-time Fourier domain with per-bin equalization.
package converter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/internal/stft"
)

// ProcessingMode selects the signal path.
type ProcessingMode int

const (
	// ModePassiveTimeDomain applies the broadband gains to samples, without equalization or delay.
	ModePassiveTimeDomain ProcessingMode = iota
	// ModePassiveFrequencyDomain applies per-bin gains and equalizers in the STFT domain.
	ModePassiveFrequencyDomain
	// ModeActiveFrequencyDomain adds phase alignment and energy preservation.
	ModeActiveFrequencyDomain
)

func (m ProcessingMode) String() string {
	switch m {
	case ModePassiveTimeDomain:
		return "passive-time"
	case ModePassiveFrequencyDomain:
		return "passive-frequency"
	case ModeActiveFrequencyDomain:
		return "active-frequency"
	default:
		return fmt.Sprintf("ProcessingMode(%d)", int(m))
	}
}

// Strategy is the downmix source chosen at Open.
type Strategy int

const (
	// StrategyRules uses the rule tables.
	StrategyRules Strategy = iota
	// StrategyVBAP pans every input with vector-base amplitude panning.
	StrategyVBAP
	// StrategyMatrix uses a matrix set with SetDownmixMatrix.
	StrategyMatrix
)

func (s Strategy) String() string {
	switch s {
	case StrategyRules:
		return "rules"
	case StrategyVBAP:
		return "vbap"
	case StrategyMatrix:
		return "matrix"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// EmptyChannel marks an input channel id whose channel is dropped.
const EmptyChannel = -1

// Config configures a Converter.
type Config struct {
	Mode ProcessingMode
	// Output is the output loudspeaker geometry.
	Output []mpegh3da.Speaker
	// SampleRate in Hz, used to place equalizer curves on the STFT bins.
	SampleRate int
	// FrameSize is the number of samples per Process call. Frequency-domain modes need a
	// multiple of the STFT hop.
	FrameSize int
	// Logger may be nil.
	Logger *slog.Logger
}

type state int

const (
	stateCreated state = iota
	stateOpen
	stateClosed
)

type inputSetup struct {
	geometry []mpegh3da.Speaker
	offset   int
	ids      []int
}

// inputChannel is one non-empty input channel.
type inputChannel struct {
	index   int
	speaker mpegh3da.Speaker
	label   cicp.Label
	labeled bool
}

// Converter is one format conversion session. It is not safe for concurrent use.
type Converter struct {
	cfg    Config
	logger *slog.Logger
	state  state

	setups      []inputSetup
	aes         bool
	pas         bool
	immersive   bool
	rendering3D bool
	explicit    [][]float64
	explicitEQ  []*Equalizer

	numIn       int
	strategy    Strategy
	assignments []Assignment
	matrix      [][]float64
	graph       *graph
	fb          *filterbank
}

// New validates cfg and returns a session in the configuration state.
func New(cfg Config) (*Converter, error) {
	if len(cfg.Output) == 0 {
		return nil, fmt.Errorf("%w: empty output layout", ErrConfig)
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrConfig, cfg.SampleRate)
	}

	if cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("%w: frame size %d", ErrConfig, cfg.FrameSize)
	}

	if cfg.Mode != ModePassiveTimeDomain && cfg.FrameSize%stft.DefaultHop != 0 {
		return nil, fmt.Errorf("%w: frame size %d is not a multiple of %d", ErrConfig, cfg.FrameSize, stft.DefaultHop)
	}

	if cfg.Mode < ModePassiveTimeDomain || cfg.Mode > ModeActiveFrequencyDomain {
		return nil, fmt.Errorf("%w: mode %s", ErrConfig, cfg.Mode)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	active := cfg.Mode == ModeActiveFrequencyDomain

	return &Converter{cfg: cfg, logger: logger, aes: active, pas: active}, nil
}

func (c *Converter) configurable() error {
	if c.state != stateCreated {
		return fmt.Errorf("%w: already opened", ErrState)
	}

	return nil
}

// AddInputSetup adds a group of input channels. Channel i of geometry is read from input
// buffer channel offset+i. ids is optional; when given, ids[i] is either EmptyChannel, which
// drops the channel, or a cicp.Label overriding the label matched from the geometry.
func (c *Converter) AddInputSetup(geometry []mpegh3da.Speaker, offset int, ids []int) error {
	if err := c.configurable(); err != nil {
		return err
	}

	if len(geometry) == 0 || offset < 0 {
		return fmt.Errorf("%w: %d channels at offset %d", ErrConfig, len(geometry), offset)
	}

	if ids != nil && len(ids) != len(geometry) {
		return fmt.Errorf("%w: %d channel ids for %d channels", ErrConfig, len(ids), len(geometry))
	}

	for _, id := range ids {
		if id != EmptyChannel && !cicp.Label(id).Valid() {
			return fmt.Errorf("%w: channel id %d", ErrConfig, id)
		}
	}

	c.setups = append(c.setups, inputSetup{geometry: geometry, offset: offset, ids: ids})

	return nil
}

// SetAES enables active energy preservation (active frequency-domain mode only).
func (c *Converter) SetAES(on bool) error {
	if err := c.configurable(); err != nil {
		return err
	}

	c.aes = on

	return nil
}

// SetPAS enables phase alignment (active frequency-domain mode only).
func (c *Converter) SetPAS(on bool) error {
	if err := c.configurable(); err != nil {
		return err
	}

	c.pas = on

	return nil
}

// SetImmersiveDownmix selects the immersive rule table.
func (c *Converter) SetImmersiveDownmix(on bool) error {
	if err := c.configurable(); err != nil {
		return err
	}

	c.immersive = on

	return nil
}

// SetRendering3DType enables virtual elevation rendering with the immersive table.
func (c *Converter) SetRendering3DType(on bool) error {
	if err := c.configurable(); err != nil {
		return err
	}

	c.rendering3D = on

	return nil
}

// SetDownmixMatrix sets an explicit [output][input] gain matrix, typically decoded from the
// bitstream. eqs is optional and holds one equalizer per input channel (nil entries for none).
func (c *Converter) SetDownmixMatrix(m [][]float64, eqs []*Equalizer) error {
	if err := c.configurable(); err != nil {
		return err
	}

	if len(m) != len(c.cfg.Output) {
		return fmt.Errorf("%w: matrix has %d rows for %d outputs", ErrConfig, len(m), len(c.cfg.Output))
	}

	c.explicit = m
	c.explicitEQ = eqs

	return nil
}

// Open resolves the downmix and prepares the signal path.
func (c *Converter) Open() error {
	if err := c.configurable(); err != nil {
		return err
	}

	inputs, numIn, err := c.collectInputs()
	if err != nil {
		return err
	}

	c.numIn = numIn

	switch {
	case c.explicit != nil:
		err = c.openMatrix()
	default:
		err = c.openRules(inputs)
		if errors.Is(err, errNeedsFallback) || errors.Is(err, ErrMissingRule) {
			c.logger.Debug("format converter falls back to vbap", "reason", err.Error())
			err = c.openVBAP(inputs)
		}
	}

	if err != nil {
		return err
	}

	if err := c.build(); err != nil {
		return err
	}

	c.state = stateOpen

	c.logger.Debug("format converter opened",
		"strategy", c.strategy.String(),
		"mode", c.cfg.Mode.String(),
		"inputs", c.numIn,
		"outputs", len(c.cfg.Output),
		"delay", c.Delay())

	return nil
}

var errNeedsFallback = errors.New("converter: layout has unlabelled loudspeakers")

func (c *Converter) collectInputs() ([]inputChannel, int, error) {
	if len(c.setups) == 0 {
		return nil, 0, fmt.Errorf("%w: no input setup", ErrConfig)
	}

	var (
		inputs []inputChannel
		numIn  int
	)

	used := map[int]bool{}

	for _, s := range c.setups {
		for i, spk := range s.geometry {
			idx := s.offset + i
			if used[idx] {
				return nil, 0, fmt.Errorf("%w: input channel %d configured twice", ErrConfig, idx)
			}

			used[idx] = true
			numIn = max(numIn, idx+1)

			ch := inputChannel{index: idx, speaker: spk}

			switch {
			case s.ids != nil && s.ids[i] == EmptyChannel:
				continue
			case s.ids != nil:
				ch.label, ch.labeled = cicp.Label(s.ids[i]), true
			default:
				ch.label, ch.labeled = cicp.LabelOf(spk)
			}

			inputs = append(inputs, ch)
		}
	}

	return inputs, numIn, nil
}

func (c *Converter) openMatrix() error {
	for o, row := range c.explicit {
		if len(row) != c.numIn {
			return fmt.Errorf("%w: matrix row %d has %d columns for %d inputs", ErrConfig, o, len(row), c.numIn)
		}
	}

	if c.explicitEQ != nil && len(c.explicitEQ) != c.numIn {
		return fmt.Errorf("%w: %d equalizers for %d inputs", ErrConfig, len(c.explicitEQ), c.numIn)
	}

	c.strategy = StrategyMatrix
	c.matrix = c.explicit

	return nil
}

func (c *Converter) openRules(inputs []inputChannel) error {
	outLabels, ok := cicp.LabelsOf(c.cfg.Output)
	if !ok {
		return fmt.Errorf("%w: output", errNeedsFallback)
	}

	in := make([]cicp.Label, c.numIn)
	for i := range in {
		in[i] = cicp.None
	}

	for _, ch := range inputs {
		if !ch.labeled {
			return fmt.Errorf("%w: input channel %d", errNeedsFallback, ch.index)
		}

		in[ch.index] = ch.label
	}

	as, err := Resolve(in, outLabels, ResolveOptions{Immersive: c.immersive, Rendering3D: c.rendering3D})
	if err != nil {
		return err
	}

	c.strategy = StrategyRules
	c.assignments = as
	c.matrix = DownmixMatrix(as, c.numIn, len(c.cfg.Output))

	return nil
}

func (c *Converter) openVBAP(inputs []inputChannel) error {
	m, err := panMatrix(inputs, c.numIn, c.cfg.Output, c.logger)
	if err != nil {
		return err
	}

	c.strategy = StrategyVBAP
	c.assignments = nil
	c.matrix = m

	return nil
}

// Strategy returns the downmix strategy chosen by Open.
func (c *Converter) Strategy() Strategy { return c.strategy }

// Assignments returns the resolved rule assignments (nil unless the rules strategy is used).
func (c *Converter) Assignments() []Assignment { return c.assignments }

// Matrix returns the broadband [output][input] downmix gains.
func (c *Converter) Matrix() [][]float64 { return c.matrix }

// Inputs returns the number of input buffer channels Process expects.
func (c *Converter) Inputs() int { return c.numIn }

// Outputs returns the number of output loudspeakers, LFE included.
func (c *Converter) Outputs() int { return len(c.cfg.Output) }

// Delay returns the processing latency in samples.
func (c *Converter) Delay() int {
	if c.cfg.Mode == ModePassiveTimeDomain {
		return 0
	}

	return stft.Config{}.Delay()
}

// Close releases the session. It is safe to call more than once, including after a failed Open.
func (c *Converter) Close() error {
	if c == nil {
		return nil
	}

	c.state = stateClosed
	c.graph = nil
	c.fb = nil

	return nil
}
