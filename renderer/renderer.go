// Package renderer renders audio objects to a loudspeaker layout. Per OAM sub-frame it pans
// every object with vbap and ramps the gains linearly from the previous sub-frame, adding the
// result into the caller's output buffers.
package renderer

import (
	"fmt"
	"log/slog"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/hull"
	"github.com/mycophonic/mpegh3da/internal/bitstream"
	"github.com/mycophonic/mpegh3da/oam"
	"github.com/mycophonic/mpegh3da/vbap"
)

// Config configures a Renderer.
type Config struct {
	NumObjects int
	// FrameLength is the number of samples per RenderFrame call.
	FrameLength int
	// OAMFrameLength is the number of samples per metadata sub-frame. It must divide
	// FrameLength; 0 means FrameLength.
	OAMFrameLength int
	// Output is the loudspeaker geometry. When nil, the geometry of CICPIndex is used.
	Output []mpegh3da.Speaker
	// CICPIndex is the layout index of Output, or cicp.Generic.
	CICPIndex int
	// UniformSpread means metadata carries a single spread angle.
	UniformSpread bool
	// Mode selects the spread algorithm.
	Mode vbap.Mode
	// Superset renders a known subset CICP layout (mono, stereo, 3.0, 4.0, quad) on the mesh
	// of its standard superset and folds the result with the rule downmix. It is ignored for
	// other layouts.
	Superset bool
	// Parallelism bounds the goroutines computing object gains; values below 2 run inline.
	Parallelism int
	// Logger may be nil.
	Logger *slog.Logger
}

// Renderer is one rendering session. It is not safe for concurrent use.
type Renderer struct {
	cfg      Config
	logger   *slog.Logger
	panner   *vbap.Panner
	channels int
	// meshToOut maps panner outputs to output channels; LFE channels have no entry.
	meshToOut []int

	subFrames int
	samples   [][]oam.Sample
	valid     []bool
	lastValid []oam.Sample
	prod      *oam.ProdMetadata

	startGains [][]float64
	endGains   [][]float64
	started    bool
	closed     bool
}

// Open validates cfg and builds the loudspeaker mesh.
func Open(cfg Config) (*Renderer, error) {
	if cfg.NumObjects <= 0 {
		return nil, fmt.Errorf("%w: %d objects", ErrConfig, cfg.NumObjects)
	}

	if cfg.FrameLength <= 0 {
		return nil, fmt.Errorf("%w: frame length %d", ErrConfig, cfg.FrameLength)
	}

	if cfg.OAMFrameLength == 0 {
		cfg.OAMFrameLength = cfg.FrameLength
	}

	if cfg.OAMFrameLength < 0 || cfg.FrameLength%cfg.OAMFrameLength != 0 {
		return nil, fmt.Errorf("%w: OAM frame length %d does not divide frame length %d",
			ErrConfig, cfg.OAMFrameLength, cfg.FrameLength)
	}

	if cfg.Output == nil {
		geo, _, _, err := cicp.Geometry(cfg.CICPIndex)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}

		cfg.Output = geo
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{
		cfg:       cfg,
		logger:    logger,
		channels:  len(cfg.Output),
		subFrames: cfg.FrameLength / cfg.OAMFrameLength,
	}

	var speakers []mpegh3da.Speaker

	for ch, s := range cfg.Output {
		if s.LFE {
			continue
		}

		speakers = append(speakers, s)
		r.meshToOut = append(r.meshToOut, ch)
	}

	mesh, err := r.mesh(speakers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	if r.panner, err = vbap.NewPanner(mesh, vbap.Config{Mode: cfg.Mode}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	r.samples = make([][]oam.Sample, r.subFrames)
	r.valid = make([]bool, r.subFrames)

	for sf := range r.subFrames {
		r.samples[sf] = make([]oam.Sample, cfg.NumObjects)
	}

	r.startGains = newGains(cfg.NumObjects, len(speakers))
	r.endGains = newGains(cfg.NumObjects, len(speakers))

	logger.Debug("object renderer opened",
		"objects", cfg.NumObjects,
		"channels", r.channels,
		"lfe", mpegh3da.CountLFE(cfg.Output),
		"cicp", cfg.CICPIndex,
		"subframes", r.subFrames,
		"mode", cfg.Mode.String(),
		"superset", supersets[cfg.CICPIndex] != 0 && cfg.Superset)

	return r, nil
}

func (r *Renderer) mesh(speakers []mpegh3da.Speaker) (*hull.Mesh, error) {
	if r.cfg.Superset {
		mesh, err := supersetMesh(r.cfg.CICPIndex, r.logger)
		if err != nil {
			return nil, err
		}

		if mesh != nil {
			if mesh.Outputs() != len(speakers) {
				return nil, fmt.Errorf("superset mesh has %d outputs for %d speakers", mesh.Outputs(), len(speakers))
			}

			return mesh, nil
		}
	}

	return hull.Build(speakers, r.logger)
}

func newGains(objects, channels int) [][]float64 {
	g := make([][]float64, objects)
	for i := range g {
		g[i] = make([]float64, channels)
	}

	return g
}

// SubFrames returns the number of metadata sub-frames per audio frame.
func (r *Renderer) SubFrames() int { return r.subFrames }

// Channels returns the number of output channels, LFE included.
func (r *Renderer) Channels() int { return r.channels }

// ObjectMetadataFrame decodes one frame of object metadata. On failure every sub-frame of the
// frame is marked invalid, so RenderFrame conceals with the last valid metadata, and the
// decode error is returned.
func (r *Renderer) ObjectMetadataFrame(payload []byte) error {
	if r.closed {
		return ErrClosed
	}

	frames, err := oam.DecodeFrame(bitstream.NewReader(payload), oam.FrameConfig{
		NumObjects:    r.cfg.NumObjects,
		SubFrames:     r.subFrames,
		UniformSpread: r.cfg.UniformSpread,
	}, r.lastValid)
	if err != nil {
		clear(r.valid)

		return err
	}

	for sf, row := range frames {
		copy(r.samples[sf], row)
		r.valid[sf] = true
	}

	return nil
}

// SetObjectMetadata sets the metadata of one sub-frame directly. Invalid sub-frames are
// concealed.
func (r *Renderer) SetObjectMetadata(subFrame int, samples []oam.Sample, valid bool) error {
	if r.closed {
		return ErrClosed
	}

	if subFrame < 0 || subFrame >= r.subFrames {
		return fmt.Errorf("%w: %d of %d", ErrSubFrame, subFrame, r.subFrames)
	}

	if valid && len(samples) != r.cfg.NumObjects {
		return fmt.Errorf("%w: %d samples for %d objects", ErrConfig, len(samples), r.cfg.NumObjects)
	}

	r.valid[subFrame] = valid
	if valid {
		copy(r.samples[subFrame], samples)
	}

	return nil
}

// ProdMetadataFrameGroup decodes production metadata. The distance gains it carries apply
// from the next rendered frame. On failure the previous production metadata is kept.
func (r *Renderer) ProdMetadataFrameGroup(payload []byte) error {
	if r.closed {
		return ErrClosed
	}

	pm, err := oam.DecodeProdMetadata(bitstream.NewReader(payload), r.cfg.NumObjects)
	if err != nil {
		return err
	}

	r.prod = pm

	return nil
}

// Gains returns a copy of the gains reached at the end of the last rendered sub-frame for
// one object, indexed by output channel. It returns nil for an unknown object.
func (r *Renderer) Gains(object int) []float64 {
	if r.closed || object < 0 || object >= r.cfg.NumObjects {
		return nil
	}

	out := make([]float64, r.channels)
	for k, ch := range r.meshToOut {
		out[ch] = r.startGains[object][k]
	}

	return out
}

// Close releases the session. It is safe to call more than once.
func (r *Renderer) Close() error {
	if r == nil || r.closed {
		return nil
	}

	r.closed = true
	r.panner = nil
	r.samples = nil
	r.startGains = nil
	r.endGains = nil

	return nil
}
