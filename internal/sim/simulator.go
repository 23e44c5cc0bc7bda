package sim

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/san-kum/swaysim/internal/dynamo"
	"github.com/san-kum/swaysim/internal/mesh"
	"github.com/san-kum/swaysim/internal/physics"
)

// Simulation is the host-driven replacement for engine lifecycle hooks:
// Configure when inputs change, Tick once per frame, read the results.
// It is not safe for concurrent use.
type Simulation struct {
	params     Params
	configured bool

	model  *physics.SwayModel
	caches [2]*mesh.Cache

	frame    Frame
	hasFrame bool
	lastErr  error

	metrics   []Metric
	observers []Observer
	logger    *log.Logger
}

type Option func(*Simulation)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(opts ...Option) *Simulation {
	s := &Simulation{
		model:     physics.NewSwayModel(physics.DefaultCalibration()),
		caches:    [2]*mesh.Cache{mesh.NewCache(), mesh.NewCache()},
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Configure validates p and rebuilds the rest shapes whose key changed.
// Rejected parameters leave the previous configuration in place.
func (s *Simulation) Configure(p Params) error {
	if err := p.Validate(); err != nil {
		s.logger.Warn("configuration rejected", "err", err)
		return err
	}
	for i, c := range s.caches {
		before := c.Builds()
		if _, err := c.Get(p.Mesh()); err != nil {
			return err
		}
		if c.Builds() != before {
			s.logger.Debug("rest shape rebuilt", "building", Building(i), "segments", p.Segments)
		}
	}
	s.model.Calibration = p.Calibration
	s.params = p
	s.configured = true
	return nil
}

func (s *Simulation) Params() Params { return s.params }

// Tick advances the clock by dt, evaluates both configurations and bends
// both meshes. On error the previous frame is kept and returned.
func (s *Simulation) Tick(dt float64) (Frame, error) {
	if !s.configured {
		return s.frame, dynamo.ErrNotConfigured
	}
	p := s.params

	sample, err := s.model.Step(p.Dynamics, dt)
	if err != nil {
		s.lastErr = err
		s.logger.Warn("tick rejected, holding last frame", "t", s.model.Time(), "err", err)
		return s.frame, err
	}

	dz := p.Calibration.DeadZone
	x := physics.ApplyDeadZone(sample.Displacement, dz) / p.Scale
	xMin := physics.ApplyDeadZone(sample.ReferenceDisplacement, dz) / p.Scale

	opts := mesh.BendOptions{Cutoff: p.Cutoff, AnchorFraction: p.AnchorFraction}
	primary := mesh.Deform(s.caches[Primary].Current(), x, opts)
	reference := mesh.Deform(s.caches[Reference].Current(), xMin, opts)

	if primary.Solve.Stalled {
		s.logger.Debug("radius solve stalled", "offset", x, "err", dynamo.ErrNumericInstability)
	}
	if !primary.Anchor.IsValid() || !reference.Anchor.IsValid() {
		s.lastErr = fmt.Errorf("bent geometry at t=%.4f: %w", sample.Time, dynamo.ErrInvalidState)
		s.logger.Warn("tick produced invalid geometry", "t", sample.Time)
		return s.frame, s.lastErr
	}

	f := Frame{
		Outputs: Outputs{
			Time:                  sample.Time,
			BuildingMass:          sample.Primary.BuildingMass,
			NaturalFreq:           sample.Primary.NaturalFreq,
			DamperFreq:            sample.Primary.DamperFreq,
			ForcingFreq:           sample.Primary.ForcingFreq,
			DampedAmplitude:       abs(sample.Primary.Amplitude),
			ReferenceAmplitude:    abs(sample.Reference.Amplitude),
			DamperSwingAmplitude:  abs(sample.Primary.DamperAmplitude),
			Displacement:          sample.Displacement,
			ReferenceDisplacement: sample.ReferenceDisplacement,
			DamperDisplacement:    sample.DamperDisplacement,
			DamperAngle:           sample.DamperAngle,
			Height:                p.Dynamics.Height,
			PendulumLength:        p.Dynamics.DamperLength / p.Scale,
			Anchor:                primary.Anchor,
		},
		Primary:   primary,
		Reference: reference,
	}

	s.frame = f
	s.hasFrame = true
	s.lastErr = nil

	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, o := range s.observers {
		o.OnTick(f)
	}
	return f, nil
}

// CurrentGeometry returns the last valid bent mesh of b, or nil before
// the first successful tick.
func (s *Simulation) CurrentGeometry(b Building) *mesh.Bent {
	if !s.hasFrame {
		return nil
	}
	return s.frame.Geometry(b)
}

// RestGeometry returns the cached rest shape of b.
func (s *Simulation) RestGeometry(b Building) *mesh.Geometry {
	return s.caches[b].Current()
}

func (s *Simulation) CurrentOutputs() Outputs { return s.frame.Outputs }
func (s *Simulation) CurrentFrame() Frame     { return s.frame }
func (s *Simulation) HasFrame() bool          { return s.hasFrame }
func (s *Simulation) LastError() error        { return s.lastErr }
func (s *Simulation) Time() float64           { return s.model.Time() }

// TuneDamper sets the damper length so wd equals the current wn. It is
// idempotent and returns the new length.
func (s *Simulation) TuneDamper() (float64, error) {
	if !s.configured {
		return 0, dynamo.ErrNotConfigured
	}
	l, err := s.model.ResonantLength(s.params.Dynamics.Height)
	if err != nil {
		return 0, err
	}
	p := s.params
	p.Dynamics.DamperLength = l
	if err := s.Configure(p); err != nil {
		return 0, err
	}
	s.logger.Info("damper tuned to resonance", "length", l)
	return l, nil
}

// Reset rewinds the clock and clears metrics; configuration is kept.
func (s *Simulation) Reset() {
	s.model.Reset()
	s.frame = Frame{}
	s.hasFrame = false
	s.lastErr = nil
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Simulation) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// paramFields maps slider names to fields of Params.
var paramFields = map[string]func(p *Params) *float64{
	"height":          func(p *Params) *float64 { return &p.Dynamics.Height },
	"width":           func(p *Params) *float64 { return &p.Dynamics.Width },
	"damper_length":   func(p *Params) *float64 { return &p.Dynamics.DamperLength },
	"damper_mass":     func(p *Params) *float64 { return &p.Dynamics.DamperMass },
	"wind_speed":      func(p *Params) *float64 { return &p.Dynamics.WindSpeed },
	"resonance_ratio": func(p *Params) *float64 { return &p.Dynamics.ResonanceRatio },
	"damping_ratio":   func(p *Params) *float64 { return &p.Dynamics.DampingRatio },
	"scale":           func(p *Params) *float64 { return &p.Scale },
	"cutoff":          func(p *Params) *float64 { return &p.Cutoff },
	"anchor_fraction": func(p *Params) *float64 { return &p.AnchorFraction },
}

// ParamNames lists the names accepted by SetParam, sorted.
func ParamNames() []string {
	names := make([]string, 0, len(paramFields)+1)
	for k := range paramFields {
		names = append(names, k)
	}
	names = append(names, "segments")
	sort.Strings(names)
	return names
}

func (s *Simulation) GetParams() map[string]float64 {
	out := make(map[string]float64, len(paramFields)+1)
	p := s.params
	for k, field := range paramFields {
		out[k] = *field(&p)
	}
	out["segments"] = float64(p.Segments)
	return out
}

// With returns a copy of p with the named input changed.
func (p Params) With(name string, value float64) (Params, error) {
	if name == "segments" {
		if !dynamo.IsFinite(value) || value != math.Trunc(value) || value < 1 || value > mesh.MaxSegments {
			return p, dynamo.NewDomainError("segments", value, fmt.Sprintf("must be an integer within [1, %d]", mesh.MaxSegments))
		}
		p.Segments = int(value)
		return p, nil
	}
	field, ok := paramFields[name]
	if !ok {
		return p, fmt.Errorf("unknown param: %s", name)
	}
	*field(&p) = value
	return p, nil
}

// SetParam changes one named input and reconfigures.
func (s *Simulation) SetParam(name string, value float64) error {
	p, err := s.params.With(name, value)
	if err != nil {
		return err
	}
	return s.Configure(p)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
