package sim

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/swaysim/internal/dynamo"
)

var _ = Describe("Simulation", func() {
	var (
		s *Simulation
		p Params
	)

	BeforeEach(func() {
		s = New()
		p = DefaultParams()
		p.Dynamics.Height = 50
		p.Dynamics.Width = 10
		p.Dynamics.DamperMass = 50000
		p.Dynamics.WindSpeed = 30
		p.Dynamics.ResonanceRatio = 100
		p.Segments = 100
		p.Cutoff = 1
		Expect(s.Configure(p)).To(Succeed())
	})

	It("refuses to tick before configuration", func() {
		_, err := New().Tick(0.1)
		Expect(err).To(MatchError(dynamo.ErrNotConfigured))
	})

	It("keeps the displacement series bounded and the mesh inside the cutoff envelope", func() {
		mp := p.Mesh()
		for i := 0; i < 120; i++ {
			f, err := s.Tick(1.0 / 60)
			Expect(err).NotTo(HaveOccurred())
			Expect(dynamo.IsFinite(f.Displacement)).To(BeTrue())
			Expect(dynamo.IsFinite(f.ReferenceDisplacement)).To(BeTrue())
			Expect(math.Abs(f.Displacement)).To(BeNumerically("<=", f.DampedAmplitude+1e-12))
			Expect(f.Primary.Bounds.Size().X).To(BeNumerically("<=", mp.Width+2*p.Cutoff+1e-9))
			Expect(f.Reference.Bounds.Size().X).To(BeNumerically("<=", mp.Width+2*p.Cutoff+1e-9))
		}
		Expect(s.Time()).To(BeNumerically("~", 2.0, 1e-9))
	})

	It("oscillates at the natural frequency", func() {
		res, err := s.Run(context.Background(), 1.0/60, 120)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(120))

		crossings := 0
		for i := 1; i < len(res.WithTMD); i++ {
			if (res.WithTMD[i-1] < 0) != (res.WithTMD[i] < 0) {
				crossings++
			}
		}
		wn := res.Final.NaturalFreq
		expected := 2 * wn / (2 * math.Pi) * 2.0
		Expect(float64(crossings)).To(BeNumerically("~", expected, 1.5))
	})

	It("tunes the damper to resonance idempotently", func() {
		l, err := s.TuneDamper()
		Expect(err).NotTo(HaveOccurred())
		f, err := s.Tick(0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.DamperFreq).To(BeNumerically("~", f.NaturalFreq, 1e-9))

		again, err := s.TuneDamper()
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(l))
	})

	It("rejects out-of-domain parameters and keeps the previous configuration", func() {
		bad := p
		bad.Dynamics.DamperLength = 0
		err := s.Configure(bad)
		Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue())
		Expect(s.Params().Dynamics.DamperLength).To(Equal(p.Dynamics.DamperLength))

		_, err = s.Tick(0.1)
		Expect(err).NotTo(HaveOccurred())
	})

	It("holds the last valid frame when a tick has no finite response", func() {
		good, err := s.Tick(0.1)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.SetParam("damper_mass", 0)).To(Succeed())
		_, err = s.TuneDamper()
		Expect(err).NotTo(HaveOccurred())

		held, err := s.Tick(0.1)
		Expect(errors.Is(err, dynamo.ErrInvalidState)).To(BeTrue())
		Expect(held.Time).To(Equal(good.Time))
		Expect(s.CurrentOutputs()).To(Equal(good.Outputs))
		Expect(s.CurrentGeometry(Primary)).To(BeIdenticalTo(good.Primary))
		Expect(s.LastError()).To(HaveOccurred())
		Expect(s.Time()).To(BeNumerically("~", 0.2, 1e-12))
	})

	It("rebuilds the rest shape before deforming after a segment change", func() {
		_, err := s.Tick(0.1)
		Expect(err).NotTo(HaveOccurred())

		Expect(s.SetParam("segments", 10)).To(Succeed())
		f, err := s.Tick(0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Primary.Vertices).To(HaveLen(22))
		Expect(f.Reference.Vertices).To(HaveLen(22))
		Expect(s.RestGeometry(Primary).VertexCount()).To(Equal(22))
	})

	It("rejects segment counts that are not small positive integers", func() {
		for _, v := range []float64{0, 401, 5e9, 1e19, 2.5, math.NaN(), math.Inf(1)} {
			_, err := p.With("segments", v)
			Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue(), "segments=%g", v)
		}
		Expect(s.SetParam("segments", 5e9)).NotTo(Succeed())
		Expect(s.Params().Segments).To(Equal(p.Segments))

		q, err := p.With("segments", 400)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Segments).To(Equal(400))
	})

	It("anchors the pendulum at the configured height fraction", func() {
		f, err := s.Tick(0.05)
		Expect(err).NotTo(HaveOccurred())
		h := p.Mesh().Height
		Expect(f.Anchor.Y).To(BeNumerically("~", 0.75*h, 0.05*h))
		Expect(f.PendulumLength).To(BeNumerically("~", p.Dynamics.DamperLength/p.Scale, 1e-12))
	})

	It("notifies observers and metrics every successful tick", func() {
		h := NewHistory(50, 0)
		s.AddObserver(h)
		count := 0
		s.AddObserver(ObserverFunc(func(Frame) { count++ }))

		for i := 0; i < 80; i++ {
			_, err := s.Tick(0.01)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(count).To(Equal(80))
		Expect(h.Len()).To(Equal(50))
	})

	It("rejects unknown parameter names", func() {
		Expect(s.SetParam("colour", 1)).NotTo(Succeed())
	})

	It("stops a run when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Run(ctx, 0.01, 10)
		Expect(err).To(MatchError(context.Canceled))
	})
})
