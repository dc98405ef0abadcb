package megno_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/megno"
	"github.com/san-kum/orbsim/internal/physics"
)

func threeBody() *dynamo.Simulation {
	return &dynamo.Simulation{
		G:         1,
		Dt:        0.01,
		Softening: 0.01,
		Bodies: []dynamo.Body{
			{Mass: 1},
			{Mass: 1e-3, Pos: r3.Vec{X: 1, Y: 0.1}, Vel: r3.Vec{Y: 1}},
			{Mass: 5e-4, Pos: r3.Vec{X: -0.3, Y: 1.6, Z: 0.2}, Vel: r3.Vec{X: -0.8, Z: 0.05}},
		},
	}
}

var _ = Describe("Tracker", func() {
	var tr *megno.Tracker

	BeforeEach(func() {
		tr = megno.NewTracker()
	})

	It("reports zero MEGNO at t=0", func() {
		Expect(tr.Megno(0)).To(Equal(0.0))
		tr.Update(0, 0.1, 3)
		Expect(tr.Megno(0)).To(Equal(0.0))
	})

	It("reports zero Lyapunov exponent while var(t) vanishes", func() {
		Expect(tr.Lyapunov()).To(Equal(0.0))
		tr.Update(1, 0.1, 0.5)
		Expect(tr.Variance()).To(Equal(0.0))
		Expect(tr.Lyapunov()).To(Equal(0.0))
	})

	It("matches a batch covariance over the same samples", func() {
		dt := 0.05
		var ts, ys []float64
		for i := 1; i <= 400; i++ {
			t := float64(i) * dt
			tr.Update(t, dt, 0.3+0.1*math.Sin(t))
			ts = append(ts, t)
			ys = append(ys, tr.Megno(t))
		}

		n := float64(len(ts))
		Expect(tr.Samples()).To(Equal(int64(len(ts))))
		Expect(tr.Covariance()).To(BeNumerically("~", stat.Covariance(ys, ts, nil)*(n-1)/n, 1e-10))
		Expect(tr.Variance()).To(BeNumerically("~", stat.Variance(ts, nil)*(n-1)/n, 1e-10))
		Expect(tr.Lyapunov()).To(BeNumerically("~", stat.Covariance(ys, ts, nil)/stat.Variance(ts, nil), 1e-10))
	})

	It("grows <Y> linearly for a constant rate", func() {
		dt := 0.001
		rate := 0.25
		var t float64
		for i := 1; i <= 20000; i++ {
			t = float64(i) * dt
			tr.Update(t, dt, rate)
		}
		// Y = rate*t^2, so <Y> = rate*t/2 with slope rate/2.
		Expect(tr.Megno(t)).To(BeNumerically("~", rate*t/2, 0.01*rate*t))
		Expect(tr.Lyapunov()).To(BeNumerically("~", rate/2, 1e-9))
	})

	It("clears everything on Reset", func() {
		tr.Update(1, 0.1, 1)
		tr.Update(2, 0.1, 1)
		tr.Reset()
		Expect(tr.Ys).To(Equal(0.0))
		Expect(tr.Yss).To(Equal(0.0))
		Expect(tr.Samples()).To(BeZero())
		Expect(tr.Lyapunov()).To(Equal(0.0))
	})

	Describe("Init", func() {
		It("attaches one zero-offset shadow per body when delta is 0", func() {
			s := threeBody()
			Expect(tr.Init(s, 0, megno.NewSource(7))).To(Succeed())
			Expect(s.Shadows).To(HaveLen(s.N()))
			for i, d := range s.Shadows {
				Expect(d.Pos).To(Equal(r3.Vec{}))
				Expect(d.Vel).To(Equal(r3.Vec{}))
				Expect(d.Mass).To(Equal(s.Bodies[i].Mass))
			}
		})

		It("is reproducible for a fixed seed", func() {
			a, b := threeBody(), threeBody()
			Expect(tr.Init(a, 1e-8, megno.NewSource(42))).To(Succeed())
			Expect(megno.NewTracker().Init(b, 1e-8, megno.NewSource(42))).To(Succeed())
			Expect(a.Shadows).To(Equal(b.Shadows))
			Expect(r3.Norm(a.Shadows[1].Pos)).To(BeNumerically(">", 0))
			Expect(r3.Norm(a.Shadows[1].Pos)).To(BeNumerically("<", 1e-6))
		})

		It("replaces existing shadows and resets the integrals", func() {
			s := threeBody()
			Expect(tr.Init(s, 1e-6, nil)).To(Succeed())
			tr.Update(1, 0.1, 1)
			Expect(tr.Init(s, 1e-6, nil)).To(Succeed())
			Expect(s.Shadows).To(HaveLen(s.N()))
			Expect(tr.Ys).To(Equal(0.0))
		})

		It("rejects a negative delta", func() {
			err := tr.Init(threeBody(), -1, nil)
			Expect(errors.Is(err, dynamo.ErrParameterBounds)).To(BeTrue())
		})
	})
})

var _ = Describe("Accelerations", func() {
	It("leaves a system without shadows alone", func() {
		s := threeBody()
		Expect(megno.Accelerations(s)).To(Succeed())
		Expect(s.Shadows).To(BeEmpty())
	})

	It("rejects more shadows than bodies", func() {
		s := threeBody()
		s.Shadows = make([]dynamo.Body, s.N()+2)
		err := megno.Accelerations(s)
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})

	It("matches the finite-difference derivative of the real gravity", func() {
		s := threeBody()
		Expect(megno.NewTracker().Init(s, 1, megno.NewSource(3))).To(Succeed())
		Expect(megno.Accelerations(s)).To(Succeed())

		const h = 1e-6
		plus, minus := s.Clone(), s.Clone()
		for i := range s.Bodies {
			plus.Bodies[i].Pos = r3.Add(s.Bodies[i].Pos, r3.Scale(h, s.Shadows[i].Pos))
			minus.Bodies[i].Pos = r3.Sub(s.Bodies[i].Pos, r3.Scale(h, s.Shadows[i].Pos))
		}
		g := physics.NewGravity()
		g.Accelerations(plus)
		g.Accelerations(minus)

		for i := range s.Bodies {
			fd := r3.Scale(1/(2*h), r3.Sub(plus.Bodies[i].Acc, minus.Bodies[i].Acc))
			scale := math.Max(1e-3, r3.Norm(fd))
			Expect(r3.Norm(r3.Sub(s.Shadows[i].Acc, fd))).To(BeNumerically("<", 1e-6*scale), "shadow %d", i)
		}
	})

	It("scales linearly with the displacement", func() {
		s := threeBody()
		Expect(megno.NewTracker().Init(s, 1e-3, megno.NewSource(9))).To(Succeed())
		Expect(megno.Accelerations(s)).To(Succeed())
		small := s.Clone()
		for i := range small.Shadows {
			small.Shadows[i].Pos = r3.Scale(0.5, small.Shadows[i].Pos)
		}
		Expect(megno.Accelerations(small)).To(Succeed())

		for i := range s.Shadows {
			half := r3.Scale(0.5, s.Shadows[i].Acc)
			Expect(r3.Norm(r3.Sub(small.Shadows[i].Acc, half))).To(BeNumerically("<=", 1e-15*math.Max(1, r3.Norm(half))))
		}
	})
})

var _ = Describe("DeltadDelta2", func() {
	It("is zero for a vanishing displacement", func() {
		Expect(megno.DeltadDelta2(make([]dynamo.Body, 3))).To(Equal(0.0))
		Expect(megno.DeltadDelta2(nil)).To(Equal(0.0))
	})

	It("combines position, velocity and acceleration", func() {
		shadows := []dynamo.Body{
			{Pos: r3.Vec{X: 1}, Vel: r3.Vec{X: 2}, Acc: r3.Vec{X: 3}},
			{Pos: r3.Vec{Y: 1}, Vel: r3.Vec{Z: 1}, Acc: r3.Vec{Z: -1}},
		}
		// deltad = (2 + 6) + (0 - 1), delta2 = (1 + 4) + (1 + 1)
		Expect(megno.DeltadDelta2(shadows)).To(BeNumerically("~", 7.0/7.0, 1e-15))
	})
})
