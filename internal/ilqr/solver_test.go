package ilqr_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/trajopt/internal/control"
	"github.com/san-kum/trajopt/internal/cost"
	"github.com/san-kum/trajopt/internal/dynamo"
	"github.com/san-kum/trajopt/internal/ilqr"
	"github.com/san-kum/trajopt/internal/integrators"
	"github.com/san-kum/trajopt/internal/models"
)

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

func mustCost(Q, R, Qf mat.Matrix, xg mat.Vector) *cost.Quadratic {
	c, err := cost.New(Q, R, Qf, xg)
	Expect(err).NotTo(HaveOccurred())
	return c
}

func doubleIntegratorProblem(qf float64) *ilqr.Problem {
	return &ilqr.Problem{
		System:  models.NewDoubleIntegrator(),
		X0:      vec(1, 0),
		Cost:    mustCost(dynamo.Identity(2), dynamo.Diag(1), dynamo.Diag(qf, qf), vec(0, 0)),
		Dt:      0.1,
		Horizon: 50,
	}
}

func expectNonIncreasing(hist []float64) {
	for i := 1; i < len(hist); i++ {
		ExpectWithOffset(1, hist[i]).To(BeNumerically("<=", hist[i-1]), "iteration %d", i)
	}
}

var _ = Describe("Solve", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with a double integrator", func() {
		It("converges to the finite-horizon LQR solution", func() {
			p := doubleIntegratorProblem(10)
			res, err := ilqr.Solve(ctx, p, ilqr.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Status).To(Equal(ilqr.StatusConverged))

			Expect(res.X).To(HaveLen(50))
			Expect(res.U).To(HaveLen(49))
			Expect(res.K).To(HaveLen(49))

			// The linearization is exact, so the first iteration already
			// lands on the optimum and the second only confirms it.
			Expect(res.Iterations).To(Equal(2))
			Expect(res.CostHistory).To(HaveLen(3))
			Expect(res.CostHistory[1]).To(BeNumerically("~", res.CostHistory[2], 1e-9))
			expectNonIncreasing(res.CostHistory)

			A, B := discretize(p.System, p.Dt)
			gains, err := control.FiniteHorizonLQR(A, B, p.Cost.Q, p.Cost.R, p.Cost.Qf, p.Horizon)
			Expect(err).NotTo(HaveOccurred())
			for k := range gains {
				Expect(mat.EqualApprox(res.K[k], gains[k], 1e-9)).To(BeTrue(), "K[%d]", k)
			}

			// With Qf = 10·I the optimum stops short of the goal.
			final := res.FinalState()
			Expect(math.Abs(final.AtVec(0))).To(BeNumerically("<", 0.01))
			Expect(math.Abs(final.AtVec(1))).To(BeNumerically("<", 0.03))
		})

		It("reaches the goal within 1e-3 with a stiff terminal weight", func() {
			res, err := ilqr.Solve(ctx, doubleIntegratorProblem(1000), ilqr.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())

			final := res.FinalState()
			Expect(math.Abs(final.AtVec(0))).To(BeNumerically("<", 1e-3))
			Expect(math.Abs(final.AtVec(1))).To(BeNumerically("<", 1e-3))
		})

		It("reports every accepted iteration to the observer", func() {
			var stats []ilqr.IterationStats
			opts := ilqr.DefaultOptions()
			opts.Observer = ilqr.ObserverFunc(func(s ilqr.IterationStats) {
				stats = append(stats, s)
			})

			res, err := ilqr.Solve(ctx, doubleIntegratorProblem(10), opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(res.Iterations))
			for i, s := range stats {
				Expect(s.Iteration).To(Equal(i + 1))
				Expect(s.Cost).To(Equal(res.CostHistory[i+1]))
			}
			Expect(stats[0].Alpha).To(Equal(1.0))
			Expect(stats[len(stats)-1].FeedforwardNorm).To(BeNumerically("<=", opts.Tolerance))
		})

		It("exposes the wide gain matrix", func() {
			res, err := ilqr.Solve(ctx, doubleIntegratorProblem(10), ilqr.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())

			wide := res.GainMatrix()
			r, c := wide.Dims()
			Expect(r).To(Equal(1))
			Expect(c).To(Equal(2 * 49))
			Expect(wide.At(0, 2*7+1)).To(Equal(res.K[7].At(0, 1)))

			r, c = res.States().Dims()
			Expect([]int{r, c}).To(Equal([]int{2, 50}))
			r, c = res.Controls().Dims()
			Expect([]int{r, c}).To(Equal([]int{1, 49}))
		})
	})

	Context("with a pendulum swing-up", func() {
		It("brings the pendulum upright with non-increasing cost", func() {
			p := &ilqr.Problem{
				System:  models.NewPendulum(),
				X0:      vec(0, 0),
				Cost:    mustCost(dynamo.Identity(2), dynamo.Diag(0.1), dynamo.Diag(100, 100), vec(math.Pi, 0)),
				Dt:      0.05,
				Horizon: 100,
			}
			opts := ilqr.DefaultOptions()
			opts.Tolerance = 1e-3

			res, err := ilqr.Solve(ctx, p, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Success).To(BeTrue())
			Expect(res.Iterations).To(BeNumerically(">", 1))
			expectNonIncreasing(res.CostHistory)

			final := res.FinalState()
			Expect(final.AtVec(0)).To(BeNumerically("~", math.Pi, 1e-2))
			Expect(final.AtVec(1)).To(BeNumerically("~", 0, 1e-2))
		})
	})

	Context("when it fails", func() {
		It("classifies a zero control weight as a factorization failure", func() {
			p := doubleIntegratorProblem(10)
			p.Cost = &cost.Quadratic{
				Q:    dynamo.Identity(2),
				R:    mat.NewDense(1, 1, []float64{0}),
				Qf:   dynamo.Diag(10, 10),
				Goal: vec(0, 0),
			}

			res, err := ilqr.Solve(ctx, p, ilqr.DefaultOptions())
			Expect(err).To(MatchError(ilqr.ErrFactorization))
			Expect(err).To(MatchError(cost.ErrNotPositiveDefinite))
			Expect(res).NotTo(BeNil())
			Expect(res.Success).To(BeFalse())
			Expect(res.Status).To(Equal(ilqr.StatusFactorizationFailure))
			Expect(res.Err).To(Equal(err))
		})

		It("stops when the backward pass meets an indefinite Hessian", func() {
			p := doubleIntegratorProblem(10)
			p.Cost = mustCost(dynamo.Diag(-100, -100), dynamo.Diag(1e-3), dynamo.Diag(-100, -100), vec(0, 0))

			res, err := ilqr.Solve(ctx, p, ilqr.DefaultOptions())
			Expect(err).To(MatchError(ilqr.ErrFactorization))
			Expect(res.Status).To(Equal(ilqr.StatusFactorizationFailure))

			var se *ilqr.SolveError
			Expect(err).To(BeAssignableToTypeOf(se))
			se = err.(*ilqr.SolveError)
			Expect(se.Stage).To(Equal(ilqr.StageBackward))
			Expect(se.Step).To(Equal(p.Horizon - 2))

			Expect(res.X).To(HaveLen(p.Horizon))
			Expect(res.CostHistory).To(HaveLen(1))
		})

		It("catches non-finite dynamics in the factorization class", func() {
			p := doubleIntegratorProblem(10)
			p.System = dynamo.NewSystem(2, 1, func(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
				return vec(math.NaN(), 0), mat.NewDense(2, 3, nil)
			})

			res, err := ilqr.Solve(ctx, p, ilqr.DefaultOptions())
			Expect(err).To(MatchError(ilqr.ErrNonFinite))
			Expect(err).To(MatchError(ilqr.ErrFactorization))
			Expect(res.Status).To(Equal(ilqr.StatusFactorizationFailure))
			Expect(res.Success).To(BeFalse())
		})

		It("recovers from panicking dynamics", func() {
			p := doubleIntegratorProblem(10)
			p.System = dynamo.NewSystem(2, 1, func(t float64, x, u *mat.VecDense) (*mat.VecDense, *mat.Dense) {
				panic("boom")
			})

			var res *ilqr.Result
			var err error
			Expect(func() { res, err = ilqr.Solve(ctx, p, ilqr.DefaultOptions()) }).NotTo(Panic())
			Expect(err).To(MatchError(ilqr.ErrDynamicsPanic))
			Expect(res.Status).To(Equal(ilqr.StatusInvalidProblem))
		})

		It("reaches the iteration cap on an unreachable target", func() {
			// ẋ = x + u is unstable and the goal is far away. With a zero
			// tolerance the solve cannot converge; enough halvings let α
			// underflow so every line search eventually accepts.
			sys, err := models.NewLinear(dynamo.Diag(1), dynamo.Diag(1))
			Expect(err).NotTo(HaveOccurred())
			p := &ilqr.Problem{
				System:  sys,
				X0:      vec(1),
				Cost:    mustCost(dynamo.Diag(1), dynamo.Diag(1), dynamo.Diag(10), vec(10)),
				Dt:      0.1,
				Horizon: 10,
			}
			opts := ilqr.Options{Tolerance: 0, MaxHalvings: 1100}

			res, err := ilqr.Solve(ctx, p, opts)
			Expect(err).To(MatchError(ilqr.ErrIterationCap))
			Expect(res.Success).To(BeFalse())
			Expect(res.Status).To(Equal(ilqr.StatusIterationCap))
			Expect(res.Iterations).To(Equal(ilqr.DefaultMaxIterations))
			Expect(res.CostHistory).To(HaveLen(ilqr.DefaultMaxIterations + 1))
			expectNonIncreasing(res.CostHistory)
			for _, x := range res.X {
				Expect(dynamo.IsFinite(x)).To(BeTrue())
			}
		})

		It("observes cancellation between iterations", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			res, err := ilqr.Solve(cctx, doubleIntegratorProblem(10), ilqr.DefaultOptions())
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Status).To(Equal(ilqr.StatusCanceled))
			Expect(res.CostHistory).To(HaveLen(1))
			Expect(res.X).To(HaveLen(50))
		})

		It("rejects malformed problems", func() {
			p := doubleIntegratorProblem(10)
			p.Horizon = 1

			res, err := ilqr.Solve(ctx, p, ilqr.DefaultOptions())
			Expect(err).To(MatchError(ilqr.ErrInvalidProblem))
			Expect(res.Status).To(Equal(ilqr.StatusInvalidProblem))
			Expect(res.X).To(BeNil())
			Expect(res.CostHistory).To(BeEmpty())
		})
	})
})

func discretize(sys dynamo.System, dt float64) (*mat.Dense, *mat.Dense) {
	x := mat.NewVecDense(sys.StateDim(), nil)
	u := mat.NewVecDense(sys.ControlDim(), nil)
	_, A, B := integrators.NewMidpoint().Step(sys, 0, x, u, dt)
	return A, B
}
