package analysis

import (
	"fmt"
	"math"
	"time"

	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/matrix"
)

// controlActivationError gates the outer control loop: taps are clamped and
// generator limits enforced only once the residual is already this small.
const controlActivationError = 1e-2

// SolverState tracks the driver's progress.
type SolverState int

const (
	StateInitial SolverState = iota
	StateIterating
	StateConverged
	StateMaxIterExceeded
	StateFatal
)

func (s SolverState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateMaxIterExceeded:
		return "max iterations exceeded"
	case StateFatal:
		return "fatal"
	}
	return fmt.Sprintf("SolverState(%d)", int(s))
}

// PowerFlow is the generalized Newton-Raphson driver with a backtracking
// line search. One instance runs one snapshot.
type PowerFlow struct {
	BaseAnalysis

	sets  *IndexSets
	state *State
	ov    ControlOverrides

	solverState SolverState
	report      *Report
}

var _ Analysis = (*PowerFlow)(nil)

func NewPowerFlow(opts Options) *PowerFlow {
	return &PowerFlow{
		BaseAnalysis: *NewBaseAnalysis(opts),
		solverState:  StateInitial,
	}
}

func (pf *PowerFlow) State() SolverState { return pf.solverState }

// Setup classifies the snapshot and prepares the initial state. A
// ClassificationError here is fatal, the model itself is inconsistent.
func (pf *PowerFlow) Setup(snap *circuit.Snapshot) error {
	sets, err := BuildIndexSets(snap, nil, pf.Log)
	if err != nil {
		pf.solverState = StateFatal
		return err
	}
	pf.Snapshot = snap
	pf.sets = sets
	pf.state = NewState(snap, sets)
	pf.ov = ControlOverrides{}
	return nil
}

// Execute runs the Newton-Raphson iteration. Non-convergence is reported,
// not returned as an error; a singular system is.
func (pf *PowerFlow) Execute() error {
	if pf.Snapshot == nil || pf.sets == nil {
		return fmt.Errorf("powerflow: Execute called before Setup")
	}
	start := time.Now()
	pf.solverState = StateIterating

	converged, iters, errNorm, err := pf.doNRiter()
	if err != nil {
		pf.solverState = StateFatal
		return err
	}
	if converged {
		pf.solverState = StateConverged
	} else {
		pf.solverState = StateMaxIterExceeded
		pf.Log.Warn("solver", "did not converge in %d iterations, residual %.3e", iters, errNorm)
	}

	pf.report = buildReport(pf.Snapshot, pf.sets, pf.state, pf.Log)
	pf.report.Converged = converged
	pf.report.Iterations = iters
	pf.report.Error = errNorm
	pf.report.Elapsed = time.Since(start)
	return nil
}

func (pf *PowerFlow) Results() *Report {
	return pf.report
}

func (pf *PowerFlow) doNRiter() (bool, int, float64, error) {
	snap := pf.Snapshot
	opts := pf.options

	g := ComputeResidual(snap, pf.sets, pf.state)
	errNorm := normInf(g)
	converged := errNorm < opts.Tolerance
	iter := 0

	if pf.sets.NumCols == 0 {
		return converged, 0, errNorm, nil
	}

	for iter < opts.MaxIter && !converged {
		iter++

		trip, err := pf.assembleJacobian(iter)
		if err != nil {
			return false, iter, errNorm, err
		}

		dx, err := solveStep(trip, g)
		if err != nil {
			return false, iter, errNorm, &SingularSystemError{Iteration: iter}
		}
		if hasNaN(dx) {
			return false, iter, errNorm, &SingularSystemError{Iteration: iter}
		}

		// Backtracking line search on the infinity norm.
		x0 := pf.state.Pack()
		xTrial := make([]float64, len(x0))
		mu := opts.TrustRadius
		if mu <= 0 {
			mu = 1.0
		}
		accepted := false
		for mu > opts.Tolerance {
			for c := range x0 {
				xTrial[c] = x0[c] + mu*dx[c]
			}
			pf.state.Unpack(xTrial)
			gTrial := ComputeResidual(snap, pf.sets, pf.state)
			eTrial := normInf(gTrial)
			if !math.IsNaN(eTrial) && eTrial < errNorm {
				g = gTrial
				errNorm = eTrial
				accepted = true
				break
			}
			mu *= opts.Acceleration
		}
		if !accepted {
			pf.state.Unpack(x0)
			pf.Log.Warn("solver", "line search stalled at iteration %d, residual %.3e", iter, errNorm)
			break
		}
		if opts.Verbose {
			pf.Log.Info("solver", "iteration %d, mu %.3g, residual %.6e", iter, mu, errNorm)
		}

		// Outer control loop, active only near the solution.
		if errNorm < controlActivationError {
			changed := false
			if opts.ControlTaps && pf.clampTaps() {
				changed = true
			}
			if opts.ControlQ && pf.switchGeneratorQ() {
				changed = true
			}
			if changed {
				if err := pf.rebuildSets(); err != nil {
					return false, iter, errNorm, err
				}
				g = ComputeResidual(snap, pf.sets, pf.state)
				errNorm = normInf(g)
			}
		}

		converged = errNorm < opts.Tolerance
	}

	return converged, iter, errNorm, nil
}

// assembleJacobian tries the symbolic strategy first and falls back to the
// numeric one when the symbolic build errors out or probes singular.
func (pf *PowerFlow) assembleJacobian(iteration int) (*Triplets, error) {
	trip, err := SymbolicJacobian{}.Build(pf.Snapshot, pf.sets, pf.state)
	if err == nil && !probeSingular(trip) {
		return trip, nil
	}
	if err != nil {
		pf.Log.Warn("solver", "symbolic jacobian failed (%v), switching to numeric differences", err)
	} else {
		pf.Log.Warn("solver", "symbolic jacobian singular at iteration %d, switching to numeric differences", iteration)
	}

	trip, err = NumericJacobian{}.Build(pf.Snapshot, pf.sets, pf.state)
	if err != nil {
		return nil, err
	}
	if probeSingular(trip) {
		return nil, &SingularSystemError{Iteration: iteration}
	}
	return trip, nil
}

// solveStep solves J*dx = -g through the sparse system.
func solveStep(trip *Triplets, g []float64) ([]float64, error) {
	sys := matrix.NewSystem(trip.N)
	if sys == nil {
		return nil, fmt.Errorf("powerflow: sparse system allocation failed")
	}
	defer sys.Destroy()

	for k := range trip.Rows {
		sys.AddElement(trip.Rows[k]+1, trip.Cols[k]+1, trip.Vals[k])
	}
	for r, v := range g {
		sys.AddRHS(r+1, -v)
	}
	if err := sys.Solve(); err != nil {
		return nil, err
	}

	sol := sys.Solution()
	dx := make([]float64, trip.N)
	for c := range dx {
		dx[c] = sol[c+1]
	}
	return dx, nil
}

// clampTaps fixes every free tap axis that has run outside its limits and
// reports whether anything changed.
func (pf *PowerFlow) clampTaps() bool {
	changed := false
	for k, ti := range pf.sets.CtrlTrafos {
		tr := pf.Snapshot.Transformers[ti]
		if pf.sets.ColTapModule[k] >= 0 {
			if m := pf.state.TapModule[k]; m < tr.MMin || m > tr.MMax {
				cl := clamp(m, tr.MMin, tr.MMax)
				if pf.ov.FixedTapModule == nil {
					pf.ov.FixedTapModule = make(map[int]float64)
				}
				pf.ov.FixedTapModule[k] = cl
				pf.Log.Warn(tr.Name, "tap module limit reached, fixing at %.4f", cl)
				changed = true
			}
		}
		if pf.sets.ColTapAngle[k] >= 0 {
			if tau := pf.state.TapAngle[k]; tau < tr.TauMin || tau > tr.TauMax {
				cl := clamp(tau, tr.TauMin, tr.TauMax)
				if pf.ov.FixedTapAngle == nil {
					pf.ov.FixedTapAngle = make(map[int]float64)
				}
				pf.ov.FixedTapAngle[k] = cl
				pf.Log.Warn(tr.Name, "tap angle limit reached, fixing at %.4f rad", cl)
				changed = true
			}
		}
	}
	return changed
}

// switchGeneratorQ converts voltage-controlling generators that violate a
// reactive limit into fixed injections at that limit.
func (pf *PowerFlow) switchGeneratorQ() bool {
	changed := false
	for gi, gen := range pf.Snapshot.Generators {
		if !gen.Controllable {
			continue
		}
		if _, done := pf.ov.FixedGenQ[gi]; done {
			continue
		}
		// Reactive support is produced at the machine's own bus, also for
		// remote voltage control.
		b := gen.Buses[0]
		if pf.sets.IsSlack[b] {
			continue
		}
		if pf.sets.ColQzip[b] < 0 {
			continue
		}
		q := pf.state.Qzip[b] * pf.Snapshot.Sbase
		var limit float64
		switch {
		case q < gen.Qmin:
			limit = gen.Qmin
		case q > gen.Qmax:
			limit = gen.Qmax
		default:
			continue
		}
		if pf.ov.FixedGenQ == nil {
			pf.ov.FixedGenQ = make(map[int]float64)
		}
		pf.ov.FixedGenQ[gi] = limit
		pf.Log.Warn(gen.Name, "reactive limit reached (%.1f MVAr), switching to fixed injection at %.1f MVAr", q, limit)
		changed = true
	}
	return changed
}

// rebuildSets re-runs the classifier with the accumulated overrides and
// migrates the state.
func (pf *PowerFlow) rebuildSets() error {
	sets, err := BuildIndexSets(pf.Snapshot, &pf.ov, pf.Log)
	if err != nil {
		return err
	}
	next := NewState(pf.Snapshot, sets)
	next.AdoptValues(pf.state)
	pf.sets = sets
	pf.state = next
	return nil
}

func normInf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if math.IsNaN(x) {
			return math.NaN()
		}
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

func hasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
