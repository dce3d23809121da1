package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"toy-powerflow/internal/consts"
	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/device"
)

// Triplets is a square sparse matrix in coordinate form, 0-based. Repeated
// positions accumulate.
type Triplets struct {
	N    int
	Rows []int
	Cols []int
	Vals []float64

	oob bool
}

func NewTriplets(n int) *Triplets {
	return &Triplets{N: n}
}

func (t *Triplets) Add(r, c int, v float64) {
	if r < 0 || c < 0 || r >= t.N || c >= t.N {
		t.oob = true
		return
	}
	if v == 0 {
		return
	}
	t.Rows = append(t.Rows, r)
	t.Cols = append(t.Cols, c)
	t.Vals = append(t.Vals, v)
}

// ToDense expands the triplets for the gonum-based conditioning probes.
func (t *Triplets) ToDense() *mat.Dense {
	d := mat.NewDense(t.N, t.N, nil)
	for k, r := range t.Rows {
		d.Set(r, t.Cols[k], d.At(r, t.Cols[k])+t.Vals[k])
	}
	return d
}

// probeSingular reports whether the assembled Jacobian is numerically
// unusable: an exact determinant test for small systems, an LU condition
// estimate otherwise.
func probeSingular(t *Triplets) bool {
	if t.N == 0 {
		return true
	}
	d := t.ToDense()
	if t.N <= 8 {
		return math.Abs(mat.Det(d)) < 1e-12
	}
	var lu mat.LU
	lu.Factorize(d)
	cond := lu.Cond()
	return math.IsInf(cond, 1) || math.IsNaN(cond) || cond > 1e14
}

// JacobianStrategy builds the Jacobian of the residual at the current
// state, rows and columns laid out per the index sets.
type JacobianStrategy interface {
	Name() string
	Build(snap *circuit.Snapshot, sets *IndexSets, st *State) (*Triplets, error)
}

// SymbolicJacobian assembles the closed-form partial derivatives.
type SymbolicJacobian struct{}

func (SymbolicJacobian) Name() string { return "symbolic" }

func (SymbolicJacobian) Build(snap *circuit.Snapshot, sets *IndexSets, st *State) (*Triplets, error) {
	n := snap.NumBus
	trip := NewTriplets(sets.NumRows)
	V := st.V()
	ybusV := make([]complex128, n)
	snap.Ybus.MulVec(V, ybusV)

	// Known columns map to -1 and are skipped here.
	add := func(row, col int, v float64) {
		if col >= 0 {
			trip.Add(row, col, v)
		}
	}

	for i := 0; i < n; i++ {
		rp := sets.RowBusP[i]
		rq := sets.RowBusQ[i]
		vmi := complex(st.Vm[i], 0)

		for j := 0; j < n; j++ {
			yij := snap.Ybus.At(i, j)
			if yij == 0 && i != j {
				continue
			}
			var dsTheta, dsVm complex128
			if i == j {
				dsTheta = complex(0, 1)*V[i]*cmplx.Conj(ybusV[i]) - complex(0, 1)*V[i]*cmplx.Conj(yij*V[i])
				dsVm = V[i]*cmplx.Conj(ybusV[i])/vmi + V[i]*cmplx.Conj(yij*V[i])/vmi
				// fixed zip voltage dependence sits on the diagonal
				dsVm -= cmplx.Conj(snap.I0[i]) + 2*cmplx.Conj(snap.Y0[i])*vmi
			} else {
				dsTheta = complex(0, -1) * V[i] * cmplx.Conj(yij*V[j])
				dsVm = V[i] * cmplx.Conj(yij*V[j]) / complex(st.Vm[j], 0)
			}
			add(rp, sets.ColVa[j], real(dsTheta))
			add(rp, sets.ColVm[j], real(dsVm))
			if rq >= 0 {
				add(rq, sets.ColVa[j], imag(dsTheta))
				add(rq, sets.ColVm[j], imag(dsVm))
			}
		}

		add(rp, sets.ColPto[i], 1)
		add(rp, sets.ColPfrom[i], 1)
		add(rp, sets.ColPzip[i], -1)
		if rq >= 0 {
			add(rq, sets.ColQto[i], 1)
			add(rq, sets.ColQfrom[i], 1)
			add(rq, sets.ColQzip[i], -1)
		}
	}

	for vi, v := range snap.Converters {
		f, t := v.Buses[0], v.Buses[1]
		row := sets.RowVscLoss[vi]
		pt, qt, vmt := st.Pto[t], st.Qto[t], st.Vm[t]
		it := math.Sqrt(pt*pt+qt*qt) / vmt
		slope := v.LossB + 2*v.LossC*it

		add(row, sets.ColPfrom[f], -1)
		dpt := -1.0
		if it != 0 {
			dpt += slope * pt / (vmt * vmt * it)
			add(row, sets.ColQto[t], slope*qt/(vmt*vmt*it))
		}
		add(row, sets.ColPto[t], dpt)
		add(row, sets.ColVm[t], -slope*it/vmt)
	}

	for hi, h := range snap.HvdcLines {
		f, t := h.Buses[0], h.Buses[1]
		pf, vmf := st.Pfrom[f], st.Vm[f]
		r := hvdcResistancePU(h, snap)

		rowL := sets.RowHvdcLoss[hi]
		add(rowL, sets.ColPfrom[f], 2*r*pf/(vmf*vmf)-1)
		add(rowL, sets.ColPto[t], -1)
		add(rowL, sets.ColVm[f], -2*r*pf*pf/(vmf*vmf*vmf))

		rowI := sets.RowHvdcInj[hi]
		add(rowI, sets.ColPfrom[f], 1)
		if h.Mode == device.HvdcFree {
			k := h.Droop * consts.RAD2DEG / snap.Sbase
			add(rowI, sets.ColVa[f], -k)
			add(rowI, sets.ColVa[t], k)
		}
	}

	for k, ti := range sets.CtrlTrafos {
		tr := snap.Transformers[ti]
		f, t := tr.Buses[0], tr.Buses[1]
		m, tau := st.TapModule[k], st.TapAngle[k]

		ys := 1 / complex(tr.R+1e-20, tr.X)
		ysum := ys + complex(0, tr.B/2)
		mc := complex(m, 0)
		ejt := cmplx.Exp(complex(0, tau))
		vmf := complex(st.Vm[f], 0)
		vmt := complex(st.Vm[t], 0)

		t1 := vmf * vmf * cmplx.Conj(ysum) / (mc * mc)
		t2 := V[f] * cmplx.Conj(V[t]) * cmplx.Conj(ys) / (mc * ejt)
		t3 := vmt * vmt * cmplx.Conj(ysum)
		t4 := V[t] * cmplx.Conj(V[f]) * cmplx.Conj(ys) / (mc * cmplx.Conj(ejt))

		// Sf = t1 - t2, St = t3 - t4
		dSfVmf := 2*t1/vmf - t2/vmf
		dSfVmt := -t2 / vmt
		dSfThf := complex(0, -1) * t2
		dSfTht := complex(0, 1) * t2
		dSfM := (-2*t1 + t2) / mc
		dSfTau := complex(0, 1) * t2

		dStVmt := 2*t3/vmt - t4/vmt
		dStVmf := -t4 / vmf
		dStTht := complex(0, -1) * t4
		dStThf := complex(0, 1) * t4
		dStM := t4 / mc
		dStTau := complex(0, -1) * t4

		cvmf, cvmt := sets.ColVm[f], sets.ColVm[t]
		cvaf, cvat := sets.ColVa[f], sets.ColVa[t]
		cm, ctau := sets.ColTapModule[k], sets.ColTapAngle[k]
		r0 := sets.RowTrafo[k]

		add(r0, cvmf, real(dSfVmf))
		add(r0, cvmt, real(dSfVmt))
		add(r0, cvaf, real(dSfThf))
		add(r0, cvat, real(dSfTht))
		add(r0, cm, real(dSfM))
		add(r0, ctau, real(dSfTau))
		add(r0, sets.ColPfrom[f], -1)

		add(r0+1, cvmf, real(dStVmf))
		add(r0+1, cvmt, real(dStVmt))
		add(r0+1, cvaf, real(dStThf))
		add(r0+1, cvat, real(dStTht))
		add(r0+1, cm, real(dStM))
		add(r0+1, ctau, real(dStTau))
		add(r0+1, sets.ColPto[t], -1)

		add(r0+2, cvmf, imag(dSfVmf))
		add(r0+2, cvmt, imag(dSfVmt))
		add(r0+2, cvaf, imag(dSfThf))
		add(r0+2, cvat, imag(dSfTht))
		add(r0+2, cm, imag(dSfM))
		add(r0+2, ctau, imag(dSfTau))
		add(r0+2, sets.ColQfrom[f], -1)

		add(r0+3, cvmf, imag(dStVmf))
		add(r0+3, cvmt, imag(dStVmt))
		add(r0+3, cvaf, imag(dStThf))
		add(r0+3, cvat, imag(dStTht))
		add(r0+3, cm, imag(dStM))
		add(r0+3, ctau, imag(dStTau))
		add(r0+3, sets.ColQto[t], -1)
	}

	for _, sp := range sets.Setpoints {
		ln := snap.Lines[sp.Line]
		f, t := ln.Buses[0], ln.Buses[1]
		if sp.Kind == QuantityPto || sp.Kind == QuantityQto {
			f, t = t, f
		}
		yft := cmplx.Conj(snap.Ybus.At(f, t))
		vf2 := V[f] * V[f]
		vft := V[f] * V[t]

		dThf := (complex(0, 2)*vf2 - complex(0, 1)*vft) * yft
		dTht := complex(0, -1) * vft * yft
		dVmf := (2*vf2 - vft) / complex(st.Vm[f], 0) * yft
		dVmt := -vft / complex(st.Vm[t], 0) * yft

		// residual is value minus flow, so the flow partials negate
		if sp.Kind == QuantityPfrom || sp.Kind == QuantityPto {
			add(sp.Row, sets.ColVa[f], -real(dThf))
			add(sp.Row, sets.ColVa[t], -real(dTht))
			add(sp.Row, sets.ColVm[f], -real(dVmf))
			add(sp.Row, sets.ColVm[t], -real(dVmt))
		} else {
			add(sp.Row, sets.ColVa[f], -imag(dThf))
			add(sp.Row, sets.ColVa[t], -imag(dTht))
			add(sp.Row, sets.ColVm[f], -imag(dVmf))
			add(sp.Row, sets.ColVm[t], -imag(dVmt))
		}
	}

	if trip.oob {
		return nil, assemblyErrf("symbolic entry outside the %dx%d layout", sets.NumRows, sets.NumCols)
	}
	return trip, nil
}

// NumericJacobian approximates the Jacobian by central differences on the
// full residual. Slow but assumption-free; the solver falls back to it when
// the symbolic build fails.
type NumericJacobian struct {
	Step float64
}

func (nj NumericJacobian) Name() string { return "numeric" }

func (nj NumericJacobian) Build(snap *circuit.Snapshot, sets *IndexSets, st *State) (*Triplets, error) {
	h := nj.Step
	if h <= 0 {
		h = 1e-6
	}
	x0 := st.Pack()
	scratch := NewState(snap, sets)
	trip := NewTriplets(sets.NumRows)
	x := make([]float64, len(x0))

	for c := range x0 {
		copy(x, x0)
		x[c] = x0[c] + h
		scratch.Unpack(x)
		gp := ComputeResidual(snap, sets, scratch)

		x[c] = x0[c] - h
		scratch.Unpack(x)
		gm := ComputeResidual(snap, sets, scratch)

		for r := range gp {
			trip.Add(r, c, (gp[r]-gm[r])/(2*h))
		}
	}
	if trip.oob {
		return nil, assemblyErrf("numeric entry outside the %dx%d layout", sets.NumRows, sets.NumCols)
	}
	return trip, nil
}
