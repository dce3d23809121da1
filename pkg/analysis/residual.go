package analysis

import (
	"math"
	"math/cmplx"

	"toy-powerflow/internal/consts"
	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/device"
)

// ComputeResidual evaluates the mismatch vector at the current state. Rows
// follow the layout in the index sets; NaN and Inf propagate so that the
// driver can see a diverged state.
func ComputeResidual(snap *circuit.Snapshot, sets *IndexSets, st *State) []float64 {
	g := make([]float64, sets.NumRows)
	V := st.V()

	// Bus balances: network injection minus the fixed zip power, plus the
	// branch consumptions, minus the controllable zip slot.
	ybusV := make([]complex128, snap.NumBus)
	snap.Ybus.MulVec(V, ybusV)
	for i := 0; i < snap.NumBus; i++ {
		vm := complex(st.Vm[i], 0)
		sbus := snap.S0[i] + cmplx.Conj(snap.I0[i]+snap.Y0[i]*vm)*vm
		mis := V[i]*cmplx.Conj(ybusV[i]) - sbus
		g[sets.RowBusP[i]] = real(mis) + st.Pto[i] + st.Pfrom[i] - st.Pzip[i]
		if r := sets.RowBusQ[i]; r >= 0 {
			g[r] = imag(mis) + st.Qto[i] + st.Qfrom[i] - st.Qzip[i]
		}
	}

	// Converter loss balances. The AC-side current magnitude drives the
	// quadratic loss model.
	for vi, v := range snap.Converters {
		f, t := v.Buses[0], v.Buses[1]
		it := math.Sqrt(st.Pto[t]*st.Pto[t]+st.Qto[t]*st.Qto[t]) / st.Vm[t]
		g[sets.RowVscLoss[vi]] = v.Loss(it) - st.Pto[t] - st.Pfrom[f]
	}

	// HVDC link rows: cable loss balance, then the scheduled injection.
	for hi, h := range snap.HvdcLines {
		f, t := h.Buses[0], h.Buses[1]
		pf, pt := st.Pfrom[f], st.Pto[t]
		r := hvdcResistancePU(h, snap)
		idc := pf / st.Vm[f]
		g[sets.RowHvdcLoss[hi]] = r*idc*idc - pf - pt

		inj := pf - h.Pset/snap.Sbase
		if h.Mode == device.HvdcFree {
			k := h.Droop * consts.RAD2DEG / snap.Sbase
			inj -= k * (st.Va[f] - st.Va[t])
		}
		g[sets.RowHvdcInj[hi]] = inj
	}

	// Controlled transformer flow balances, [Pf, Pt, Qf, Qt] per branch.
	for k, ti := range sets.CtrlTrafos {
		tr := snap.Transformers[ti]
		f, t := tr.Buses[0], tr.Buses[1]
		sf, stv := tr.Flows(V[f], V[t], st.TapModule[k], st.TapAngle[k])
		r0 := sets.RowTrafo[k]
		g[r0+0] = real(sf) - st.Pfrom[f]
		g[r0+1] = real(stv) - st.Pto[t]
		g[r0+2] = imag(sf) - st.Qfrom[f]
		g[r0+3] = imag(stv) - st.Qto[t]
	}

	// Passive branch setpoint rows.
	for _, sp := range sets.Setpoints {
		ln := snap.Lines[sp.Line]
		f, t := ln.Buses[0], ln.Buses[1]
		if sp.Kind == QuantityPto || sp.Kind == QuantityQto {
			f, t = t, f
		}
		flow := V[f] * (V[f] - V[t]) * cmplx.Conj(snap.Ybus.At(f, t))
		if sp.Kind == QuantityPfrom || sp.Kind == QuantityPto {
			g[sp.Row] = sp.Value - real(flow)
		} else {
			g[sp.Row] = sp.Value - imag(flow)
		}
	}

	return g
}

// hvdcResistancePU converts the cable's ohmic resistance to per unit on the
// from-side voltage base.
func hvdcResistancePU(h *device.HVDCLine, snap *circuit.Snapshot) float64 {
	f := h.Buses[0]
	zb := snap.Vnom[f] * snap.Vnom[f] / snap.Sbase
	return h.R / zb
}
