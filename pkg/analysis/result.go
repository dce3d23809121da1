package analysis

import (
	"math/cmplx"
	"time"

	"toy-powerflow/pkg/circuit"
)

// BranchFlow is the solved operating point of one branch device.
type BranchFlow struct {
	Name    string
	Sf      complex128 // MVA entering at the from side
	St      complex128 // MVA entering at the to side
	Losses  complex128 // MVA
	Loading float64    // fraction of the rating
}

// Report is the user-facing outcome of a power flow run. Angles are in
// radians, powers in MW/MVAr on the system base.
type Report struct {
	Name       string
	Converged  bool
	Iterations int
	Error      float64
	Elapsed    time.Duration

	BusNames []string
	BusTypes []string
	Vm       []float64    // p.u.
	Va       []float64    // rad
	Scalc    []complex128 // MVA network injection
	Pzip     []float64    // MW controllable injection
	Qzip     []float64    // MVAr controllable injection

	Lines        []BranchFlow
	Transformers []BranchFlow
	Converters   []BranchFlow
	HvdcLinks    []BranchFlow

	// Final tap state, parallel to the snapshot's transformer list.
	TapModule []float64
	TapAngle  []float64

	Events []Event
}

func buildReport(snap *circuit.Snapshot, sets *IndexSets, st *State, log *EventLog) *Report {
	n := snap.NumBus
	sb := snap.Sbase
	V := st.V()

	rep := &Report{
		Name:     snap.Name,
		BusNames: append([]string(nil), snap.BusNames...),
		BusTypes: make([]string, n),
		Vm:       append([]float64(nil), st.Vm...),
		Va:       append([]float64(nil), st.Va...),
		Scalc:    make([]complex128, n),
		Pzip:     make([]float64, n),
		Qzip:     make([]float64, n),
		Events:   append([]Event(nil), log.Entries...),
	}

	ybusV := make([]complex128, n)
	snap.Ybus.MulVec(V, ybusV)
	for i := 0; i < n; i++ {
		rep.Scalc[i] = V[i] * cmplx.Conj(ybusV[i]) * complex(sb, 0)
		rep.Pzip[i] = st.Pzip[i] * sb
		rep.Qzip[i] = st.Qzip[i] * sb
		rep.BusTypes[i] = busType(snap, sets, i)
	}

	for _, ln := range snap.Lines {
		f, t := ln.Buses[0], ln.Buses[1]
		ys := 1 / complex(ln.R+1e-20, ln.X)
		b2 := complex(0, ln.B/2)
		ifr := V[f]*(ys+b2) - V[t]*ys
		ito := V[t]*(ys+b2) - V[f]*ys
		sf := V[f] * cmplx.Conj(ifr) * complex(sb, 0)
		stv := V[t] * cmplx.Conj(ito) * complex(sb, 0)
		rep.Lines = append(rep.Lines, BranchFlow{
			Name:    ln.Name,
			Sf:      sf,
			St:      stv,
			Losses:  sf + stv,
			Loading: cmplx.Abs(sf) / (ln.Rate + 1e-9),
		})
	}

	ctrlOf := make(map[int]int, len(sets.CtrlTrafos))
	for k, ti := range sets.CtrlTrafos {
		ctrlOf[ti] = k
	}
	rep.TapModule = make([]float64, len(snap.Transformers))
	rep.TapAngle = make([]float64, len(snap.Transformers))
	for ti, tr := range snap.Transformers {
		f, t := tr.Buses[0], tr.Buses[1]
		var sf, stv complex128
		if k, ok := ctrlOf[ti]; ok {
			sf = complex(st.Pfrom[f]*sb, st.Qfrom[f]*sb)
			stv = complex(st.Pto[t]*sb, st.Qto[t]*sb)
			rep.TapModule[ti] = st.TapModule[k]
			rep.TapAngle[ti] = st.TapAngle[k]
		} else {
			a, b := tr.Flows(V[f], V[t], tr.TapModule, tr.TapAngle)
			sf = a * complex(sb, 0)
			stv = b * complex(sb, 0)
			rep.TapModule[ti] = tr.TapModule
			rep.TapAngle[ti] = tr.TapAngle
		}
		rep.Transformers = append(rep.Transformers, BranchFlow{
			Name:    tr.Name,
			Sf:      sf,
			St:      stv,
			Losses:  sf + stv,
			Loading: cmplx.Abs(sf) / (tr.Rate + 1e-9),
		})
	}

	for _, v := range snap.Converters {
		f, t := v.Buses[0], v.Buses[1]
		sf := complex(st.Pfrom[f]*sb, 0)
		stv := complex(st.Pto[t]*sb, st.Qto[t]*sb)
		rep.Converters = append(rep.Converters, BranchFlow{
			Name:    v.Name,
			Sf:      sf,
			St:      stv,
			Losses:  complex((st.Pfrom[f]+st.Pto[t])*sb, 0),
			Loading: cmplx.Abs(stv) / (v.Rate + 1e-9),
		})
	}

	for _, h := range snap.HvdcLines {
		f, t := h.Buses[0], h.Buses[1]
		sf := complex(st.Pfrom[f]*sb, 0)
		stv := complex(st.Pto[t]*sb, 0)
		rep.HvdcLinks = append(rep.HvdcLinks, BranchFlow{
			Name:    h.Name,
			Sf:      sf,
			St:      stv,
			Losses:  sf + stv,
			Loading: real(sf) / (h.Rate + 1e-9),
		})
	}

	return rep
}

func busType(snap *circuit.Snapshot, sets *IndexSets, i int) string {
	switch {
	case sets.IsSlack[i]:
		if snap.IsDC[i] {
			return "Slack (DC)"
		}
		return "Slack"
	case sets.RemoteTarget[i]:
		return "PQV"
	case sets.RemoteSource[i]:
		return "P"
	case sets.Dispatch[i]:
		return "Dispatch"
	case snap.IsDC[i]:
		return "DC"
	case sets.Flags[i].Vm && !sets.Flags[i].Q:
		return "PV"
	default:
		return "PQ"
	}
}
