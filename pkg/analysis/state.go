package analysis

import (
	"math/cmplx"

	"toy-powerflow/pkg/circuit"
)

// State holds the dense physical arrays of one solve. Flow arrays are
// bus-end keyed (one claiming device per slot, unclaimed slots stay zero),
// tap arrays run over the controllable transformers. Known slots are seeded
// once from the index sets and never touched by Pack or Unpack.
type State struct {
	Vm        []float64
	Va        []float64
	Pzip      []float64
	Qzip      []float64
	Pfrom     []float64
	Pto       []float64
	Qfrom     []float64
	Qto       []float64
	TapModule []float64
	TapAngle  []float64

	sets *IndexSets
}

func NewState(snap *circuit.Snapshot, sets *IndexSets) *State {
	n := snap.NumBus
	st := &State{
		Vm:        make([]float64, n),
		Va:        make([]float64, n),
		Pzip:      make([]float64, n),
		Qzip:      make([]float64, n),
		Pfrom:     make([]float64, n),
		Pto:       make([]float64, n),
		Qfrom:     make([]float64, n),
		Qto:       make([]float64, n),
		TapModule: make([]float64, len(sets.CtrlTrafos)),
		TapAngle:  make([]float64, len(sets.CtrlTrafos)),
		sets:      sets,
	}
	for i := 0; i < n; i++ {
		st.Vm[i] = cmplx.Abs(snap.V0[i])
		st.Va[i] = cmplx.Phase(snap.V0[i])
	}
	for k, ti := range sets.CtrlTrafos {
		tr := snap.Transformers[ti]
		st.TapModule[k] = tr.TapModule
		st.TapAngle[k] = tr.TapAngle
	}
	st.seedKnown()
	return st
}

func (st *State) seedKnown() {
	for q := Quantity(0); q < numQuantities; q++ {
		arr := st.arrayOf(q)
		for _, kn := range st.sets.Known[q] {
			arr[kn.Slot] = kn.Value
		}
	}
}

func (st *State) arrayOf(q Quantity) []float64 {
	switch q {
	case QuantityVm:
		return st.Vm
	case QuantityVa:
		return st.Va
	case QuantityPzip:
		return st.Pzip
	case QuantityQzip:
		return st.Qzip
	case QuantityPfrom:
		return st.Pfrom
	case QuantityPto:
		return st.Pto
	case QuantityQfrom:
		return st.Qfrom
	case QuantityQto:
		return st.Qto
	case QuantityTapModule:
		return st.TapModule
	case QuantityTapAngle:
		return st.TapAngle
	}
	return nil
}

// Size is the length of the packed unknown vector.
func (st *State) Size() int {
	return st.sets.NumCols
}

// Pack copies the unknown slots into a flat vector, canonical category
// order, ascending slots within each category.
func (st *State) Pack() []float64 {
	x := make([]float64, st.sets.NumCols)
	for q := Quantity(0); q < numQuantities; q++ {
		arr := st.arrayOf(q)
		for _, slot := range st.sets.Unknown[q] {
			x[st.sets.colOf(q, slot)] = arr[slot]
		}
	}
	return x
}

// Unpack writes a flat vector back into the unknown slots. Known slots are
// left alone.
func (st *State) Unpack(x []float64) {
	for q := Quantity(0); q < numQuantities; q++ {
		arr := st.arrayOf(q)
		for _, slot := range st.sets.Unknown[q] {
			arr[slot] = x[st.sets.colOf(q, slot)]
		}
	}
}

// V assembles the complex bus voltages from Vm and Va. DC buses carry a
// zero angle throughout, so their entries come out real.
func (st *State) V() []complex128 {
	v := make([]complex128, len(st.Vm))
	for i := range v {
		v[i] = cmplx.Rect(st.Vm[i], st.Va[i])
	}
	return v
}

// AdoptValues copies the physical arrays from src and re-seeds this state's
// known slots. Used when the index sets are rebuilt mid-solve.
func (st *State) AdoptValues(src *State) {
	copy(st.Vm, src.Vm)
	copy(st.Va, src.Va)
	copy(st.Pzip, src.Pzip)
	copy(st.Qzip, src.Qzip)
	copy(st.Pfrom, src.Pfrom)
	copy(st.Pto, src.Pto)
	copy(st.Qfrom, src.Qfrom)
	copy(st.Qto, src.Qto)
	copy(st.TapModule, src.TapModule)
	copy(st.TapAngle, src.TapAngle)
	st.seedKnown()
}
