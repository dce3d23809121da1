package device

import (
	"fmt"
	"math/cmplx"

	"toy-powerflow/pkg/matrix"
)

type TapModuleMode int

const (
	TapModNone TapModuleMode = iota
	TapModFixed
	TapModVm
	TapModQf
	TapModQt
)

func (m TapModuleMode) String() string {
	switch m {
	case TapModNone:
		return "none"
	case TapModFixed:
		return "fixed"
	case TapModVm:
		return "vm"
	case TapModQf:
		return "qf"
	case TapModQt:
		return "qt"
	}
	return fmt.Sprintf("TapModuleMode(%d)", int(m))
}

type TapPhaseMode int

const (
	TapPhaseNone TapPhaseMode = iota
	TapPhaseFixed
	TapPhasePf
	TapPhasePt
)

func (m TapPhaseMode) String() string {
	switch m {
	case TapPhaseNone:
		return "none"
	case TapPhaseFixed:
		return "fixed"
	case TapPhasePf:
		return "pf"
	case TapPhasePt:
		return "pt"
	}
	return fmt.Sprintf("TapPhaseMode(%d)", int(m))
}

// Transformer is a two-winding branch with an off-nominal tap. The tap
// module and tap angle are independent control axes; with both axes fixed
// the transformer is passive and folds into the admittance matrix at its
// current tap.
type Transformer struct {
	BaseDevice
	R    float64 // series resistance (p.u.)
	X    float64 // series reactance (p.u.)
	B    float64 // total shunt susceptance (p.u.)
	Rate float64 // rating (MVA)

	TapModule  float64 // m
	TapAngle   float64 // tau (rad)
	ModuleMode TapModuleMode
	PhaseMode  TapPhaseMode

	ControlledBusName string  // Vm-mode target; empty means the to bus
	Vset              float64 // p.u.
	Qset              float64 // MVAr
	Pset              float64 // MW

	MMin   float64
	MMax   float64
	TauMin float64 // rad
	TauMax float64 // rad
}

var _ AdmittanceElement = (*Transformer)(nil)

func NewTransformer(name string, busNames []string, r, x, b, rate float64) *Transformer {
	return &Transformer{
		BaseDevice: *NewBaseDevice(name, rate, busNames),
		R:          r,
		X:          x,
		B:          b,
		Rate:       rate,
		TapModule:  1.0,
		MMin:       0.8,
		MMax:       1.2,
		TauMin:     -0.5,
		TauMax:     0.5,
	}
}

func (tr *Transformer) GetType() string { return "transformer" }

// Controllable reports whether any tap axis is actively controlled.
func (tr *Transformer) Controllable() bool {
	moduleActive := tr.ModuleMode == TapModVm || tr.ModuleMode == TapModQf || tr.ModuleMode == TapModQt
	phaseActive := tr.PhaseMode == TapPhasePf || tr.PhaseMode == TapPhasePt
	return moduleActive || phaseActive
}

// StampAdmittance folds the transformer into the admittance matrix at its
// current tap. Only valid for passive (non-controllable) transformers; a
// controlled tap enters the solve through the flow equations instead.
func (tr *Transformer) StampAdmittance(ybus matrix.AdmittanceStamper, status *GridStatus) error {
	if len(tr.Buses) != 2 {
		return fmt.Errorf("transformer %s: requires exactly 2 buses", tr.Name)
	}
	f, t := tr.Buses[0], tr.Buses[1]

	ys := 1 / complex(tr.R+1e-20, tr.X)
	b2 := complex(0, tr.B/2)
	m := complex(tr.TapModule, 0)
	tap := m * cmplx.Exp(complex(0, tr.TapAngle))

	ybus.AddElement(f, f, (ys+b2)/(m*m))
	ybus.AddElement(f, t, -ys/cmplx.Conj(tap))
	ybus.AddElement(t, f, -ys/tap)
	ybus.AddElement(t, t, ys+b2)

	return nil
}

// Flows evaluates the from-side and to-side complex power of the pi model
// at tap state (m, tau) and terminal voltages (vf, vt). All per unit.
func (tr *Transformer) Flows(vf, vt complex128, m, tau float64) (complex128, complex128) {
	ys := 1 / complex(tr.R+1e-20, tr.X)
	ysum := ys + complex(0, tr.B/2)

	vmf2 := real(vf)*real(vf) + imag(vf)*imag(vf)
	vmt2 := real(vt)*real(vt) + imag(vt)*imag(vt)
	mc := complex(m, 0)
	ejt := cmplx.Exp(complex(0, tau))

	sf := complex(vmf2, 0)*cmplx.Conj(ysum)/(mc*mc) - vf*cmplx.Conj(vt)*cmplx.Conj(ys)/(mc*ejt)
	st := complex(vmt2, 0)*cmplx.Conj(ysum) - vt*cmplx.Conj(vf)*cmplx.Conj(ys)/(mc*cmplx.Conj(ejt))

	return sf, st
}
