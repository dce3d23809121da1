package device

import (
	"fmt"

	"toy-powerflow/pkg/matrix"
)

// Line is a passive pi-model branch. Impedances are per unit on the system
// base. A line between DC buses carries only its series resistance.
type Line struct {
	BaseDevice
	R    float64 // series resistance (p.u.)
	X    float64 // series reactance (p.u.)
	B    float64 // total shunt susceptance (p.u.)
	Rate float64 // rating (MVA)

	// Optional fixed-flow setpoints (MW / MVAr). Each one present adds a
	// setpoint equation on this branch.
	PfSet *float64
	PtSet *float64
	QfSet *float64
	QtSet *float64
}

var _ AdmittanceElement = (*Line)(nil)

func NewLine(name string, busNames []string, r, x, b, rate float64) *Line {
	return &Line{
		BaseDevice: *NewBaseDevice(name, rate, busNames),
		R:          r,
		X:          x,
		B:          b,
		Rate:       rate,
	}
}

func (l *Line) GetType() string { return "line" }

func (l *Line) StampAdmittance(ybus matrix.AdmittanceStamper, status *GridStatus) error {
	if len(l.Buses) != 2 {
		return fmt.Errorf("line %s: requires exactly 2 buses", l.Name)
	}
	f, t := l.Buses[0], l.Buses[1]

	ys := 1 / complex(l.R+1e-20, l.X)
	b2 := complex(0, l.B/2)

	ybus.AddElement(f, f, ys+b2)
	ybus.AddElement(f, t, -ys)
	ybus.AddElement(t, f, -ys)
	ybus.AddElement(t, t, ys+b2)

	return nil
}

// HasFlowSetpoints reports whether any fixed-flow setpoint is present.
func (l *Line) HasFlowSetpoints() bool {
	return l.PfSet != nil || l.PtSet != nil || l.QfSet != nil || l.QtSet != nil
}
