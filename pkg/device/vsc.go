package device

import "fmt"

type ConverterControl int

const (
	ControlVmDC ConverterControl = iota
	ControlVmAC
	ControlVaAC
	ControlQAC
	ControlPDC
	ControlPAC
)

func (c ConverterControl) String() string {
	switch c {
	case ControlVmDC:
		return "Vm_dc"
	case ControlVmAC:
		return "Vm_ac"
	case ControlVaAC:
		return "Va_ac"
	case ControlQAC:
		return "Q_ac"
	case ControlPDC:
		return "P_dc"
	case ControlPAC:
		return "P_ac"
	}
	return fmt.Sprintf("ConverterControl(%d)", int(c))
}

// Voltage reports whether the axis pins a bus voltage quantity.
func (c ConverterControl) Voltage() bool {
	return c == ControlVmDC || c == ControlVmAC || c == ControlVaAC
}

// Power reports whether the axis pins a converter flow quantity.
func (c ConverterControl) Power() bool {
	return c == ControlQAC || c == ControlPDC || c == ControlPAC
}

// Valid reports whether the value is a recognized control axis.
func (c ConverterControl) Valid() bool {
	return c >= ControlVmDC && c <= ControlPAC
}

// VSC is an AC/DC voltage source converter. The from bus must be DC, the
// to bus AC. The control pair must combine one voltage axis and one power
// axis. Voltage setpoints are p.u. (VaAC in rad), power setpoints MW/MVAr.
type VSC struct {
	BaseDevice
	Control1      ConverterControl
	Control1Value float64
	Control2      ConverterControl
	Control2Value float64

	LossA float64 // constant loss term (p.u.)
	LossB float64 // linear loss coefficient
	LossC float64 // quadratic loss coefficient
	Rate  float64 // rating (MVA)
}

func NewVSC(name string, busNames []string, rate float64) *VSC {
	return &VSC{
		BaseDevice: *NewBaseDevice(name, rate, busNames),
		LossA:      0.0001,
		LossB:      0.015,
		LossC:      0.2,
		Rate:       rate,
	}
}

func (v *VSC) GetType() string { return "vsc" }

// Loss evaluates the converter loss at AC-side current magnitude it (p.u.).
func (v *VSC) Loss(it float64) float64 {
	return v.LossA + v.LossB*it + v.LossC*it*it
}
