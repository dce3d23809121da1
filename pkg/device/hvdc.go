package device

import "fmt"

type HvdcMode int

const (
	HvdcPset HvdcMode = iota
	HvdcFree
)

func (m HvdcMode) String() string {
	switch m {
	case HvdcPset:
		return "Pset"
	case HvdcFree:
		return "free"
	}
	return fmt.Sprintf("HvdcMode(%d)", int(m))
}

// HVDCLine is a point-to-point DC link between two AC buses. Converter
// stations and cable are modeled together: a resistive loss driven by the
// DC current plus a scheduled active transfer, optionally adjusted by angle
// droop in free mode. The link exchanges active power only.
type HVDCLine struct {
	BaseDevice
	R     float64 // DC cable resistance (ohm)
	Pset  float64 // scheduled from-side flow (MW); negative runs the link to -> from
	Droop float64 // angle droop (MW/deg), used in free mode
	Mode  HvdcMode
	Rate  float64 // rating (MVA)
}

func NewHVDCLine(name string, busNames []string, r, pset float64) *HVDCLine {
	return &HVDCLine{
		BaseDevice: *NewBaseDevice(name, pset, busNames),
		R:          r,
		Pset:       pset,
	}
}

func (h *HVDCLine) GetType() string { return "hvdc" }
