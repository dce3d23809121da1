package device

import (
	"github.com/google/uuid"

	"toy-powerflow/pkg/matrix"
)

type Device interface {
	GetName() string
	GetType() string
	GetIDTag() string
	GetBusNames() []string
	GetBuses() []int
	GetValue() float64
	SetBuses(buses []int)
}

type BaseDevice struct {
	Name     string
	IDTag    string
	Buses    []int
	Value    float64
	BusNames []string
}

// AdmittanceElement is implemented by passive devices whose effect on the
// grid is a constant admittance stamped into the bus admittance matrix.
type AdmittanceElement interface {
	StampAdmittance(ybus matrix.AdmittanceStamper, status *GridStatus) error
}

// PowerElement is implemented by injection devices that accumulate into the
// per-bus ZIP aggregates.
type PowerElement interface {
	AddPower(zip *ZipAccumulator, status *GridStatus) error
}

// ZipAccumulator collects the per-bus ZIP injection terms in per unit:
// constant power S, constant current I, constant admittance Y. Positive
// values inject power into the bus.
type ZipAccumulator struct {
	S []complex128
	I []complex128
	Y []complex128
}

func NewZipAccumulator(n int) *ZipAccumulator {
	return &ZipAccumulator{
		S: make([]complex128, n),
		I: make([]complex128, n),
		Y: make([]complex128, n),
	}
}

// GridStatus carries solve-wide context into device callbacks.
type GridStatus struct {
	Sbase float64 // system base power (MVA)
}

func (d *BaseDevice) GetName() string {
	return d.Name
}

func (d *BaseDevice) GetIDTag() string {
	return d.IDTag
}

func (d *BaseDevice) GetBuses() []int {
	return d.Buses
}

func (d *BaseDevice) GetBusNames() []string {
	return d.BusNames
}

func (d *BaseDevice) GetValue() float64 {
	return d.Value
}

func (d *BaseDevice) SetBuses(buses []int) {
	d.Buses = buses
}

func NewBaseDevice(name string, value float64, busNames []string) *BaseDevice {
	return &BaseDevice{
		Name:     name,
		IDTag:    uuid.NewString(),
		Value:    value,
		BusNames: busNames,
		Buses:    make([]int, len(busNames)),
	}
}
