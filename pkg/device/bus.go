package device

// Bus is a connection node of the grid. Control flags are derived during
// classification, never set here; only the slack and DC markers are inputs.
type Bus struct {
	BaseDevice
	Vnom  float64 // nominal voltage (kV)
	DC    bool
	Slack bool
	Vm0   float64 // initial voltage magnitude guess (p.u.)
	Va0   float64 // initial voltage angle guess (rad)
}

func NewBus(name string, vnom float64) *Bus {
	return &Bus{
		BaseDevice: *NewBaseDevice(name, vnom, []string{name}),
		Vnom:       vnom,
		Vm0:        1.0,
		Va0:        0.0,
	}
}

func (b *Bus) GetType() string { return "bus" }
