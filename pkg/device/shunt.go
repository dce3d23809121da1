package device

import "fmt"

// Shunt is a fixed admittance to ground, G + jB in MW/MVAr at V = 1 p.u.
// Positive B injects reactive power (capacitive). A controllable shunt
// instead regulates its bus voltage and its reactive output becomes a
// solve unknown.
type Shunt struct {
	BaseDevice
	G            float64
	B            float64
	Controllable bool
	Vset         float64 // p.u., controllable mode
}

var _ PowerElement = (*Shunt)(nil)

func NewShunt(name string, busName string, g, b float64) *Shunt {
	return &Shunt{
		BaseDevice: *NewBaseDevice(name, b, []string{busName}),
		G:          g,
		B:          b,
		Vset:       1.0,
	}
}

func (s *Shunt) GetType() string { return "shunt" }

func (s *Shunt) AddPower(zip *ZipAccumulator, status *GridStatus) error {
	if len(s.Buses) != 1 {
		return fmt.Errorf("shunt %s: requires exactly 1 bus", s.Name)
	}
	if s.Controllable {
		// Routed through the classifier's zip slots instead.
		return nil
	}
	k := s.Buses[0]
	zip.Y[k] -= complex(s.G, s.B) / complex(status.Sbase, 0)
	return nil
}
