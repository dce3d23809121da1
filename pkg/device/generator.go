package device

import "fmt"

// Generator is an active power injection with optional voltage control.
// A controllable generator holds its bus (or a remote bus) at Vset and its
// reactive output becomes a solve unknown; a fixed generator injects P and
// Qset directly.
type Generator struct {
	BaseDevice
	P             float64 // active injection (MW)
	Qset          float64 // reactive injection in fixed mode (MVAr)
	Vset          float64 // voltage setpoint (p.u.)
	Controllable  bool
	Dispatchable  bool   // active output recomputed by the solve
	RemoteBusName string // optional remote voltage-control target
	Qmin          float64 // reactive limit (MVAr)
	Qmax          float64 // reactive limit (MVAr)
}

var _ PowerElement = (*Generator)(nil)

func NewGenerator(name string, busName string, p float64) *Generator {
	return &Generator{
		BaseDevice: *NewBaseDevice(name, p, []string{busName}),
		P:          p,
		Vset:       1.0,
		Qmin:       -9999.0,
		Qmax:       9999.0,
	}
}

func (g *Generator) GetType() string { return "generator" }

func (g *Generator) AddPower(zip *ZipAccumulator, status *GridStatus) error {
	if len(g.Buses) != 1 {
		return fmt.Errorf("generator %s: requires exactly 1 bus", g.Name)
	}
	if g.Controllable {
		// Routed through the classifier's zip slots instead.
		return nil
	}
	k := g.Buses[0]
	if g.Dispatchable {
		// Active output is a solve unknown, only the fixed reactive part lands here.
		zip.S[k] += complex(0, g.Qset) / complex(status.Sbase, 0)
		return nil
	}
	zip.S[k] += complex(g.P, g.Qset) / complex(status.Sbase, 0)
	return nil
}
