package device

import "fmt"

// Load is a ZIP demand: constant power (P, Q), constant current (Ir, Ii)
// and constant admittance (G, B), all in MW/MVAr at nominal voltage.
// Positive B injects reactive power (capacitive).
type Load struct {
	BaseDevice
	P  float64
	Q  float64
	Ir float64
	Ii float64
	G  float64
	B  float64
}

var _ PowerElement = (*Load)(nil)

func NewLoad(name string, busName string, p, q float64) *Load {
	return &Load{
		BaseDevice: *NewBaseDevice(name, p, []string{busName}),
		P:          p,
		Q:          q,
	}
}

func (l *Load) GetType() string { return "load" }

func (l *Load) AddPower(zip *ZipAccumulator, status *GridStatus) error {
	if len(l.Buses) != 1 {
		return fmt.Errorf("load %s: requires exactly 1 bus", l.Name)
	}
	k := l.Buses[0]
	sb := complex(status.Sbase, 0)

	zip.S[k] -= complex(l.P, l.Q) / sb
	zip.I[k] -= complex(l.Ir, l.Ii) / sb
	zip.Y[k] -= complex(l.G, l.B) / sb

	return nil
}
