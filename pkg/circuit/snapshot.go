package circuit

import (
	"fmt"
	"math/cmplx"

	"toy-powerflow/pkg/device"
	"toy-powerflow/pkg/matrix"
)

// Snapshot is the compiled, solver-facing view of a circuit: dense per-bus
// arrays, the passive admittance matrix and the device lists. Built once by
// Compile and treated as read-only during a solve.
type Snapshot struct {
	Name  string
	Sbase float64

	NumBus   int
	BusNames []string
	Vnom     []float64
	IsDC     []bool
	IsSlack  []bool
	V0       []complex128

	// Per-bus ZIP aggregates of the fixed injections (p.u.)
	S0 []complex128
	I0 []complex128
	Y0 []complex128

	// Passive network: lines and fixed-tap transformers
	Ybus *matrix.Admittance

	Lines        []*device.Line
	Transformers []*device.Transformer
	Converters   []*device.VSC
	HvdcLines    []*device.HVDCLine
	Generators   []*device.Generator
	Loads        []*device.Load
	Shunts       []*device.Shunt

	// Resolved Vm-control targets, parallel to Transformers and Generators.
	// -1 when the device controls no bus (or controls its own bus).
	TrafoTargetBus []int
	GenRemoteBus   []int
}

// Compile resolves topology, aggregates the fixed injections and builds the
// passive admittance matrix. Control-mode consistency is not checked here;
// that is the classifier's job.
func (c *Circuit) Compile() (*Snapshot, error) {
	n := len(c.buses)
	if n == 0 {
		return nil, fmt.Errorf("circuit %s: no buses", c.name)
	}

	snap := &Snapshot{
		Name:     c.name,
		Sbase:    c.Status.Sbase,
		NumBus:   n,
		BusNames: make([]string, n),
		Vnom:     make([]float64, n),
		IsDC:     make([]bool, n),
		IsSlack:  make([]bool, n),
		V0:       make([]complex128, n),
	}

	for i, b := range c.buses {
		snap.BusNames[i] = b.Name
		snap.Vnom[i] = b.Vnom
		snap.IsDC[i] = b.DC
		snap.IsSlack[i] = b.Slack

		vm := b.Vm0
		if vm <= 0 {
			vm = 1.0
		}
		if b.DC {
			snap.V0[i] = complex(vm, 0)
		} else {
			snap.V0[i] = cmplx.Rect(vm, b.Va0)
		}
	}

	for _, dev := range c.devices {
		switch d := dev.(type) {
		case *device.Line:
			f, t := d.Buses[0], d.Buses[1]
			if snap.IsDC[f] != snap.IsDC[t] {
				return nil, fmt.Errorf("circuit %s: line %s cannot connect AC and DC buses", c.name, d.Name)
			}
			if snap.IsDC[f] && (d.X != 0 || d.B != 0) {
				return nil, fmt.Errorf("circuit %s: DC line %s requires zero X and B", c.name, d.Name)
			}
			snap.Lines = append(snap.Lines, d)
		case *device.Transformer:
			f, t := d.Buses[0], d.Buses[1]
			if snap.IsDC[f] || snap.IsDC[t] {
				return nil, fmt.Errorf("circuit %s: transformer %s requires AC buses on both sides", c.name, d.Name)
			}
			snap.Transformers = append(snap.Transformers, d)
		case *device.VSC:
			f, t := d.Buses[0], d.Buses[1]
			if !snap.IsDC[f] || snap.IsDC[t] {
				return nil, fmt.Errorf("circuit %s: vsc %s requires a DC from bus and an AC to bus", c.name, d.Name)
			}
			snap.Converters = append(snap.Converters, d)
		case *device.HVDCLine:
			f, t := d.Buses[0], d.Buses[1]
			if snap.IsDC[f] || snap.IsDC[t] {
				return nil, fmt.Errorf("circuit %s: hvdc %s terminals must be AC buses", c.name, d.Name)
			}
			snap.HvdcLines = append(snap.HvdcLines, d)
		case *device.Generator:
			snap.Generators = append(snap.Generators, d)
		case *device.Load:
			snap.Loads = append(snap.Loads, d)
		case *device.Shunt:
			snap.Shunts = append(snap.Shunts, d)
		case *device.Bus:
			return nil, fmt.Errorf("circuit %s: bus %s must be added with AddBus", c.name, d.Name)
		default:
			return nil, fmt.Errorf("circuit %s: unsupported device type %s", c.name, dev.GetType())
		}
	}

	snap.TrafoTargetBus = make([]int, len(snap.Transformers))
	for i, tr := range snap.Transformers {
		snap.TrafoTargetBus[i] = -1
		if tr.ModuleMode != device.TapModVm {
			continue
		}
		if tr.ControlledBusName == "" {
			snap.TrafoTargetBus[i] = tr.Buses[1]
			continue
		}
		idx, ok := c.busMap[tr.ControlledBusName]
		if !ok {
			return nil, fmt.Errorf("circuit %s: transformer %s controls unknown bus %s", c.name, tr.Name, tr.ControlledBusName)
		}
		snap.TrafoTargetBus[i] = idx
	}

	snap.GenRemoteBus = make([]int, len(snap.Generators))
	for i, g := range snap.Generators {
		snap.GenRemoteBus[i] = -1
		if !g.Controllable || g.RemoteBusName == "" {
			continue
		}
		idx, ok := c.busMap[g.RemoteBusName]
		if !ok {
			return nil, fmt.Errorf("circuit %s: generator %s controls unknown bus %s", c.name, g.Name, g.RemoteBusName)
		}
		if idx != g.Buses[0] {
			snap.GenRemoteBus[i] = idx
		}
	}

	zip := device.NewZipAccumulator(n)
	for _, dev := range c.devices {
		if pe, ok := dev.(device.PowerElement); ok {
			if err := pe.AddPower(zip, c.Status); err != nil {
				return nil, fmt.Errorf("circuit %s: %v", c.name, err)
			}
		}
	}
	snap.S0, snap.I0, snap.Y0 = zip.S, zip.I, zip.Y

	ybus := matrix.NewAdmittance(n)
	for _, dev := range c.devices {
		if tr, ok := dev.(*device.Transformer); ok && tr.Controllable() {
			continue // controlled taps enter through the flow equations
		}
		if ae, ok := dev.(device.AdmittanceElement); ok {
			if err := ae.StampAdmittance(ybus, c.Status); err != nil {
				return nil, fmt.Errorf("circuit %s: %v", c.name, err)
			}
		}
	}
	snap.Ybus = ybus

	return snap, nil
}
