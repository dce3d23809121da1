package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/device"
)

// mustCompile compiles the circuit and fails the test on any error.
func mustCompile(t *testing.T, ckt *circuit.Circuit) *circuit.Snapshot {
	t.Helper()
	snap, err := ckt.Compile()
	require.NoError(t, err)
	return snap
}

// mustSets runs the classifier with a fresh event log.
func mustSets(t *testing.T, snap *circuit.Snapshot) *IndexSets {
	t.Helper()
	sets, err := BuildIndexSets(snap, nil, NewEventLog())
	require.NoError(t, err)
	return sets
}

// knownValue looks up the known entry of a category slot.
func knownValue(sets *IndexSets, q Quantity, slot int) (float64, bool) {
	for _, kn := range sets.Known[q] {
		if kn.Slot == slot {
			return kn.Value, true
		}
	}
	return 0, false
}

// feederGrid is a slack bus feeding a 20 MW / 10 MVAr load over one line.
func feederGrid(t *testing.T, charging float64) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("feeder")

	b1 := device.NewBus("B1", 110)
	b1.Slack = true
	require.NoError(t, ckt.AddBus(b1))
	require.NoError(t, ckt.AddBus(device.NewBus("B2", 110)))
	require.NoError(t, ckt.AddLine(device.NewLine("L1", []string{"B1", "B2"}, 0.01, 0.05, charging, 100)))
	require.NoError(t, ckt.AddLoad(device.NewLoad("Load1", "B2", 20, 10)))

	return ckt
}

// pvGrid adds a voltage-controlled machine at the feeder's load bus.
func pvGrid(t *testing.T) *circuit.Circuit {
	t.Helper()
	ckt := feederGrid(t, 0)

	g := device.NewGenerator("G1", "B2", 30)
	g.Controllable = true
	g.Vset = 1.02
	require.NoError(t, ckt.AddGenerator(g))

	return ckt
}

// remoteGrid holds B3 at 1.03 p.u. from a machine two buses away.
func remoteGrid(t *testing.T) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("remote")

	b1 := device.NewBus("B1", 110)
	b1.Slack = true
	require.NoError(t, ckt.AddBus(b1))
	require.NoError(t, ckt.AddBus(device.NewBus("B2", 110)))
	require.NoError(t, ckt.AddBus(device.NewBus("B3", 110)))
	require.NoError(t, ckt.AddLine(device.NewLine("L1", []string{"B1", "B2"}, 0.01, 0.05, 0, 100)))
	require.NoError(t, ckt.AddLine(device.NewLine("L2", []string{"B2", "B3"}, 0.01, 0.04, 0, 100)))

	g := device.NewGenerator("G1", "B2", 40)
	g.Controllable = true
	g.RemoteBusName = "B3"
	g.Vset = 1.03
	require.NoError(t, ckt.AddGenerator(g))
	require.NoError(t, ckt.AddLoad(device.NewLoad("Load1", "B3", 30, 10)))

	return ckt
}

// acdcGrid couples an AC feeder to a DC cable through one converter. The
// converter holds the DC side at 1.0 p.u. and unity power factor on the
// AC side.
func acdcGrid(t *testing.T) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("acdc")

	b1 := device.NewBus("B1", 110)
	b1.Slack = true
	require.NoError(t, ckt.AddBus(b1))
	require.NoError(t, ckt.AddBus(device.NewBus("B2", 110)))
	for _, name := range []string{"B3", "B4"} {
		b := device.NewBus(name, 150)
		b.DC = true
		require.NoError(t, ckt.AddBus(b))
	}

	require.NoError(t, ckt.AddLine(device.NewLine("L1", []string{"B1", "B2"}, 0.01, 0.05, 0.02, 150)))
	require.NoError(t, ckt.AddLine(device.NewLine("Cable1", []string{"B3", "B4"}, 0.005, 0, 0, 100)))

	c1 := device.NewVSC("C1", []string{"B3", "B2"}, 120)
	c1.Control1 = device.ControlVmDC
	c1.Control1Value = 1.0
	c1.Control2 = device.ControlQAC
	c1.Control2Value = 0
	require.NoError(t, ckt.AddVSC(c1))

	require.NoError(t, ckt.AddLoad(device.NewLoad("Load1", "B2", 80, 30)))
	require.NoError(t, ckt.AddLoad(device.NewLoad("Load2", "B4", 20, 0)))

	return ckt
}

// hvdcGrid joins two corners of an AC triangle with a point-to-point DC
// link scheduled at 50 MW.
func hvdcGrid(t *testing.T, mode device.HvdcMode) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("hvdc")

	b1 := device.NewBus("B1", 100)
	b1.Slack = true
	require.NoError(t, ckt.AddBus(b1))
	require.NoError(t, ckt.AddBus(device.NewBus("B2", 100)))
	require.NoError(t, ckt.AddBus(device.NewBus("B3", 100)))
	require.NoError(t, ckt.AddLine(device.NewLine("L1", []string{"B1", "B2"}, 0.01, 0.05, 0, 100)))
	require.NoError(t, ckt.AddLine(device.NewLine("L2", []string{"B1", "B3"}, 0.01, 0.05, 0, 100)))

	h := device.NewHVDCLine("H1", []string{"B2", "B3"}, 5, 50)
	h.Mode = mode
	h.Droop = 10
	h.Rate = 100
	require.NoError(t, ckt.AddHVDCLine(h))

	require.NoError(t, ckt.AddLoad(device.NewLoad("Load1", "B3", 50, 10)))

	return ckt
}

// dispatchGrid pairs a dispatchable machine with a scheduled line flow of
// 30 MW into its bus.
func dispatchGrid(t *testing.T) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("dispatch")

	b1 := device.NewBus("B1", 110)
	b1.Slack = true
	require.NoError(t, ckt.AddBus(b1))
	require.NoError(t, ckt.AddBus(device.NewBus("B2", 110)))

	l := device.NewLine("L1", []string{"B1", "B2"}, 0.01, 0.05, 0, 100)
	pf := 30.0
	l.PfSet = &pf
	require.NoError(t, ckt.AddLine(l))

	g := device.NewGenerator("G1", "B2", 0)
	g.Dispatchable = true
	require.NoError(t, ckt.AddGenerator(g))
	require.NoError(t, ckt.AddLoad(device.NewLoad("Load1", "B2", 50, 20)))

	return ckt
}

// tapVmGrid regulates the load bus voltage with a transformer tap module.
func tapVmGrid(t *testing.T, vset float64) *circuit.Circuit {
	t.Helper()
	ckt := circuit.New("tap")

	b1 := device.NewBus("B1", 110)
	b1.Slack = true
	require.NoError(t, ckt.AddBus(b1))
	require.NoError(t, ckt.AddBus(device.NewBus("B2", 20)))

	tr := device.NewTransformer("T1", []string{"B1", "B2"}, 0, 0.1, 0, 100)
	tr.ModuleMode = device.TapModVm
	tr.Vset = vset
	require.NoError(t, ckt.AddTransformer(tr))
	require.NoError(t, ckt.AddLoad(device.NewLoad("Load1", "B2", 20, 10)))

	return ckt
}
