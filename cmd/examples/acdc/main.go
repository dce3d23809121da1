package main

import (
	"fmt"
	"log"

	"toy-powerflow/internal/consts"
	"toy-powerflow/pkg/analysis"
	"toy-powerflow/pkg/circuit"
	"toy-powerflow/pkg/device"
	"toy-powerflow/pkg/util"
)

func createGrid() (*circuit.Circuit, error) {
	ckt := circuit.New("AC/DC grid with a converter")

	slack := device.NewBus("B1", 110)
	slack.Slack = true
	if err := ckt.AddBus(slack); err != nil {
		return nil, err
	}
	if err := ckt.AddBus(device.NewBus("B2", 110)); err != nil {
		return nil, err
	}
	dc1 := device.NewBus("B3", 150)
	dc1.DC = true
	if err := ckt.AddBus(dc1); err != nil {
		return nil, err
	}
	dc2 := device.NewBus("B4", 150)
	dc2.DC = true
	if err := ckt.AddBus(dc2); err != nil {
		return nil, err
	}

	// AC feeder and DC cable.
	if err := ckt.AddLine(device.NewLine("L1", []string{"B1", "B2"}, 0.01, 0.05, 0.02, 150)); err != nil {
		return nil, err
	}
	if err := ckt.AddLine(device.NewLine("Cable1", []string{"B3", "B4"}, 0.005, 0, 0, 100)); err != nil {
		return nil, err
	}

	// The converter holds the DC side at 1 p.u. and exchanges no reactive
	// power with the AC side.
	vsc := device.NewVSC("C1", []string{"B3", "B2"}, 120)
	vsc.Control1 = device.ControlVmDC
	vsc.Control1Value = 1.0
	vsc.Control2 = device.ControlQAC
	vsc.Control2Value = 0.0
	if err := ckt.AddVSC(vsc); err != nil {
		return nil, err
	}

	if err := ckt.AddLoad(device.NewLoad("Load1", "B2", 80, 30)); err != nil {
		return nil, err
	}
	if err := ckt.AddLoad(device.NewLoad("Load2", "B4", 20, 0)); err != nil {
		return nil, err
	}

	return ckt, nil
}

func main() {
	fmt.Print("===== AC/DC Converter Example =====\n\n")

	fmt.Println("Generating grid...")
	ckt, err := createGrid()
	if err != nil {
		log.Fatalf("error grid generation: %v", err)
	}

	fmt.Println("Grid information:")
	fmt.Printf("  Name: %s\n", ckt.Name())
	fmt.Printf("  Bus count: %d\n\n", ckt.NumBuses())

	fmt.Println("Compiling grid...")
	snap, err := ckt.Compile()
	if err != nil {
		log.Fatalf("error compiling grid: %v", err)
	}

	fmt.Println("Setting up power flow...")
	pf := analysis.NewPowerFlow(analysis.DefaultOptions())
	if err := pf.Setup(snap); err != nil {
		log.Fatalf("error setting up power flow: %v", err)
	}

	fmt.Println("Running power flow...")
	if err := pf.Execute(); err != nil {
		log.Fatalf("error running power flow: %v", err)
	}
	fmt.Println()

	rep := pf.Results()

	fmt.Println("Power Flow Results:")
	fmt.Print("==========================\n\n")

	fmt.Printf("Converged: %v after %d iterations (error %.3e)\n\n", rep.Converged, rep.Iterations, rep.Error)

	fmt.Println("Bus voltages:")
	for i, name := range rep.BusNames {
		fmt.Printf("  V(%s) [%s] = %s\n", name, rep.BusTypes[i],
			util.FormatVoltage(rep.Vm[i], rep.Va[i]*consts.RAD2DEG))
	}

	fmt.Println("\nBranch flows:")
	for _, bf := range rep.Lines {
		fmt.Printf("  S(%s) = %s -> %s\n", bf.Name,
			util.FormatComplexPower(real(bf.Sf), imag(bf.Sf)),
			util.FormatComplexPower(real(bf.St), imag(bf.St)))
	}

	fmt.Println("\nConverter Characteristics:")
	for _, bf := range rep.Converters {
		fmt.Printf("  DC side power: %s\n", util.FormatPower(real(bf.Sf), "W"))
		fmt.Printf("  AC side power: %s\n", util.FormatComplexPower(real(bf.St), imag(bf.St)))
		fmt.Printf("  Conversion loss: %s\n", util.FormatPower(real(bf.Losses), "W"))
		fmt.Printf("  Loading: %s\n", util.FormatLoading(bf.Loading))
	}

	fmt.Println("\nDone!")
}
