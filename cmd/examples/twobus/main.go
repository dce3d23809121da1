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
	ckt := circuit.New("Two bus feeder")

	slack := device.NewBus("B1", 110)
	slack.Slack = true
	if err := ckt.AddBus(slack); err != nil {
		return nil, fmt.Errorf("error adding bus: %v", err)
	}
	if err := ckt.AddBus(device.NewBus("B2", 110)); err != nil {
		return nil, fmt.Errorf("error adding bus: %v", err)
	}

	if err := ckt.AddLine(device.NewLine("L1", []string{"B1", "B2"}, 0.01, 0.05, 0.02, 100)); err != nil {
		return nil, fmt.Errorf("error adding line: %v", err)
	}
	if err := ckt.AddLoad(device.NewLoad("Load1", "B2", 20, 10)); err != nil {
		return nil, fmt.Errorf("error adding load: %v", err)
	}

	return ckt, nil
}

func main() {
	fmt.Print("===== Two Bus Example =====\n\n")

	fmt.Println("Generating grid...")
	ckt, err := createGrid()
	if err != nil {
		log.Fatalf("error grid generation: %v", err)
	}

	fmt.Println("Information:")
	fmt.Printf("Grid name: %s\n", ckt.Name())
	fmt.Printf("Bus count: %d\n\n", ckt.NumBuses())

	busMap := ckt.GetBusMap()
	fmt.Println("Bus map:")
	for name, idx := range busMap {
		fmt.Printf("  Bus '%s' -> index %d\n", name, idx)
	}
	fmt.Println()

	fmt.Println("Compiling grid...")
	snap, err := ckt.Compile()
	if err != nil {
		log.Fatalf("error compiling: %v", err)
	}

	fmt.Println("Running power flow...")
	pf := analysis.NewPowerFlow(analysis.DefaultOptions())
	if err := pf.Setup(snap); err != nil {
		log.Fatalf("error setup: %v", err)
	}
	if err := pf.Execute(); err != nil {
		log.Fatalf("error running: %v", err)
	}
	fmt.Println()

	rep := pf.Results()

	fmt.Println("Result:")
	fmt.Print("================\n\n")
	fmt.Printf("Converged: %v after %d iterations (error %.3e)\n\n", rep.Converged, rep.Iterations, rep.Error)

	fmt.Println("Bus voltage:")
	for i, name := range rep.BusNames {
		fmt.Printf("V(%s) = %s\n", name, util.FormatVoltage(rep.Vm[i], rep.Va[i]*consts.RAD2DEG))
	}
	fmt.Println()

	fmt.Println("Line flow:")
	for _, bf := range rep.Lines {
		fmt.Printf("S(%s) from = %s\n", bf.Name, util.FormatComplexPower(real(bf.Sf), imag(bf.Sf)))
		fmt.Printf("S(%s) to   = %s\n", bf.Name, util.FormatComplexPower(real(bf.St), imag(bf.St)))
		fmt.Printf("P(loss) = %s\n", util.FormatPower(real(bf.Losses), "W"))
	}

	fmt.Println("\nDone!")
}
