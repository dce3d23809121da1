package main // import "powerflow"

import (
	"flag"
	"fmt"
	"log"

	"toy-powerflow/internal/consts"
	"toy-powerflow/pkg/analysis"
	"toy-powerflow/pkg/gridfile"
	"toy-powerflow/pkg/util"
)

var (
	optionsPath = flag.String("options", "", "YAML solver options file")
	verbose     = flag.Bool("verbose", false, "log each iteration")
)

func printBranchTable(title string, flows []analysis.BranchFlow) {
	if len(flows) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	fmt.Println("Name          From Side                  To Side                    Losses                Loading")
	fmt.Println("--------------------------------------------------------------------------------------------------")
	for _, bf := range flows {
		fmt.Printf("%-12s  %s  %s  %s  %s\n",
			bf.Name,
			util.FormatComplexPower(real(bf.Sf), imag(bf.Sf)),
			util.FormatComplexPower(real(bf.St), imag(bf.St)),
			util.FormatComplexPower(real(bf.Losses), imag(bf.Losses)),
			util.FormatLoading(bf.Loading))
	}
}

func printReport(rep *analysis.Report) {
	fmt.Printf("\nPower Flow Results: %s\n", rep.Name)
	fmt.Println("==========================")
	status := "converged"
	if !rep.Converged {
		status = "NOT converged"
	}
	fmt.Printf("Status: %s after %d iterations, error %.3e, elapsed %s\n",
		status, rep.Iterations, rep.Error, rep.Elapsed)

	fmt.Println("\nBus Voltages:")
	fmt.Println("Name          Type        Voltage              Injection")
	fmt.Println("----------------------------------------------------------------------")
	for i, name := range rep.BusNames {
		fmt.Printf("%-12s  %-10s  %s  %s\n",
			name,
			rep.BusTypes[i],
			util.FormatVoltage(rep.Vm[i], rep.Va[i]*consts.RAD2DEG),
			util.FormatComplexPower(real(rep.Scalc[i]), imag(rep.Scalc[i])))
	}

	printBranchTable("Line Flows", rep.Lines)
	printBranchTable("Transformer Flows", rep.Transformers)
	printBranchTable("Converter Flows", rep.Converters)
	printBranchTable("HVDC Flows", rep.HvdcLinks)

	if len(rep.Transformers) > 0 {
		fmt.Println("\nTransformer Taps:")
		fmt.Println("Name          Module    Angle (deg)")
		fmt.Println("------------------------------------")
		for ti, bf := range rep.Transformers {
			fmt.Printf("%-12s  %s  %s\n",
				bf.Name,
				util.FormatPerUnit(rep.TapModule[ti]),
				util.FormatAngle(rep.TapAngle[ti]*consts.RAD2DEG))
		}
	}

	if len(rep.Events) > 0 {
		fmt.Println("\nSolver Events:")
		for _, ev := range rep.Events {
			fmt.Printf("  [%s] %s: %s\n", ev.Level, ev.Device, ev.Message)
		}
	}
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: powerflow [-options file.yaml] [-verbose] <case_file.json>")
	}

	opts := analysis.DefaultOptions()
	if *optionsPath != "" {
		var err error
		opts, err = gridfile.LoadOptions(*optionsPath)
		if err != nil {
			log.Fatalf("Error loading options: %v", err)
		}
	}
	if *verbose {
		opts.Verbose = true
	}

	ckt, err := gridfile.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("Error loading case: %v", err)
	}

	snap, err := ckt.Compile()
	if err != nil {
		log.Fatalf("Error compiling grid: %v", err)
	}

	pf := analysis.NewPowerFlow(opts)
	if err := pf.Setup(snap); err != nil {
		log.Fatalf("Power flow setup failed: %v", err)
	}
	if err := pf.Execute(); err != nil {
		log.Fatalf("Power flow execution failed: %v", err)
	}

	rep := pf.Results()
	printReport(rep)
	if !rep.Converged {
		fmt.Println("\nWARNING: power flow did not converge")
	}
}
