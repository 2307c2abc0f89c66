package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/dailab/elvis-go/internal/result"
	"github.com/dailab/elvis-go/internal/scenario"
	"github.com/dailab/elvis-go/internal/simulate"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli run --scenario scenario.yaml --out results/load_profile.csv --seed 42")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run simulates the scenario and writes a per-step load/storage CSV")
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	scenarioPath := fs.String("scenario", "", "Path to YAML scenario")
	outPath := fs.String("out", "results/load_profile.csv", "Output CSV path")
	seed := fs.Int64("seed", 0, "RNG seed (0 = scenario's seed, or time-seeded if that is also 0)")
	_ = fs.Parse(args)

	if *scenarioPath == "" {
		fmt.Println("--scenario is required")
		os.Exit(2)
	}

	s, err := scenario.Load(*scenarioPath)
	if err != nil {
		panic(err)
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = s.Seed
	}
	if runSeed == 0 {
		runSeed = time.Now().UnixNano()
	}

	asm, err := s.Build(rand.New(rand.NewSource(runSeed)))
	if err != nil {
		panic(err)
	}

	sim, err := simulate.New(asm.SimConfig)
	if err != nil {
		panic(err)
	}

	store, err := sim.Run(context.Background())
	if err != nil {
		panic(err)
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := result.WriteLoadProfileCSV(*outPath, store); err != nil {
		panic(err)
	}

	fmt.Printf("Wrote %d steps to %s\n", store.StepCount, *outPath)
	fmt.Printf("Total energy=%.3f kWh  Max load=%.3f kW  Simultaneity=%.3f  Rejections=%d\n",
		store.TotalEnergyKWh(), store.MaxLoad(), store.SimultaneityFactorMax(), store.Rejections)
}
