package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/dryrun"
	"github.com/hdp-go/hdp/internal/orchestrator"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"github.com/hdp-go/hdp/internal/trieservice"
	"github.com/hdp-go/hdp/internal/vm"
)

// main wires the two-pass orchestrator into a CLI flag surface grounded on
// original_source/cairo_vm_hints/src/main.rs's Args struct, adapted to the
// fields internal/vm.RunConfig actually carries.
func main() {
	chain := flag.String("chain", "ethereum-mainnet", "EVM chain this run resolves witnesses against")
	programInput := flag.String("program_input", "", "path to the compiled program's trace input (required)")
	programProofs := flag.String("program_proofs", "", "path to write the sound run's proof artifacts")
	traceFile := flag.String("trace_file", "", "path to write the sound run's execution trace")
	memoryFile := flag.String("memory_file", "", "path to write the sound run's memory dump")
	layout := flag.String("layout", "plain", "Cairo layout name")
	cairoLayoutParamsFile := flag.String("cairo_layout_params_file", "", "path to dynamic layout parameters (required if layout=dynamic)")
	proofMode := flag.Bool("proof_mode", false, "run with proof-mode bookkeeping enabled")
	secureRun := flag.Bool("secure_run", true, "run with the secure-run builtin checks enabled")
	airPublicInput := flag.String("air_public_input", "", "path to write the AIR public input (requires proof_mode)")
	airPrivateInput := flag.String("air_private_input", "", "path to write the AIR private input (requires proof_mode, trace_file, memory_file)")
	cairoPieOutput := flag.String("cairo_pie_output", "", "path to write a Cairo PIE instead of trace/memory (conflicts with proof_mode/air_public_input/air_private_input)")
	allowMissingBuiltins := flag.Bool("allow_missing_builtins", false, "tolerate a program that references an unlisted builtin")
	flag.Parse()

	if *programInput == "" {
		log.Fatalf("orchestrator: -program_input is required")
	}
	if *layout == "dynamic" && *cairoLayoutParamsFile == "" {
		log.Fatalf("orchestrator: -cairo_layout_params_file is required when -layout=dynamic")
	}
	if *proofMode {
		if *airPublicInput == "" {
			log.Fatalf("orchestrator: -air_public_input is required when -proof_mode is set")
		}
	} else if *airPublicInput != "" || *airPrivateInput != "" {
		log.Fatalf("orchestrator: -air_public_input/-air_private_input require -proof_mode")
	}
	if *airPrivateInput != "" && (*traceFile == "" || *memoryFile == "") {
		log.Fatalf("orchestrator: -air_private_input requires -trace_file and -memory_file")
	}
	if *cairoPieOutput != "" && (*proofMode || *airPublicInput != "" || *airPrivateInput != "") {
		log.Fatalf("orchestrator: -cairo_pie_output conflicts with -proof_mode/-air_public_input/-air_private_input")
	}

	chainID, err := chainid.Parse(*chain)
	if err != nil {
		log.Fatalf("orchestrator: %v", err)
	}

	evmRPC := mustEnv("RPC_URL_ETHEREUM")
	starknetRPC := mustEnv("RPC_URL_STARKNET")
	_ = mustEnv("RPC_URL_OPTIMISM") // validated for completeness; this run targets one EVM chain at a time
	indexerURL := mustEnv("INDEXER_URL")
	stateBaseURL := mustEnv("INJECTED_STATE_BASE_URL")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	evmClient, err := rpcclient.DialEVM(ctx, evmRPC)
	if err != nil {
		log.Fatalf("orchestrator: dial evm: %v", err)
	}
	defer evmClient.Close()

	starknetClient, err := rpcclient.DialStarknet(ctx, starknetRPC)
	if err != nil {
		log.Fatalf("orchestrator: dial starknet: %v", err)
	}
	defer starknetClient.Close()

	indexerClient := rpcclient.NewIndexerClient(indexerURL)
	trieClient := dryrun.NewHTTPTrieClient(stateBaseURL)
	trieBulk := trieservice.NewClient(stateBaseURL)

	o := orchestrator.New(chainID, evmClient, starknetClient, indexerClient, trieClient, trieBulk, vm.SimRunner{})

	cfg := vm.RunConfig{
		ProgramInput:          *programInput,
		ProgramProofs:         *programProofs,
		TraceFile:             *traceFile,
		MemoryFile:            *memoryFile,
		Layout:                *layout,
		CairoLayoutParamsFile: *cairoLayoutParamsFile,
		ProofMode:             *proofMode,
		SecureRun:             *secureRun,
		AirPublicInput:        *airPublicInput,
		AirPrivateInput:       *airPrivateInput,
		CairoPieOutput:        *cairoPieOutput,
		AllowMissingBuiltins:  *allowMissingBuiltins,
	}

	artifacts, err := o.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("orchestrator: %v", err)
	}
	log.Printf("orchestrator: done: trace=%v memory=%v air_public_input=%v air_private_input=%v cairo_pie=%v",
		artifacts.TraceWritten, artifacts.MemoryWritten, artifacts.AirPublicInputWritten, artifacts.AirPrivateInputWritten, artifacts.CairoPieWritten)
}

func mustEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		log.Fatalf("orchestrator: required environment variable %s is not set", name)
	}
	return v
}
