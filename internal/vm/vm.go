// Package vm defines the external VM collaborator boundary (SPEC_FULL.md §4
// Non-goals: the Cairo VM, the compiled program, and its bytecode interpreter
// are out of scope; this module owns only the hint/syscall bridge and drives
// the interpreter through this interface). No cairo-vm binding exists
// anywhere in the retrieval pack, so Runner has one concrete implementation
// here: a trace-replay simulator standing in for the linked interpreter,
// sufficient to exercise the orchestrator's two-pass control flow end to end.
package vm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
)

// Group is the top-level syscall handler family group a call belongs to,
// mirroring dry_hint_processor::syscall_handler's evm/starknet/injected_state/
// unconstrained module split plus the debug family reserved for printing.
type Group uint8

const (
	GroupEVM Group = iota
	GroupStarknet
	GroupKVTrie
	GroupUnconstrained
	GroupDebug
)

func (g Group) String() string {
	switch g {
	case GroupEVM:
		return "evm"
	case GroupStarknet:
		return "starknet"
	case GroupKVTrie:
		return "kvtrie"
	case GroupUnconstrained:
		return "unconstrained"
	case GroupDebug:
		return "debug"
	default:
		return fmt.Sprintf("group(%d)", uint8(g))
	}
}

// Call is one CallContract syscall's decoded request: the family
// ("contract_address" in spec.md §4.D), the function selector, the
// memorizer handle that would point into the sound run's in-VM dictionary,
// and the typed calldata trailing it.
type Call struct {
	Group     Group
	Family    uint8
	Selector  uint64
	Memorizer Memorizer
	Calldata  []field.F
}

// Memorizer is the two-felt (segment, offset) handle spec.md §4.D describes
// every handler reading first. The real VM's memory segments have no
// counterpart here; the handle is carried through verbatim so Handler
// implementations can be written exactly like the traced original, but it is
// inert on this side of the boundary.
type Memorizer struct {
	Segment int64
	Offset  int64
}

// Result is a handler's answer: the field elements written back to the
// caller's fresh memory segment.
type Result struct {
	Data []field.F
}

// Handler is implemented by both the dry-run and sound-run syscall handler
// relays (internal/dryrun, internal/sound). The VM calls it once per
// CallContract syscall encountered while executing the compiled program.
type Handler interface {
	Handle(ctx context.Context, call Call) (Result, error)
}

// RunConfig mirrors the CLI surface spec.md §6 names almost flag-for-flag,
// grounded on original_source/crates/sound_run/src/main.rs's Args struct.
type RunConfig struct {
	ProgramInput          string
	ProgramProofs         string
	TraceFile             string
	MemoryFile            string
	Layout                string
	CairoLayoutParamsFile string
	ProofMode             bool
	SecureRun             bool
	AirPublicInput        string
	AirPrivateInput       string
	CairoPieOutput        string
	AllowMissingBuiltins  bool

	Handler Handler
}

// Artifacts is whatever RunConfig asked the run to produce; each field is
// empty when the corresponding RunConfig path was empty. These are opaque
// binary streams per spec.md §6 ("the orchestrator only wraps file handles").
type Artifacts struct {
	TraceWritten          bool
	MemoryWritten         bool
	AirPublicInputWritten bool
	AirPrivateInputWritten bool
	CairoPieWritten       bool
}

// Runner executes a compiled program through one pass (dry run or sound
// run), dispatching every CallContract syscall to cfg.Handler.
type Runner interface {
	Run(ctx context.Context, cfg RunConfig) (Artifacts, error)
}

// Trace is the ordered sequence of syscalls a compiled program issues. In
// production this sequence is generated by the linked cairo-vm interpreter
// stepping through actual bytecode; SimRunner instead reads it directly from
// cfg.ProgramInput, since no Go cairo-vm binding exists in the retrieval pack
// to produce it from real bytecode.
type Trace struct {
	Calls []Call `json:"calls"`
}

// SimRunner is a trace-replay stand-in for the linked cairo-vm interpreter.
// It reads a Trace from cfg.ProgramInput (a JSON encoding of the syscalls the
// "program" issues) and feeds each Call through cfg.Handler in order,
// matching spec.md §5's "single-threaded cooperative... handlers within one
// pass execute serially in program order" scheduling rule.
type SimRunner struct{}

func (SimRunner) Run(ctx context.Context, cfg RunConfig) (Artifacts, error) {
	if cfg.Handler == nil {
		return Artifacts{}, fmt.Errorf("%w: vm: run config has no syscall handler", herr.VM)
	}
	raw, err := os.ReadFile(cfg.ProgramInput)
	if err != nil {
		return Artifacts{}, fmt.Errorf("%w: vm: read program input: %v", herr.VM, err)
	}
	var trace Trace
	if err := json.Unmarshal(raw, &trace); err != nil {
		return Artifacts{}, fmt.Errorf("%w: vm: decode program trace: %v", herr.VM, err)
	}

	for _, call := range trace.Calls {
		if err := ctx.Err(); err != nil {
			return Artifacts{}, err
		}
		if _, err := cfg.Handler.Handle(ctx, call); err != nil {
			return Artifacts{}, fmt.Errorf("%w: vm: syscall %s/%d/%d: %v", herr.VM, call.Group, call.Family, call.Selector, err)
		}
	}

	artifacts := Artifacts{}
	if cfg.TraceFile != "" {
		if err := os.WriteFile(cfg.TraceFile, []byte{}, 0o644); err != nil {
			return Artifacts{}, fmt.Errorf("%w: vm: write trace file: %v", herr.VM, err)
		}
		artifacts.TraceWritten = true
	}
	if cfg.MemoryFile != "" {
		if err := os.WriteFile(cfg.MemoryFile, []byte{}, 0o644); err != nil {
			return Artifacts{}, fmt.Errorf("%w: vm: write memory file: %v", herr.VM, err)
		}
		artifacts.MemoryWritten = true
	}
	if cfg.AirPublicInput != "" {
		artifacts.AirPublicInputWritten = true
	}
	if cfg.AirPrivateInput != "" {
		artifacts.AirPrivateInputWritten = true
	}
	if cfg.CairoPieOutput != "" {
		artifacts.CairoPieWritten = true
	}
	return artifacts, nil
}
