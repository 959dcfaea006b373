// Package orchestrator is the two-pass driver: a dry run discovers which
// witnesses a program needs, a fetch phase resolves and verifies them into
// an immutable bundle, and a sound run replays the same program against a
// memorizer seeded from that bundle. Grounded on
// original_source/cairo_vm_hints/src/main.rs's run() sequencing (build
// config, execute, write artifacts) and crates/dry_hint_processor /
// crates/sound_hint_processor's two-pass split.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/hdp-go/hdp/internal/bundle"
	"github.com/hdp-go/hdp/internal/chainid"
	"github.com/hdp-go/hdp/internal/dryrun"
	"github.com/hdp-go/hdp/internal/field"
	"github.com/hdp-go/hdp/internal/herr"
	"github.com/hdp-go/hdp/internal/rpcclient"
	"github.com/hdp-go/hdp/internal/sound"
	"github.com/hdp-go/hdp/internal/syscallkey"
	"github.com/hdp-go/hdp/internal/trieservice"
	"github.com/hdp-go/hdp/internal/vm"
	"github.com/hdp-go/hdp/internal/witness"
)

// Orchestrator owns every external collaborator handle the two passes need
// and holds the bundle immutably between them: a bundle is produced
// exclusively by the fetch phase, then held immutably across the sound run.
type Orchestrator struct {
	ChainID  chainid.ID
	EVM      rpcclient.EVMClient
	Starknet rpcclient.StarknetClient
	Indexer  rpcclient.IndexerClient
	Trie     dryrun.TrieClient
	TrieBulk *trieservice.Client
	Runner   vm.Runner
}

// New builds an Orchestrator ready to drive one program through both passes.
func New(chain chainid.ID, evm rpcclient.EVMClient, starknet rpcclient.StarknetClient, indexer rpcclient.IndexerClient, trie dryrun.TrieClient, trieBulk *trieservice.Client, runner vm.Runner) *Orchestrator {
	return &Orchestrator{
		ChainID:  chain,
		EVM:      evm,
		Starknet: starknet,
		Indexer:  indexer,
		Trie:     trie,
		TrieBulk: trieBulk,
		Runner:   runner,
	}
}

// Run drives cfg's program through the dry run, fetch, and sound run phases
// in sequence and returns the sound run's artifacts. A running pass is not
// interrupted mid-flight once started; ctx only governs the collaborator
// calls within each phase, mirroring the Fetcher's own cancellable fan-out.
func (o *Orchestrator) Run(ctx context.Context, cfg vm.RunConfig) (vm.Artifacts, error) {
	dryHandler := dryrun.NewCallContractHandler(o.EVM, o.Starknet, o.Trie)
	dryCfg := cfg
	dryCfg.Handler = dryHandler
	dryCfg.TraceFile = ""
	dryCfg.MemoryFile = ""
	dryCfg.AirPublicInput = ""
	dryCfg.AirPrivateInput = ""
	dryCfg.CairoPieOutput = ""

	if _, err := o.Runner.Run(ctx, dryCfg); err != nil {
		return vm.Artifacts{}, fmt.Errorf("orchestrator: dry run: %w", err)
	}

	b, err := o.fetchBundle(ctx, dryHandler)
	if err != nil {
		return vm.Artifacts{}, err
	}

	records, err := b.Verify()
	if err != nil {
		return vm.Artifacts{}, fmt.Errorf("orchestrator: verify bundle: %w", err)
	}

	mem := sound.NewMemorizer()
	for _, rec := range records {
		mem.Put(rec.Key, rec.Value)
	}

	soundCfg := cfg
	soundCfg.Handler = sound.NewCallContractHandler(mem, o.EVM)

	artifacts, err := o.Runner.Run(ctx, soundCfg)
	if err != nil {
		return vm.Artifacts{}, fmt.Errorf("orchestrator: sound run: %w", err)
	}
	return artifacts, nil
}

// fetchBundle resolves the EVM witnesses (via the indexer-backed Fetcher),
// the Starknet witnesses (resolved directly, not through the EVM Fetcher,
// since Starknet's field-packed headers and starknet_getStorageProof
// responses share none of the EVM Fetcher's RLP-decode pipeline), and the
// KV-trie state proofs (one /get_state_proofs batch replaying every staged
// write and forwarded read the dry run logged) into one Bundle.
func (o *Orchestrator) fetchBundle(ctx context.Context, dryHandler *dryrun.CallContractHandler) (bundle.Bundle, error) {
	fetcher := &witness.Fetcher{EVM: o.EVM, Indexer: o.Indexer}
	evmBundle, err := fetcher.Collect(ctx, dryHandler.Keys.ToRequestKeys())
	if err != nil {
		return bundle.Bundle{}, fmt.Errorf("orchestrator: collect evm witnesses: %w", err)
	}

	starknetHeaders, starknetStorages, err := o.fetchStarknet(ctx, dryHandler.Keys.Keys())
	if err != nil {
		return bundle.Bundle{}, fmt.Errorf("orchestrator: collect starknet witnesses: %w", err)
	}

	trieProofs, err := o.fetchTrieProofs(ctx, dryHandler.WriteLog(), dryHandler.ReadLog())
	if err != nil {
		return bundle.Bundle{}, fmt.Errorf("orchestrator: collect trie proofs: %w", err)
	}

	return bundle.Assemble(o.ChainID, evmBundle, starknetHeaders, starknetStorages, trieProofs), nil
}

// fetchStarknet replays every Starknet-family key the dry run recorded
// against the live Starknet RPC endpoint, matching family.StarknetHeader's
// and family.StarknetStorage's own resolution exactly (state root as the
// header's value, global_roots as the storage slot's value) so the sound
// run's memorizer lookup sees the identical value the dry run would have.
func (o *Orchestrator) fetchStarknet(ctx context.Context, keys []syscallkey.Key) ([]bundle.StarknetHeaderWitness, []bundle.StarknetStorageWitness, error) {
	var headers []bundle.StarknetHeaderWitness
	var storages []bundle.StarknetStorageWitness

	for _, k := range keys {
		switch k.Kind {
		case syscallkey.KindStarknetHeader:
			h, err := o.Starknet.BlockWithTxHashes(ctx, k.StarknetHeader.BlockNumber)
			if err != nil {
				return nil, nil, err
			}
			root, err := field.ParseHex(h.NewRoot)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: orchestrator: starknet header root: %v", herr.Witness, err)
			}
			headers = append(headers, bundle.StarknetHeaderWitness{
				ChainID:     k.StarknetHeader.ChainID,
				BlockNumber: k.StarknetHeader.BlockNumber,
				NewRoot:     root,
			})
		case syscallkey.KindStarknetStorage:
			sk := k.StarknetStorage
			proof, err := o.Starknet.StorageProof(ctx, sk.BlockNumber, sk.Contract.String(), sk.Slot.String())
			if err != nil {
				return nil, nil, err
			}
			value, err := field.ParseHex(proof.GlobalRoots)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: orchestrator: starknet storage value: %v", herr.Witness, err)
			}
			storages = append(storages, bundle.StarknetStorageWitness{
				ChainID:     sk.ChainID,
				BlockNumber: sk.BlockNumber,
				Contract:    sk.Contract,
				Slot:        sk.Slot,
				Value:       value,
			})
		}
	}
	return headers, storages, nil
}

// fetchTrieProofs replays the dry run's staged writes and forwarded reads
// through the trie service's batch endpoint as one batch: every write first,
// then every read, each group in its logged order, so the service's in-order
// execute-then-revert semantics
// (internal/kvtrie/service's handleGetStateProofs) reproduce the exact
// pre-image the sound run's KV-trie family handlers will see.
func (o *Orchestrator) fetchTrieProofs(ctx context.Context, writes []dryrun.TrieWrite, reads []dryrun.TrieRead) ([]bundle.TrieStateProof, error) {
	if len(writes) == 0 && len(reads) == 0 {
		return nil, nil
	}

	actions := make([]trieservice.Action, 0, len(writes)+len(reads))
	for _, w := range writes {
		actions = append(actions, trieservice.Action{Kind: "write", TrieLabel: w.Label, TrieRoot: w.TrieRoot, Key: w.Key, Value: w.Value})
	}
	for _, r := range reads {
		actions = append(actions, trieservice.Action{Kind: "read", TrieLabel: r.Label, TrieRoot: r.TrieRoot, Key: r.Key})
	}

	proofs, err := o.TrieBulk.GetStateProofs(ctx, actions)
	if err != nil {
		return nil, err
	}

	out := make([]bundle.TrieStateProof, len(proofs))
	for i, p := range proofs {
		out[i] = bundle.TrieStateProof{
			Kind:      p.Kind,
			TrieLabel: p.TrieLabel,
			Proof:     p.Proof,
			PrevValue: p.PrevValue,
			NewValue:  p.NewValue,
		}
	}
	return out, nil
}
