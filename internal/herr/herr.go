// Package herr defines the error-kind taxonomy shared across the orchestrator,
// fetcher, trie engine, and syscall handlers.
package herr

import "errors"

// Sentinel kinds. Wrap one of these with fmt.Errorf("...: %w", Kind) at the
// point an operation fails so callers can classify with errors.Is.
var (
	// Input marks a malformed or out-of-range request: bad flags, bad JSON,
	// a key outside the field's range.
	Input = errors.New("input error")

	// Fetch marks a failure talking to an external collaborator: RPC node,
	// indexer, or injected-state service.
	Fetch = errors.New("fetch error")

	// Witness marks a proof bundle that does not verify against its own
	// claimed roots (MMR inclusion, MPT inclusion, RLP decode mismatch).
	Witness = errors.New("witness error")

	// Trie marks a KV-trie engine failure: corrupt node, label conflict,
	// concurrent-writer violation.
	Trie = errors.New("trie error")

	// VM marks a failure reported by the external VM collaborator.
	VM = errors.New("vm error")

	// Consistency marks a dry-run/sound-run key-set mismatch: the sound run
	// needs a key the dry run never recorded, or the bundle loader could not
	// find a memorizer entry for a call the program actually made.
	Consistency = errors.New("consistency error")
)

// Is reports whether err was wrapped around one of the sentinel kinds above.
func Is(err error, kind error) bool {
	return errors.Is(err, kind)
}
