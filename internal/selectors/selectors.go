// Package selectors enumerates the closed set of per-family function-id
// selectors both the dry-run and sound-run syscall handler relays must
// agree on (spec.md §4.D/§4.E), grounded on
// cairo_vm_hints/src/syscall_handler/evm's per-module FunctionId enums. A
// selector outside the range named here is InvalidSyscallInput in both
// passes.
package selectors

// Account family selectors.
const (
	AccountNonce uint64 = iota
	AccountBalance
	AccountStateRoot
	AccountCodeHash
	accountCount
)

// AccountCount is the number of distinct Account selectors.
const AccountCount = int(accountCount)

// Header family selectors.
const (
	HeaderNumber uint64 = iota
	HeaderHash
	HeaderStateRoot
	HeaderParentHash
	headerCount
)

// HeaderCount is the number of distinct Header selectors.
const HeaderCount = int(headerCount)
