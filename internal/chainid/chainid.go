// Package chainid enumerates the closed set of chains this system answers
// queries about, and the RPC endpoint environment variable each one selects.
package chainid

import "fmt"

// ID is a chain identity, spec.md §3's "chain_id: u128" restricted to the
// closed set of supported chains. Represented as a small enum rather than a
// raw u128 so an unsupported value is caught at decode time, not deep inside
// a handler.
type ID uint8

const (
	EthereumMainnet ID = iota
	EthereumTestnet
	StarknetMainnet
	StarknetTestnet
	OptimismMainnet
	OptimismTestnet
)

// EnvVar returns the environment variable that supplies this chain's RPC
// endpoint, per spec.md §6.
func (id ID) EnvVar() (string, error) {
	switch id {
	case EthereumMainnet, EthereumTestnet:
		return "RPC_URL_ETHEREUM", nil
	case StarknetMainnet, StarknetTestnet:
		return "RPC_URL_STARKNET", nil
	case OptimismMainnet, OptimismTestnet:
		return "RPC_URL_OPTIMISM", nil
	default:
		return "", fmt.Errorf("chainid: unknown chain %d", id)
	}
}

// IsStarknet reports whether id belongs to the Starknet family, which uses a
// field-packed header representation and starknet_getStorageProof instead of
// eth_getProof.
func (id ID) IsStarknet() bool {
	return id == StarknetMainnet || id == StarknetTestnet
}

// Parse inverts String, for CLI flags and config files that name a chain by
// its string identifier.
func Parse(s string) (ID, error) {
	switch s {
	case "ethereum-mainnet":
		return EthereumMainnet, nil
	case "ethereum-testnet":
		return EthereumTestnet, nil
	case "starknet-mainnet":
		return StarknetMainnet, nil
	case "starknet-testnet":
		return StarknetTestnet, nil
	case "optimism-mainnet":
		return OptimismMainnet, nil
	case "optimism-testnet":
		return OptimismTestnet, nil
	default:
		return 0, fmt.Errorf("chainid: unknown chain %q", s)
	}
}

func (id ID) String() string {
	switch id {
	case EthereumMainnet:
		return "ethereum-mainnet"
	case EthereumTestnet:
		return "ethereum-testnet"
	case StarknetMainnet:
		return "starknet-mainnet"
	case StarknetTestnet:
		return "starknet-testnet"
	case OptimismMainnet:
		return "optimism-mainnet"
	case OptimismTestnet:
		return "optimism-testnet"
	default:
		return fmt.Sprintf("chainid(%d)", uint8(id))
	}
}
