// Package chains maps human network names to chain IDs and RPC endpoints for
// the EVM networks the aggregator supports.
package chains

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultNetwork = "base"
	DefaultChainID = int64(8453)
)

var networkNameMap = map[string]int64{
	"mainnet":  1,
	"ethereum": 1,
	"optimism": 10,
	"xlayer":   196,
	"base":     8453,
}

var chainNameMap = map[int64]string{
	1:    "Ethereum",
	10:   "Optimism",
	196:  "X Layer",
	8453: "Base",
}

var rpcURLMap = map[int64]string{
	1:    "https://eth.llamarpc.com",
	10:   "https://mainnet.optimism.io",
	196:  "https://rpc.xlayer.tech",
	8453: "https://mainnet.base.org",
}

// ResolveChainID resolves a network name or numeric chain ID string.
func ResolveChainID(network string) (int64, error) {
	name := strings.ToLower(strings.TrimSpace(network))
	if name == "" {
		return DefaultChainID, nil
	}
	if id, ok := networkNameMap[name]; ok {
		return id, nil
	}
	if id, err := strconv.ParseInt(name, 10, 64); err == nil {
		if _, ok := chainNameMap[id]; ok {
			return id, nil
		}
		return 0, fmt.Errorf("unsupported chain ID: %d", id)
	}
	return 0, fmt.Errorf("unsupported network: %s", network)
}

// Name returns a display name for a chain ID.
func Name(chainID int64) string {
	if name, ok := chainNameMap[chainID]; ok {
		return name
	}
	return fmt.Sprintf("Chain %d", chainID)
}

// RPCURL returns the RPC endpoint for a chain ID, falling back to the default
// network's endpoint.
func RPCURL(chainID int64) string {
	if url, ok := rpcURLMap[chainID]; ok {
		return url
	}
	return rpcURLMap[DefaultChainID]
}

// IsSupported reports whether a chain ID is a known network.
func IsSupported(chainID int64) bool {
	_, ok := chainNameMap[chainID]
	return ok
}

// SupportedNetworks lists the canonical network names.
func SupportedNetworks() []string {
	names := make([]string, 0, len(networkNameMap))
	for name := range networkNameMap {
		if name == "ethereum" {
			continue // alias of mainnet
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
